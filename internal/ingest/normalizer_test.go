package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

func sampleSpec() *SpecFile {
	return &SpecFile{
		Language: "cpp",
		Namespaces: []SpecNamespace{
			{
				Name:        "Core",
				Description: "Core runtime services.",
				Classes: []SpecClass{
					{
						Name:        "Client",
						Description: "SDK entry point.",
						Constructor: &SpecMethod{
							Name:        "Client",
							Description: "Constructs a client.",
							Signature:   "Client(Config config)",
						},
						Methods: []SpecMethod{
							{
								Name:        "connect",
								Description: "Opens a session.",
								Signature:   "Session connect()",
								Returns: []SpecParam{
									{Name: "session", Type: "Session", Description: "Active session."},
								},
								Errors: []SpecError{
									{Type: "ConnectionRefused", Handler: "retry with backoff"},
								},
							},
							{
								Name:        "getVersion",
								Description: "Returns the SDK version.",
								Signature:   "string getVersion()",
							},
							{
								Name:        "legacyPoll",
								Description: "Old polling API.",
								Signature:   "void legacyPoll()",
								Deprecated:  true,
							},
						},
					},
				},
				Functions: []SpecMethod{
					{
						Name:        "shutdown",
						Description: "Tears down the runtime.",
						Signature:   "void shutdown()",
					},
				},
			},
		},
	}
}

func TestNormalizeSpecProducesAllItems(t *testing.T) {
	n := NewNormalizer()
	items, errs := n.NormalizeSpec(sampleSpec(), "sdk-spec.json")
	require.Empty(t, errs)

	// Class, constructor, three methods, one free function.
	require.Len(t, items, 6)

	// Class and constructor share the key Core.Client, so index by type too.
	byKey := make(map[string]types.ParsedContent)
	for _, it := range items {
		byKey[it.Key()+"/"+string(it.Metadata.Type)] = it
	}

	cls := byKey["Core.Client/class"]
	assert.Equal(t, types.ContentClass, cls.Metadata.Type)
	assert.Contains(t, cls.Content, "Methods: connect, getVersion, legacyPoll")

	ctor := byKey["Core.Client/method"]
	assert.Equal(t, types.ContentMethod, ctor.Metadata.Type)
	assert.Equal(t, types.ImportanceCritical, ctor.Metadata.Importance)

	connect := byKey["Core.connect/method"]
	assert.Equal(t, types.ContentMethod, connect.Metadata.Type)
	assert.Equal(t, "Client", connect.Metadata.ClassName)
	assert.Contains(t, connect.Content, "Signature: Session connect()")
	assert.Contains(t, connect.Content, "Returns:")
	require.Len(t, connect.Errors, 1)
	assert.Equal(t, "ConnectionRefused", connect.Errors[0].ErrorType)

	fn := byKey["Core.shutdown/function"]
	assert.Equal(t, types.ContentFunction, fn.Metadata.Type)
	assert.Empty(t, fn.Metadata.MethodName)
}

func TestNormalizeSpecImportanceRanking(t *testing.T) {
	n := NewNormalizer()
	items, errs := n.NormalizeSpec(sampleSpec(), "sdk-spec.json")
	require.Empty(t, errs)

	importance := make(map[string]types.Importance)
	for _, it := range items {
		importance[it.Name+"/"+string(it.Metadata.Type)] = it.Metadata.Importance
	}

	assert.Equal(t, types.ImportanceCritical, importance["Client/method"], "constructors rank critical")
	assert.Equal(t, types.ImportanceCritical, importance["connect/method"])
	assert.Equal(t, types.ImportanceMedium, importance["getVersion/method"])
	assert.Equal(t, types.ImportanceLow, importance["legacyPoll/method"], "deprecated ranks low")
}

func TestNormalizeSpecSkipsInvalidItems(t *testing.T) {
	spec := &SpecFile{
		Language: "cpp",
		Namespaces: []SpecNamespace{
			{Name: "", Description: "anonymous"},
			{
				Name: "Valid",
				Classes: []SpecClass{
					{Name: "", Description: "anonymous class"},
					{Name: "Kept", Description: "survives"},
				},
			},
		},
	}

	n := NewNormalizer()
	items, errs := n.NormalizeSpec(spec, "sdk-spec.json")
	require.Len(t, errs, 2)
	require.Len(t, items, 1)
	assert.Equal(t, "Kept", items[0].Name)
}

func TestNormalizeSpecTagsNeverEmpty(t *testing.T) {
	n := NewNormalizer()
	items, errs := n.NormalizeSpec(sampleSpec(), "sdk-spec.json")
	require.Empty(t, errs)

	for _, it := range items {
		assert.NotEmpty(t, it.Metadata.Tags, "item %s", it.Key())
	}

	byKey := make(map[string]types.ParsedContent)
	for _, it := range items {
		byKey[it.Key()] = it
	}
	// camelCase names tokenize into tags.
	assert.Contains(t, byKey["Core.getVersion"].Metadata.Tags, "version")
	assert.Contains(t, byKey["Core.getVersion"].Metadata.Tags, "core")
}

func TestLoadSpecFileErrors(t *testing.T) {
	_, err := LoadSpecFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadSpecFile(bad)
	require.Error(t, err)

	var normErr *types.NormalizationError
	assert.ErrorAs(t, err, &normErr)
}
