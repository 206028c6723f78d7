package relationship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

func item(name, namespace, className, description string) types.ParsedContent {
	return types.ParsedContent{
		Name:        name,
		Description: description,
		Content:     description,
		Metadata: types.ContentMetadata{
			Type:       types.ContentMethod,
			Namespace:  namespace,
			ClassName:  className,
			Importance: types.ImportanceMedium,
			SourceFile: "sdk-spec.json",
		},
	}
}

func sdkFixture() []types.ParsedContent {
	setup := item("setup", "Core", "Client", "Initializes the SDK connection to the server.")
	setup.Metadata.Importance = types.ImportanceCritical

	connect := item("connect", "Core", "Client", "Opens a session with the remote endpoint.")

	createThread := item("createThread", "Threads", "ThreadManager", "Creates a worker thread. Requires setup() before use.")
	createThread.Parameters = []types.Param{
		{Name: "session", Type: "Session", Description: "Active session handle."},
		{Name: "priority", Type: "int", Description: "Scheduling priority."},
	}
	createThread.Errors = []types.ErrorPattern{
		{ErrorType: "ThreadLimitExceeded", Handler: "reduce pool size or join finished threads"},
	}
	createThread.Examples = []types.Example{
		{
			Title:    "Spawn and join",
			Language: "cpp",
			Code:     "setup();\nauto t = createThread(session, 1);\njoinAll();\n",
		},
	}

	joinAll := item("joinAll", "Threads", "ThreadManager", "Waits for every worker thread to finish.")
	joinAll.Parameters = []types.Param{
		{Name: "thread", Type: "Thread", Description: "Thread handle to wait on."},
	}

	return []types.ParsedContent{setup, connect, createThread, joinAll}
}

func TestPrerequisitesFromResourceConventions(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(sdkFixture())

	prereqs := a.GetPrerequisites("createThread")
	require.NotEmpty(t, prereqs)
	// createThread takes a session; connect opens one, setup initializes
	// the connection. Both should surface as prerequisites.
	assert.Contains(t, prereqs, "Core.connect")
	assert.Contains(t, prereqs, "Core.setup")
	assert.NotContains(t, prereqs, "Threads.createThread")
}

func TestPrerequisitesTransitThroughProducedResources(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(sdkFixture())

	// joinAll consumes a thread; createThread produces one.
	prereqs := a.GetPrerequisites("Threads.joinAll")
	assert.Contains(t, prereqs, "Threads.createThread")
}

func TestDeclaredPrerequisiteWins(t *testing.T) {
	handshake := item("handshake", "Core", "Client", "Performs the wire handshake. Call setup() first.")
	setup := item("setup", "Core", "Client", "Initializes the client.")

	a := NewAnalyzer()
	a.Analyze([]types.ParsedContent{setup, handshake})

	assert.Contains(t, a.GetPrerequisites("handshake"), "Core.setup")
}

func TestErrorPatterns(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(sdkFixture())

	patterns := a.GetErrorPatterns("createThread")
	require.Len(t, patterns, 1)
	assert.Equal(t, "ThreadLimitExceeded", patterns[0].ErrorType)

	assert.Empty(t, a.GetErrorPatterns("setup"))
}

func TestCommonPatternsAndUsageFromExamples(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(sdkFixture())

	graph := a.Graph()
	pattern := graph.CommonPatterns["Threads.createThread"]
	require.NotEmpty(t, pattern)
	assert.Equal(t, []string{"setup", "createThread", "joinAll"}, pattern)

	assert.Equal(t, 1, graph.UsageFrequency["Core.setup"])
	assert.Equal(t, 1, graph.UsageFrequency["Threads.joinAll"])
}

func TestGetRelatedCoversClassAndExamples(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(sdkFixture())

	related := a.GetRelated("Threads.createThread")
	assert.Contains(t, related, "Threads.joinAll") // same class
	assert.Contains(t, related, "Core.setup")      // example co-occurrence
}

func TestWorkflowSuggestionsOrdering(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(sdkFixture())

	steps := a.WorkflowSuggestions("create a worker thread")
	require.NotEmpty(t, steps)

	methods := make([]string, len(steps))
	position := make(map[string]int)
	for i, s := range steps {
		methods[i] = s.Method
		position[s.Method] = i
	}

	assert.Contains(t, methods, "Threads.createThread")
	require.Contains(t, methods, "Core.setup")
	assert.Less(t, position["Core.setup"], position["Threads.createThread"],
		"prerequisites come before the target")
	if idx, ok := position["Threads.joinAll"]; ok {
		assert.Greater(t, idx, position["Threads.createThread"],
			"example follow-ups come after the target")
	}
}

func TestWorkflowSuggestionsUnknownGoal(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(sdkFixture())

	assert.Nil(t, a.WorkflowSuggestions("quantum entanglement"))
}

func TestClearResetsState(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(sdkFixture())
	require.NotEmpty(t, a.GetPrerequisites("createThread"))

	a.Clear()
	assert.Empty(t, a.GetPrerequisites("createThread"))
	assert.Empty(t, a.Graph().UsageFrequency)
}
