package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// SpecFile is the root of a JSON API specification manifest.
type SpecFile struct {
	Language   string          `json:"language"`
	Namespaces []SpecNamespace `json:"namespaces"`
}

// SpecNamespace groups classes and free functions.
type SpecNamespace struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Classes     []SpecClass  `json:"classes"`
	Functions   []SpecMethod `json:"functions"`
}

// SpecClass describes one class and its methods.
type SpecClass struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Constructor *SpecMethod  `json:"constructor,omitempty"`
	Methods     []SpecMethod `json:"methods"`
	Deprecated  bool         `json:"deprecated,omitempty"`
}

// SpecMethod describes one method or function entry.
type SpecMethod struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Signature   string        `json:"signature"`
	Parameters  []SpecParam   `json:"parameters"`
	Returns     []SpecParam   `json:"returns"`
	Examples    []SpecExample `json:"examples"`
	Errors      []SpecError   `json:"errors,omitempty"`
	Deprecated  bool          `json:"deprecated,omitempty"`
	Internal    bool          `json:"internal,omitempty"`
}

// SpecParam describes a parameter or return value in the manifest.
type SpecParam struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// SpecExample is a documented usage snippet in the manifest.
type SpecExample struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

// SpecError is a documented failure mode and its recommended handling.
type SpecError struct {
	Type    string `json:"type"`
	Handler string `json:"handler"`
}

// LoadSpecFile reads and decodes one JSON manifest. A file that fails to
// decode is an input error for the whole file; per-item problems are
// reported by NormalizeSpec instead.
func LoadSpecFile(path string) (*SpecFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}

	var spec SpecFile
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, &types.NormalizationError{SourceFile: path, Reason: err}
	}

	return &spec, nil
}
