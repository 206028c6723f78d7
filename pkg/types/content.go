package types

import (
	"strings"
	"unicode"
)

// ContentType classifies a normalized source item.
type ContentType string

const (
	ContentClass    ContentType = "class"
	ContentMethod   ContentType = "method"
	ContentFunction ContentType = "function"
	ContentGuide    ContentType = "guide"
	ContentTutorial ContentType = "tutorial"
)

// Importance expresses how central an API item is to typical usage.
// Ranking uses it to break ties between equally scored results.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// Rank returns a numeric weight for tie-breaking, higher is more important.
func (i Importance) Rank() int {
	switch i {
	case ImportanceCritical:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

// Example is one documented usage sample attached to a source item.
type Example struct {
	Title       string
	Explanation string
	Code        string
	Language    string
}

// Param describes one parameter or return value.
type Param struct {
	Name        string
	Description string
	Type        string
}

// ContentMetadata is the uniform metadata carried by every normalized item.
type ContentMetadata struct {
	Type       ContentType
	Namespace  string
	ClassName  string
	MethodName string
	Language   string
	Importance Importance
	Tags       []string
	SourceFile string
}

// ParsedContent is the canonical unit produced by ingestion and consumed by
// chunking. It is created once per source item and never mutated afterwards.
type ParsedContent struct {
	Name        string
	Description string
	Content     string
	Examples    []Example
	Parameters  []Param
	Returns     []Param
	Errors      []ErrorPattern
	Metadata    ContentMetadata
}

// Key returns the lookup key used by the relationship graph:
// "Namespace.Name" for namespaced items, bare Name otherwise.
func (p *ParsedContent) Key() string {
	if p.Metadata.Namespace != "" {
		return p.Metadata.Namespace + "." + p.Name
	}
	return p.Name
}

// Validate checks the invariants every normalized item must satisfy.
func (p *ParsedContent) Validate() error {
	if p.Name == "" {
		return ErrMissingName
	}
	if p.Metadata.Type == "" {
		return ErrMissingType
	}
	if p.Metadata.Namespace == "" {
		return ErrMissingNamespace
	}
	return nil
}

// NameTokens splits an identifier into lower-cased tokens, breaking on
// camelCase boundaries and common separators. Used for tag enhancement and
// lexical title matching.
func NameTokens(name string) []string {
	if name == "" {
		return nil
	}

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}
