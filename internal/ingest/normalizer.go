package ingest

import (
	"fmt"
	"strings"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// Normalizer converts raw source units into canonical ParsedContent records.
// It is a pure transformation: no I/O beyond what the Load* helpers already
// performed, deterministic output for identical input.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeSpec converts a decoded manifest into ParsedContent records.
// Structurally invalid items are skipped and reported in the returned error
// slice; the caller decides whether to abort the run.
func (n *Normalizer) NormalizeSpec(spec *SpecFile, sourceFile string) ([]types.ParsedContent, []error) {
	var items []types.ParsedContent
	var errs []error

	for i := range spec.Namespaces {
		ns := &spec.Namespaces[i]
		if ns.Name == "" {
			errs = append(errs, &types.NormalizationError{
				SourceFile: sourceFile,
				Reason:     fmt.Errorf("namespace %d: %w", i, types.ErrMissingName),
			})
			continue
		}

		for j := range ns.Classes {
			cls := &ns.Classes[j]
			item, err := n.normalizeClass(cls, ns, spec.Language, sourceFile)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			items = append(items, item)

			if cls.Constructor != nil {
				ctor, err := n.normalizeMethod(cls.Constructor, ns, cls.Name, spec.Language, sourceFile, true)
				if err != nil {
					errs = append(errs, err)
				} else {
					items = append(items, ctor)
				}
			}

			for k := range cls.Methods {
				m, err := n.normalizeMethod(&cls.Methods[k], ns, cls.Name, spec.Language, sourceFile, false)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				items = append(items, m)
			}
		}

		for j := range ns.Functions {
			fn, err := n.normalizeFunction(&ns.Functions[j], ns, spec.Language, sourceFile)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			items = append(items, fn)
		}
	}

	return items, errs
}

func (n *Normalizer) normalizeClass(cls *SpecClass, ns *SpecNamespace, language, sourceFile string) (types.ParsedContent, error) {
	if cls.Name == "" {
		return types.ParsedContent{}, &types.NormalizationError{
			SourceFile: sourceFile,
			Reason:     fmt.Errorf("class in namespace %s: %w", ns.Name, types.ErrMissingName),
		}
	}

	methodNames := make([]string, 0, len(cls.Methods))
	for i := range cls.Methods {
		methodNames = append(methodNames, cls.Methods[i].Name)
	}

	var body strings.Builder
	body.WriteString(cls.Description)
	if len(methodNames) > 0 {
		body.WriteString("\n\nMethods: ")
		body.WriteString(strings.Join(methodNames, ", "))
	}

	importance := types.ImportanceHigh
	if cls.Deprecated {
		importance = types.ImportanceLow
	}

	item := types.ParsedContent{
		Name:        cls.Name,
		Description: cls.Description,
		Content:     body.String(),
		Metadata: types.ContentMetadata{
			Type:       types.ContentClass,
			Namespace:  ns.Name,
			ClassName:  cls.Name,
			Language:   language,
			Importance: importance,
			SourceFile: sourceFile,
		},
	}
	item.Metadata.Tags = enhanceTags(nil, item.Name, ns.Name)
	return item, nil
}

func (n *Normalizer) normalizeMethod(m *SpecMethod, ns *SpecNamespace, className, language, sourceFile string, constructor bool) (types.ParsedContent, error) {
	if m.Name == "" {
		return types.ParsedContent{}, &types.NormalizationError{
			SourceFile: sourceFile,
			Reason:     fmt.Errorf("method of %s.%s: %w", ns.Name, className, types.ErrMissingName),
		}
	}

	item := types.ParsedContent{
		Name:        m.Name,
		Description: m.Description,
		Content:     renderMethodBody(m),
		Examples:    convertExamples(m.Examples),
		Parameters:  convertParams(m.Parameters),
		Returns:     convertParams(m.Returns),
		Errors:      convertErrors(m.Errors),
		Metadata: types.ContentMetadata{
			Type:       types.ContentMethod,
			Namespace:  ns.Name,
			ClassName:  className,
			MethodName: m.Name,
			Language:   language,
			Importance: classifyImportance(m, constructor),
			SourceFile: sourceFile,
		},
	}
	item.Metadata.Tags = enhanceTags(nil, item.Name, ns.Name)
	return item, nil
}

func (n *Normalizer) normalizeFunction(fn *SpecMethod, ns *SpecNamespace, language, sourceFile string) (types.ParsedContent, error) {
	item, err := n.normalizeMethod(fn, ns, "", language, sourceFile, false)
	if err != nil {
		return item, err
	}
	item.Metadata.Type = types.ContentFunction
	item.Metadata.MethodName = ""
	return item, nil
}

// renderMethodBody generates the prose body indexed for a method: the
// description followed by signature, parameter and return documentation,
// then each example with its explanation and code.
func renderMethodBody(m *SpecMethod) string {
	var b strings.Builder

	b.WriteString(m.Description)

	if m.Signature != "" {
		b.WriteString("\n\nSignature: ")
		b.WriteString(m.Signature)
	}

	if len(m.Parameters) > 0 {
		b.WriteString("\n\nParameters:")
		for _, p := range m.Parameters {
			fmt.Fprintf(&b, "\n- %s (%s): %s", p.Name, p.Type, p.Description)
		}
	}

	if len(m.Returns) > 0 {
		b.WriteString("\n\nReturns:")
		for _, r := range m.Returns {
			fmt.Fprintf(&b, "\n- %s (%s): %s", r.Name, r.Type, r.Description)
		}
	}

	for _, ex := range m.Examples {
		b.WriteString("\n\n")
		if ex.Title != "" {
			fmt.Fprintf(&b, "Example: %s\n", ex.Title)
		}
		if ex.Explanation != "" {
			b.WriteString(ex.Explanation)
			b.WriteString("\n")
		}
		if ex.Code != "" {
			fmt.Fprintf(&b, "```%s\n%s\n```", ex.Language, ex.Code)
		}
	}

	return b.String()
}

// classifyImportance applies the fixed ranking heuristic: constructors and
// connect/setup-style methods rank critical or high, getters and listers
// medium, deprecated or internal entries low.
func classifyImportance(m *SpecMethod, constructor bool) types.Importance {
	if m.Deprecated || m.Internal {
		return types.ImportanceLow
	}

	name := strings.ToLower(m.Name)
	if constructor || hasAnyPrefix(name, "connect", "init", "setup", "configure") {
		return types.ImportanceCritical
	}
	if hasAnyPrefix(name, "create", "open", "start", "auth", "register", "new") {
		return types.ImportanceHigh
	}
	if hasAnyPrefix(name, "get", "list", "find", "fetch", "is", "has", "count") {
		return types.ImportanceMedium
	}

	return types.ImportanceMedium
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// enhanceTags guarantees the tag invariant: tags are never empty after
// normalization, containing at minimum the tokenized item name.
func enhanceTags(declared []string, name, namespace string) []string {
	seen := make(map[string]bool)
	var tags []string

	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, t := range declared {
		add(t)
	}
	for _, tok := range types.NameTokens(name) {
		add(tok)
	}
	add(namespace)

	return tags
}

func convertExamples(in []SpecExample) []types.Example {
	out := make([]types.Example, len(in))
	for i, ex := range in {
		out[i] = types.Example{
			Title:       ex.Title,
			Explanation: ex.Explanation,
			Code:        ex.Code,
			Language:    ex.Language,
		}
	}
	return out
}

func convertErrors(in []SpecError) []types.ErrorPattern {
	if len(in) == 0 {
		return nil
	}
	out := make([]types.ErrorPattern, len(in))
	for i, e := range in {
		out[i] = types.ErrorPattern{ErrorType: e.Type, Handler: e.Handler}
	}
	return out
}

func convertParams(in []SpecParam) []types.Param {
	out := make([]types.Param, len(in))
	for i, p := range in {
		out[i] = types.Param{
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type,
		}
	}
	return out
}
