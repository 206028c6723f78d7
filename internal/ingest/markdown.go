package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// FrontMatter is the YAML metadata block at the head of a tutorial document.
type FrontMatter struct {
	Title      string   `yaml:"title"`
	Language   string   `yaml:"language"`
	Namespace  string   `yaml:"namespace"`
	Category   string   `yaml:"category"`
	SkillLevel string   `yaml:"skillLevel"`
	Tags       []string `yaml:"tags"`
}

const frontMatterDelimiter = "---"

// NormalizeDocument converts one markdown tutorial or guide into a
// ParsedContent record. The body keeps its raw markdown structure so the
// hierarchical chunking strategy can split on heading boundaries later.
func (n *Normalizer) NormalizeDocument(path string) (types.ParsedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ParsedContent{}, &types.NormalizationError{SourceFile: path, Reason: err}
	}

	fm, body, err := splitFrontMatter(string(data))
	if err != nil {
		return types.ParsedContent{}, &types.NormalizationError{SourceFile: path, Reason: err}
	}

	name := fm.Title
	if name == "" {
		name = firstHeading(body)
	}
	if name == "" {
		name = titleFromFilename(path)
	}

	namespace := fm.Namespace
	if namespace == "" {
		namespace = "docs"
	}

	contentType := types.ContentGuide
	if strings.EqualFold(fm.Category, "tutorial") {
		contentType = types.ContentTutorial
	}

	importance := types.ImportanceMedium
	if strings.EqualFold(fm.SkillLevel, "beginner") || strings.Contains(strings.ToLower(fm.Category), "getting-started") {
		importance = types.ImportanceHigh
	}

	item := types.ParsedContent{
		Name:        name,
		Description: firstParagraph(body),
		Content:     body,
		Examples:    extractCodeBlocks(body, fm.Language),
		Metadata: types.ContentMetadata{
			Type:       contentType,
			Namespace:  namespace,
			Language:   fm.Language,
			Importance: importance,
			SourceFile: path,
		},
	}
	item.Metadata.Tags = enhanceTags(fm.Tags, name, namespace)

	return item, nil
}

// splitFrontMatter separates the YAML front matter from the markdown body.
// Documents without a front matter block are valid; they just carry no
// declared metadata.
func splitFrontMatter(raw string) (FrontMatter, string, error) {
	var fm FrontMatter

	trimmed := strings.TrimLeft(raw, "\uFEFF\n\r")
	if !strings.HasPrefix(trimmed, frontMatterDelimiter) {
		return fm, raw, nil
	}

	rest := trimmed[len(frontMatterDelimiter):]
	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	if end < 0 {
		return fm, raw, nil
	}

	block := rest[:end]
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, "", err
	}

	body := rest[end+len(frontMatterDelimiter)+1:]
	return fm, strings.TrimLeft(body, "\n\r"), nil
}

// firstHeading returns the text of the first H1 in the body, if any.
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// firstParagraph returns the first non-heading, non-code prose paragraph.
func firstParagraph(body string) string {
	inCode := false
	var para []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			continue
		}
		if inCode || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, trimmed)
	}
	return strings.Join(para, " ")
}

// extractCodeBlocks pulls the fenced code blocks out of the body so the
// relationship analyzer can count API co-occurrence across examples.
func extractCodeBlocks(body, defaultLanguage string) []types.Example {
	var examples []types.Example
	var code []string
	lang := ""
	inCode := false

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				examples = append(examples, types.Example{
					Code:     strings.Join(code, "\n"),
					Language: lang,
				})
				code = nil
				inCode = false
				continue
			}
			inCode = true
			lang = strings.TrimPrefix(trimmed, "```")
			if lang == "" {
				lang = defaultLanguage
			}
			continue
		}
		if inCode {
			code = append(code, line)
		}
	}

	return examples
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
