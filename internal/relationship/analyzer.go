package relationship

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// resourceTokens are the parameter/return vocabulary that implies ordering:
// a method requiring one of these depends on the methods that produce it.
var resourceTokens = map[string]bool{
	"connection": true,
	"session":    true,
	"client":     true,
	"handle":     true,
	"context":    true,
	"token":      true,
	"socket":     true,
	"stream":     true,
	"channel":    true,
	"pool":       true,
	"thread":     true,
	"device":     true,
}

// resourceStems maps verbs and short forms onto the resource they stand
// for, so "connect" counts as producing a "connection".
var resourceStems = map[string]string{
	"connect":   "connection",
	"conn":      "connection",
	"login":     "session",
	"authorize": "token",
	"auth":      "token",
	"open":      "handle",
	"subscribe": "channel",
}

// initializerPrefixes mark methods that produce resources rather than
// consume them.
var initializerPrefixes = []string{
	"create", "open", "connect", "init", "initialize", "setup",
	"start", "new", "acquire", "register", "authenticate", "configure",
}

// declaredPrereqPatterns extract explicitly documented ordering from method
// descriptions. Declared prerequisites take precedence over the resource
// heuristic.
var declaredPrereqPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcall\s+([A-Za-z_][A-Za-z0-9_]*)(?:\(\))?\s+(?:first|before)`),
	regexp.MustCompile(`(?i)\bmust\s+call\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`(?i)\bafter\s+calling\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`(?i)\brequires\s+(?:a\s+call\s+to\s+)?([A-Za-z_][A-Za-z0-9_]*)\(\)`),
}

// exampleCallPattern finds identifier( call sites inside example code.
var exampleCallPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// Analyzer builds and serves the relationship graph. Analyze may be called
// once per namespace during an indexing run; Clear resets state between
// runs so pipeline instances never leak edges across rebuilds.
type Analyzer struct {
	mu        sync.RWMutex
	graph     *Graph
	items     map[string]*types.ParsedContent // by Key()
	byName    map[string][]string             // bare name -> keys
	producers map[string][]string             // resource token -> producing keys
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{}
	a.reset()
	return a
}

func (a *Analyzer) reset() {
	a.graph = NewGraph()
	a.items = make(map[string]*types.ParsedContent)
	a.byName = make(map[string][]string)
	a.producers = make(map[string][]string)
}

// Clear drops all analyzed state. Called before a full rebuild.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

// Analyze ingests one batch of normalized items (typically one namespace)
// and folds them into the graph. Order of batches does not matter: producer
// links are resolved lazily at query time.
func (a *Analyzer) Analyze(items []types.ParsedContent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range items {
		it := &items[i]
		key := it.Key()
		a.items[key] = it
		a.byName[strings.ToLower(it.Name)] = appendUnique(a.byName[strings.ToLower(it.Name)], key)

		for _, res := range producedResources(it) {
			a.producers[res] = appendUnique(a.producers[res], key)
		}

		if len(it.Errors) > 0 {
			a.graph.ErrorPatterns[key] = append([]types.ErrorPattern(nil), it.Errors...)
		}
	}

	a.rebuildEdges()
}

// rebuildEdges recomputes prerequisite and pattern edges over everything
// analyzed so far. Caller holds the write lock.
func (a *Analyzer) rebuildEdges() {
	a.graph.Prerequisites = make(map[string][]string)
	a.graph.CommonPatterns = make(map[string][]string)
	a.graph.UsageFrequency = make(map[string]int)

	for key, it := range a.items {
		var prereqs []string

		// Declared prerequisites first.
		for _, name := range declaredPrerequisites(it) {
			for _, pk := range a.resolveName(name, it.Metadata.Namespace) {
				if pk != key {
					prereqs = appendUnique(prereqs, pk)
				}
			}
		}

		// Resource heuristic second.
		for _, res := range requiredResources(it) {
			for _, pk := range a.producers[res] {
				if pk != key {
					prereqs = appendUnique(prereqs, pk)
				}
			}
		}

		if len(prereqs) > 0 {
			sort.Strings(prereqs)
			a.graph.Prerequisites[key] = prereqs
		}

		a.foldExamples(key, it)
	}
}

// foldExamples counts known method calls inside example code, recording
// co-occurrence patterns and usage frequency.
func (a *Analyzer) foldExamples(key string, it *types.ParsedContent) {
	var pattern []string
	seen := make(map[string]bool)

	for _, ex := range it.Examples {
		for _, m := range exampleCallPattern.FindAllStringSubmatch(ex.Code, -1) {
			name := strings.ToLower(m[1])
			keys, known := a.byName[name]
			if !known {
				continue
			}
			for _, k := range keys {
				a.graph.UsageFrequency[k]++
			}
			if !seen[name] {
				seen[name] = true
				pattern = append(pattern, m[1])
			}
		}
	}

	if len(pattern) > 1 {
		a.graph.CommonPatterns[key] = pattern
	}
}

// GetPrerequisites returns the methods to call before the given one. The
// key may be fully qualified ("Threads.createThread") or a bare name.
func (a *Analyzer) GetPrerequisites(methodKey string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []string
	for _, key := range a.resolveKey(methodKey) {
		out = append(out, a.graph.Prerequisites[key]...)
	}
	return dedupe(out)
}

// GetErrorPatterns returns the documented failure modes for a method.
func (a *Analyzer) GetErrorPatterns(methodKey string) []types.ErrorPattern {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []types.ErrorPattern
	for _, key := range a.resolveKey(methodKey) {
		out = append(out, a.graph.ErrorPatterns[key]...)
	}
	return out
}

// GetRelated returns methods adjacent to the given one: same class plus
// example co-occurrences.
func (a *Analyzer) GetRelated(methodKey string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []string
	for _, key := range a.resolveKey(methodKey) {
		it := a.items[key]
		if it == nil {
			continue
		}
		for otherKey, other := range a.items {
			if otherKey == key {
				continue
			}
			if it.Metadata.ClassName != "" && other.Metadata.ClassName == it.Metadata.ClassName &&
				other.Metadata.Namespace == it.Metadata.Namespace {
				out = append(out, otherKey)
			}
		}
		for _, name := range a.graph.CommonPatterns[key] {
			if !strings.EqualFold(name, it.Name) {
				out = append(out, a.byName[strings.ToLower(name)]...)
			}
		}
	}

	out = dedupe(out)
	sort.Strings(out)
	return out
}

// Graph returns a snapshot copy of the relationship graph.
func (a *Analyzer) Graph() *Graph {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := NewGraph()
	for k, v := range a.graph.Prerequisites {
		snap.Prerequisites[k] = append([]string(nil), v...)
	}
	for k, v := range a.graph.CommonPatterns {
		snap.CommonPatterns[k] = append([]string(nil), v...)
	}
	for k, v := range a.graph.UsageFrequency {
		snap.UsageFrequency[k] = v
	}
	for k, v := range a.graph.ErrorPatterns {
		snap.ErrorPatterns[k] = append([]types.ErrorPattern(nil), v...)
	}
	return snap
}

// resolveKey maps a caller-supplied key (qualified or bare) to graph keys.
func (a *Analyzer) resolveKey(methodKey string) []string {
	if _, ok := a.items[methodKey]; ok {
		return []string{methodKey}
	}
	return a.byName[strings.ToLower(methodKey)]
}

// resolveName maps a bare method name to keys, preferring the namespace the
// reference appeared in.
func (a *Analyzer) resolveName(name, namespace string) []string {
	keys := a.byName[strings.ToLower(name)]
	if len(keys) <= 1 || namespace == "" {
		return keys
	}
	prefix := namespace + "."
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			return []string{k}
		}
	}
	return keys
}

// declaredPrerequisites extracts explicitly documented ordering references.
func declaredPrerequisites(it *types.ParsedContent) []string {
	text := it.Description + " " + it.Content
	var names []string
	for _, re := range declaredPrereqPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			names = appendUnique(names, m[1])
		}
	}
	return names
}

// requiredResources lists the resource tokens a method consumes, read from
// parameter names and types.
func requiredResources(it *types.ParsedContent) []string {
	var out []string
	collect := func(s string) {
		for _, tok := range types.NameTokens(s) {
			if res := canonicalResource(tok); res != "" {
				out = appendUnique(out, res)
			}
		}
	}
	for _, p := range it.Parameters {
		collect(p.Name)
		collect(p.Type)
	}
	return out
}

// producedResources lists the resource tokens a method produces: resource
// words in the name or returns of an initializer-style method.
func producedResources(it *types.ParsedContent) []string {
	if !isInitializer(it.Name) {
		return nil
	}

	var out []string
	collect := func(s string) {
		for _, tok := range types.NameTokens(s) {
			if res := canonicalResource(tok); res != "" {
				out = appendUnique(out, res)
			}
		}
	}
	collect(it.Name)
	for _, r := range it.Returns {
		collect(r.Name)
		collect(r.Type)
	}
	// Initializer descriptions name the resource more often than the
	// signature does ("Opens a session with the remote endpoint").
	collect(it.Description)
	return out
}

func canonicalResource(token string) string {
	if resourceTokens[token] {
		return token
	}
	if res, ok := resourceStems[token]; ok {
		return res
	}
	return ""
}

func isInitializer(name string) bool {
	tokens := types.NameTokens(name)
	if len(tokens) == 0 {
		return false
	}
	for _, prefix := range initializerPrefixes {
		if tokens[0] == prefix {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	var out []string
	for _, v := range list {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
