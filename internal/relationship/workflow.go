package relationship

import (
	"fmt"
	"strings"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// WorkflowStep is one suggested call in an ordered workflow.
type WorkflowStep struct {
	Method string `json:"method"`
	Reason string `json:"reason"`
}

// maxPrereqDepth bounds the transitive prerequisite walk so cyclic or
// degenerate graphs cannot loop.
const maxPrereqDepth = 5

// WorkflowSuggestions returns an ordered call sequence for the method best
// matching the query: transitive prerequisites first, the target, then
// follow-up calls observed in documented examples. Best effort; an
// unrecognized goal yields nil.
func (a *Analyzer) WorkflowSuggestions(query string) []WorkflowStep {
	a.mu.RLock()
	defer a.mu.RUnlock()

	target := a.bestMatch(query)
	if target == "" {
		return nil
	}

	var steps []WorkflowStep
	included := make(map[string]bool)

	var addPrereqs func(key string, depth int)
	addPrereqs = func(key string, depth int) {
		if depth >= maxPrereqDepth {
			return
		}
		for _, pre := range a.graph.Prerequisites[key] {
			if included[pre] {
				continue
			}
			included[pre] = true
			addPrereqs(pre, depth+1)
			steps = append(steps, WorkflowStep{
				Method: pre,
				Reason: fmt.Sprintf("prerequisite of %s", a.displayName(key)),
			})
		}
	}

	addPrereqs(target, 0)
	included[target] = true
	steps = append(steps, WorkflowStep{Method: target, Reason: "matches the requested goal"})

	for _, name := range a.graph.CommonPatterns[target] {
		for _, key := range a.byName[strings.ToLower(name)] {
			if included[key] {
				continue
			}
			included[key] = true
			steps = append(steps, WorkflowStep{
				Method: key,
				Reason: fmt.Sprintf("commonly follows %s in examples", a.displayName(target)),
			})
		}
	}

	return steps
}

// bestMatch picks the method whose name tokens overlap the query most,
// breaking ties on example usage frequency. Caller holds a read lock.
func (a *Analyzer) bestMatch(query string) string {
	queryTokens := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(query)) {
		for _, tok := range types.NameTokens(f) {
			queryTokens[tok] = true
		}
	}
	if len(queryTokens) == 0 {
		return ""
	}

	best := ""
	bestScore := 0
	for key, it := range a.items {
		score := 0
		for _, tok := range types.NameTokens(it.Name) {
			if queryTokens[tok] {
				score++
			}
		}
		if score == 0 {
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore = key, score
		case score == bestScore:
			if a.graph.UsageFrequency[key] > a.graph.UsageFrequency[best] ||
				(a.graph.UsageFrequency[key] == a.graph.UsageFrequency[best] && key < best) {
				best = key
			}
		}
	}
	return best
}

func (a *Analyzer) displayName(key string) string {
	if it, ok := a.items[key]; ok {
		return it.Name
	}
	return key
}
