// Package trigger decides whether a constraint is relevant to the
// current interaction: the analyzer classifies raw interaction signals
// into a development-context signal, and the matcher scores every
// library constraint against it.
package trigger

import (
	"path/filepath"
	"sort"
	"strings"
)

// ContextType classifies what kind of development activity an
// interaction represents.
type ContextType string

const (
	ContextTesting        ContextType = "testing"
	ContextImplementation ContextType = "implementation"
	ContextRefactoring    ContextType = "refactoring"
	ContextDebugging      ContextType = "debugging"
	ContextArchitecture   ContextType = "architecture"
	// ContextUnclear means no signal crossed the confidence floor —
	// the deliberate guard against over-triggering.
	ContextUnclear ContextType = "unclear"
)

// Snapshot is the raw per-interaction input handed over by the
// transport adapter.
type Snapshot struct {
	Text          string   // free text from the interaction
	Files         []string // touched file paths
	RecentActions []string // recent action/tool history, oldest first
}

// SessionContext is the classified context signal consumed by the
// matcher. Created fresh per interaction, never persisted.
type SessionContext struct {
	Type     ContextType
	Keywords []string // extracted, stop-words removed, deduplicated
	Files    []string
	Activity string // dominant recent action, or ""
}

// typeSignals maps each context type to the keywords and file suffixes
// that indicate it.
var typeSignals = map[ContextType]struct {
	keywords []string
	suffixes []string
	actions  []string
}{
	ContextTesting: {
		keywords: []string{"test", "tests", "testing", "spec", "assert", "coverage", "tdd", "failing"},
		suffixes: []string{"_test.go", ".test.ts", ".test.js", ".spec.ts", ".spec.js", "_spec.rb", "_test.py"},
		actions:  []string{"run_tests", "test"},
	},
	ContextImplementation: {
		keywords: []string{"implement", "implementing", "add", "feature", "build", "create", "write", "function"},
		actions:  []string{"edit", "write", "create_file"},
	},
	ContextRefactoring: {
		keywords: []string{"refactor", "refactoring", "rename", "extract", "cleanup", "simplify", "restructure"},
		actions:  []string{"rename", "move_file"},
	},
	ContextDebugging: {
		keywords: []string{"debug", "debugging", "bug", "fix", "error", "crash", "failure", "broken", "stacktrace"},
		actions:  []string{"read_logs", "debug"},
	},
	ContextArchitecture: {
		keywords: []string{"architecture", "design", "layer", "module", "dependency", "structure", "boundary"},
		actions:  []string{"design"},
	},
}

// defaultConfidenceFloor is the minimum signal count a context type
// must reach before classification; below it the type is Unclear.
const defaultConfidenceFloor = 2

// Analyzer classifies interaction snapshots.
type Analyzer struct {
	floor int
}

// NewAnalyzer creates an analyzer with the default confidence floor.
func NewAnalyzer() *Analyzer {
	return &Analyzer{floor: defaultConfidenceFloor}
}

// Analyze classifies a snapshot into a SessionContext using keyword
// frequency, file suffix matching, and recent-action heuristics. When
// no type's combined signal reaches the floor, Type is ContextUnclear.
func (a *Analyzer) Analyze(s Snapshot) SessionContext {
	keywords := ExtractKeywords(s.Text)
	keywordSet := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		keywordSet[k] = true
	}

	scores := make(map[ContextType]int, len(typeSignals))
	for ctype, sig := range typeSignals {
		score := 0
		for _, k := range sig.keywords {
			if keywordSet[k] {
				score++
			}
		}
		for _, f := range s.Files {
			for _, suffix := range sig.suffixes {
				if strings.HasSuffix(f, suffix) {
					score++
					break
				}
			}
		}
		for _, action := range s.RecentActions {
			for _, known := range sig.actions {
				if strings.EqualFold(action, known) {
					score++
					break
				}
			}
		}
		scores[ctype] = score
	}

	best := ContextUnclear
	bestScore := 0
	// Deterministic winner on score ties: iterate in fixed type order.
	for _, ctype := range orderedTypes() {
		if s := scores[ctype]; s > bestScore {
			best = ctype
			bestScore = s
		}
	}
	if bestScore < a.floor {
		best = ContextUnclear
	}

	return SessionContext{
		Type:     best,
		Keywords: keywords,
		Files:    s.Files,
		Activity: lastAction(s.RecentActions),
	}
}

func orderedTypes() []ContextType {
	types := make([]ContextType, 0, len(typeSignals))
	for t := range typeSignals {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func lastAction(actions []string) string {
	if len(actions) == 0 {
		return ""
	}
	return actions[len(actions)-1]
}

// ExtractKeywords lowercases, strips punctuation, and filters stop
// words and short tokens from free text, deduplicating while keeping
// first-seen order.
func ExtractKeywords(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	seen := make(map[string]bool, len(words))
	var keywords []string
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()-`")
		if w == "" || len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

// stopWords is a set of common words to filter from keyword matching.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "its": true, "let": true, "may": true, "who": true,
	"did": true, "get": true, "him": true, "his": true, "how": true,
	"man": true, "new": true, "now": true, "old": true, "see": true,
	"way": true, "day": true, "too": true, "use": true, "she": true,
	"that": true, "with": true, "have": true, "this": true, "will": true,
	"your": true, "from": true, "they": true, "been": true, "said": true,
	"each": true, "which": true, "their": true, "there": true, "about": true,
	"would": true, "make": true, "like": true, "just": true, "over": true,
	"such": true, "take": true, "also": true, "into": true, "than": true,
	"them": true, "then": true, "some": true, "what": true, "when": true,
	"were": true, "other": true, "could": true, "after": true, "should": true,
	"want": true, "need": true, "please": true,
}

// matchesGlob reports whether the path matches the glob pattern,
// testing both the full path and its base name so patterns like
// "*_test.go" hit nested files.
func matchesGlob(pattern, path string) bool {
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	if ok, err := filepath.Match(pattern, filepath.Base(path)); err == nil && ok {
		return true
	}
	return false
}
