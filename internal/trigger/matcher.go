package trigger

import (
	"sort"
	"strings"

	"tenet/internal/constraint"
)

// ReasonCode attributes a candidate to the signal that matched it, for
// downstream observability and feedback attribution.
type ReasonCode string

const (
	ReasonKeyword ReasonCode = "keyword-match"
	ReasonFile    ReasonCode = "file-match"
	ReasonContext ReasonCode = "context-match"
)

// Candidate is a constraint whose relevance score exceeded its own
// confidence threshold for the current context.
type Candidate struct {
	ID       string
	Kind     constraint.Kind
	Score    float64
	Priority float64
	Reasons  []ReasonCode
}

// Rank is the candidate's ordering key: score weighted by the
// constraint's declared priority.
func (c Candidate) Rank() float64 { return c.Score * c.Priority }

// Score component weights. Keyword overlap carries the most signal;
// file and context patterns are boolean hits.
const (
	keywordWeight = 0.5
	fileWeight    = 0.3
	contextWeight = 0.2
)

// Matcher scores every constraint in a library against a classified
// session context.
type Matcher struct {
	lib *constraint.Library
}

// NewMatcher creates a matcher over the given library.
func NewMatcher(lib *constraint.Library) *Matcher {
	return &Matcher{lib: lib}
}

// Match scores every atomic constraint and every composite root against
// the context and returns the candidates whose score exceeds their own
// threshold, ranked by score × priority descending. Ties break by
// constraint id ascending, so the ranking is reproducible regardless of
// insertion order.
func (m *Matcher) Match(sc SessionContext) []Candidate {
	var candidates []Candidate

	for _, a := range m.lib.Atomics() {
		if c, ok := score(constraint.Normalize(a.ID), constraint.KindAtomic, a.Priority, a.Triggers, sc); ok {
			candidates = append(candidates, c)
		}
	}
	for _, comp := range m.lib.Composites() {
		if c, ok := score(constraint.Normalize(comp.ID), constraint.KindComposite, comp.Priority, comp.Triggers, sc); ok {
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Rank(), candidates[j].Rank()
		if ri != rj {
			return ri > rj
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

// score computes the weighted relevance of one trigger configuration
// against the context. Returns ok=false when the score does not exceed
// the constraint's own confidence threshold.
func score(id string, kind constraint.Kind, priority float64, trig constraint.Trigger, sc SessionContext) (Candidate, bool) {
	var total float64
	var reasons []ReasonCode

	if overlap := keywordOverlap(trig.Keywords, sc.Keywords); overlap > 0 {
		total += keywordWeight * overlap
		reasons = append(reasons, ReasonKeyword)
	}
	if fileHit(trig.FilePatterns, sc.Files) {
		total += fileWeight
		reasons = append(reasons, ReasonFile)
	}
	if contextHit(trig.ContextPatterns, sc) {
		total += contextWeight
		reasons = append(reasons, ReasonContext)
	}

	if total <= trig.ConfidenceThreshold {
		return Candidate{}, false
	}
	return Candidate{
		ID:       id,
		Kind:     kind,
		Score:    total,
		Priority: priority,
		Reasons:  reasons,
	}, true
}

// keywordOverlap returns the fraction of the trigger's keywords present
// in the extracted context keywords.
func keywordOverlap(triggerKeywords, contextKeywords []string) float64 {
	if len(triggerKeywords) == 0 {
		return 0
	}
	ctx := make(map[string]bool, len(contextKeywords))
	for _, k := range contextKeywords {
		ctx[strings.ToLower(k)] = true
	}
	hits := 0
	for _, k := range triggerKeywords {
		if ctx[strings.ToLower(k)] {
			hits++
		}
	}
	return float64(hits) / float64(len(triggerKeywords))
}

// fileHit reports whether any touched file matches any trigger glob.
func fileHit(patterns, files []string) bool {
	for _, p := range patterns {
		for _, f := range files {
			if matchesGlob(p, f) {
				return true
			}
		}
	}
	return false
}

// contextHit reports whether the classified context type or activity
// matches any of the trigger's context patterns.
func contextHit(patterns []string, sc SessionContext) bool {
	for _, p := range patterns {
		if strings.EqualFold(p, string(sc.Type)) {
			return true
		}
		if sc.Activity != "" && strings.EqualFold(p, sc.Activity) {
			return true
		}
	}
	return false
}
