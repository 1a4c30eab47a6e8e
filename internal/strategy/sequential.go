package strategy

import (
	"fmt"

	"tenet/internal/resolve"
)

// Sequential walks a fixed component order (e.g. RED → GREEN →
// REFACTOR). The current index only moves on an explicit external
// transition signal ("test now failing", "test now passing") — no index
// is ever skipped.
type Sequential struct {
	components []resolve.Component
	index      int
	done       bool
	signals    []string // transition log, one entry per Advance
}

// NewSequential creates a sequential strategy at index 0.
func NewSequential(components []resolve.Component) (*Sequential, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("sequential composition requires at least one component")
	}
	return &Sequential{components: components}, nil
}

// Next returns the component at the current index.
func (s *Sequential) Next() (*Decision, error) {
	if s.done {
		return &Decision{Reason: "sequence exhausted"}, nil
	}
	current := s.components[s.index]
	reason := fmt.Sprintf("sequential step %d of %d", s.index+1, len(s.components))
	if current.Role != "" {
		reason = fmt.Sprintf("%s (%s)", reason, current.Role)
	}
	return &Decision{Steps: []Step{stepFor(current.Node)}, Reason: reason}, nil
}

// Advance moves to the next component. The signal names the external
// transition that permits the move and must not be empty — every state
// change is attributable.
func (s *Sequential) Advance(signal string) error {
	if signal == "" {
		return fmt.Errorf("sequential advance requires an explicit transition signal")
	}
	if s.done {
		return fmt.Errorf("sequence already exhausted at step %d", len(s.components))
	}
	s.signals = append(s.signals, signal)
	if s.index == len(s.components)-1 {
		s.done = true
		return nil
	}
	s.index++
	return nil
}

// Exhausted reports whether the final component has been advanced past.
func (s *Sequential) Exhausted() bool { return s.done }

// Index returns the current zero-based position.
func (s *Sequential) Index() int { return s.index }

// Signals returns the transition log in order.
func (s *Sequential) Signals() []string {
	out := make([]string, len(s.signals))
	copy(out, s.signals)
	return out
}
