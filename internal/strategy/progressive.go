package strategy

import (
	"fmt"

	"tenet/internal/constraint"
	"tenet/internal/resolve"
)

// Progressive walks ordered levels 1..N (e.g. refactoring levels 1–6),
// one at a time. AdvanceToLevel only accepts current+1 — any larger
// jump fails with SkipAttemptError. Barrier levels append their extra
// guidance entries beyond the base reminders.
type Progressive struct {
	levels  []constraint.ProgressiveLevel
	nodes   [][]*resolve.Resolved // per level, resolved constraints
	current int                   // 1-based level number
	history []int                 // every level entered, in order
}

// NewProgressive creates a progressive strategy at level 1.
func NewProgressive(c *constraint.Composite, root *resolve.Resolved) (*Progressive, error) {
	if len(c.Levels) == 0 {
		return nil, fmt.Errorf("progressive composition requires at least one level")
	}
	nodes := make([][]*resolve.Resolved, len(c.Levels))
	for i, lvl := range c.Levels {
		resolved, err := lookup(root, lvl.ConstraintIDs)
		if err != nil {
			return nil, fmt.Errorf("level %d (%s): %w", i+1, lvl.Label, err)
		}
		nodes[i] = resolved
	}
	return &Progressive{
		levels:  c.Levels,
		nodes:   nodes,
		current: 1,
		history: []int{1},
	}, nil
}

// Next returns the current level's constraints. Barrier levels append
// their guidance entries to every step's base reminders.
func (p *Progressive) Next() (*Decision, error) {
	idx := p.current - 1
	lvl := p.levels[idx]

	steps := make([]Step, 0, len(p.nodes[idx]))
	for _, node := range p.nodes[idx] {
		step := stepFor(node)
		if lvl.IsBarrier {
			step.Reminders = append(append([]string{}, step.Reminders...), lvl.BarrierGuidance...)
		}
		steps = append(steps, step)
	}

	reason := fmt.Sprintf("progressive level %d of %d", p.current, len(p.levels))
	if lvl.Label != "" {
		reason = fmt.Sprintf("%s (%s)", reason, lvl.Label)
	}
	if lvl.IsBarrier {
		reason += ", barrier stage"
	}
	return &Decision{Steps: steps, Reason: reason}, nil
}

// AdvanceToLevel moves to level n. Succeeds only when n is exactly
// current+1; larger jumps fail with SkipAttemptError carrying both the
// attempted and the expected level.
func (p *Progressive) AdvanceToLevel(n int) error {
	expected := p.current + 1
	if expected > len(p.levels) {
		return fmt.Errorf("already at the top level %d", p.current)
	}
	if n != expected {
		return &constraint.SkipAttemptError{Attempted: n, Expected: expected}
	}
	p.current = n
	p.history = append(p.history, n)
	return nil
}

// Exhausted reports whether the top level has been reached.
func (p *Progressive) Exhausted() bool { return p.current == len(p.levels) }

// CurrentLevel returns the 1-based current level.
func (p *Progressive) CurrentLevel() int { return p.current }

// LevelHistory returns every level entered, in order, for
// observability.
func (p *Progressive) LevelHistory() []int {
	out := make([]int, len(p.history))
	copy(out, p.history)
	return out
}
