package strategy

import (
	"fmt"
	"sort"

	"tenet/internal/constraint"
	"tenet/internal/resolve"
)

// Hierarchical groups components into levels 0..N, level 0 being the
// most foundational. Level k+1 becomes eligible only once the caller
// marks level k satisfied; when several levels could fire, the lowest
// eligible unsatisfied level wins. Within a level, components order by
// priority descending, then id ascending.
type Hierarchical struct {
	levels    [][]*resolve.Resolved // index = level number
	satisfied []bool
}

// NewHierarchical creates a hierarchical strategy from the composite's
// HierarchyLevels metadata. Components without an explicit level entry
// default to level 0.
func NewHierarchical(c *constraint.Composite, root *resolve.Resolved) (*Hierarchical, error) {
	if len(root.Components) == 0 {
		return nil, fmt.Errorf("hierarchical composition requires at least one component")
	}

	maxLevel := 0
	levelOf := func(id string) int {
		if lvl, ok := c.HierarchyLevels[constraint.Normalize(id)]; ok {
			return lvl
		}
		return 0
	}
	for _, comp := range root.Components {
		if lvl := levelOf(comp.Node.ID); lvl > maxLevel {
			maxLevel = lvl
		}
	}

	levels := make([][]*resolve.Resolved, maxLevel+1)
	for _, comp := range root.Components {
		lvl := levelOf(comp.Node.ID)
		levels[lvl] = append(levels[lvl], comp.Node)
	}

	// Deterministic in-level order: priority descending, id ascending.
	for _, nodes := range levels {
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].Priority() != nodes[j].Priority() {
				return nodes[i].Priority() > nodes[j].Priority()
			}
			return nodes[i].ID < nodes[j].ID
		})
	}

	return &Hierarchical{
		levels:    levels,
		satisfied: make([]bool, maxLevel+1),
	}, nil
}

// currentLevel returns the lowest eligible unsatisfied level, or -1
// when every level is satisfied.
func (h *Hierarchical) currentLevel() int {
	for lvl := range h.levels {
		if !h.satisfied[lvl] {
			return lvl
		}
	}
	return -1
}

// Next returns every constraint of the lowest eligible unsatisfied
// level, in priority-then-id order.
func (h *Hierarchical) Next() (*Decision, error) {
	lvl := h.currentLevel()
	if lvl < 0 {
		return &Decision{Reason: "all hierarchy levels satisfied"}, nil
	}
	steps := make([]Step, 0, len(h.levels[lvl]))
	for _, node := range h.levels[lvl] {
		steps = append(steps, stepFor(node))
	}
	return &Decision{
		Steps:  steps,
		Reason: fmt.Sprintf("hierarchy level %d of %d", lvl, len(h.levels)-1),
	}, nil
}

// MarkSatisfied records that the caller considers a level done. Only
// the current (lowest unsatisfied) level may be marked — satisfying a
// higher level while a foundation is open would hide a transition.
func (h *Hierarchical) MarkSatisfied(level int) error {
	if level < 0 || level >= len(h.levels) {
		return fmt.Errorf("level %d out of range 0..%d", level, len(h.levels)-1)
	}
	current := h.currentLevel()
	if current < 0 {
		return fmt.Errorf("all %d levels already satisfied", len(h.levels))
	}
	if level != current {
		return fmt.Errorf("level %d is not current: level %d must be satisfied first", level, current)
	}
	h.satisfied[level] = true
	return nil
}

// Exhausted reports whether the top level has been satisfied.
func (h *Hierarchical) Exhausted() bool { return h.currentLevel() < 0 }

// LevelCount returns the number of levels, for observability.
func (h *Hierarchical) LevelCount() int { return len(h.levels) }
