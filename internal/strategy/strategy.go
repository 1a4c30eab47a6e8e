// Package strategy implements the four composition state machines that
// decide which component of a composite constraint activates next.
//
// All four share one contract: Next() names the component(s) due right
// now and why; state only moves on an explicit external signal (a phase
// transition, a satisfied level, an advancement request). There are no
// hidden states — initial state is index 0 / level 0, terminal state is
// sequence exhausted / top level reached, and every transition is
// attributable to the signal that caused it.
package strategy

import (
	"fmt"

	"tenet/internal/constraint"
	"tenet/internal/resolve"
)

// Step is one constraint due for activation, with the reminder lines it
// contributes.
type Step struct {
	ConstraintID string
	Reminders    []string
}

// Decision names which resolved sub-constraints fire next and why.
type Decision struct {
	Steps  []Step
	Reason string
}

// Strategy is the common contract of the four composition state
// machines.
type Strategy interface {
	// Next returns the activation decision for the current state.
	// Exhausted strategies return an empty decision, not an error.
	Next() (*Decision, error)

	// Exhausted reports whether the strategy reached its terminal
	// state (sequence done / top level reached).
	Exhausted() bool
}

// New builds the strategy state machine matching the composite's
// composition type, operating over the given resolved tree.
func New(c *constraint.Composite, root *resolve.Resolved) (Strategy, error) {
	switch c.Composition {
	case constraint.CompositionSequential:
		return NewSequential(root.Components)
	case constraint.CompositionHierarchical:
		return NewHierarchical(c, root)
	case constraint.CompositionProgressive:
		return NewProgressive(c, root)
	case constraint.CompositionLayered:
		return NewLayered(c, root)
	default:
		return nil, &constraint.ValidationError{
			Field:   "composition",
			Message: fmt.Sprintf("unknown composition type %q", c.Composition),
		}
	}
}

// stepFor builds a Step from a resolved node.
func stepFor(node *resolve.Resolved) Step {
	return Step{ConstraintID: node.ID, Reminders: node.Reminders()}
}

// lookup finds the resolved nodes for a list of constraint ids under
// root, failing on the first id the tree does not contain.
func lookup(root *resolve.Resolved, ids []string) ([]*resolve.Resolved, error) {
	nodes := make([]*resolve.Resolved, 0, len(ids))
	for _, id := range ids {
		node := root.Find(id)
		if node == nil {
			return nil, &constraint.ConstraintNotFoundError{ID: id}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
