package strategy

import (
	"fmt"

	"tenet/internal/constraint"
	"tenet/internal/resolve"
)

// Layered enforces architectural layering (e.g. Clean Architecture):
// each named layer declares an allow-list of layers it may depend on,
// and layer constraints activate in declared order (domain →
// application → infrastructure → presentation, or whatever order is
// configured). A source layer with no declared rule is permissive.
type Layered struct {
	layers []constraint.LayerRule
	nodes  [][]*resolve.Resolved // per layer, resolved constraints
	allow  map[string]map[string]bool
	index  int // current layer in declared activation order
	done   bool
}

// NewLayered creates a layered strategy positioned at the first
// declared layer.
func NewLayered(c *constraint.Composite, root *resolve.Resolved) (*Layered, error) {
	if len(c.Layers) == 0 {
		return nil, fmt.Errorf("layered composition requires at least one layer")
	}
	nodes := make([][]*resolve.Resolved, len(c.Layers))
	allow := make(map[string]map[string]bool, len(c.Layers))
	for i, layer := range c.Layers {
		resolved, err := lookup(root, layer.ConstraintIDs)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", layer.Name, err)
		}
		nodes[i] = resolved
		deps := make(map[string]bool, len(layer.AllowedDeps))
		for _, d := range layer.AllowedDeps {
			deps[d] = true
		}
		allow[layer.Name] = deps
	}
	return &Layered{layers: c.Layers, nodes: nodes, allow: allow}, nil
}

// IsViolation reports whether sourceLayer depending on targetLayer
// breaks the declared rules: true iff targetLayer is not in
// sourceLayer's allow-list. A source layer without any rule defaults to
// no violation.
func (l *Layered) IsViolation(sourceLayer, targetLayer string) bool {
	deps, ok := l.allow[sourceLayer]
	if !ok {
		return false
	}
	return !deps[targetLayer]
}

// CheckDependency returns a LayerViolationError when the dependency is
// a violation, nil otherwise. Violations are reported as distinct
// errors, never silently dropped.
func (l *Layered) CheckDependency(sourceLayer, targetLayer string) error {
	if l.IsViolation(sourceLayer, targetLayer) {
		return &constraint.LayerViolationError{Source: sourceLayer, Target: targetLayer}
	}
	return nil
}

// Next returns the current layer's constraints in declared order.
func (l *Layered) Next() (*Decision, error) {
	if l.done {
		return &Decision{Reason: "all layers activated"}, nil
	}
	layer := l.layers[l.index]
	steps := make([]Step, 0, len(l.nodes[l.index]))
	for _, node := range l.nodes[l.index] {
		steps = append(steps, stepFor(node))
	}
	return &Decision{
		Steps:  steps,
		Reason: fmt.Sprintf("layer %q (%d of %d)", layer.Name, l.index+1, len(l.layers)),
	}, nil
}

// AdvanceLayer moves activation to the next declared layer.
func (l *Layered) AdvanceLayer() error {
	if l.done {
		return fmt.Errorf("all %d layers already activated", len(l.layers))
	}
	if l.index == len(l.layers)-1 {
		l.done = true
		return nil
	}
	l.index++
	return nil
}

// Exhausted reports whether every declared layer has been activated.
func (l *Layered) Exhausted() bool { return l.done }

// CurrentLayer returns the name of the layer currently due.
func (l *Layered) CurrentLayer() string {
	if l.done {
		return ""
	}
	return l.layers[l.index].Name
}
