package constraint

import "fmt"

// --- Generic validate-and-collect pipeline ---
//
// Every definition type funnels its field checks through one collector
// instead of hand-rolling per-type builders. A failed check appends a
// ValidationError; the caller gets all failures at once.

// collector accumulates field validation failures.
type collector struct {
	errs ValidationErrors
}

func (c *collector) addf(field, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// requireID checks that an id normalizes to a non-empty key.
func (c *collector) requireID(field, id string) {
	if Normalize(id) == "" {
		c.addf(field, "must not be empty")
	}
}

// requireNonEmpty checks that a string field has content.
func (c *collector) requireNonEmpty(field, value string) {
	if value == "" {
		c.addf(field, "must not be empty")
	}
}

// unitRange checks that a float lies in [0,1].
func (c *collector) unitRange(field string, value float64) {
	if value < 0 || value > 1 {
		c.addf(field, "must be between 0.0 and 1.0, got %g", value)
	}
}

// Validate checks an atomic definition's fields. Returns a
// ValidationErrors listing every problem, or nil.
func (a *Atomic) Validate() error {
	var c collector
	c.requireID("id", a.ID)
	c.requireNonEmpty("title", a.Title)
	c.unitRange("priority", a.Priority)
	c.unitRange("triggers.confidence_threshold", a.Triggers.ConfidenceThreshold)
	if len(a.Reminders) == 0 {
		c.addf("reminders", "at least one reminder is required")
	}
	for i, r := range a.Reminders {
		if r == "" {
			c.addf(fmt.Sprintf("reminders[%d]", i), "must not be empty")
		}
	}
	return c.errs.ErrOrNil()
}

// Validate checks a composite definition's fields, including the
// metadata block for its composition type. Component targets are NOT
// checked for existence here — forward references across load order are
// legal, and dangling targets surface at resolution.
func (cc *Composite) Validate() error {
	var c collector
	c.requireID("id", cc.ID)
	c.requireNonEmpty("title", cc.Title)
	c.unitRange("priority", cc.Priority)
	c.unitRange("triggers.confidence_threshold", cc.Triggers.ConfidenceThreshold)
	if !validCompositions[cc.Composition] {
		c.addf("composition", "must be one of: sequential, hierarchical, progressive, layered")
	}
	if len(cc.Components) == 0 {
		c.addf("components", "at least one component reference is required")
	}
	for i, ref := range cc.Components {
		if Normalize(ref.TargetID) == "" {
			c.addf(fmt.Sprintf("components[%d].target", i), "must not be empty")
		}
	}

	switch cc.Composition {
	case CompositionProgressive:
		if len(cc.Levels) == 0 {
			c.addf("levels", "progressive composition requires at least one level")
		}
		for i, lvl := range cc.Levels {
			if len(lvl.ConstraintIDs) == 0 {
				c.addf(fmt.Sprintf("levels[%d].constraints", i), "must name at least one constraint")
			}
		}
	case CompositionLayered:
		if len(cc.Layers) == 0 {
			c.addf("layers", "layered composition requires at least one layer")
		}
		seen := map[string]bool{}
		for i, layer := range cc.Layers {
			if layer.Name == "" {
				c.addf(fmt.Sprintf("layers[%d].name", i), "must not be empty")
				continue
			}
			if seen[layer.Name] {
				c.addf(fmt.Sprintf("layers[%d].name", i), "duplicate layer %q", layer.Name)
			}
			seen[layer.Name] = true
		}
	case CompositionHierarchical:
		for id, lvl := range cc.HierarchyLevels {
			if lvl < 0 {
				c.addf("hierarchy", "level for %q must not be negative", id)
			}
		}
	}
	return c.errs.ErrOrNil()
}
