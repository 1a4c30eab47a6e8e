// Package constraint defines the value types for methodology constraints
// and the id-indexed library that holds them.
//
// A constraint is either atomic (a leaf reminder definition with its own
// triggers and text) or composite (a named composition of other
// constraints under one of four orchestration strategies). Composites
// refer to their components by id only — never by pointer — so the
// reference graph is a flat map plus string edges, and cycle detection
// is a visited-set walk over ids.
package constraint

import "strings"

// Kind tags the two-case constraint variant.
type Kind string

const (
	KindAtomic    Kind = "atomic"
	KindComposite Kind = "composite"
)

// Composition selects the activation-ordering semantics of a composite.
type Composition string

const (
	CompositionSequential   Composition = "sequential"
	CompositionHierarchical Composition = "hierarchical"
	CompositionProgressive  Composition = "progressive"
	CompositionLayered      Composition = "layered"
)

// validCompositions is the set of allowed composition types.
var validCompositions = map[Composition]bool{
	CompositionSequential:   true,
	CompositionHierarchical: true,
	CompositionProgressive:  true,
	CompositionLayered:      true,
}

// ValidateComposition returns an error if the composition type is not
// recognized.
func ValidateComposition(c Composition) error {
	if !validCompositions[c] {
		return &ValidationError{
			Field:   "composition",
			Message: "must be one of: sequential, hierarchical, progressive, layered",
		}
	}
	return nil
}

// Normalize returns the canonical form of a constraint id: trimmed and
// lowercased. All library lookups and duplicate checks go through it.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Trigger describes when a constraint is relevant: keyword set, file
// glob patterns, context patterns, and the score a match must exceed
// before the constraint becomes an activation candidate.
type Trigger struct {
	Keywords            []string
	FilePatterns        []string
	ContextPatterns     []string
	ConfidenceThreshold float64
}

// Atomic is a leaf reminder definition. It owns no references to other
// constraints.
type Atomic struct {
	ID        string
	Title     string
	Priority  float64 // relative weight in [0,1]
	Triggers  Trigger
	Reminders []string // ordered reminder lines delivered on activation
}

// Reference points at another constraint by id. Role is an optional
// tag naming the reference's function inside the composite (e.g. "red"
// in a RED→GREEN→REFACTOR sequence).
type Reference struct {
	TargetID string
	Role     string
}

// ProgressiveLevel describes one level of a progressive composite.
// Barrier levels append extra guidance beyond the base reminders —
// typically where users historically stall.
type ProgressiveLevel struct {
	Label           string
	ConstraintIDs   []string
	IsBarrier       bool
	BarrierGuidance []string
}

// LayerRule declares one architectural layer: which layers it may
// depend on, and which constraints activate for it. Declaration order
// across a composite's Layers is the activation order.
type LayerRule struct {
	Name          string
	AllowedDeps   []string
	ConstraintIDs []string
}

// Composite is a named composition of other constraints under one
// orchestration strategy. Components lists every referenced constraint
// in declared order; the composition-specific metadata fields
// (HierarchyLevels, Levels, Layers) are only consulted for their
// respective composition types.
type Composite struct {
	ID          string
	Title       string
	Priority    float64
	Composition Composition
	Components  []Reference
	Triggers    Trigger

	// HierarchyLevels maps component target ids (normalized) to their
	// level, 0 being the most foundational. Hierarchical only.
	HierarchyLevels map[string]int

	// Levels holds the ordered progression stages. Progressive only.
	Levels []ProgressiveLevel

	// Layers holds the dependency rules in activation order. Layered only.
	Layers []LayerRule
}
