package config

import "tenet/internal/constraint"

// DefaultLibrary builds the built-in constraint pack used when no pack
// file is configured. It covers the four composition types with a
// small, opinionated methodology set: a TDD cycle, a refactoring level
// ladder, a testing-discipline hierarchy, and clean-architecture layer
// rules.
func DefaultLibrary() (*constraint.Library, error) {
	lib := constraint.NewLibrary()

	atomics := []*constraint.Atomic{
		{
			ID:       "testing.write-test-first",
			Title:    "Write a failing test first",
			Priority: 0.9,
			Triggers: constraint.Trigger{
				Keywords:            []string{"test", "tdd", "failing", "implement", "feature"},
				FilePatterns:        []string{"*_test.go", "*.test.ts", "*.spec.ts"},
				ContextPatterns:     []string{"testing", "implementation"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Write a failing test before touching the implementation."},
		},
		{
			ID:       "testing.make-it-pass",
			Title:    "Make the failing test pass",
			Priority: 0.9,
			Triggers: constraint.Trigger{
				Keywords:            []string{"test", "passing", "implement"},
				ContextPatterns:     []string{"testing", "implementation"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Write the minimum code that makes the failing test pass."},
		},
		{
			ID:       "testing.refactor-green",
			Title:    "Refactor on green",
			Priority: 0.8,
			Triggers: constraint.Trigger{
				Keywords:            []string{"refactor", "cleanup", "test"},
				ContextPatterns:     []string{"refactoring"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Refactor only while the test suite is green."},
		},
		{
			ID:       "refactoring.rename-clarity",
			Title:    "Rename for clarity",
			Priority: 0.6,
			Triggers: constraint.Trigger{
				Keywords:            []string{"refactor", "rename", "readability"},
				ContextPatterns:     []string{"refactoring"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Start with renames: names should say what the code does."},
		},
		{
			ID:       "refactoring.extract-method",
			Title:    "Extract cohesive methods",
			Priority: 0.6,
			Triggers: constraint.Trigger{
				Keywords:            []string{"refactor", "extract", "function"},
				ContextPatterns:     []string{"refactoring"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Extract a method when a code block needs a comment to explain itself."},
		},
		{
			ID:       "refactoring.split-responsibilities",
			Title:    "Split mixed responsibilities",
			Priority: 0.7,
			Triggers: constraint.Trigger{
				Keywords:            []string{"refactor", "restructure", "responsibility"},
				ContextPatterns:     []string{"refactoring"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"One reason to change per type: split types that serve two masters."},
		},
		{
			ID:       "quality.run-tests-before-commit",
			Title:    "Run the suite before committing",
			Priority: 0.8,
			Triggers: constraint.Trigger{
				Keywords:            []string{"commit", "push", "test"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Run the full test suite before committing."},
		},
		{
			ID:       "quality.cover-edge-cases",
			Title:    "Cover edge cases",
			Priority: 0.7,
			Triggers: constraint.Trigger{
				Keywords:            []string{"test", "coverage", "edge"},
				ContextPatterns:     []string{"testing"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Add tests for empty input, boundaries, and error paths."},
		},
		{
			ID:       "architecture.domain-purity",
			Title:    "Keep the domain layer pure",
			Priority: 0.8,
			Triggers: constraint.Trigger{
				Keywords:            []string{"architecture", "layer", "domain", "dependency"},
				ContextPatterns:     []string{"architecture"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Domain code imports nothing from infrastructure or presentation."},
		},
		{
			ID:       "architecture.application-boundaries",
			Title:    "Application layer orchestrates only",
			Priority: 0.7,
			Triggers: constraint.Trigger{
				Keywords:            []string{"architecture", "layer", "usecase", "service"},
				ContextPatterns:     []string{"architecture"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Application services orchestrate domain objects; business rules live in the domain."},
		},
		{
			ID:       "architecture.infrastructure-edges",
			Title:    "Infrastructure stays at the edges",
			Priority: 0.6,
			Triggers: constraint.Trigger{
				Keywords:            []string{"architecture", "database", "transport", "adapter"},
				ContextPatterns:     []string{"architecture"},
				ConfidenceThreshold: 0.1,
			},
			Reminders: []string{"Databases, transports, and frameworks are adapters behind interfaces."},
		},
	}
	for _, a := range atomics {
		if err := lib.AddAtomic(a); err != nil {
			return nil, err
		}
	}

	composites := []*constraint.Composite{
		{
			ID:          "methodology.tdd",
			Title:       "TDD cycle",
			Priority:    0.95,
			Composition: constraint.CompositionSequential,
			Components: []constraint.Reference{
				{TargetID: "testing.write-test-first", Role: "red"},
				{TargetID: "testing.make-it-pass", Role: "green"},
				{TargetID: "testing.refactor-green", Role: "refactor"},
			},
			Triggers: constraint.Trigger{
				Keywords:            []string{"tdd", "test", "failing", "implement"},
				FilePatterns:        []string{"*_test.go"},
				ContextPatterns:     []string{"testing"},
				ConfidenceThreshold: 0.15,
			},
		},
		{
			ID:          "methodology.refactoring-levels",
			Title:       "Progressive refactoring levels",
			Priority:    0.8,
			Composition: constraint.CompositionProgressive,
			Components: []constraint.Reference{
				{TargetID: "refactoring.rename-clarity"},
				{TargetID: "refactoring.extract-method"},
				{TargetID: "refactoring.split-responsibilities"},
			},
			Triggers: constraint.Trigger{
				Keywords:            []string{"refactor", "cleanup", "restructure"},
				ContextPatterns:     []string{"refactoring"},
				ConfidenceThreshold: 0.15,
			},
			Levels: []constraint.ProgressiveLevel{
				{Label: "readability", ConstraintIDs: []string{"refactoring.rename-clarity"}},
				{Label: "complexity", ConstraintIDs: []string{"refactoring.extract-method"}},
				{
					Label:         "responsibilities",
					ConstraintIDs: []string{"refactoring.split-responsibilities"},
					IsBarrier:     true,
					BarrierGuidance: []string{
						"Most refactorings stall here: verify behavior is pinned by tests first.",
						"Split one responsibility at a time and keep the suite green between steps.",
					},
				},
			},
		},
		{
			ID:          "methodology.test-discipline",
			Title:       "Testing discipline hierarchy",
			Priority:    0.85,
			Composition: constraint.CompositionHierarchical,
			Components: []constraint.Reference{
				{TargetID: "testing.write-test-first"},
				{TargetID: "quality.cover-edge-cases"},
				{TargetID: "quality.run-tests-before-commit"},
			},
			Triggers: constraint.Trigger{
				Keywords:            []string{"test", "coverage", "commit"},
				ContextPatterns:     []string{"testing"},
				ConfidenceThreshold: 0.15,
			},
			HierarchyLevels: map[string]int{
				"testing.write-test-first":       0,
				"quality.cover-edge-cases":       1,
				"quality.run-tests-before-commit": 2,
			},
		},
		{
			ID:          "architecture.clean-layers",
			Title:       "Clean architecture layering",
			Priority:    0.8,
			Composition: constraint.CompositionLayered,
			Components: []constraint.Reference{
				{TargetID: "architecture.domain-purity"},
				{TargetID: "architecture.application-boundaries"},
				{TargetID: "architecture.infrastructure-edges"},
			},
			Triggers: constraint.Trigger{
				Keywords:            []string{"architecture", "layer", "dependency", "structure"},
				ContextPatterns:     []string{"architecture"},
				ConfidenceThreshold: 0.15,
			},
			Layers: []constraint.LayerRule{
				{Name: "domain", ConstraintIDs: []string{"architecture.domain-purity"}},
				{Name: "application", AllowedDeps: []string{"domain"}, ConstraintIDs: []string{"architecture.application-boundaries"}},
				{Name: "infrastructure", AllowedDeps: []string{"domain", "application"}, ConstraintIDs: []string{"architecture.infrastructure-edges"}},
			},
		},
	}
	for _, c := range composites {
		if err := lib.AddComposite(c); err != nil {
			return nil, err
		}
	}

	if err := lib.Finalize(); err != nil {
		return nil, err
	}
	return lib, nil
}
