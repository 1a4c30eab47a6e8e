package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tenet/internal/constraint"
)

// --- Helpers ---

func writePack(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing pack file: %v", err)
	}
	return path
}

const basicPack = `
constraints:
  - id: testing.write-test-first
    title: Write a failing test first
    priority: 0.9
    triggers:
      keywords: [test, tdd]
      file_patterns: ["*_test.go"]
      context_patterns: [testing]
      confidence_threshold: 0.2
    reminders:
      - Write a failing test before touching the implementation.

composites:
  - id: methodology.tdd
    title: TDD cycle
    priority: 0.95
    composition: sequential
    components:
      - id: testing.write-test-first
        role: red
    triggers:
      keywords: [tdd, test]
      confidence_threshold: 0.2
`

// --- Load ---

func TestLoad_BasicPack(t *testing.T) {
	path := writePack(t, t.TempDir(), "pack.yaml", basicPack)

	lib, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if lib.TotalConstraints() != 2 {
		t.Errorf("TotalConstraints = %d, want 2", lib.TotalConstraints())
	}

	e, err := lib.Get("methodology.tdd")
	if err != nil {
		t.Fatalf("Get composite: %v", err)
	}
	if e.Composite.Components[0].Role != "red" {
		t.Errorf("component role = %q, want red", e.Composite.Components[0].Role)
	}
	if e.Composite.Triggers.ConfidenceThreshold != 0.2 {
		t.Errorf("threshold = %g, want 0.2", e.Composite.Triggers.ConfidenceThreshold)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writePack(t, t.TempDir(), "broken.yaml", "constraints: [not: closed")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Fatalf("want a parse error, got %v", err)
	}
}

func TestLoad_DanglingReferenceFailsAtFinalize(t *testing.T) {
	pack := `
composites:
  - id: methodology.tdd
    title: TDD cycle
    priority: 0.9
    composition: sequential
    components:
      - id: never.defined
`
	path := writePack(t, t.TempDir(), "dangling.yaml", pack)
	_, err := Load(path)
	var nf *constraint.ConstraintNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want ConstraintNotFoundError from finalize, got %v", err)
	}
}

func TestLoad_CycleFailsAtFinalize(t *testing.T) {
	pack := `
composites:
  - id: x
    title: X
    priority: 0.5
    composition: sequential
    components: [{id: y}]
  - id: y
    title: Y
    priority: 0.5
    composition: sequential
    components: [{id: x}]
`
	path := writePack(t, t.TempDir(), "cycle.yaml", pack)
	_, err := Load(path)
	var circ *constraint.CircularReferenceError
	if !errors.As(err, &circ) {
		t.Fatalf("want CircularReferenceError from finalize, got %v", err)
	}
}

func TestLoad_ProgressiveDerivesComponentsFromLevels(t *testing.T) {
	pack := `
constraints:
  - id: refactor.l1
    title: Level one
    priority: 0.5
    reminders: [Rename things.]
  - id: refactor.l2
    title: Level two
    priority: 0.5
    reminders: [Extract methods.]

composites:
  - id: methodology.refactoring
    title: Refactoring ladder
    priority: 0.7
    composition: progressive
    levels:
      - label: readability
        constraints: [refactor.l1]
      - label: complexity
        constraints: [refactor.l2]
        barrier: true
        guidance: [Keep the suite green.]
`
	path := writePack(t, t.TempDir(), "progressive.yaml", pack)
	lib, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e, err := lib.Get("methodology.refactoring")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(e.Composite.Components) != 2 {
		t.Errorf("derived components = %d, want 2", len(e.Composite.Components))
	}
	if !e.Composite.Levels[1].IsBarrier || len(e.Composite.Levels[1].BarrierGuidance) != 1 {
		t.Errorf("barrier level not parsed: %+v", e.Composite.Levels[1])
	}
}

// --- LoadDir ---

func TestLoadDir_ForwardReferencesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	// The composite file sorts before the atomic file — load order must
	// not matter.
	writePack(t, dir, "10-composites.yaml", `
composites:
  - id: methodology.tdd
    title: TDD cycle
    priority: 0.9
    composition: sequential
    components: [{id: testing.write-test-first}]
`)
	writePack(t, dir, "20-atomics.yaml", `
constraints:
  - id: testing.write-test-first
    title: Write a failing test first
    priority: 0.9
    reminders: [Write the test first.]
`)

	lib, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if lib.TotalConstraints() != 2 {
		t.Errorf("TotalConstraints = %d, want 2", lib.TotalConstraints())
	}
}

func TestLoadDir_DuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	atomic := `
constraints:
  - id: testing.write-test-first
    title: Write a failing test first
    priority: 0.9
    reminders: [Write the test first.]
`
	writePack(t, dir, "a.yaml", atomic)
	writePack(t, dir, "b.yaml", atomic)

	_, err := LoadDir(dir)
	var dup *constraint.DuplicateConstraintError
	if !errors.As(err, &dup) {
		t.Fatalf("want DuplicateConstraintError across files, got %v", err)
	}
}

func TestLoadDir_EmptyDirectory(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Fatal("LoadDir with no pack files should fail")
	}
}

// --- DefaultLibrary ---

func TestDefaultLibrary_BuildsAndFinalizes(t *testing.T) {
	lib, err := DefaultLibrary()
	if err != nil {
		t.Fatalf("DefaultLibrary failed: %v", err)
	}
	if lib.TotalConstraints() == 0 {
		t.Fatal("default library is empty")
	}
	for _, id := range []string{
		"methodology.tdd",
		"methodology.refactoring-levels",
		"methodology.test-discipline",
		"architecture.clean-layers",
	} {
		e, err := lib.Get(id)
		if err != nil {
			t.Errorf("Get(%s): %v", id, err)
			continue
		}
		if e.Kind != constraint.KindComposite {
			t.Errorf("%s: kind = %s, want composite", id, e.Kind)
		}
	}
}
