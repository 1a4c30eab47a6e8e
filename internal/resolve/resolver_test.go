package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tenet/internal/constraint"
)

// --- Helpers ---

func atomic(id string) *constraint.Atomic {
	return &constraint.Atomic{
		ID:        id,
		Title:     "Atomic " + id,
		Priority:  0.9,
		Triggers:  constraint.Trigger{Keywords: []string{"test"}, ConfidenceThreshold: 0.3},
		Reminders: []string{"Reminder from " + id},
	}
}

func composite(id string, targets ...string) *constraint.Composite {
	refs := make([]constraint.Reference, len(targets))
	for i, t := range targets {
		refs[i] = constraint.Reference{TargetID: t}
	}
	return &constraint.Composite{
		ID:          id,
		Title:       "Composite " + id,
		Priority:    0.8,
		Composition: constraint.CompositionSequential,
		Components:  refs,
	}
}

func mustAdd(t *testing.T, lib *constraint.Library, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("library setup failed: %v", err)
	}
}

// --- Basic resolution ---

func TestResolve_AtomicDirectly(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("testing.write-test-first")))

	r := New(lib)
	res, err := r.Resolve(context.Background(), "testing.write-test-first")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Kind != constraint.KindAtomic {
		t.Errorf("Kind = %s, want atomic", res.Kind)
	}
	if len(res.Reminders()) != 1 {
		t.Errorf("Reminders = %v, want one entry", res.Reminders())
	}
}

func TestResolve_CompositeContainsLeafReminders(t *testing.T) {
	// Scenario 1 from the engine contract: methodology.tdd references
	// testing.write-test-first; the resolved tree's leaves carry the
	// atomic's reminders.
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("testing.write-test-first")))
	mustAdd(t, lib, lib.AddComposite(composite("methodology.tdd", "testing.write-test-first")))

	r := New(lib)
	res, err := r.Resolve(context.Background(), "methodology.tdd")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Kind != constraint.KindComposite {
		t.Fatalf("Kind = %s, want composite", res.Kind)
	}
	reminders := res.Reminders()
	if len(reminders) != 1 || reminders[0] != "Reminder from testing.write-test-first" {
		t.Errorf("Reminders = %v, want the atomic leaf's reminder", reminders)
	}
}

func TestResolve_CaseInsensitiveLookup(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("testing.write-test-first")))

	r := New(lib)
	if _, err := r.Resolve(context.Background(), "  TESTING.Write-Test-First "); err != nil {
		t.Errorf("Resolve should normalize ids: %v", err)
	}
}

func TestResolve_NestedComposite(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("leaf.a")))
	mustAdd(t, lib, lib.AddAtomic(atomic("leaf.b")))
	mustAdd(t, lib, lib.AddComposite(composite("inner", "leaf.a", "leaf.b")))
	mustAdd(t, lib, lib.AddComposite(composite("outer", "inner")))

	r := New(lib)
	res, err := r.Resolve(context.Background(), "outer")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := len(res.Reminders()); got != 2 {
		t.Errorf("nested composite yields %d reminders, want 2", got)
	}
	if res.Find("leaf.b") == nil {
		t.Error("Find should locate a nested leaf")
	}
}

func TestResolve_PreservesComponentOrderAndRoles(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("red")))
	mustAdd(t, lib, lib.AddAtomic(atomic("green")))
	c := composite("cycle.tdd", "red", "green")
	c.Components[0].Role = "failing-test"
	c.Components[1].Role = "make-it-pass"
	mustAdd(t, lib, lib.AddComposite(c))

	r := New(lib)
	res, err := r.Resolve(context.Background(), "cycle.tdd")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Components[0].Node.ID != "red" || res.Components[1].Node.ID != "green" {
		t.Errorf("component order not preserved: %s, %s", res.Components[0].Node.ID, res.Components[1].Node.ID)
	}
	if res.Components[0].Role != "failing-test" {
		t.Errorf("role = %q, want failing-test", res.Components[0].Role)
	}
}

// --- Structural errors ---

func TestResolve_DanglingReference(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddComposite(composite("methodology.tdd", "never.loaded")))

	r := New(lib)
	_, err := r.Resolve(context.Background(), "methodology.tdd")
	var nf *constraint.ConstraintNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want ConstraintNotFoundError, got %v", err)
	}
	if nf.ID != "never.loaded" {
		t.Errorf("not-found ID = %q, want never.loaded", nf.ID)
	}
}

func TestResolve_TwoCycle(t *testing.T) {
	// Scenario 2: X references Y, Y references X. The reported path
	// must match the actual traversal order.
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddComposite(composite("x", "y")))
	mustAdd(t, lib, lib.AddComposite(composite("y", "x")))

	r := New(lib)
	_, err := r.Resolve(context.Background(), "x")
	var circ *constraint.CircularReferenceError
	if !errors.As(err, &circ) {
		t.Fatalf("want CircularReferenceError, got %v", err)
	}
	want := []string{"x", "y", "x"}
	if len(circ.Path) != len(want) {
		t.Fatalf("cycle path = %v, want %v", circ.Path, want)
	}
	for i := range want {
		if circ.Path[i] != want[i] {
			t.Fatalf("cycle path = %v, want %v", circ.Path, want)
		}
	}
}

func TestResolve_SelfCycle(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddComposite(composite("x", "x")))

	r := New(lib)
	_, err := r.Resolve(context.Background(), "x")
	var circ *constraint.CircularReferenceError
	if !errors.As(err, &circ) {
		t.Fatalf("want CircularReferenceError, got %v", err)
	}
	if len(circ.Path) != 2 || circ.Path[0] != "x" || circ.Path[1] != "x" {
		t.Errorf("cycle path = %v, want [x x]", circ.Path)
	}
}

func TestResolve_LongCycleDetectedWithoutStackOverflow(t *testing.T) {
	// N-cycle across 50 composites. The walk must fail with the full
	// chain, not recurse forever.
	lib := constraint.NewLibrary()
	const n = 50
	for i := 0; i < n; i++ {
		next := fmt.Sprintf("chain.%d", (i+1)%n)
		mustAdd(t, lib, lib.AddComposite(composite(fmt.Sprintf("chain.%d", i), next)))
	}

	r := New(lib)
	_, err := r.Resolve(context.Background(), "chain.0")
	var circ *constraint.CircularReferenceError
	if !errors.As(err, &circ) {
		t.Fatalf("want CircularReferenceError, got %v", err)
	}
	if len(circ.Path) != n+1 {
		t.Errorf("cycle path length = %d, want %d", len(circ.Path), n+1)
	}
}

// --- Memoization ---

func TestResolve_MemoizesRepeatedCalls(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("leaf.a")))
	mustAdd(t, lib, lib.AddComposite(composite("top", "leaf.a")))

	r := New(lib)
	expansions := map[string]int{}
	r.onExpand = func(id string) { expansions[id]++ }

	if _, err := r.Resolve(context.Background(), "top"); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if _, err := r.Resolve(context.Background(), "top"); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if expansions["top"] != 1 || expansions["leaf.a"] != 1 {
		t.Errorf("expansions = %v, want each id expanded exactly once", expansions)
	}
}

func TestResolve_DiamondSharedDependencyExpandedOnce(t *testing.T) {
	// left and right both reference shared; resolving top must expand
	// shared a single time.
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("shared")))
	mustAdd(t, lib, lib.AddComposite(composite("left", "shared")))
	mustAdd(t, lib, lib.AddComposite(composite("right", "shared")))
	mustAdd(t, lib, lib.AddComposite(composite("top", "left", "right")))

	r := New(lib)
	expansions := map[string]int{}
	r.onExpand = func(id string) { expansions[id]++ }

	if _, err := r.Resolve(context.Background(), "top"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if expansions["shared"] != 1 {
		t.Errorf("shared expanded %d times, want 1", expansions["shared"])
	}
}

func TestInvalidate_ClearsCache(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("leaf.a")))

	r := New(lib)
	expansions := 0
	r.onExpand = func(string) { expansions++ }

	_, _ = r.Resolve(context.Background(), "leaf.a")
	r.Invalidate()
	_, _ = r.Resolve(context.Background(), "leaf.a")

	if expansions != 2 {
		t.Errorf("expansions after Invalidate = %d, want 2", expansions)
	}
}

// --- Cancellation ---

func TestResolve_CancelledContext(t *testing.T) {
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("leaf.a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(lib)
	if _, err := r.Resolve(ctx, "leaf.a"); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

// --- Performance contract ---

func TestResolve_WideCompositeWithinBudget(t *testing.T) {
	// Scenario 4: a composite referencing 100 atomics resolves within
	// the 50 ms budget cold and warm.
	lib := constraint.NewLibrary()
	targets := make([]string, 100)
	for i := range targets {
		id := fmt.Sprintf("wide.leaf.%03d", i)
		targets[i] = id
		mustAdd(t, lib, lib.AddAtomic(atomic(id)))
	}
	mustAdd(t, lib, lib.AddComposite(composite("wide.root", targets...)))

	r := New(lib)

	start := time.Now()
	res, err := r.Resolve(context.Background(), "wide.root")
	cold := time.Since(start)
	if err != nil {
		t.Fatalf("cold Resolve failed: %v", err)
	}
	if len(res.Components) != 100 {
		t.Fatalf("resolved %d components, want 100", len(res.Components))
	}
	if cold > 50*time.Millisecond {
		t.Errorf("cold resolve took %v, budget is 50ms", cold)
	}

	start = time.Now()
	if _, err := r.Resolve(context.Background(), "wide.root"); err != nil {
		t.Fatalf("warm Resolve failed: %v", err)
	}
	if warm := time.Since(start); warm > 50*time.Millisecond {
		t.Errorf("warm resolve took %v, budget is 50ms", warm)
	}
}

func TestResolve_DeepHierarchy(t *testing.T) {
	// 25 levels of nesting resolve cleanly.
	lib := constraint.NewLibrary()
	mustAdd(t, lib, lib.AddAtomic(atomic("deep.leaf")))
	prev := "deep.leaf"
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("deep.%02d", i)
		mustAdd(t, lib, lib.AddComposite(composite(id, prev)))
		prev = id
	}

	r := New(lib)
	res, err := r.Resolve(context.Background(), prev)
	if err != nil {
		t.Fatalf("deep Resolve failed: %v", err)
	}
	if res.Find("deep.leaf") == nil {
		t.Error("deep leaf should be reachable in the resolved tree")
	}
}
