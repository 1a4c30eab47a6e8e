// Package resolve expands composite constraint references into fully
// resolved trees.
//
// A Resolver is bound to exactly one constraint.Library and owns its
// own memo cache — never a process-wide one — so reloading a library
// can never serve stale subtrees from a previous instance. Cycle
// detection is a walk over the recursion stack of ids; because
// constraints refer to each other by id rather than by pointer, a cycle
// is caught before any stack-depth failure.
package resolve

import (
	"context"
	"sync"

	"tenet/internal/constraint"
)

// Resolved is a fully expanded constraint tree node: an atomic leaf or
// a composite whose components are themselves resolved.
type Resolved struct {
	ID        string
	Kind      constraint.Kind
	Atomic    *constraint.Atomic    // set when Kind == KindAtomic
	Composite *constraint.Composite // set when Kind == KindComposite
	Components []Component          // resolved in declared order, composites only
}

// Component pairs a resolved child with the role tag its reference
// carried.
type Component struct {
	Role string
	Node *Resolved
}

// Title returns the display title of the underlying constraint.
func (r *Resolved) Title() string {
	if r.Kind == constraint.KindAtomic {
		return r.Atomic.Title
	}
	return r.Composite.Title
}

// Priority returns the priority of the underlying constraint.
func (r *Resolved) Priority() float64 {
	if r.Kind == constraint.KindAtomic {
		return r.Atomic.Priority
	}
	return r.Composite.Priority
}

// Reminders collects the reminder lines of every atomic leaf under this
// node, in declared traversal order.
func (r *Resolved) Reminders() []string {
	if r.Kind == constraint.KindAtomic {
		return r.Atomic.Reminders
	}
	var out []string
	for _, c := range r.Components {
		out = append(out, c.Node.Reminders()...)
	}
	return out
}

// Find returns the resolved node with the given id anywhere under this
// tree (including the root), or nil.
func (r *Resolved) Find(id string) *Resolved {
	key := constraint.Normalize(id)
	if r.ID == key {
		return r
	}
	for _, c := range r.Components {
		if found := c.Node.Find(key); found != nil {
			return found
		}
	}
	return nil
}

// Resolver expands references against one library instance, memoizing
// completed subtrees. Safe for concurrent use: the cache is guarded by
// a reader/writer lock, and an id is published only after its whole
// subtree resolved — an abandoned call can never leave a partial entry.
type Resolver struct {
	lib *constraint.Library

	mu   sync.RWMutex
	memo map[string]*Resolved

	// onExpand, when set, is invoked once per actual (non-memoized)
	// expansion. Used by tests to count cache misses.
	onExpand func(id string)
}

// New creates a Resolver bound to the given library.
func New(lib *constraint.Library) *Resolver {
	return &Resolver{
		lib:  lib,
		memo: make(map[string]*Resolved),
	}
}

// Invalidate discards the whole cache. Call after any library mutation.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.memo = make(map[string]*Resolved)
	r.mu.Unlock()
}

// Resolve expands the constraint with the given id into a resolved
// tree. Atomic ids return directly; composite ids resolve every
// component reference recursively. Fails with ConstraintNotFoundError
// on a dangling reference and CircularReferenceError (carrying the full
// cycle path) on a cycle — never partially resolving the broken branch.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Resolved, error) {
	return r.resolve(ctx, constraint.Normalize(id), nil)
}

func (r *Resolver) resolve(ctx context.Context, key string, stack []string) (*Resolved, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	cached := r.memo[key]
	r.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	if i := indexOf(stack, key); i >= 0 {
		cycle := append(append([]string{}, stack[i:]...), key)
		return nil, &constraint.CircularReferenceError{Path: cycle}
	}

	entry, err := r.lib.Get(key)
	if err != nil {
		return nil, err
	}

	if r.onExpand != nil {
		r.onExpand(key)
	}

	if entry.Kind == constraint.KindAtomic {
		res := &Resolved{ID: key, Kind: constraint.KindAtomic, Atomic: entry.Atomic}
		r.publish(key, res)
		return res, nil
	}

	comp := entry.Composite
	res := &Resolved{
		ID:         key,
		Kind:       constraint.KindComposite,
		Composite:  comp,
		Components: make([]Component, 0, len(comp.Components)),
	}
	childStack := append(stack, key)
	for _, ref := range comp.Components {
		child, err := r.resolve(ctx, constraint.Normalize(ref.TargetID), childStack)
		if err != nil {
			return nil, err
		}
		res.Components = append(res.Components, Component{Role: ref.Role, Node: child})
	}

	// Publish only after every component resolved — cache writes are
	// all-or-nothing per id.
	r.publish(key, res)
	return res, nil
}

func (r *Resolver) publish(key string, res *Resolved) {
	r.mu.Lock()
	r.memo[key] = res
	r.mu.Unlock()
}

func indexOf(stack []string, id string) int {
	for i, s := range stack {
		if s == id {
			return i
		}
	}
	return -1
}
