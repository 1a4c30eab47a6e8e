package constraint

import "sort"

// Library is the id-indexed store of atomic and composite constraints.
//
// Invariant: an id held in one map never exists in the other
// (case-insensitive). The library is built once at startup by the
// config loader and is read-mostly afterwards; incremental Add* is
// supported but is documented as not racing with concurrent resolution
// — callers that mutate at runtime must serialize externally.
type Library struct {
	atomics    map[string]*Atomic
	composites map[string]*Composite
}

// NewLibrary creates an empty constraint library.
func NewLibrary() *Library {
	return &Library{
		atomics:    make(map[string]*Atomic),
		composites: make(map[string]*Composite),
	}
}

// Entry is the tagged variant returned by Get: exactly one of Atomic or
// Composite is set, indicated by Kind.
type Entry struct {
	Kind      Kind
	Atomic    *Atomic
	Composite *Composite
}

// exists reports whether the normalized key is held in either map.
func (l *Library) exists(key string) bool {
	_, inAtomics := l.atomics[key]
	_, inComposites := l.composites[key]
	return inAtomics || inComposites
}

// AddAtomic validates and inserts an atomic constraint. Fails with
// DuplicateConstraintError if the id already exists in either map.
func (l *Library) AddAtomic(a *Atomic) error {
	if err := a.Validate(); err != nil {
		return err
	}
	key := Normalize(a.ID)
	if l.exists(key) {
		return &DuplicateConstraintError{ID: a.ID}
	}
	l.atomics[key] = a
	return nil
}

// AddComposite validates and inserts a composite constraint. Component
// references are not checked for existence — forward references across
// load order are legal and surface at resolution instead.
func (l *Library) AddComposite(c *Composite) error {
	if err := c.Validate(); err != nil {
		return err
	}
	key := Normalize(c.ID)
	if l.exists(key) {
		return &DuplicateConstraintError{ID: c.ID}
	}
	l.composites[key] = c
	return nil
}

// Get returns the constraint held under the id, as a tagged Entry.
func (l *Library) Get(id string) (*Entry, error) {
	key := Normalize(id)
	if a, ok := l.atomics[key]; ok {
		return &Entry{Kind: KindAtomic, Atomic: a}, nil
	}
	if c, ok := l.composites[key]; ok {
		return &Entry{Kind: KindComposite, Composite: c}, nil
	}
	return nil, &ConstraintNotFoundError{ID: id}
}

// TotalConstraints returns the number of constraints across both maps.
func (l *Library) TotalConstraints() int {
	return len(l.atomics) + len(l.composites)
}

// Atomics returns every atomic constraint sorted by normalized id, for
// deterministic iteration by the trigger matcher.
func (l *Library) Atomics() []*Atomic {
	keys := make([]string, 0, len(l.atomics))
	for k := range l.atomics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Atomic, len(keys))
	for i, k := range keys {
		out[i] = l.atomics[k]
	}
	return out
}

// Composites returns every composite constraint sorted by normalized id.
func (l *Library) Composites() []*Composite {
	keys := make([]string, 0, len(l.composites))
	for k := range l.composites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Composite, len(keys))
	for i, k := range keys {
		out[i] = l.composites[k]
	}
	return out
}

// Finalize runs the optional eager pre-check after a full load: every
// component reference must resolve to an existing id, and the reference
// graph must be acyclic. Loaders call this once all definitions are in,
// so startup fails fast instead of deferring structural defects to the
// first serving request.
func (l *Library) Finalize() error {
	for _, key := range sortedKeys(l.composites) {
		c := l.composites[key]
		for _, ref := range c.Components {
			if !l.exists(Normalize(ref.TargetID)) {
				return &ConstraintNotFoundError{ID: ref.TargetID}
			}
		}
		if err := l.checkCycle(key, []string{key}); err != nil {
			return err
		}
	}
	return nil
}

// checkCycle walks the reference graph under key, failing on the first
// id that reappears on the current path.
func (l *Library) checkCycle(key string, path []string) error {
	c, ok := l.composites[key]
	if !ok {
		return nil // atomic leaf, nothing to walk
	}
	for _, ref := range c.Components {
		target := Normalize(ref.TargetID)
		if i := indexOf(path, target); i >= 0 {
			cycle := append(append([]string{}, path[i:]...), target)
			return &CircularReferenceError{Path: cycle}
		}
		if err := l.checkCycle(target, append(path, target)); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(path []string, id string) int {
	for i, p := range path {
		if p == id {
			return i
		}
	}
	return -1
}

func sortedKeys(m map[string]*Composite) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
