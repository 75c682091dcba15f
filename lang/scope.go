package lang

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// ScopeID is a handle to a [Scope] in the arena owned by a [Tree].
//
// The low bits select an arena slot and the high bits count how many times
// that slot has been reused, so a handle to a released scope never resolves
// to a newer scope occupying the same slot.
type ScopeID int64

const (
	noScope ScopeID = -1

	slotBits = 32
	slotMask = 1<<slotBits - 1
)

func (id ScopeID) slot() int { return int(id & slotMask) }

// next returns the handle for the next scope to occupy the slot of id.
func (id ScopeID) next() ScopeID { return id + 1<<slotBits }

// Scope is a namespace node: a set of uniquely named entries plus a handle
// to the enclosing scope. Only the root scope of a [Tree] has no parent.
type Scope struct {
	tree    *Tree
	id      ScopeID
	parent  ScopeID
	name    string
	desc    string
	entries map[string]*Entry
}

// ID returns the arena handle of s.
func (s *Scope) ID() ScopeID { return s.id }

// Name returns the name of the struct entry that owns s ("" for the root).
func (s *Scope) Name() string { return s.name }

// Description returns the description given when s was created.
func (s *Scope) Description() string { return s.desc }

// Tree returns the tree that owns s.
func (s *Scope) Tree() *Tree { return s.tree }

// Parent returns the enclosing scope. It reports false for the root.
func (s *Scope) Parent() (*Scope, bool) {
	p := s.tree.scope(s.parent)

	return p, p != nil
}

// IsRoot reports whether s is the global scope.
func (s *Scope) IsRoot() bool { return s.parent == noScope }

// Path returns the dotted path from the root to s ("" for the root).
func (s *Scope) Path() string {
	var parts []string

	for cur := s; cur != nil && !cur.IsRoot(); cur, _ = cur.Parent() {
		parts = append(parts, cur.name)
	}

	slices.Reverse(parts)

	return strings.Join(parts, ".")
}

// Len returns the number of concrete entries in s.
func (s *Scope) Len() int {
	n := 0

	for _, e := range s.entries {
		if !e.IsPlaceholder() {
			n++
		}
	}

	return n
}

// Lookup finds a concrete entry named name. With allowOuter false only s
// itself is searched; otherwise the search continues through enclosing
// scopes up to the root. Placeholders are never returned.
func (s *Scope) Lookup(name string, allowOuter bool) (*Entry, bool) {
	for cur := s; cur != nil; {
		if e, ok := cur.entries[name]; ok && !e.IsPlaceholder() {
			return e, true
		}

		if !allowOuter {
			break
		}

		cur, _ = cur.Parent()
	}

	return nil, false
}

// AddPlaceholder reserves name in s with a placeholder entry. Adding a name
// that is already reserved returns the existing placeholder; adding a name
// that denotes a concrete entry is a redeclaration conflict.
func (s *Scope) AddPlaceholder(name string) (*Entry, error) {
	if e, ok := s.entries[name]; ok {
		if e.IsPlaceholder() {
			return e, nil
		}

		return nil, ErrRedeclaration.Because(
			"'" + name + "' is already declared in " + s.describe(),
		)
	}

	e := s.tree.newEntry(KindPlaceholder)
	e.name = name
	e.owner = s.id
	s.entries[name] = e

	return e, nil
}

// Reserve adds a placeholder carrying a description and default value. A
// script assignment to name later promotes it, and the promoted entry keeps
// desc and def.
func (s *Scope) Reserve(name, desc, def string) (*Entry, error) {
	e, err := s.AddPlaceholder(name)
	if err != nil {
		return nil, err
	}

	e.desc, e.def, e.hasDf = desc, def, true

	return e, nil
}

// Replace installs e under name, taking the slot previously held by a
// placeholder or entry of the same name. A struct entry's child scope is
// re-parented to s.
func (s *Scope) Replace(name string, e *Entry) {
	if old, ok := s.entries[name]; ok && old != e && old.kind == KindStruct &&
		(e.kind != KindStruct || e.child != old.child) {
		s.tree.release(old.child)
	}

	e.name = name
	e.tree = s.tree
	e.owner = s.id
	s.entries[name] = e

	if e.kind == KindStruct {
		if c := s.tree.scope(e.child); c != nil {
			c.parent = s.id
			c.name = name
		}
	}
}

// AddScope creates a struct entry named name in s and returns its child
// scope. If name already denotes a struct, its existing child is returned.
func (s *Scope) AddScope(name, desc string) (*Scope, error) {
	if e, ok := s.entries[name]; ok && !e.IsPlaceholder() {
		if c, ok := e.Struct(); ok {
			return c, nil
		}

		return nil, ErrRedeclaration.Because(
			"'" + name + "' is a " + e.Type().String() + ", not a Struct",
		)
	}

	child := s.tree.newScope(s.id, name, desc)

	e := s.tree.newEntry(KindStruct)
	e.desc = desc
	e.child = child.id
	s.Replace(name, e)

	return child, nil
}

// Names returns the names of the concrete entries in s, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.entries))

	for name, e := range s.entries {
		if !e.IsPlaceholder() {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// Entries returns an iterator over the concrete entries in s, sorted by
// name.
func (s *Scope) Entries() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, name := range slices.Sorted(maps.Keys(s.entries)) {
			e := s.entries[name]
			if e.IsPlaceholder() {
				continue
			}

			if !yield(e) {
				return
			}
		}
	}
}

// attach adds a new concrete entry to s, failing if name is taken.
func (s *Scope) attach(e *Entry) error {
	if old, ok := s.entries[e.name]; ok && !old.IsPlaceholder() {
		return ErrRedeclaration.Because(
			"'" + e.name + "' is already declared in " + s.describe(),
		)
	}

	s.Replace(e.name, e)

	return nil
}

// remove drops the slot for name, releasing a struct's child scope.
func (s *Scope) remove(name string) {
	e, ok := s.entries[name]
	if !ok {
		return
	}

	delete(s.entries, name)

	if e.kind == KindStruct {
		s.tree.release(e.child)
	}
}

func (s *Scope) describe() string {
	if s.IsRoot() {
		return "global scope"
	}

	return "scope '" + s.Path() + "'"
}

func (t *Tree) newScope(parent ScopeID, name, desc string) *Scope {
	s := &Scope{
		tree:    t,
		parent:  parent,
		name:    name,
		desc:    desc,
		entries: make(map[string]*Entry),
	}

	if n := len(t.free); n > 0 {
		s.id = t.free[n-1].next()
		t.free = t.free[:n-1]
		t.scopes[s.id.slot()] = s
	} else {
		s.id = ScopeID(len(t.scopes))
		t.scopes = append(t.scopes, s)
	}

	return s
}

// scope resolves id. It returns nil for noScope and for a handle whose
// scope has been released, even if the slot now holds another scope.
func (t *Tree) scope(id ScopeID) *Scope {
	if id < 0 || id.slot() >= len(t.scopes) {
		return nil
	}

	if s := t.scopes[id.slot()]; s != nil && s.id == id {
		return s
	}

	return nil
}

// release frees the scope id and, depth-first, every scope nested in it.
func (t *Tree) release(id ScopeID) {
	s := t.scope(id)
	if s == nil || id == t.root {
		return
	}

	for _, e := range s.entries {
		if e.kind == KindStruct {
			t.release(e.child)
		}
	}

	t.scopes[id.slot()] = nil
	t.free = append(t.free, id)
}

// cloneScope deep-copies scope id into a new scope with the given parent.
func (t *Tree) cloneScope(id ScopeID, parent ScopeID) ScopeID {
	src := t.scope(id)
	if src == nil {
		return noScope
	}

	dst := t.newScope(parent, src.name, src.desc)

	for name, e := range src.entries {
		if e.IsPlaceholder() {
			continue
		}

		dst.Replace(name, e.Clone())
	}

	return dst.id
}

// assignScope makes the members of dst equal to those of src.
//
// A member of dst with a counterpart in src is overwritten in place, so a
// linked member keeps writing through to its host variable and a nested
// struct is assigned the same way. Members missing from dst are copied in.
// Members missing from src are dropped unless they hold linked storage.
// If any counterpart has a different type, nothing is changed.
func (t *Tree) assignScope(dst, src ScopeID) error {
	if dst == src {
		return nil
	}

	if t.scope(dst) == nil || t.scope(src) == nil {
		return ErrInternal.Because("struct assignment refers to a released scope")
	}

	// Snapshot src so it may overlap dst, as in "a = a.b" or "a.b = a".
	tmp := t.cloneScope(src, noScope)
	defer t.release(tmp)

	if err := t.checkAssignScope(t.scope(dst), t.scope(tmp)); err != nil {
		return err
	}

	t.mergeScope(t.scope(dst), t.scope(tmp))

	return nil
}

func (t *Tree) checkAssignScope(dst, src *Scope) error {
	for _, name := range slices.Sorted(maps.Keys(src.entries)) {
		se := src.entries[name]

		de, ok := dst.entries[name]
		if !ok || de.IsPlaceholder() {
			continue
		}

		if dt, st := de.Type(), se.Type(); dt != st {
			return ErrTypeMismatch.Because(
				"cannot assign " + st.String() + " to " + dt.String() +
					" '" + joinPath(dst.Path(), name) + "'",
			)
		}

		if de.kind == KindStruct {
			if err := t.checkAssignScope(t.scope(de.child), t.scope(se.child)); err != nil {
				return err
			}
		}
	}

	return nil
}

// mergeScope moves the entries of src into dst. src must be a scratch scope
// that already passed checkAssignScope against dst.
func (t *Tree) mergeScope(dst, src *Scope) {
	for name, de := range dst.entries {
		if de.IsPlaceholder() || de.hasLinks() {
			continue
		}

		if _, ok := src.entries[name]; !ok {
			dst.remove(name)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(src.entries)) {
		se := src.entries[name]
		de, ok := dst.entries[name]

		switch {
		case ok && de.kind == KindStruct:
			t.mergeScope(t.scope(de.child), t.scope(se.child))

		case ok && !de.IsPlaceholder():
			// Types were checked, so the struct case of CopyValue is never
			// reached here.
			_ = de.CopyValue(se)

		default:
			delete(src.entries, name)

			if ok {
				se.desc, se.def, se.hasDf = de.desc, de.def, de.hasDf
			}

			dst.Replace(name, se)
		}
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "." + name
}
