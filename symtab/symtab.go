// Package symtab interns the constants a program refers to. Every interned
// value gets a small numeric id that never changes, and enumeration follows
// insertion order so constant pools come out the same on every run.
package symtab

import "fmt"

// Entry is one interned value.
type Entry[T comparable] struct {
	id    int
	value T
}

func (e *Entry[T]) ID() int        { return e.id }
func (e *Entry[T]) Value() T       { return e.value }
func (e *Entry[T]) String() string { return fmt.Sprintf("#%d(%v)", e.id, e.value) }

// Table is an append-only interning table.
type Table[T comparable] struct {
	index   map[T]*Entry[T]
	entries []*Entry[T]
}

func NewTable[T comparable]() *Table[T] {
	return &Table[T]{index: make(map[T]*Entry[T])}
}

// Intern returns the entry for v, adding it if it is not present yet.
func (t *Table[T]) Intern(v T) *Entry[T] {
	if e, ok := t.index[v]; ok {
		return e
	}
	e := &Entry[T]{id: len(t.entries), value: v}
	t.index[v] = e
	t.entries = append(t.entries, e)
	return e
}

func (t *Table[T]) Lookup(v T) (*Entry[T], bool) {
	e, ok := t.index[v]
	return e, ok
}

func (t *Table[T]) Has(v T) bool {
	_, ok := t.index[v]
	return ok
}

// Entries returns the interned entries in insertion order.
func (t *Table[T]) Entries() []*Entry[T] {
	out := make([]*Entry[T], len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Table[T]) Len() int { return len(t.entries) }

// Store holds the string and integer constants of one compilation.
type Store struct {
	Strings *Table[string]
	Ints    *Table[int]
}

func NewStore() *Store {
	return &Store{
		Strings: NewTable[string](),
		Ints:    NewTable[int](),
	}
}

// InternString interns s together with its length, since every string
// constant points at the Int constant holding its length.
func (s *Store) InternString(v string) *Entry[string] {
	s.Ints.Intern(len(v))
	return s.Strings.Intern(v)
}

func (s *Store) InternInt(v int) *Entry[int] {
	return s.Ints.Intern(v)
}
