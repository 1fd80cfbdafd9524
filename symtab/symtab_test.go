package symtab

import (
	"testing"

	"github.com/kr/pretty"
)

func TestInternIsIdempotent(t *testing.T) {
	tab := NewTable[string]()
	a := tab.Intern("hello")
	b := tab.Intern("world")
	c := tab.Intern("hello")

	if a != c {
		t.Fatalf("interning the same value twice returned different entries: %v vs %v", a, c)
	}
	if a.ID() != 0 || b.ID() != 1 {
		t.Errorf("ids not assigned in insertion order: got %d, %d", a.ID(), b.ID())
	}
	if tab.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", tab.Len())
	}
}

func TestEntriesKeepInsertionOrder(t *testing.T) {
	tab := NewTable[int]()
	for _, v := range []int{42, 0, 7, 42, 0, 13} {
		tab.Intern(v)
	}

	var got []int
	for _, e := range tab.Entries() {
		got = append(got, e.Value())
	}
	want := []int{42, 0, 7, 13}
	if diff := pretty.Diff(want, got); len(diff) > 0 {
		t.Errorf("unexpected order: %v", diff)
	}
}

func TestLookupAndHas(t *testing.T) {
	tab := NewTable[string]()
	tab.Intern("x")

	if !tab.Has("x") {
		t.Error("Has(x) = false, want true")
	}
	if tab.Has("y") {
		t.Error("Has(y) = true, want false")
	}
	if e, ok := tab.Lookup("x"); !ok || e.Value() != "x" {
		t.Errorf("Lookup(x) = %v, %v", e, ok)
	}
	if _, ok := tab.Lookup("y"); ok {
		t.Error("Lookup(y) found an entry")
	}
}

func TestStoreInternsStringLength(t *testing.T) {
	s := NewStore()
	s.InternString("Main")
	s.InternString("")

	for _, n := range []int{4, 0} {
		if !s.Ints.Has(n) {
			t.Errorf("length %d was not interned", n)
		}
	}
	if s.Strings.Len() != 2 {
		t.Errorf("expected 2 strings, got %d", s.Strings.Len())
	}
}
