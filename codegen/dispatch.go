package codegen

// MethodInfo represents a method with its fixed slot in the dispatch table.
type MethodInfo struct {
	Name  string
	Impl  string // class whose body runs
	Owner string // class whose table holds the entry
	// Offset is the byte offset of the entry from the table label.
	Offset int
}

// Label is the code address the entry points at.
func (m MethodInfo) Label() string { return m.Impl + "." + m.Name }

// DispatchTable is one class's independent snapshot of method entries.
type DispatchTable struct {
	Owner   string
	entries []MethodInfo
	index   map[string]int
}

func newDispatchTable(owner string) *DispatchTable {
	return &DispatchTable{Owner: owner, index: make(map[string]int)}
}

// clone copies t for owner. Every copied entry is relabeled to the new
// owner; offsets and implementations are kept.
func (t *DispatchTable) clone(owner string) *DispatchTable {
	c := newDispatchTable(owner)
	if t == nil {
		return c
	}
	for _, m := range t.entries {
		m.Owner = owner
		c.index[m.Name] = len(c.entries)
		c.entries = append(c.entries, m)
	}
	return c
}

// define adds a method implemented by impl. An override keeps the existing
// offset and retargets it.
func (t *DispatchTable) define(name, impl string) {
	if i, ok := t.index[name]; ok {
		t.entries[i].Impl = impl
		return
	}
	t.index[name] = len(t.entries)
	t.entries = append(t.entries, MethodInfo{
		Name:   name,
		Impl:   impl,
		Owner:  t.Owner,
		Offset: len(t.entries) * WordSize,
	})
}

func (t *DispatchTable) Lookup(name string) (MethodInfo, bool) {
	i, ok := t.index[name]
	if !ok {
		return MethodInfo{}, false
	}
	return t.entries[i], true
}

// Entries returns the table in offset order.
func (t *DispatchTable) Entries() []MethodInfo {
	out := make([]MethodInfo, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *DispatchTable) Len() int { return len(t.entries) }

func (ct *ClassTable) buildDispatchTables(node *ClassNode, inherited *DispatchTable) {
	table := inherited.clone(node.Name)
	for _, method := range node.Class.Methods() {
		table.define(method.Name.Value, node.Name)
	}
	node.Dispatch = table

	for _, child := range node.Children {
		ct.buildDispatchTables(ct.nodes[child], table)
	}
}

// MethodOffset returns the dispatch offset of method as seen from class.
func (ct *ClassTable) MethodOffset(class, method string) (int, error) {
	m, err := ct.LookupMethod(class, method)
	if err != nil {
		return 0, err
	}
	return m.Offset, nil
}

// LookupMethod returns class's entry for method.
func (ct *ClassTable) LookupMethod(class, method string) (MethodInfo, error) {
	node, ok := ct.Lookup(class)
	if !ok {
		return MethodInfo{}, internalErrorf(class, "unknown class %s", class)
	}
	m, ok := node.Dispatch.Lookup(method)
	if !ok {
		return MethodInfo{}, internalErrorf(class, "no method %s in dispatch table of %s", method, class)
	}
	return m, nil
}
