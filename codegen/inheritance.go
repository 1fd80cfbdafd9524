package codegen

import (
	"coolz80/ast"
)

// ClassTable is the class hierarchy of one program. Classes live in an arena
// indexed by tag; parent and children are tags too.
type ClassTable struct {
	nodes  []*ClassNode
	byName map[string]int
}

// ClassNode holds the layout and dispatch data for a class.
type ClassNode struct {
	Class       *ast.Class
	Name        string
	ParentName  string
	Tag         int
	Parent      int // -1 for the root
	Children    []int
	Basic       bool
	Inheritable bool

	// Attributes is the full layout, inherited slots first.
	Attributes []AttributeInfo
	// ObjectSize is the prototype size in bytes.
	ObjectSize int
	Dispatch   *DispatchTable
}

// NoParent is the Parent of the root class.
const NoParent = -1

// NewClassTable installs the built-in classes followed by classes, assigns
// tags in that order, links every class to its parent and computes layouts
// and dispatch tables from the root down.
func NewClassTable(classes []*ast.Class) (*ClassTable, error) {
	ct := &ClassTable{byName: make(map[string]int)}

	for _, class := range append(ast.BasicClasses(), classes...) {
		name := class.Name.Value
		if isInternalName(name) {
			return nil, internalErrorf(name, "reserved class name %s", name)
		}
		if _, exists := ct.byName[name]; exists {
			return nil, internalErrorf(name, "class %s defined twice", name)
		}
		node := &ClassNode{
			Class:       class,
			Name:        name,
			ParentName:  class.ParentName(),
			Tag:         len(ct.nodes),
			Parent:      NoParent,
			Basic:       ast.IsBasic(name),
			Inheritable: ast.IsInheritable(name),
		}
		ct.byName[name] = node.Tag
		ct.nodes = append(ct.nodes, node)
	}

	for _, node := range ct.nodes {
		if node.Name == ast.ObjectClass {
			continue
		}
		parent, ok := ct.Lookup(node.ParentName)
		if !ok {
			return nil, internalErrorf(node.Name, "undefined parent class %s", node.ParentName)
		}
		if !parent.Inheritable {
			return nil, internalErrorf(node.Name, "cannot inherit from %s", parent.Name)
		}
		node.Parent = parent.Tag
		parent.Children = append(parent.Children, node.Tag)
	}

	// Anything not reached from Object sits on a cycle.
	reached := 0
	ct.walk(ct.Root(), func(*ClassNode) error {
		reached++
		return nil
	})
	if reached != len(ct.nodes) {
		for _, node := range ct.nodes {
			if !ct.IsSubclass(node.Name, ast.ObjectClass) {
				return nil, internalErrorf(node.Name, "class %s is not reachable from %s", node.Name, ast.ObjectClass)
			}
		}
	}

	ct.buildLayouts(ct.Root(), nil, HeaderSize)
	ct.buildDispatchTables(ct.Root(), nil)
	return ct, nil
}

// isInternalName reports names the compiler uses for itself. They are never
// tagged and never emitted.
func isInternalName(name string) bool {
	switch name {
	case ast.NoClass, ast.SelfType, ast.PrimSlot:
		return true
	}
	return false
}

func (ct *ClassTable) Root() *ClassNode { return ct.nodes[0] }

func (ct *ClassTable) Len() int { return len(ct.nodes) }

// Node returns the class with the given tag.
func (ct *ClassTable) Node(tag int) *ClassNode { return ct.nodes[tag] }

func (ct *ClassTable) Lookup(name string) (*ClassNode, bool) {
	tag, ok := ct.byName[name]
	if !ok {
		return nil, false
	}
	return ct.nodes[tag], true
}

// Classes returns every class in tag order.
func (ct *ClassTable) Classes() []*ClassNode {
	out := make([]*ClassNode, len(ct.nodes))
	copy(out, ct.nodes)
	return out
}

// PreOrder visits the hierarchy parents first, children in tag order.
func (ct *ClassTable) PreOrder(visit func(*ClassNode) error) error {
	return ct.walk(ct.Root(), visit)
}

func (ct *ClassTable) walk(node *ClassNode, visit func(*ClassNode) error) error {
	if err := visit(node); err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := ct.walk(ct.nodes[child], visit); err != nil {
			return err
		}
	}
	return nil
}

// ParentNode returns the parent of node, or nil for the root.
func (ct *ClassTable) ParentNode(node *ClassNode) *ClassNode {
	if node.Parent == NoParent {
		return nil
	}
	return ct.nodes[node.Parent]
}

// Distance is the number of parent links from sub up to super, or -1 when
// super is not an ancestor of sub.
func (ct *ClassTable) Distance(sub, super string) int {
	node, ok := ct.Lookup(sub)
	if !ok {
		return -1
	}
	for d := 0; d <= len(ct.nodes); d++ {
		if node.Name == super {
			return d
		}
		if node.Parent == NoParent {
			return -1
		}
		node = ct.nodes[node.Parent]
	}
	return -1
}

func (ct *ClassTable) IsSubclass(sub, super string) bool {
	return ct.Distance(sub, super) >= 0
}

// TreeEntry is one row of inheritance_tree. Delta is the signed byte
// distance from this row to the parent's row, 0 at the root.
type TreeEntry struct {
	Tag   int
	Delta int
}

// TreeEntrySize is the size in bytes of a TreeEntry in the emitted table.
const TreeEntrySize = 2 * WordSize

// InheritanceTree returns the rows of inheritance_tree in tag order.
func (ct *ClassTable) InheritanceTree() []TreeEntry {
	entries := make([]TreeEntry, len(ct.nodes))
	for _, node := range ct.nodes {
		entry := TreeEntry{Tag: node.Tag}
		if node.Parent != NoParent {
			entry.Delta = (node.Parent - node.Tag) * TreeEntrySize
		}
		entries[node.Tag] = entry
	}
	return entries
}

// MatchCase runs the case walk the generated code performs: starting at the
// row for tag, it climbs inheritance_tree by deltas and stops at the first
// row whose tag is one of branchTags. It returns the index into branchTags,
// or false when the root is passed without a match.
func (ct *ClassTable) MatchCase(tag int, branchTags []int) (int, bool) {
	tree := ct.InheritanceTree()
	if tag < 0 || tag >= len(tree) {
		return 0, false
	}
	pos := tag * TreeEntrySize
	for {
		entry := tree[pos/TreeEntrySize]
		for i, bt := range branchTags {
			if bt == entry.Tag {
				return i, true
			}
		}
		if entry.Delta == 0 {
			return 0, false
		}
		pos += entry.Delta
	}
}
