package codegen

import (
	"coolz80/ast"
	"coolz80/z80"
)

// Object header: tag, size and dispatch table pointer, one word each.
const (
	WordSize       = z80.WordSize
	TagOffset      = 0
	SizeOffset     = 1 * WordSize
	DispatchOffset = 2 * WordSize
	HeaderSize     = 3 * WordSize
)

// AttributeInfo represents an attribute with its type and byte offset in the
// object layout.
type AttributeInfo struct {
	Name   string
	Type   string
	Owner  string // class that declares it
	Offset int
}

// IsPrimSlot reports a raw payload word of a built-in class. The prototype
// supplies its value and no code initializes it.
func (a AttributeInfo) IsPrimSlot() bool { return a.Type == ast.PrimSlot }

// buildLayouts copies the parent's layout into node and appends node's own
// attributes at increasing offsets, then does the same for each child.
func (ct *ClassTable) buildLayouts(node *ClassNode, inherited []AttributeInfo, next int) {
	layout := make([]AttributeInfo, len(inherited), len(inherited)+len(node.Class.Features))
	copy(layout, inherited)
	for _, attr := range node.Class.Attributes() {
		layout = append(layout, AttributeInfo{
			Name:   attr.Name.Value,
			Type:   attr.Type.Value,
			Owner:  node.Name,
			Offset: next,
		})
		next += WordSize
	}
	node.Attributes = layout
	node.ObjectSize = next

	for _, child := range node.Children {
		ct.buildLayouts(ct.nodes[child], layout, next)
	}
}

// Attribute returns the layout slot of name in node.
func (node *ClassNode) Attribute(name string) (AttributeInfo, bool) {
	for _, attr := range node.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return AttributeInfo{}, false
}

// OwnAttributes returns the slots node declares itself, in declaration order.
func (node *ClassNode) OwnAttributes() []AttributeInfo {
	var own []AttributeInfo
	for _, attr := range node.Attributes {
		if attr.Owner == node.Name {
			own = append(own, attr)
		}
	}
	return own
}

// Labels derived from a class name.
func (node *ClassNode) ProtObjLabel() string        { return node.Name + "_protObj" }
func (node *ClassNode) InitLabel() string           { return node.Name + "_init" }
func (node *ClassNode) DispTabLabel() string        { return node.Name + "_dispTab" }
func (node *ClassNode) MethodLabel(m string) string { return node.Name + "." + m }
