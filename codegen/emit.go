package codegen

import (
	"coolz80/ast"
	"coolz80/z80"
)

// Files included ahead of the generated code: assembler definitions first,
// then the runtime library that implements the built-in methods.
var (
	headerIncludes  = []string{"ti83plus.inc", "cool.inc", "app.inc"}
	runtimeIncludes = []string{
		"boot.z80",
		"memory.z80",
		"display.z80",
		"keyboard.z80",
		"misc.z80",
		"Object.z80",
		"IO.z80",
		"math.z80",
		"String.z80",
	}
)

// Labels of the global tables.
const (
	classNameTab    = "class_nameTab"
	classObjTab     = "class_objTab"
	inheritanceTree = "inheritance_tree"
	intTagLabel     = "_int_tag"
	boolTagLabel    = "_bool_tag"
	stringTagLabel  = "_string_tag"
)

// eyeCatcher marks the word before every static object.
const eyeCatcher = -1

func (g *CodeGenerator) emitHeader(separateDispatch bool) {
	for _, file := range headerIncludes {
		g.out.Include(file)
	}
	g.out.Raw("defpage(0)")
	g.out.Jp(z80.Always, "_start")
	for _, file := range runtimeIncludes {
		g.out.Include(file)
	}
	if separateDispatch {
		g.out.Include(g.opts.DispatchInclude)
	}
}

// emitGlobalData defines the tags the runtime needs for the value classes.
func (g *CodeGenerator) emitGlobalData() error {
	for _, global := range []struct{ label, class string }{
		{intTagLabel, ast.IntClass},
		{boolTagLabel, ast.BoolClass},
		{stringTagLabel, ast.StringClass},
	} {
		node, err := g.basicClass(global.class)
		if err != nil {
			return err
		}
		g.out.Label(global.label)
		g.out.WordInt(node.Tag)
	}
	return nil
}

// emitConstants writes the string constants, then the integers, then the two
// booleans, each as a complete static object.
func (g *CodeGenerator) emitConstants() error {
	str, err := g.basicClass(ast.StringClass)
	if err != nil {
		return err
	}
	for _, e := range g.constants.Strings.Entries() {
		length, err := g.intConst(len(e.Value()))
		if err != nil {
			return err
		}
		g.out.WordInt(eyeCatcher)
		g.out.Label(stringConstLabel(e))
		g.out.WordInt(str.Tag)
		g.out.WordInt(stringObjectSize(e.Value()))
		g.out.Word(z80.At(str.DispTabLabel()))
		g.out.Word(length)
		g.out.Asciz(e.Value())
	}

	integer, err := g.basicClass(ast.IntClass)
	if err != nil {
		return err
	}
	for _, e := range g.constants.Ints.Entries() {
		g.out.WordInt(eyeCatcher)
		g.out.Label(intConstLabel(e))
		g.out.WordInt(integer.Tag)
		g.out.WordInt(integer.ObjectSize)
		g.out.Word(z80.At(integer.DispTabLabel()))
		g.out.WordInt(e.Value())
	}

	boolean, err := g.basicClass(ast.BoolClass)
	if err != nil {
		return err
	}
	for _, v := range []bool{false, true} {
		g.out.WordInt(eyeCatcher)
		g.out.Label(boolConstLabel(v))
		g.out.WordInt(boolean.Tag)
		g.out.WordInt(boolean.ObjectSize)
		g.out.Word(z80.At(boolean.DispTabLabel()))
		if v {
			g.out.WordInt(1)
		} else {
			g.out.WordInt(0)
		}
	}
	return nil
}

// stringObjectSize is the header, the length pointer and the bytes of s
// with their terminator.
func stringObjectSize(s string) int {
	return HeaderSize + WordSize + len(s) + 1
}

// emitPrototypes writes the template each "new" copies, in tag order.
// Attribute slots start out zero; class init fills them in.
func (g *CodeGenerator) emitPrototypes() error {
	zero, err := g.intConst(0)
	if err != nil {
		return err
	}
	for _, node := range g.classes.Classes() {
		g.out.WordInt(eyeCatcher)
		g.out.Label(node.ProtObjLabel())
		g.out.WordInt(node.Tag)
		if node.Name == ast.StringClass {
			g.out.WordInt(stringObjectSize(""))
			g.out.Word(z80.At(node.DispTabLabel()))
			g.out.Word(zero)
			g.out.Asciz("")
			continue
		}
		g.out.WordInt(node.ObjectSize)
		g.out.Word(z80.At(node.DispTabLabel()))
		for range node.Attributes {
			g.out.WordInt(0)
		}
	}
	return nil
}

// emitDispatchTables writes every table, parents first.
func (g *CodeGenerator) emitDispatchTables(w *z80.Writer) error {
	return g.classes.PreOrder(func(node *ClassNode) error {
		w.Label(node.DispTabLabel())
		for _, m := range node.Dispatch.Entries() {
			w.Word(z80.At(m.Label()))
		}
		return nil
	})
}

// emitClassObjTab writes the prototype and init routine of each class,
// indexed by tag.
func (g *CodeGenerator) emitClassObjTab() {
	g.out.Label(classObjTab)
	for _, node := range g.classes.Classes() {
		g.out.Word(z80.At(node.ProtObjLabel()))
		g.out.Word(z80.At(node.InitLabel()))
	}
}

func (g *CodeGenerator) emitClassNameTab() error {
	g.out.Label(classNameTab)
	for _, node := range g.classes.Classes() {
		name, err := g.stringConst(node.Name)
		if err != nil {
			return err
		}
		g.out.Word(name)
	}
	return nil
}

func (g *CodeGenerator) emitInheritanceTree() {
	g.out.Label(inheritanceTree)
	for _, entry := range g.classes.InheritanceTree() {
		g.out.WordInt(entry.Tag)
		g.out.WordInt(entry.Delta)
	}
}
