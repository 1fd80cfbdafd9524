// Package codegen lowers a type-checked COOL program to Z80 assembly for
// the TI-83+. It builds the class hierarchy with tags, object layouts and
// dispatch tables, then writes the data tables, class initializers and
// method bodies as one text stream.
package codegen

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"coolz80/ast"
	"coolz80/logger"
	"coolz80/symtab"
	"coolz80/z80"
)

// DefaultDispatchInclude is the companion file the header includes when
// dispatch tables are written separately.
const DefaultDispatchInclude = "disptab.z80"

// Options configures a CodeGenerator.
type Options struct {
	// DispatchInclude names the dispatch table file in the header's
	// #include. Empty means DefaultDispatchInclude.
	DispatchInclude string
}

// CodeGenerator carries the state of one compilation: the class table, the
// constant pool and the label counter. Code is generated strictly in
// sequence, so none of it is guarded.
type CodeGenerator struct {
	opts      Options
	classes   *ClassTable
	constants *symtab.Store
	out       *z80.Writer
	labels    int

	// Routine being generated.
	class *ClassNode
	env   *VariableEnvironment
}

func NewCodeGenerator(opts Options) *CodeGenerator {
	if opts.DispatchInclude == "" {
		opts.DispatchInclude = DefaultDispatchInclude
	}
	return &CodeGenerator{
		opts:      opts,
		constants: symtab.NewStore(),
	}
}

// Generate writes the assembly for program to out. When disptab is non-nil
// the dispatch tables go there and out includes them by name; otherwise
// they are written in line after the prototypes.
func (g *CodeGenerator) Generate(program *ast.Program, out, disptab io.Writer) error {
	classes, err := NewClassTable(program.Classes)
	if err != nil {
		return err
	}
	g.classes = classes
	logger.Debug("class table built", "classes", classes.Len())

	g.collectConstants()
	logger.Debug("constants interned",
		"strings", g.constants.Strings.Len(),
		"ints", g.constants.Ints.Len())

	g.out = z80.NewWriter(out)
	g.emitHeader(disptab != nil)
	if err := g.emitGlobalData(); err != nil {
		return err
	}
	if err := g.emitConstants(); err != nil {
		return err
	}
	if err := g.emitPrototypes(); err != nil {
		return err
	}
	if disptab == nil {
		if err := g.emitDispatchTables(g.out); err != nil {
			return err
		}
	} else {
		w := z80.NewWriter(disptab)
		if err := g.emitDispatchTables(w); err != nil {
			return err
		}
		if err := w.Err(); err != nil {
			return errors.Wrap(err, "writing dispatch tables")
		}
	}
	g.emitClassObjTab()
	if err := g.emitClassNameTab(); err != nil {
		return err
	}
	g.emitInheritanceTree()

	if err := g.emitClassInits(); err != nil {
		return err
	}
	if err := g.emitMethods(); err != nil {
		return err
	}
	if err := g.out.Err(); err != nil {
		return errors.Wrap(err, "writing assembly")
	}
	logger.Debug("code generated", "lines", g.out.Lines(), "labels", g.labels)
	return nil
}

// ClassTable returns the hierarchy built by the last Generate.
func (g *CodeGenerator) ClassTable() *ClassTable { return g.classes }

func (g *CodeGenerator) Constants() *symtab.Store { return g.constants }

// Labels is the number of local labels handed out so far.
func (g *CodeGenerator) Labels() int { return g.labels }

func (g *CodeGenerator) newLabel() string {
	l := fmt.Sprintf("label%d", g.labels)
	g.labels++
	return l
}

// Constant labels.

func stringConstLabel(e *symtab.Entry[string]) string { return fmt.Sprintf("str_const%d", e.ID()) }
func intConstLabel(e *symtab.Entry[int]) string       { return fmt.Sprintf("int_const%d", e.ID()) }

func boolConstLabel(v bool) string {
	if v {
		return "bool_const1"
	}
	return "bool_const0"
}

func boolConst(v bool) z80.Absolute { return z80.At(boolConstLabel(v)) }

// stringConst returns the address of an interned string. Every string the
// generator refers to is interned before any code is written.
func (g *CodeGenerator) stringConst(s string) (z80.Absolute, error) {
	e, ok := g.constants.Strings.Lookup(s)
	if !ok {
		return z80.Absolute{}, internalErrorf(g.className(), "string constant %q was not interned", s)
	}
	return z80.At(stringConstLabel(e)), nil
}

func (g *CodeGenerator) intConst(n int) (z80.Absolute, error) {
	e, ok := g.constants.Ints.Lookup(n)
	if !ok {
		return z80.Absolute{}, internalErrorf(g.className(), "integer constant %d was not interned", n)
	}
	return z80.At(intConstLabel(e)), nil
}

// basicClass returns one of the classes NewClassTable installs itself.
func (g *CodeGenerator) basicClass(name string) (*ClassNode, error) {
	node, ok := g.classes.Lookup(name)
	if !ok {
		return nil, internalErrorf(g.className(), "basic class %s is missing", name)
	}
	return node, nil
}

func (g *CodeGenerator) className() string {
	if g.class == nil {
		return ""
	}
	return g.class.Name
}
