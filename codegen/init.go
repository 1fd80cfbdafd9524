package codegen

import (
	"coolz80/ast"
	"coolz80/z80"
)

// emitClassInits writes one init routine per class, parents first.
func (g *CodeGenerator) emitClassInits() error {
	return g.classes.PreOrder(g.emitInit)
}

// emitInit writes <Class>_init. It receives a fresh copy of the prototype
// in hl, runs the parent's init on it, evaluates the class's own attribute
// initializers in declaration order and returns the object in hl.
func (g *CodeGenerator) emitInit(node *ClassNode) error {
	g.out.Label(node.InitLabel())
	parent := g.classes.ParentNode(node)
	if parent == nil {
		g.out.Ret()
		return nil
	}

	g.class = node
	g.env = newVariableEnvironment(node)
	defer func() {
		g.class = nil
		g.env = nil
	}()

	own := node.OwnAttributes()
	inits := make(map[string]*ast.Attribute)
	temps := 0
	for _, attr := range node.Class.Attributes() {
		inits[attr.Name.Value] = attr
		temps = max(temps, Temps(attr.Init))
	}
	if err := g.checkFrame(temps, 0); err != nil {
		return err
	}

	g.enterFrame(temps)
	g.out.Move(z80.ARG0, z80.SELF)
	g.out.Call(parent.InitLabel())

	g.env.enterScope()
	for _, slot := range own {
		if slot.IsPrimSlot() {
			continue
		}
		if err := g.generateInitializer(inits[slot.Name].Init, slot.Type); err != nil {
			return err
		}
		loc, err := g.env.lookup(slot.Name)
		if err != nil {
			return err
		}
		g.out.StoreWord(loc, z80.ARG0)
	}
	g.env.exitScope()

	g.out.Move(z80.ARG0, z80.SELF)
	g.leaveFrame(temps)
	return nil
}
