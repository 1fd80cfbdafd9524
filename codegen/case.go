package codegen

import (
	"coolz80/ast"
	"coolz80/z80"
)

// generateCaseExpression picks the branch for the closest ancestor of the
// scrutinee's class. The generated walk starts at the scrutinee's row of
// inheritance_tree and follows parent deltas toward the root, comparing
// each row's tag with every branch tag. The object itself is never
// modified; the branch only binds a name to it.
func (g *CodeGenerator) generateCaseExpression(e *ast.CaseExpression) error {
	branchTags := make([]int, len(e.Cases))
	for i, c := range e.Cases {
		node, ok := g.classes.Lookup(c.Type.Value)
		if !ok {
			return internalErrorf(g.className(), "case branch on unknown class %s", c.Type.Value)
		}
		branchTags[i] = node.Tag
	}
	file, err := g.stringConst(g.class.Class.Filename)
	if err != nil {
		return err
	}

	if err := g.generateExpression(e.Expression); err != nil {
		return err
	}

	void := g.newLabel()
	loop := g.newLabel()
	noMatch := g.newLabel()
	end := g.newLabel()
	branchLabels := make([]string, len(e.Cases))
	for i := range branchLabels {
		branchLabels[i] = g.newLabel()
	}

	g.out.TestZero(z80.ARG0)
	g.out.Jp(z80.Zero, void)
	g.out.Push(z80.ARG0)

	// hl = inheritance_tree + 4*tag
	g.out.LoadIndirect(z80.DE)
	g.out.ExDEHL()
	g.out.Add(z80.HL, z80.HL)
	g.out.Add(z80.HL, z80.HL)
	g.out.Fetch(z80.DE, z80.At(inheritanceTree))
	g.out.Add(z80.HL, z80.DE)

	g.out.Label(loop)
	g.out.LoadIndirect(z80.BC)
	g.out.Dec(z80.HL)
	for i, tag := range branchTags {
		g.out.Push(z80.HL)
		g.out.LoadInt(z80.HL, tag)
		g.out.ClearCarry()
		g.out.Sbc(z80.HL, z80.BC)
		g.out.Pop(z80.HL)
		g.out.Jp(z80.Zero, branchLabels[i])
	}
	// Climb to the parent row; a zero delta marks the root.
	g.out.Inc(z80.HL)
	g.out.Inc(z80.HL)
	g.out.LoadIndirect(z80.DE)
	g.out.Dec(z80.HL)
	g.out.Dec(z80.HL)
	g.out.Dec(z80.HL)
	g.out.TestZero(z80.DE)
	g.out.Jp(z80.Zero, noMatch)
	g.out.Add(z80.HL, z80.DE)
	g.out.Jp(z80.Always, loop)

	g.out.Label(noMatch)
	g.out.Pop(z80.ARG0)
	g.out.Jp(z80.Always, caseAbort)

	g.out.Label(void)
	g.out.LoadInt(z80.DE, e.Line())
	g.out.Fetch(z80.ARG0, file)
	g.out.Jp(z80.Always, caseAbortVoid)

	for i, c := range e.Cases {
		g.out.Label(branchLabels[i])
		g.out.Pop(z80.ARG0)
		slot := g.env.allocTemp()
		g.out.StoreWord(slot, z80.ARG0)
		g.env.enterScope()
		if err := g.env.bind(c.Name.Value, slot); err != nil {
			return err
		}
		if err := g.generateExpression(c.Expression); err != nil {
			return err
		}
		g.env.exitScope()
		g.env.freeTemp()
		g.out.Jp(z80.Always, end)
	}
	g.out.Label(end)
	return nil
}
