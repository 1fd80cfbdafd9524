package codegen

import (
	"coolz80/ast"
	"coolz80/logger"
	"coolz80/z80"
)

// Calling convention: the caller pushes the actuals left to right, puts the
// receiver in hl and calls. The result comes back in hl; the caller pops
// the actuals.

// enterFrame saves the caller's frame, reserves temps slots below it and
// binds self to the receiver in hl.
func (g *CodeGenerator) enterFrame(temps int) {
	g.out.Push(z80.FP)
	g.out.Push(z80.SELF)
	g.out.LoadInt(z80.FP, -temps*WordSize)
	g.out.Add(z80.FP, z80.SP)
	g.out.Load(z80.SP, z80.FP)
	g.out.Move(z80.SELF, z80.ARG0)
}

// leaveFrame drops the temporaries, restores the caller's self and frame and
// returns. The result in hl survives.
func (g *CodeGenerator) leaveFrame(temps int) {
	g.out.ExDEHL()
	g.out.LoadInt(z80.HL, temps*WordSize)
	g.out.Add(z80.HL, z80.SP)
	g.out.Load(z80.SP, z80.HL)
	g.out.ExDEHL()
	g.out.Pop(z80.SELF)
	g.out.Pop(z80.FP)
	g.out.Ret()
}

// checkFrame rejects frames whose slots an index displacement cannot reach.
func (g *CodeGenerator) checkFrame(temps, formals int) error {
	top := (temps - 1) * WordSize
	if formals > 0 {
		top = formalLocation(temps, 0, formals).Offset
	}
	if !z80.FitsDisplacement(top) {
		return internalErrorf(g.className(), "activation record of %d temporaries and %d formals exceeds the index range", temps, formals)
	}
	return nil
}

// emitMethods writes the bodies of every non-basic class, parents first.
// Built-in methods come from the runtime library.
func (g *CodeGenerator) emitMethods() error {
	return g.classes.PreOrder(func(node *ClassNode) error {
		if node.Basic {
			return nil
		}
		for _, method := range node.Class.Methods() {
			if err := g.emitMethod(node, method); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *CodeGenerator) emitMethod(node *ClassNode, method *ast.Method) error {
	g.class = node
	g.env = newVariableEnvironment(node)
	defer func() {
		g.class = nil
		g.env = nil
	}()

	temps := Temps(method.Body)
	n := len(method.Parameters)
	if err := g.checkFrame(temps, n); err != nil {
		return err
	}
	logger.Debug("method", "label", node.MethodLabel(method.Name.Value), "temps", temps, "formals", n)

	g.env.enterScope()
	for i, formal := range method.Parameters {
		if err := g.env.bind(formal.Name.Value, formalLocation(temps, i, n)); err != nil {
			return err
		}
	}

	g.out.Label(node.MethodLabel(method.Name.Value))
	g.enterFrame(temps)
	if err := g.generateExpression(method.Body); err != nil {
		return err
	}
	g.leaveFrame(temps)
	g.env.exitScope()

	if g.env.MaxTemps() > temps {
		return internalErrorf(node.Name, "method %s used %d temporaries, reserved %d",
			method.Name.Value, g.env.MaxTemps(), temps)
	}
	return nil
}
