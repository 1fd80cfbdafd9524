package codegen

import (
	"coolz80/ast"
	"coolz80/z80"
)

// Runtime library entry points.
const (
	objectCopy    = "Object.copy"
	equalityTest  = "equality_test"
	dispatchAbort = "_dispatch_abort"
	caseAbort     = "_case_abort"
	caseAbortVoid = "_case_abort2"
	multiply      = "MUL_HL_DE"
	divide        = "DIV_HL_DE"
)

// payloadOffset is where Int and Bool objects keep their value.
const payloadOffset = HeaderSize

// generateExpression emits code leaving the value of expr in hl. Every
// routine it calls follows the same rule, so an expression may clobber any
// register except ix and iy.
func (g *CodeGenerator) generateExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		c, err := g.intConst(e.Value)
		if err != nil {
			return err
		}
		g.out.Fetch(z80.ARG0, c)
		return nil

	case *ast.StringLiteral:
		c, err := g.stringConst(e.Value)
		if err != nil {
			return err
		}
		g.out.Fetch(z80.ARG0, c)
		return nil

	case *ast.BooleanLiteral:
		g.out.Fetch(z80.ARG0, boolConst(e.Value))
		return nil

	case *ast.NoExpr:
		return g.generateDefault(ast.NoClass)

	case *ast.ObjectIdentifier:
		return g.generateObjectIdentifier(e)

	case *ast.Assignment:
		return g.generateAssignment(e)

	case *ast.InfixExpression:
		return g.generateInfixExpression(e)

	case *ast.NegExpression:
		return g.generateNegExpression(e)

	case *ast.NotExpression:
		return g.generateNotExpression(e)

	case *ast.IsVoidExpression:
		return g.generateIsVoidExpression(e)

	case *ast.NewExpression:
		return g.generateNewExpression(e)

	case *ast.MethodCall:
		if e.IsStatic() {
			return g.generateStaticDispatch(e)
		}
		return g.generateDispatch(e)

	case *ast.IfExpression:
		return g.generateIfExpression(e)

	case *ast.WhileExpression:
		return g.generateWhileExpression(e)

	case *ast.BlockExpression:
		for _, sub := range e.Expressions {
			if err := g.generateExpression(sub); err != nil {
				return err
			}
		}
		return nil

	case *ast.LetExpression:
		return g.generateLet(e.Bindings, e.Body)

	case *ast.CaseExpression:
		return g.generateCaseExpression(e)
	}
	return internalErrorf(g.className(), "unsupported expression type %T", expr)
}

// generateInitializer evaluates the initializer of an attribute or let
// binding of type declType. A missing one yields the default for that type.
func (g *CodeGenerator) generateInitializer(init ast.Expression, declType string) error {
	if _, ok := init.(*ast.NoExpr); ok {
		return g.generateDefault(declType)
	}
	return g.generateExpression(init)
}

// generateDefault loads 0, false or "" for the value classes and void for
// everything else.
func (g *CodeGenerator) generateDefault(declType string) error {
	switch declType {
	case ast.IntClass:
		zero, err := g.intConst(0)
		if err != nil {
			return err
		}
		g.out.Fetch(z80.ARG0, zero)
	case ast.BoolClass:
		g.out.Fetch(z80.ARG0, boolConst(false))
	case ast.StringClass:
		empty, err := g.stringConst("")
		if err != nil {
			return err
		}
		g.out.Fetch(z80.ARG0, empty)
	default:
		g.out.LoadInt(z80.ARG0, 0)
	}
	return nil
}

func (g *CodeGenerator) generateObjectIdentifier(e *ast.ObjectIdentifier) error {
	if e.Value == ast.Self {
		g.out.Move(z80.ARG0, z80.SELF)
		return nil
	}
	loc, err := g.env.lookup(e.Value)
	if err != nil {
		return err
	}
	g.out.Fetch(z80.ARG0, loc)
	return nil
}

func (g *CodeGenerator) generateAssignment(e *ast.Assignment) error {
	loc, err := g.env.lookup(e.Name.Value)
	if err != nil {
		return err
	}
	if err := g.generateExpression(e.Expression); err != nil {
		return err
	}
	g.out.StoreWord(loc, z80.ARG0)
	return nil
}

// loadPayload reads the value word of the Int or Bool in hl into dst.
// It clobbers de and hl.
func (g *CodeGenerator) loadPayload(dst z80.Register) {
	g.out.LoadInt(z80.DE, payloadOffset)
	g.out.Add(z80.HL, z80.DE)
	g.out.LoadIndirect(dst)
}

// storePayload writes de into the value word of the object in hl. hl is
// preserved, bc is not.
func (g *CodeGenerator) storePayload() {
	g.out.Push(z80.HL)
	g.out.LoadInt(z80.BC, payloadOffset)
	g.out.Add(z80.HL, z80.BC)
	g.out.StoreIndirect(z80.DE)
	g.out.Pop(z80.HL)
}

// newInt pushes a fresh copy of the Int prototype to hold a result.
func (g *CodeGenerator) newInt() error {
	integer, err := g.basicClass(ast.IntClass)
	if err != nil {
		return err
	}
	g.out.Fetch(z80.ARG0, z80.At(integer.ProtObjLabel()))
	g.out.Call(objectCopy)
	g.out.Push(z80.ARG0)
	return nil
}

// generateOperands evaluates left then right, leaving the left object in de
// and the right one in hl.
func (g *CodeGenerator) generateOperands(left, right ast.Expression) error {
	if err := g.generateExpression(left); err != nil {
		return err
	}
	g.out.Push(z80.ARG0)
	if err := g.generateExpression(right); err != nil {
		return err
	}
	g.out.Pop(z80.DE)
	return nil
}

// unboxOperands turns the objects from generateOperands into their values:
// left in hl, right in bc.
func (g *CodeGenerator) unboxOperands() {
	g.out.Push(z80.DE)
	g.loadPayload(z80.BC)
	g.out.Pop(z80.HL)
	g.loadPayload(z80.DE)
	g.out.ExDEHL()
}

// selectBool loads bool_const1 when flag holds and bool_const0 otherwise.
// ld leaves the flags alone, so the test can come first.
func (g *CodeGenerator) selectBool(flag z80.Flag) {
	done := g.newLabel()
	g.out.Fetch(z80.ARG0, boolConst(true))
	g.out.Jp(flag, done)
	g.out.Fetch(z80.ARG0, boolConst(false))
	g.out.Label(done)
}

func (g *CodeGenerator) generateInfixExpression(e *ast.InfixExpression) error {
	switch e.Operator {
	case "+", "-", "*", "/":
		return g.generateArithmetic(e)
	case "<", "<=":
		return g.generateComparison(e)
	case "=":
		return g.generateEquality(e)
	}
	return internalErrorf(g.className(), "unknown operator %s", e.Operator)
}

// generateArithmetic boxes the result in a fresh Int. The copy is made
// first so the operands never have to survive a call into the allocator.
func (g *CodeGenerator) generateArithmetic(e *ast.InfixExpression) error {
	if err := g.newInt(); err != nil {
		return err
	}
	if err := g.generateOperands(e.Left, e.Right); err != nil {
		return err
	}
	g.unboxOperands()

	switch e.Operator {
	case "+":
		g.out.Add(z80.HL, z80.BC)
	case "-":
		g.out.ClearCarry()
		g.out.Sbc(z80.HL, z80.BC)
	case "*":
		g.out.Load(z80.D, z80.B)
		g.out.Load(z80.E, z80.C)
		g.out.Call(multiply)
	case "/":
		g.out.Load(z80.D, z80.B)
		g.out.Load(z80.E, z80.C)
		g.out.Call(divide)
	}

	g.out.ExDEHL()
	g.out.Pop(z80.ARG0)
	g.storePayload()
	return nil
}

// generateComparison compares as signed 16-bit numbers by flipping both
// sign bits and subtracting: carry is then set exactly when left < right,
// or left <= right when the subtraction borrows one more.
func (g *CodeGenerator) generateComparison(e *ast.InfixExpression) error {
	if err := g.generateOperands(e.Left, e.Right); err != nil {
		return err
	}
	g.unboxOperands()

	g.flipSign(z80.H)
	g.flipSign(z80.B)
	if e.Operator == "<" {
		g.out.ClearCarry()
	} else {
		g.out.Scf()
	}
	g.out.Sbc(z80.HL, z80.BC)
	g.selectBool(z80.Carry)
	return nil
}

func (g *CodeGenerator) flipSign(r z80.Register) {
	g.out.Load(z80.ACC, r)
	g.out.Xor(0x80)
	g.out.Load(r, z80.ACC)
}

// generateEquality is true for the same object. Otherwise Int and Bool
// compare values, String asks the runtime and any other class is unequal.
func (g *CodeGenerator) generateEquality(e *ast.InfixExpression) error {
	if err := g.generateOperands(e.Left, e.Right); err != nil {
		return err
	}
	isTrue := g.newLabel()
	done := g.newLabel()

	g.out.ClearCarry()
	g.out.Sbc(z80.HL, z80.DE)
	g.out.Add(z80.HL, z80.DE)
	g.out.Jp(z80.Zero, isTrue)

	switch e.Left.StaticType() {
	case ast.IntClass, ast.BoolClass:
		g.unboxOperands()
		g.out.ClearCarry()
		g.out.Sbc(z80.HL, z80.BC)
		g.out.Jp(z80.Zero, isTrue)
	case ast.StringClass:
		g.out.Call(equalityTest)
		g.out.Jp(z80.Zero, isTrue)
	}

	g.out.Fetch(z80.ARG0, boolConst(false))
	g.out.Jp(z80.Always, done)
	g.out.Label(isTrue)
	g.out.Fetch(z80.ARG0, boolConst(true))
	g.out.Label(done)
	return nil
}

func (g *CodeGenerator) generateNegExpression(e *ast.NegExpression) error {
	if err := g.newInt(); err != nil {
		return err
	}
	if err := g.generateExpression(e.Expression); err != nil {
		return err
	}
	g.loadPayload(z80.DE)
	g.out.LoadInt(z80.HL, 0)
	g.out.ClearCarry()
	g.out.Sbc(z80.HL, z80.DE)
	g.out.ExDEHL()
	g.out.Pop(z80.ARG0)
	g.storePayload()
	return nil
}

func (g *CodeGenerator) generateNotExpression(e *ast.NotExpression) error {
	if err := g.generateExpression(e.Expression); err != nil {
		return err
	}
	g.loadPayload(z80.DE)
	g.out.TestZero(z80.DE)
	g.selectBool(z80.Zero)
	return nil
}

func (g *CodeGenerator) generateIsVoidExpression(e *ast.IsVoidExpression) error {
	if err := g.generateExpression(e.Expression); err != nil {
		return err
	}
	g.out.TestZero(z80.ARG0)
	g.selectBool(z80.Zero)
	return nil
}

// generateNewExpression copies the prototype and runs init on the copy.
// For SELF_TYPE both come from class_objTab, indexed by the tag of self.
func (g *CodeGenerator) generateNewExpression(e *ast.NewExpression) error {
	if e.Type.Value != ast.SelfType {
		node, ok := g.classes.Lookup(e.Type.Value)
		if !ok {
			return internalErrorf(g.className(), "new of unknown class %s", e.Type.Value)
		}
		g.out.Fetch(z80.ARG0, z80.At(node.ProtObjLabel()))
		g.out.Call(objectCopy)
		g.out.Call(node.InitLabel())
		return nil
	}

	back := g.newLabel()
	g.out.Fetch(z80.DE, z80.RegisterOffset{Base: z80.SELF, Offset: TagOffset})
	g.out.ExDEHL()
	g.out.Add(z80.HL, z80.HL)
	g.out.Add(z80.HL, z80.HL)
	g.out.Fetch(z80.DE, z80.At(classObjTab))
	g.out.Add(z80.HL, z80.DE)
	g.out.Push(z80.HL)
	g.out.LoadIndirect(z80.DE)
	g.out.ExDEHL()
	g.out.Call(objectCopy)
	g.out.Pop(z80.DE)
	g.out.Inc(z80.DE)
	g.out.Inc(z80.DE)
	g.out.Push(z80.ARG0)
	g.out.ExDEHL()
	g.out.LoadIndirect(z80.DE)
	g.out.Pop(z80.ARG0)
	g.callRegister(z80.DE, back)
	return nil
}

// callRegister calls the routine whose address is in r by pushing a return
// label and the target, then returning into it.
func (g *CodeGenerator) callRegister(r z80.Register, back string) {
	g.out.Fetch(z80.BC, z80.At(back))
	g.out.Push(z80.BC)
	g.out.Push(r)
	g.out.Ret()
	g.out.Label(back)
}

// pushActuals evaluates the arguments left to right onto the stack.
func (g *CodeGenerator) pushActuals(args []ast.Expression) error {
	for _, arg := range args {
		if err := g.generateExpression(arg); err != nil {
			return err
		}
		g.out.Push(z80.ARG0)
	}
	return nil
}

func (g *CodeGenerator) popActuals(n int) {
	for i := 0; i < n; i++ {
		g.out.Pop(z80.DE)
	}
}

// emitDispatchAbort reports a void receiver at the line of expr.
func (g *CodeGenerator) emitDispatchAbort(label string, expr ast.Expression) error {
	file, err := g.stringConst(g.class.Class.Filename)
	if err != nil {
		return err
	}
	g.out.Label(label)
	g.out.LoadInt(z80.DE, expr.Line())
	g.out.Fetch(z80.ARG0, file)
	g.out.Jp(z80.Always, dispatchAbort)
	return nil
}

// generateDispatch calls through the receiver's own dispatch table. The
// offset comes from the static type of the receiver, which every subclass
// shares.
func (g *CodeGenerator) generateDispatch(e *ast.MethodCall) error {
	class := e.Object.StaticType()
	if class == ast.SelfType {
		class = g.class.Name
	}
	method, err := g.classes.LookupMethod(class, e.Method.Value)
	if err != nil {
		return err
	}

	if err := g.pushActuals(e.Arguments); err != nil {
		return err
	}
	if err := g.generateExpression(e.Object); err != nil {
		return err
	}
	void := g.newLabel()
	back := g.newLabel()

	g.out.TestZero(z80.ARG0)
	g.out.Jp(z80.Zero, void)
	g.out.Push(z80.ARG0)
	g.out.LoadInt(z80.DE, DispatchOffset)
	g.out.Add(z80.HL, z80.DE)
	g.out.LoadIndirect(z80.DE)
	g.out.LoadInt(z80.HL, method.Offset)
	g.out.Add(z80.HL, z80.DE)
	g.out.LoadIndirect(z80.DE)
	g.out.Pop(z80.ARG0)
	g.out.Fetch(z80.BC, z80.At(back))
	g.out.Push(z80.BC)
	g.out.Push(z80.DE)
	g.out.Ret()

	if err := g.emitDispatchAbort(void, e); err != nil {
		return err
	}
	g.out.Label(back)
	g.popActuals(len(e.Arguments))
	return nil
}

// generateStaticDispatch calls the implementation the named class sees,
// with no table lookup.
func (g *CodeGenerator) generateStaticDispatch(e *ast.MethodCall) error {
	method, err := g.classes.LookupMethod(e.Type.Value, e.Method.Value)
	if err != nil {
		return err
	}

	if err := g.pushActuals(e.Arguments); err != nil {
		return err
	}
	if err := g.generateExpression(e.Object); err != nil {
		return err
	}
	void := g.newLabel()
	done := g.newLabel()

	g.out.TestZero(z80.ARG0)
	g.out.Jp(z80.Zero, void)
	g.out.Call(method.Label())
	g.out.Jp(z80.Always, done)

	if err := g.emitDispatchAbort(void, e); err != nil {
		return err
	}
	g.out.Label(done)
	g.popActuals(len(e.Arguments))
	return nil
}

// testBool sets Z when the Bool in hl is false.
func (g *CodeGenerator) testBool() {
	g.loadPayload(z80.DE)
	g.out.TestZero(z80.DE)
}

func (g *CodeGenerator) generateIfExpression(e *ast.IfExpression) error {
	elseLabel := g.newLabel()
	fiLabel := g.newLabel()

	if err := g.generateExpression(e.Condition); err != nil {
		return err
	}
	g.testBool()
	g.out.Jp(z80.Zero, elseLabel)
	if err := g.generateExpression(e.Consequence); err != nil {
		return err
	}
	g.out.Jp(z80.Always, fiLabel)
	g.out.Label(elseLabel)
	if err := g.generateExpression(e.Alternative); err != nil {
		return err
	}
	g.out.Label(fiLabel)
	return nil
}

// generateWhileExpression evaluates to void.
func (g *CodeGenerator) generateWhileExpression(e *ast.WhileExpression) error {
	loop := g.newLabel()
	pool := g.newLabel()

	g.out.Label(loop)
	if err := g.generateExpression(e.Condition); err != nil {
		return err
	}
	g.testBool()
	g.out.Jp(z80.Zero, pool)
	if err := g.generateExpression(e.Body); err != nil {
		return err
	}
	g.out.Jp(z80.Always, loop)
	g.out.Label(pool)
	g.out.LoadInt(z80.ARG0, 0)
	return nil
}

// generateLet binds one name at a time; each binding is in scope for the
// ones after it.
func (g *CodeGenerator) generateLet(bindings []*ast.Binding, body ast.Expression) error {
	if len(bindings) == 0 {
		return g.generateExpression(body)
	}
	b := bindings[0]
	if err := g.generateInitializer(b.Init, b.Type.Value); err != nil {
		return err
	}
	slot := g.env.allocTemp()
	g.out.StoreWord(slot, z80.ARG0)

	g.env.enterScope()
	if err := g.env.bind(b.Name.Value, slot); err != nil {
		return err
	}
	if err := g.generateLet(bindings[1:], body); err != nil {
		return err
	}
	g.env.exitScope()
	g.env.freeTemp()
	return nil
}
