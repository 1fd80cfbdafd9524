package semant

import (
	"coolz80/ast"
)

// typeOf computes the static type of expr, records it on the node and
// returns it. Ill-typed subexpressions are reported and typed as Object so
// checking can continue.
func (sa *SemanticAnalyzer) typeOf(expr ast.Expression) string {
	t := sa.infer(expr)
	expr.SetStaticType(t)
	return t
}

func (sa *SemanticAnalyzer) infer(expr ast.Expression) string {
	st := sa.symbolTable
	className := sa.class.Name.Value

	switch e := expr.(type) {
	case *ast.NoExpr:
		return ast.NoClass
	case *ast.IntegerLiteral:
		return ast.IntClass
	case *ast.StringLiteral:
		return ast.StringClass
	case *ast.BooleanLiteral:
		return ast.BoolClass

	case *ast.ObjectIdentifier:
		return sa.lookupVariable(e.Value, e.Line())

	case *ast.Assignment:
		name := e.Name.Value
		valueType := sa.typeOf(e.Expression)
		if name == ast.Self {
			sa.errorAt(e.Line(), "Cannot assign to 'self'.")
			return valueType
		}
		declared := sa.lookupVariable(name, e.Line())
		e.Name.SetStaticType(declared)
		if !st.IsConformingType(valueType, declared, className) {
			sa.errorAt(e.Line(), "Type %s of assigned expression does not conform to declared type %s of identifier %s.",
				valueType, declared, name)
		}
		return valueType

	case *ast.MethodCall:
		return sa.inferDispatch(e)

	case *ast.IfExpression:
		if t := sa.typeOf(e.Condition); t != ast.BoolClass {
			sa.errorAt(e.Line(), "Predicate of 'if' does not have type Bool.")
		}
		then := sa.typeOf(e.Consequence)
		otherwise := sa.typeOf(e.Alternative)
		return st.GetLeastUpperBound(then, otherwise, className)

	case *ast.WhileExpression:
		if t := sa.typeOf(e.Condition); t != ast.BoolClass {
			sa.errorAt(e.Line(), "Loop condition does not have type Bool.")
		}
		sa.typeOf(e.Body)
		return ast.ObjectClass

	case *ast.BlockExpression:
		last := ast.ObjectClass
		for _, sub := range e.Expressions {
			last = sa.typeOf(sub)
		}
		return last

	case *ast.LetExpression:
		return sa.inferLet(e, 0)

	case *ast.CaseExpression:
		return sa.inferCase(e)

	case *ast.NewExpression:
		if !st.isValidType(e.Type.Value) {
			sa.errorAt(e.Line(), "'new' used with undefined class %s.", e.Type.Value)
			return ast.ObjectClass
		}
		return e.Type.Value

	case *ast.IsVoidExpression:
		sa.typeOf(e.Expression)
		return ast.BoolClass

	case *ast.NotExpression:
		if t := sa.typeOf(e.Expression); t != ast.BoolClass {
			sa.errorAt(e.Line(), "Argument of 'not' has type %s instead of Bool.", t)
		}
		return ast.BoolClass

	case *ast.NegExpression:
		if t := sa.typeOf(e.Expression); t != ast.IntClass {
			sa.errorAt(e.Line(), "Argument of '~' has type %s instead of Int.", t)
		}
		return ast.IntClass

	case *ast.InfixExpression:
		return sa.inferInfix(e)
	}

	sa.errorAt(expr.Line(), "unsupported expression %T", expr)
	return ast.ObjectClass
}

// lookupVariable resolves self, locals and formals, then attributes.
func (sa *SemanticAnalyzer) lookupVariable(name string, line int) string {
	if name == ast.Self {
		return ast.SelfType
	}
	if sym, ok := sa.symbolTable.LookupSymbol(name); ok {
		return sym.Type
	}
	if sym, ok := sa.symbolTable.LookupAttribute(sa.class.Name.Value, name); ok {
		return sym.Type
	}
	sa.errorAt(line, "Undeclared identifier %s.", name)
	return ast.ObjectClass
}

func (sa *SemanticAnalyzer) inferInfix(e *ast.InfixExpression) string {
	left := sa.typeOf(e.Left)
	right := sa.typeOf(e.Right)

	switch e.Operator {
	case "+", "-", "*", "/":
		if left != ast.IntClass || right != ast.IntClass {
			sa.errorAt(e.Line(), "non-Int arguments: %s %s %s", left, e.Operator, right)
		}
		return ast.IntClass
	case "<", "<=":
		if left != ast.IntClass || right != ast.IntClass {
			sa.errorAt(e.Line(), "non-Int arguments: %s %s %s", left, e.Operator, right)
		}
		return ast.BoolClass
	case "=":
		if isPrimitive(left) || isPrimitive(right) {
			if left != right {
				sa.errorAt(e.Line(), "Illegal comparison with a basic type.")
			}
		}
		return ast.BoolClass
	}
	sa.errorAt(e.Line(), "unknown operator %s", e.Operator)
	return ast.ObjectClass
}

func isPrimitive(t string) bool {
	return t == ast.IntClass || t == ast.BoolClass || t == ast.StringClass
}

func (sa *SemanticAnalyzer) inferDispatch(e *ast.MethodCall) string {
	st := sa.symbolTable
	className := sa.class.Name.Value

	receiver := sa.typeOf(e.Object)
	argTypes := make([]string, len(e.Arguments))
	for i, arg := range e.Arguments {
		argTypes[i] = sa.typeOf(arg)
	}

	lookupIn := st.ResolveSelfType(receiver, className)
	if e.IsStatic() {
		target := e.Type.Value
		if target == ast.SelfType || !st.isValidType(target) {
			sa.errorAt(e.Line(), "Static dispatch to undefined class %s.", target)
			return ast.ObjectClass
		}
		if !st.IsConformingType(receiver, target, className) {
			sa.errorAt(e.Line(), "Expression type %s does not conform to declared static dispatch type %s.", receiver, target)
			return ast.ObjectClass
		}
		lookupIn = target
	}

	method, ok := st.LookupMethod(lookupIn, e.Method.Value)
	if !ok {
		sa.errorAt(e.Line(), "Dispatch to undefined method %s.", e.Method.Value)
		return ast.ObjectClass
	}

	if len(argTypes) != len(method.Parameters) {
		sa.errorAt(e.Line(), "Method %s called with wrong number of arguments.", e.Method.Value)
	} else {
		for i, formal := range method.Parameters {
			if !st.IsConformingType(argTypes[i], formal.Type.Value, className) {
				sa.errorAt(e.Line(), "In call of method %s, type %s of parameter %s does not conform to declared type %s.",
					e.Method.Value, argTypes[i], formal.Name.Value, formal.Type.Value)
			}
		}
	}

	if method.ReturnType == ast.SelfType {
		return receiver
	}
	return method.ReturnType
}

// inferLet checks bindings[i:] one at a time; each binding opens a scope
// visible to the bindings after it and to the body.
func (sa *SemanticAnalyzer) inferLet(e *ast.LetExpression, i int) string {
	if i == len(e.Bindings) {
		return sa.typeOf(e.Body)
	}
	st := sa.symbolTable
	b := e.Bindings[i]
	declared := b.Type.Value

	if b.Name.Value == ast.Self {
		sa.errorAt(b.Name.Line(), "'self' cannot be bound in a 'let' expression.")
	}
	if !st.isValidType(declared) {
		sa.errorAt(b.Name.Line(), "Class %s of let-bound identifier %s is undefined.", declared, b.Name.Value)
		declared = ast.ObjectClass
	}
	if _, empty := b.Init.(*ast.NoExpr); !empty {
		initType := sa.typeOf(b.Init)
		if !st.IsConformingType(initType, declared, sa.class.Name.Value) {
			sa.errorAt(b.Name.Line(), "Inferred type %s of initialization of %s does not conform to identifier's declared type %s.",
				initType, b.Name.Value, declared)
		}
	} else {
		b.Init.SetStaticType(ast.NoClass)
	}

	st.EnterScope(SymbolLocal)
	st.Bind(b.Name.Value, declared)
	t := sa.inferLet(e, i+1)
	st.ExitScope()
	return t
}

func (sa *SemanticAnalyzer) inferCase(e *ast.CaseExpression) string {
	st := sa.symbolTable
	sa.typeOf(e.Expression)

	seen := make(map[string]bool)
	result := ""
	for _, branch := range e.Cases {
		typ := branch.Type.Value
		switch {
		case typ == ast.SelfType:
			sa.errorAt(branch.Line(), "Identifier %s declared with type SELF_TYPE in case branch.", branch.Name.Value)
		case !st.isValidType(typ):
			sa.errorAt(branch.Line(), "Class %s of case branch is undefined.", typ)
		case seen[typ]:
			sa.errorAt(branch.Line(), "Duplicate branch %s in case statement.", typ)
		}
		seen[typ] = true

		st.EnterScope(SymbolLocal)
		st.Bind(branch.Name.Value, typ)
		bodyType := sa.typeOf(branch.Expression)
		st.ExitScope()

		if result == "" {
			result = bodyType
		} else {
			result = st.GetLeastUpperBound(result, bodyType, sa.class.Name.Value)
		}
	}
	return result
}
