package codegen

import (
	"coolz80/ast"
)

// Temps returns the number of temporary slots evaluating expr needs at
// once. Let and case bindings each hold a slot while their body runs;
// branches of a case reuse the same slots.
func Temps(expr ast.Expression) int {
	switch e := expr.(type) {
	case *ast.LetExpression:
		return letTemps(e.Bindings, e.Body)
	case *ast.CaseExpression:
		branches := 0
		for _, c := range e.Cases {
			branches = max(branches, Temps(c.Expression))
		}
		return max(Temps(e.Expression), 1+branches)
	case *ast.InfixExpression:
		return max(Temps(e.Left), Temps(e.Right))
	case *ast.NegExpression:
		return Temps(e.Expression)
	case *ast.NotExpression:
		return Temps(e.Expression)
	case *ast.IsVoidExpression:
		return Temps(e.Expression)
	case *ast.IfExpression:
		return max(Temps(e.Condition), Temps(e.Consequence), Temps(e.Alternative))
	case *ast.WhileExpression:
		return max(Temps(e.Condition), Temps(e.Body))
	case *ast.BlockExpression:
		n := 0
		for _, sub := range e.Expressions {
			n = max(n, Temps(sub))
		}
		return n
	case *ast.Assignment:
		return Temps(e.Expression)
	case *ast.MethodCall:
		n := Temps(e.Object)
		for _, arg := range e.Arguments {
			n = max(n, Temps(arg))
		}
		return n
	}
	return 0
}

// letTemps treats "let a, b in body" as "let a in let b in body".
func letTemps(bindings []*ast.Binding, body ast.Expression) int {
	if len(bindings) == 0 {
		return Temps(body)
	}
	return max(Temps(bindings[0].Init), 1+letTemps(bindings[1:], body))
}
