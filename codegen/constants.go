package codegen

import (
	"coolz80/ast"
)

// collectConstants interns every constant the output refers to before any
// of it is written: the defaults "" and 0, every class name, the source file
// of each class with generated code and every literal. The class name table
// can then be written without adding constants late.
func (g *CodeGenerator) collectConstants() {
	g.constants.InternString("")
	g.constants.InternInt(0)

	for _, node := range g.classes.Classes() {
		g.constants.InternString(node.Name)
	}
	for _, node := range g.classes.Classes() {
		if node.Basic {
			continue
		}
		g.constants.InternString(node.Class.Filename)
		for _, feature := range node.Class.Features {
			switch f := feature.(type) {
			case *ast.Attribute:
				walkExpression(f.Init, g.internLiteral)
			case *ast.Method:
				walkExpression(f.Body, g.internLiteral)
			}
		}
	}
}

func (g *CodeGenerator) internLiteral(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		g.constants.InternInt(e.Value)
	case *ast.StringLiteral:
		g.constants.InternString(e.Value)
	}
}

// walkExpression calls visit on expr and every expression below it, parents
// first, children in source order.
func walkExpression(expr ast.Expression, visit func(ast.Expression)) {
	if expr == nil {
		return
	}
	visit(expr)
	for _, child := range children(expr) {
		walkExpression(child, visit)
	}
}

func children(expr ast.Expression) []ast.Expression {
	switch e := expr.(type) {
	case *ast.InfixExpression:
		return []ast.Expression{e.Left, e.Right}
	case *ast.NegExpression:
		return []ast.Expression{e.Expression}
	case *ast.NotExpression:
		return []ast.Expression{e.Expression}
	case *ast.IsVoidExpression:
		return []ast.Expression{e.Expression}
	case *ast.IfExpression:
		return []ast.Expression{e.Condition, e.Consequence, e.Alternative}
	case *ast.WhileExpression:
		return []ast.Expression{e.Condition, e.Body}
	case *ast.BlockExpression:
		return e.Expressions
	case *ast.LetExpression:
		var out []ast.Expression
		for _, b := range e.Bindings {
			out = append(out, b.Init)
		}
		return append(out, e.Body)
	case *ast.CaseExpression:
		out := []ast.Expression{e.Expression}
		for _, c := range e.Cases {
			out = append(out, c.Expression)
		}
		return out
	case *ast.Assignment:
		return []ast.Expression{e.Expression}
	case *ast.MethodCall:
		return append(append([]ast.Expression{}, e.Arguments...), e.Object)
	}
	return nil
}
