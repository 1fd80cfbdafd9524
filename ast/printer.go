package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented tree of the program. Each expression line shows
// its source line and, once semantic analysis has run, its static type.
func Dump(w io.Writer, program *Program) {
	p := &printer{w: w}
	for _, class := range program.Classes {
		p.line(0, "#%d class %s : %s (%s)", class.Line(), class.Name.Value, class.ParentName(), class.Filename)
		for _, feature := range class.Features {
			switch f := feature.(type) {
			case *Attribute:
				p.line(1, "#%d attr %s : %s", f.Line(), f.Name.Value, f.Type.Value)
				p.expr(2, f.Init)
			case *Method:
				formals := make([]string, len(f.Parameters))
				for i, param := range f.Parameters {
					formals[i] = param.Name.Value + " : " + param.Type.Value
				}
				p.line(1, "#%d method %s(%s) : %s", f.Line(), f.Name.Value, strings.Join(formals, ", "), f.ReturnType.Value)
				p.expr(2, f.Body)
			}
		}
	}
}

type printer struct {
	w io.Writer
}

func (p *printer) line(depth int, format string, args ...any) {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (p *printer) expr(depth int, exp Expression) {
	if exp == nil {
		return
	}
	head := func(label string) {
		typ := exp.StaticType()
		if typ == "" {
			typ = "_no_type"
		}
		p.line(depth, "#%d %s : %s", exp.Line(), label, typ)
	}

	switch node := exp.(type) {
	case *NoExpr:
		head("no_expr")
	case *IntegerLiteral:
		head(fmt.Sprintf("int %d", node.Value))
	case *StringLiteral:
		head(fmt.Sprintf("string %q", node.Value))
	case *BooleanLiteral:
		head(fmt.Sprintf("bool %t", node.Value))
	case *ObjectIdentifier:
		head("object " + node.Value)
	case *Assignment:
		head("assign " + node.Name.Value)
		p.expr(depth+1, node.Expression)
	case *MethodCall:
		if node.Type != nil {
			head(fmt.Sprintf("static_dispatch %s@%s", node.Method.Value, node.Type.Value))
		} else {
			head("dispatch " + node.Method.Value)
		}
		p.expr(depth+1, node.Object)
		for _, arg := range node.Arguments {
			p.expr(depth+1, arg)
		}
	case *InfixExpression:
		head("binop " + node.Operator)
		p.expr(depth+1, node.Left)
		p.expr(depth+1, node.Right)
	case *NegExpression:
		head("neg")
		p.expr(depth+1, node.Expression)
	case *NotExpression:
		head("not")
		p.expr(depth+1, node.Expression)
	case *IsVoidExpression:
		head("isvoid")
		p.expr(depth+1, node.Expression)
	case *NewExpression:
		head("new " + node.Type.Value)
	case *IfExpression:
		head("cond")
		p.expr(depth+1, node.Condition)
		p.expr(depth+1, node.Consequence)
		p.expr(depth+1, node.Alternative)
	case *WhileExpression:
		head("loop")
		p.expr(depth+1, node.Condition)
		p.expr(depth+1, node.Body)
	case *BlockExpression:
		head("block")
		for _, e := range node.Expressions {
			p.expr(depth+1, e)
		}
	case *LetExpression:
		head("let")
		for _, b := range node.Bindings {
			p.line(depth+1, "%s : %s", b.Name.Value, b.Type.Value)
			p.expr(depth+2, b.Init)
		}
		p.expr(depth+1, node.Body)
	case *CaseExpression:
		head("typcase")
		p.expr(depth+1, node.Expression)
		for _, c := range node.Cases {
			p.line(depth+1, "#%d branch %s : %s", c.Line(), c.Name.Value, c.Type.Value)
			p.expr(depth+2, c.Expression)
		}
	default:
		p.line(depth, "<unknown %T>", node)
	}
}
