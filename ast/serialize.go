package ast

import (
	"fmt"
	"strings"
)

// String renders an expression back to COOL concrete syntax on one line.
// Binary operations are fully parenthesized.
func String(exp Expression) string {
	switch node := exp.(type) {
	case nil:
		return "<nil>"
	case *NoExpr:
		return ""
	case *IntegerLiteral:
		return fmt.Sprintf("%d", node.Value)
	case *StringLiteral:
		return fmt.Sprintf("%q", node.Value)
	case *BooleanLiteral:
		return fmt.Sprintf("%t", node.Value)
	case *ObjectIdentifier:
		return node.Value
	case *Assignment:
		return fmt.Sprintf("%s <- %s", node.Name.Value, String(node.Expression))
	case *MethodCall:
		args := make([]string, len(node.Arguments))
		for i, arg := range node.Arguments {
			args[i] = String(arg)
		}
		recv := String(node.Object)
		if node.Type != nil {
			recv += "@" + node.Type.Value
		}
		return fmt.Sprintf("%s.%s(%s)", recv, node.Method.Value, strings.Join(args, ", "))
	case *InfixExpression:
		return fmt.Sprintf("(%s %s %s)", String(node.Left), node.Operator, String(node.Right))
	case *NotExpression:
		return fmt.Sprintf("not %s", String(node.Expression))
	case *NegExpression:
		return fmt.Sprintf("~%s", String(node.Expression))
	case *IsVoidExpression:
		return fmt.Sprintf("isvoid %s", String(node.Expression))
	case *NewExpression:
		return fmt.Sprintf("new %s", node.Type.Value)
	case *IfExpression:
		return fmt.Sprintf("if %s then %s else %s fi",
			String(node.Condition), String(node.Consequence), String(node.Alternative))
	case *WhileExpression:
		return fmt.Sprintf("while %s loop %s pool", String(node.Condition), String(node.Body))
	case *BlockExpression:
		parts := make([]string, len(node.Expressions))
		for i, e := range node.Expressions {
			parts[i] = String(e) + ";"
		}
		return "{ " + strings.Join(parts, " ") + " }"
	case *LetExpression:
		binds := make([]string, len(node.Bindings))
		for i, b := range node.Bindings {
			binds[i] = fmt.Sprintf("%s : %s", b.Name.Value, b.Type.Value)
			if _, empty := b.Init.(*NoExpr); !empty && b.Init != nil {
				binds[i] += " <- " + String(b.Init)
			}
		}
		return fmt.Sprintf("let %s in %s", strings.Join(binds, ", "), String(node.Body))
	case *CaseExpression:
		var sb strings.Builder
		sb.WriteString("case ")
		sb.WriteString(String(node.Expression))
		sb.WriteString(" of")
		for _, c := range node.Cases {
			fmt.Fprintf(&sb, " %s : %s => %s;", c.Name.Value, c.Type.Value, String(c.Expression))
		}
		sb.WriteString(" esac")
		return sb.String()
	default:
		return fmt.Sprintf("<unknown %T>", node)
	}
}
