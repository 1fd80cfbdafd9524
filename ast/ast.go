// Package ast defines the syntax tree shared by the parser, the semantic
// analyzer and the code generator. Every expression carries a static type
// slot that semantic analysis fills in.
package ast

import "coolz80/lexer"

// Reserved class names.
const (
	ObjectClass = "Object"
	IOClass     = "IO"
	IntClass    = "Int"
	BoolClass   = "Bool"
	StringClass = "String"
	MainClass   = "Main"
	MainMethod  = "main"
	SelfType    = "SELF_TYPE"
	Self        = "self"

	// NoClass is the parent of Object.
	NoClass = "_no_class"
	// PrimSlot is the declared type of raw payload attributes of the
	// built-in value classes.
	PrimSlot = "_prim_slot"
)

type Node interface {
	TokenLiteral() string
	Line() int
}

// Expression is the closed set of expression nodes listed in this file.
type Expression interface {
	Node
	expressionNode()
	StaticType() string
	SetStaticType(t string)
}

type Feature interface {
	Node
	featureNode()
	FeatureName() string
}

// typed holds the static type computed by semantic analysis.
type typed struct {
	static string
}

func (t *typed) StaticType() string      { return t.static }
func (t *typed) SetStaticType(ty string) { t.static = ty }

type TypeIdentifier struct {
	Token lexer.Token
	Value string
}

func (ti *TypeIdentifier) TokenLiteral() string { return ti.Token.Literal }
func (ti *TypeIdentifier) Line() int            { return ti.Token.Line }

type ObjectIdentifier struct {
	typed
	Token lexer.Token
	Value string
}

func (oi *ObjectIdentifier) TokenLiteral() string { return oi.Token.Literal }
func (oi *ObjectIdentifier) Line() int            { return oi.Token.Line }
func (oi *ObjectIdentifier) expressionNode()      {}

type Program struct {
	Classes []*Class
}

func (p *Program) TokenLiteral() string { return "" }
func (p *Program) Line() int            { return 0 }

type Class struct {
	Token    lexer.Token
	Name     *TypeIdentifier
	Parent   *TypeIdentifier
	Features []Feature
	Filename string
}

func (c *Class) TokenLiteral() string { return c.Token.Literal }
func (c *Class) Line() int            { return c.Token.Line }

// ParentName returns the declared parent, Object when none was given and
// NoClass for Object itself.
func (c *Class) ParentName() string {
	if c.Parent == nil {
		if c.Name.Value == ObjectClass {
			return NoClass
		}
		return ObjectClass
	}
	return c.Parent.Value
}

func (c *Class) Attributes() []*Attribute {
	var out []*Attribute
	for _, f := range c.Features {
		if a, ok := f.(*Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

func (c *Class) Methods() []*Method {
	var out []*Method
	for _, f := range c.Features {
		if m, ok := f.(*Method); ok {
			out = append(out, m)
		}
	}
	return out
}

type Attribute struct {
	Token lexer.Token
	Name  *ObjectIdentifier
	Type  *TypeIdentifier
	Init  Expression
}

func (a *Attribute) TokenLiteral() string { return a.Token.Literal }
func (a *Attribute) Line() int            { return a.Token.Line }
func (a *Attribute) featureNode()         {}
func (a *Attribute) FeatureName() string  { return a.Name.Value }

type Method struct {
	Token      lexer.Token
	Name       *ObjectIdentifier
	Parameters []*Formal
	ReturnType *TypeIdentifier
	Body       Expression
}

func (m *Method) TokenLiteral() string { return m.Token.Literal }
func (m *Method) Line() int            { return m.Token.Line }
func (m *Method) featureNode()         {}
func (m *Method) FeatureName() string  { return m.Name.Value }

type Formal struct {
	Token lexer.Token
	Name  *ObjectIdentifier
	Type  *TypeIdentifier
}

func (f *Formal) TokenLiteral() string { return f.Token.Literal }
func (f *Formal) Line() int            { return f.Token.Line }

// NoExpr stands for an omitted initializer. Its value depends on the
// declared type of whatever it initializes.
type NoExpr struct {
	typed
	Token lexer.Token
}

func (n *NoExpr) TokenLiteral() string { return "" }
func (n *NoExpr) Line() int            { return n.Token.Line }
func (n *NoExpr) expressionNode()      {}

type IntegerLiteral struct {
	typed
	Token lexer.Token
	Value int
}

func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) Line() int            { return il.Token.Line }
func (il *IntegerLiteral) expressionNode()      {}

type StringLiteral struct {
	typed
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Line() int            { return sl.Token.Line }
func (sl *StringLiteral) expressionNode()      {}

type BooleanLiteral struct {
	typed
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) Line() int            { return bl.Token.Line }
func (bl *BooleanLiteral) expressionNode()      {}

// InfixExpression covers + - * / < <= =.
type InfixExpression struct {
	typed
	Token    lexer.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Line() int            { return ie.Token.Line }
func (ie *InfixExpression) expressionNode()      {}

// NegExpression is integer negation (~).
type NegExpression struct {
	typed
	Token      lexer.Token
	Expression Expression
}

func (ne *NegExpression) TokenLiteral() string { return ne.Token.Literal }
func (ne *NegExpression) Line() int            { return ne.Token.Line }
func (ne *NegExpression) expressionNode()      {}

type NotExpression struct {
	typed
	Token      lexer.Token
	Expression Expression
}

func (ne *NotExpression) TokenLiteral() string { return ne.Token.Literal }
func (ne *NotExpression) Line() int            { return ne.Token.Line }
func (ne *NotExpression) expressionNode()      {}

type IsVoidExpression struct {
	typed
	Token      lexer.Token
	Expression Expression
}

func (ie *IsVoidExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IsVoidExpression) Line() int            { return ie.Token.Line }
func (ie *IsVoidExpression) expressionNode()      {}

type NewExpression struct {
	typed
	Token lexer.Token
	Type  *TypeIdentifier
}

func (ne *NewExpression) TokenLiteral() string { return ne.Token.Literal }
func (ne *NewExpression) Line() int            { return ne.Token.Line }
func (ne *NewExpression) expressionNode()      {}

type IfExpression struct {
	typed
	Token       lexer.Token
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (ie *IfExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IfExpression) Line() int            { return ie.Token.Line }
func (ie *IfExpression) expressionNode()      {}

type WhileExpression struct {
	typed
	Token     lexer.Token
	Condition Expression
	Body      Expression
}

func (we *WhileExpression) TokenLiteral() string { return we.Token.Literal }
func (we *WhileExpression) Line() int            { return we.Token.Line }
func (we *WhileExpression) expressionNode()      {}

type BlockExpression struct {
	typed
	Token       lexer.Token
	Expressions []Expression
}

func (be *BlockExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BlockExpression) Line() int            { return be.Token.Line }
func (be *BlockExpression) expressionNode()      {}

// Binding is one "name : Type [<- init]" of a let.
type Binding struct {
	Token lexer.Token
	Name  *ObjectIdentifier
	Type  *TypeIdentifier
	Init  Expression
}

// LetExpression binds its bindings in order; each is in scope for the
// bindings after it and for the body.
type LetExpression struct {
	typed
	Token    lexer.Token
	Bindings []*Binding
	Body     Expression
}

func (le *LetExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LetExpression) Line() int            { return le.Token.Line }
func (le *LetExpression) expressionNode()      {}

type Case struct {
	Token      lexer.Token
	Name       *ObjectIdentifier
	Type       *TypeIdentifier
	Expression Expression
}

func (c *Case) TokenLiteral() string { return c.Token.Literal }
func (c *Case) Line() int            { return c.Token.Line }

type CaseExpression struct {
	typed
	Token      lexer.Token
	Expression Expression
	Cases      []*Case
}

func (ce *CaseExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CaseExpression) Line() int            { return ce.Token.Line }
func (ce *CaseExpression) expressionNode()      {}

type Assignment struct {
	typed
	Token      lexer.Token
	Name       *ObjectIdentifier
	Expression Expression
}

func (a *Assignment) TokenLiteral() string { return a.Token.Literal }
func (a *Assignment) Line() int            { return a.Token.Line }
func (a *Assignment) expressionNode()      {}

// MethodCall is a dispatch. Type is set for static dispatch (expr@T.f()).
// A bare call f(x) is a MethodCall whose Object is an implicit self.
type MethodCall struct {
	typed
	Token     lexer.Token
	Object    Expression
	Type      *TypeIdentifier
	Method    *ObjectIdentifier
	Arguments []Expression
}

func (mc *MethodCall) TokenLiteral() string { return mc.Token.Literal }
func (mc *MethodCall) Line() int            { return mc.Token.Line }
func (mc *MethodCall) expressionNode()      {}

// IsStatic reports whether the call names the implementation class.
func (mc *MethodCall) IsStatic() bool { return mc.Type != nil }
