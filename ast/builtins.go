package ast

import "coolz80/lexer"

// BasicFilename is reported as the source of the built-in classes.
const BasicFilename = "<basic class>"

// BasicClasses returns fresh declarations of the built-in classes in the
// order they are installed: Object, IO, Int, Bool, String. Method bodies are
// NoExpr; their code lives in the runtime library.
func BasicClasses() []*Class {
	object := basicClass(ObjectClass, "",
		method("abort", ObjectClass),
		method("type_name", StringClass),
		method("copy", SelfType),
	)
	io := basicClass(IOClass, ObjectClass,
		method("out_string", SelfType, "x", StringClass),
		method("out_int", SelfType, "x", IntClass),
		method("in_string", StringClass),
		method("in_int", IntClass),
	)
	integer := basicClass(IntClass, ObjectClass,
		attribute("val", PrimSlot),
	)
	boolean := basicClass(BoolClass, ObjectClass,
		attribute("val", PrimSlot),
	)
	str := basicClass(StringClass, ObjectClass,
		attribute("val", IntClass),
		attribute("str_field", PrimSlot),
		method("length", IntClass),
		method("concat", StringClass, "s", StringClass),
		method("substr", StringClass, "i", IntClass, "l", IntClass),
	)
	return []*Class{object, io, integer, boolean, str}
}

// IsBasic reports whether name is one of the built-in classes.
func IsBasic(name string) bool {
	switch name {
	case ObjectClass, IOClass, IntClass, BoolClass, StringClass:
		return true
	}
	return false
}

// IsInheritable reports whether user classes may inherit from name.
func IsInheritable(name string) bool {
	switch name {
	case IntClass, BoolClass, StringClass, SelfType:
		return false
	}
	return true
}

func basicTok(lit string) lexer.Token {
	return lexer.Token{Type: lexer.TYPEID, Literal: lit}
}

func basicClass(name, parent string, features ...Feature) *Class {
	c := &Class{
		Token:    lexer.Token{Type: lexer.CLASS, Literal: "class"},
		Name:     &TypeIdentifier{Token: basicTok(name), Value: name},
		Features: features,
		Filename: BasicFilename,
	}
	if parent != "" {
		c.Parent = &TypeIdentifier{Token: basicTok(parent), Value: parent}
	}
	return c
}

func attribute(name, typ string) *Attribute {
	return &Attribute{
		Name: &ObjectIdentifier{Value: name},
		Type: &TypeIdentifier{Token: basicTok(typ), Value: typ},
		Init: &NoExpr{},
	}
}

// method builds a method declaration from a return type followed by
// alternating formal names and types.
func method(name, ret string, formals ...string) *Method {
	m := &Method{
		Name:       &ObjectIdentifier{Value: name},
		ReturnType: &TypeIdentifier{Token: basicTok(ret), Value: ret},
		Body:       &NoExpr{},
	}
	for i := 0; i+1 < len(formals); i += 2 {
		m.Parameters = append(m.Parameters, &Formal{
			Name: &ObjectIdentifier{Value: formals[i]},
			Type: &TypeIdentifier{Token: basicTok(formals[i+1]), Value: formals[i+1]},
		})
	}
	return m
}
