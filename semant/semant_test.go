package semant

import (
	"strings"
	"testing"

	"coolz80/ast"
	"coolz80/lexer"
	"coolz80/parser"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.NewLexer(strings.NewReader(src)), "test.cl")
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return program
}

func analyze(t *testing.T, src string) (*ast.Program, []string) {
	t.Helper()
	program := parse(t, src)
	sa := NewSemanticAnalyzer()
	sa.Analyze(program)
	return program, sa.Errors()
}

func assertErrorsContain(t *testing.T, errors []string, expected string) {
	t.Helper()
	for _, err := range errors {
		if strings.Contains(err, expected) {
			return
		}
	}
	t.Errorf("expected an error containing %q, got %v", expected, errors)
}

const mainClass = "class Main { main() : Int { 0 }; };\n"

func TestClassGraphErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"inherit Int", "class Bad inherits Int {};\n" + mainClass, "Class Bad cannot inherit class Int."},
		{"inherit SELF_TYPE", "class Bad inherits SELF_TYPE {};\n" + mainClass, "cannot inherit class SELF_TYPE"},
		{"undefined parent", "class Bad inherits Nope {};\n" + mainClass, "inherits from an undefined class Nope"},
		{"redefine basic", "class IO {};\n" + mainClass, "Redefinition of basic class IO."},
		{"redefine user", "class A {};\nclass A {};\n" + mainClass, "test.cl:2: Class A was previously defined."},
		{"cycle", "class A inherits B {};\nclass B inherits A {};\n" + mainClass, "involved in an inheritance cycle"},
		{"no Main", "class A {};", "Class Main is not defined."},
		{"no main method", "class Main { f() : Int { 0 }; };", "No 'main' method in class Main."},
		{"main with args", "class Main { main(x : Int) : Int { x }; };", "should have no arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := analyze(t, tt.src)
			assertErrorsContain(t, errs, tt.expected)
		})
	}
}

func TestFeatureErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			"override parameter type",
			"class P { test(x : Int) : Int { 0 }; };\nclass C inherits P { test(x : String) : Int { 0 }; };\n" + mainClass,
			"In redefined method test, parameter type String is different from original type Int",
		},
		{
			"override arity",
			"class P { test(x : Int) : Int { 0 }; };\nclass C inherits P { test() : Int { 0 }; };\n" + mainClass,
			"Incompatible number of formal parameters in redefined method test.",
		},
		{
			"override return",
			"class C inherits IO { out_int(x : Int) : Object { self }; };\n" + mainClass,
			"return type Object is different from original return type SELF_TYPE",
		},
		{
			"duplicate method",
			"class A { f() : Int { 0 }; f() : Int { 1 }; };\n" + mainClass,
			"Method f is multiply defined.",
		},
		{
			"inherited attribute",
			"class P { a : Int; };\nclass C inherits P { a : Int; };\n" + mainClass,
			"Attribute a is an attribute of an inherited class.",
		},
		{
			"attribute named self",
			"class A { self : Int; };\n" + mainClass,
			"'self' cannot be the name of an attribute.",
		},
		{
			"undefined attribute type",
			"class A { a : Nope; };\n" + mainClass,
			"Class Nope of attribute a is undefined.",
		},
		{
			"SELF_TYPE formal",
			"class A { f(x : SELF_TYPE) : Int { 0 }; };\n" + mainClass,
			"Formal parameter x cannot have type SELF_TYPE.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := analyze(t, tt.src)
			assertErrorsContain(t, errs, tt.expected)
		})
	}
}

func TestExpressionErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"arith on string", `1 + "a"`, "non-Int arguments: Int + String"},
		{"compare basic", `1 = "a"`, "Illegal comparison with a basic type."},
		{"if predicate", `if 1 then 2 else 3 fi`, "Predicate of 'if' does not have type Bool."},
		{"while predicate", `while 1 loop 2 pool`, "Loop condition does not have type Bool."},
		{"undeclared", `x`, "Undeclared identifier x."},
		{"assign self", `self <- new Main`, "Cannot assign to 'self'."},
		{"bad dispatch", `self.nothing()`, "Dispatch to undefined method nothing."},
		{"arity", `self.out_int()`, "Method out_int called with wrong number of arguments."},
		{"arg type", `self.out_int("x")`, "type String of parameter x does not conform to declared type Int"},
		{"static dispatch", `(new Object)@IO.out_int(1)`, "does not conform to declared static dispatch type IO"},
		{"duplicate branch", `case 1 of a : Int => a; b : Int => b; esac`, "Duplicate branch Int in case statement."},
		{"let init", `let x : Int <- "s" in x`, "Inferred type String of initialization of x"},
		{"new undefined", `new Nope`, "'new' used with undefined class Nope."},
		{"not on int", `not 1`, "Argument of 'not' has type Int instead of Bool."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "class Main inherits IO { main() : Object { " + tt.body + " }; };"
			_, errs := analyze(t, src)
			assertErrorsContain(t, errs, tt.expected)
		})
	}
}

func TestErrorsCarryFileAndLine(t *testing.T) {
	_, errs := analyze(t, "class Main {\n  main() : Int {\n    x\n  };\n};")
	if len(errs) != 2 {
		t.Fatalf("expected undeclared identifier and return type errors, got %v", errs)
	}
	if errs[0] != "test.cl:3: Undeclared identifier x." {
		t.Errorf("got %q", errs[0])
	}
}

func TestStaticTypeAnnotation(t *testing.T) {
	src := `
class A {
  me() : SELF_TYPE { self };
};
class B inherits A {};
class Main inherits IO {
  b : B <- new B;
  main() : Object {
    {
      b.me();
      if true then new A else b fi;
      case b of a : A => a; o : Object => 1; esac;
      let x : Int <- 3 in x + 1;
      out_string("hi");
      isvoid b;
      self;
    }
  };
};
`
	program, errs := analyze(t, src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	main := program.Classes[2]
	block := main.Methods()[0].Body.(*ast.BlockExpression)

	want := []string{"B", "A", "Object", "Int", ast.SelfType, "Bool", ast.SelfType}
	for i, w := range want {
		if got := block.Expressions[i].StaticType(); got != w {
			t.Errorf("expression %d (%s): static type %s, want %s", i, ast.String(block.Expressions[i]), got, w)
		}
	}
	if got := block.StaticType(); got != ast.SelfType {
		t.Errorf("block type %s", got)
	}

	dispatch := block.Expressions[0].(*ast.MethodCall)
	if got := dispatch.Object.StaticType(); got != "B" {
		t.Errorf("receiver annotated %s", got)
	}
	let := block.Expressions[3].(*ast.LetExpression)
	if got := let.Body.StaticType(); got != ast.IntClass {
		t.Errorf("let body annotated %s", got)
	}
	attr := main.Attributes()[0]
	if got := attr.Init.StaticType(); got != "B" {
		t.Errorf("attribute init annotated %s", got)
	}
}

func TestLetScoping(t *testing.T) {
	src := `class Main { main() : Int { let x : Int <- 1, y : Int <- x + 1 in let x : String in y }; };`
	program, errs := analyze(t, src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	let := program.Classes[0].Methods()[0].Body.(*ast.LetExpression)
	inner := let.Body.(*ast.LetExpression)
	if got := inner.Bindings[0].Name.Value; got != "x" {
		t.Fatalf("unexpected shape: %s", got)
	}
	if got := inner.Body.StaticType(); got != ast.IntClass {
		t.Errorf("y should be Int, got %s", got)
	}
}

func TestConformanceAndLUB(t *testing.T) {
	sa := NewSemanticAnalyzer()
	sa.Analyze(parse(t, "class A {};\nclass B inherits A {};\nclass C inherits A {};\nclass D inherits B {};\n"+mainClass))
	if errs := sa.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	st := sa.SymbolTable()

	tests := []struct {
		t1, t2 string
		lub    string
		le     bool
	}{
		{"D", "C", "A", false},
		{"D", "B", "B", true},
		{"B", "D", "B", false},
		{"Int", "String", "Object", false},
		{"D", "Object", "Object", true},
		{ast.SelfType, "A", "A", true},
		{"A", ast.SelfType, "A", false},
	}
	for _, tt := range tests {
		if got := st.GetLeastUpperBound(tt.t1, tt.t2, "B"); got != tt.lub {
			t.Errorf("lub(%s, %s) = %s, want %s", tt.t1, tt.t2, got, tt.lub)
		}
		if got := st.IsConformingType(tt.t1, tt.t2, "B"); got != tt.le {
			t.Errorf("%s <= %s = %v, want %v", tt.t1, tt.t2, got, tt.le)
		}
	}
	if got := st.GetLeastUpperBound(ast.SelfType, ast.SelfType, "B"); got != ast.SelfType {
		t.Errorf("lub(SELF_TYPE, SELF_TYPE) = %s", got)
	}
}
