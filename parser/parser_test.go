package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"coolz80/ast"
	"coolz80/lexer"
)

func newParser(input string) *Parser {
	l := lexer.NewLexer(strings.NewReader(input))
	return New(l, "test.cl")
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}

	t.Errorf("parser has %d errors", len(errors))
	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}
	t.FailNow()
}

// parseBody parses a one-method class around body and returns the body.
func parseBody(t *testing.T, body string) ast.Expression {
	t.Helper()
	p := newParser(fmt.Sprintf("class Test {\n  m() : Object { %s };\n};", body))
	program := p.ParseProgram()
	checkParserErrors(t, p)
	return program.Classes[0].Features[0].(*ast.Method).Body
}

func TestBasicClassParsing(t *testing.T) {
	tests := []struct {
		input          string
		expectedClass  string
		expectedParent string
	}{
		{"class A {};", "A", ast.ObjectClass},
		{"class B inherits A {};", "B", "A"},
	}

	for _, tt := range tests {
		p := newParser(tt.input)
		program := p.ParseProgram()
		checkParserErrors(t, p)

		if len(program.Classes) != 1 {
			t.Fatalf("expected 1 class, got %d", len(program.Classes))
		}
		class := program.Classes[0]
		if class.Name.Value != tt.expectedClass {
			t.Errorf("class name: got %s, want %s", class.Name.Value, tt.expectedClass)
		}
		if class.ParentName() != tt.expectedParent {
			t.Errorf("parent: got %s, want %s", class.ParentName(), tt.expectedParent)
		}
		if class.Filename != "test.cl" {
			t.Errorf("filename: got %q", class.Filename)
		}
	}
}

func TestClassFeatureParsing(t *testing.T) {
	input := `
		class Test {
			x : Int;
			y : String <- "hello";
			method() : Int { 42 };
		};
	`

	p := newParser(input)
	program := p.ParseProgram()
	checkParserErrors(t, p)

	class := program.Classes[0]
	if len(class.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(class.Features))
	}

	x, ok := class.Features[0].(*ast.Attribute)
	if !ok {
		t.Fatalf("feature 0 is %T", class.Features[0])
	}
	if _, ok := x.Init.(*ast.NoExpr); !ok {
		t.Errorf("attribute without initializer should carry NoExpr, got %T", x.Init)
	}

	y := class.Features[1].(*ast.Attribute)
	if got := ast.String(y.Init); got != `"hello"` {
		t.Errorf("y init: got %s", got)
	}

	method, ok := class.Features[2].(*ast.Method)
	if !ok {
		t.Fatalf("feature 2 is %T", class.Features[2])
	}
	if method.Name.Value != "method" || method.ReturnType.Value != ast.IntClass {
		t.Errorf("method incorrect: %s : %s", method.Name.Value, method.ReturnType.Value)
	}
	if got := len(class.Attributes()); got != 2 {
		t.Errorf("Attributes(): got %d", got)
	}
	if got := len(class.Methods()); got != 1 {
		t.Errorf("Methods(): got %d", got)
	}
}

func TestMethodParameterParsing(t *testing.T) {
	p := newParser(`class Test { method(x : Int, y : String, z : Bool) : Int { 42 }; };`)
	program := p.ParseProgram()
	checkParserErrors(t, p)

	method := program.Classes[0].Features[0].(*ast.Method)
	var got []string
	for _, f := range method.Parameters {
		got = append(got, f.Name.Value+":"+f.Type.Value)
	}
	want := []string{"x:Int", "y:String", "z:Bool"}
	if diff := pretty.Diff(want, got); len(diff) > 0 {
		t.Errorf("parameters differ: %v", diff)
	}
}

func TestExpressionShapes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`42`, "*ast.IntegerLiteral"},
		{`true`, "*ast.BooleanLiteral"},
		{`"hello"`, "*ast.StringLiteral"},
		{`if a < b then a else b fi`, "*ast.IfExpression"},
		{`while a < b loop a + b pool`, "*ast.WhileExpression"},
		{`case a + b of x : Int => x; y : String => y; esac`, "*ast.CaseExpression"},
		{`let x : Int <- 5, y : Int in x + y`, "*ast.LetExpression"},
		{`a@Sum.sum(b, 3, 4)`, "*ast.MethodCall"},
		{`{ a <- 5; b <- 10; a + b; }`, "*ast.BlockExpression"},
		{`new Foo`, "*ast.NewExpression"},
		{`isvoid a`, "*ast.IsVoidExpression"},
		{`~a`, "*ast.NegExpression"},
		{`not a`, "*ast.NotExpression"},
		{`a <- 1`, "*ast.Assignment"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			body := parseBody(t, tt.input)
			if actual := fmt.Sprintf("%T", body); actual != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, actual)
			}
		})
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a - b - c", "((a - b) - c)"},
		{"a * b / c", "((a * b) / c)"},
		{"a + b < c", "((a + b) < c)"},
		{"not a < b", "not (a < b)"},
		{"isvoid x + 1", "(isvoid x + 1)"},
		{"~a.f()", "~a.f()"},
		{"~a + b", "(~a + b)"},
		{"x <- y <- 3", "x <- y <- 3"},
		{"x <- 1 + 2", "x <- (1 + 2)"},
		{"(a + b) * c", "((a + b) * c)"},
		{"a = b", "(a = b)"},
		{"a.f(1).g(b, c)", "a.f(1).g(b, c)"},
		{"new A.f()", "new A.f()"},
		{"e@A.g()", "e@A.g()"},
		{"f(1, 2)", "self.f(1, 2)"},
		{"{ 1; 2; }", "{ 1; 2; }"},
		{"let x : Int <- 1, y : Int in x + y", "let x : Int <- 1, y : Int in (x + y)"},
		{"case x of a : Int => a; b : Object => b; esac", "case x of a : Int => a; b : Object => b; esac"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ast.String(parseBody(t, tt.input)); got != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, got)
			}
		})
	}
}

func TestImplicitSelfDispatch(t *testing.T) {
	call, ok := parseBody(t, "sum(1, 2, 3)").(*ast.MethodCall)
	if !ok {
		t.Fatalf("expected *ast.MethodCall")
	}
	self, ok := call.Object.(*ast.ObjectIdentifier)
	if !ok || self.Value != ast.Self {
		t.Fatalf("receiver should be self, got %s", ast.String(call.Object))
	}
	if call.IsStatic() {
		t.Error("implicit self call is not static")
	}
	if len(call.Arguments) != 3 {
		t.Errorf("wrong number of arguments. got=%d", len(call.Arguments))
	}
}

func TestLetBindingInitializers(t *testing.T) {
	let := parseBody(t, "let a : Int, b : String <- \"s\" in a").(*ast.LetExpression)
	if len(let.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(let.Bindings))
	}
	if _, ok := let.Bindings[0].Init.(*ast.NoExpr); !ok {
		t.Errorf("binding a should default to NoExpr, got %T", let.Bindings[0].Init)
	}
	if _, ok := let.Bindings[1].Init.(*ast.StringLiteral); !ok {
		t.Errorf("binding b init: got %T", let.Bindings[1].Init)
	}
}

func TestLineNumbers(t *testing.T) {
	p := newParser("class A {\n  f() : Int {\n    1 +\n    2\n  };\n};")
	program := p.ParseProgram()
	checkParserErrors(t, p)

	m := program.Classes[0].Features[0].(*ast.Method)
	if m.Line() != 2 {
		t.Errorf("method line: got %d", m.Line())
	}
	if m.Body.Line() != 3 {
		t.Errorf("infix line: got %d", m.Body.Line())
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"missing semicolon", `class Test {}`, "test.cl:1: syntax error at or near EOF: expected SEMI"},
		{"missing class name", `class {};`, "expected TYPEID"},
		{"bad formal", "class Test {\n m(: Int) : Int { 42 };\n};", "test.cl:2: syntax error at or near ':'"},
		{"let without name", "class Test { m() : Int { let Int <- 5 in x }; };", "expected OBJECTID"},
		{"if without else", "class Test { m() : Int { if a then b fi }; };", "expected ELSE"},
		{"empty case", "class Test { m() : Int { case a of esac }; };", "at least one branch"},
		{"empty block", "class Test { m() : Int { {} }; };", "empty block"},
		{"chained comparison", "class Test { m() : Bool { a < b < c }; };", "non-associative"},
		{"block needs semicolons", "class Test { m() : Int { { 1 } }; };", "expected SEMI"},
		{"lexical error", "class Test { m() : Int { 99999 }; };", "integer constant 99999 out of range"},
		{"empty program", "", "no classes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(tt.input)
			p.ParseProgram()
			errors := p.Errors()
			if len(errors) == 0 {
				t.Fatalf("expected an error for:\n%s", tt.input)
			}
			if !strings.Contains(errors[0], tt.errMsg) {
				t.Errorf("expected first error to contain %q, got %q", tt.errMsg, errors[0])
			}
		})
	}
}

func TestRecoveryReportsLaterClasses(t *testing.T) {
	p := newParser("class A { x : ; };\nclass B {};\nclass C { y : Int <- ; };\n")
	program := p.ParseProgram()

	if len(p.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", p.Errors())
	}
	if len(program.Classes) != 1 || program.Classes[0].Name.Value != "B" {
		t.Errorf("expected only class B to survive, got %d classes", len(program.Classes))
	}
}

func TestResolveImports(t *testing.T) {
	dir := t.TempDir()
	write := func(name, text string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("list.cool", "module list\nclass List {};\n")
	write("util.cool", "import \"list\";\nclass Util {};\n")
	main := "import \"util\";\nimport \"list\";\nclass Main { main() : Int { 0 }; };\n"

	sources, err := ResolveImports(filepath.Join(dir, "main.cool"), main)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, s := range sources {
		names = append(names, filepath.Base(s.Path))
	}
	want := []string{"list.cool", "util.cool", "main.cool"}
	if diff := pretty.Diff(want, names); len(diff) > 0 {
		t.Fatalf("import order differs: %v", diff)
	}

	last := sources[2].Text
	if !strings.HasPrefix(last, "\n\nclass Main") {
		t.Errorf("import lines should be blanked in place, got %q", last)
	}
	if strings.Contains(sources[0].Text, "module") {
		t.Errorf("module line should be blanked, got %q", sources[0].Text)
	}
}

func TestResolveImportsMissingFile(t *testing.T) {
	_, err := ResolveImports(filepath.Join(t.TempDir(), "main.cool"), "import \"nowhere\";\n")
	if err == nil || !strings.Contains(err.Error(), "cannot import nowhere.cool") {
		t.Fatalf("expected missing import error, got %v", err)
	}
}
