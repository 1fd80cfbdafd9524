package ast_test

import (
	"bytes"
	"strings"
	"testing"

	"coolz80/ast"
	"coolz80/lexer"
	"coolz80/parser"
)

func TestDump(t *testing.T) {
	src := "class Main inherits IO {\n  n : Int;\n  main() : Object {\n    out_int(n + 1)\n  };\n};"
	p := parser.New(lexer.NewLexer(strings.NewReader(src)), "dump.cl")
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatal(errs)
	}

	call := program.Classes[0].Methods()[0].Body.(*ast.MethodCall)
	call.SetStaticType(ast.SelfType)
	call.Arguments[0].SetStaticType(ast.IntClass)

	var buf bytes.Buffer
	ast.Dump(&buf, program)

	want := `#1 class Main : IO (dump.cl)
  #2 attr n : Int
    #2 no_expr : _no_type
  #3 method main() : Object
    #4 dispatch out_int : SELF_TYPE
      #4 object self : _no_type
      #4 binop + : Int
        #4 object n : _no_type
        #4 int 1 : _no_type
`
	if got := buf.String(); got != want {
		t.Errorf("dump mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBasicClasses(t *testing.T) {
	classes := ast.BasicClasses()
	var names []string
	for _, c := range classes {
		names = append(names, c.Name.Value+"<"+c.ParentName())
	}
	if got := strings.Join(names, " "); got != "Object<_no_class IO<Object Int<Object Bool<Object String<Object" {
		t.Errorf("basic classes: %s", got)
	}

	str := classes[4]
	if got := len(str.Attributes()); got != 2 {
		t.Fatalf("String attributes: %d", got)
	}
	if str.Attributes()[1].Type.Value != ast.PrimSlot {
		t.Errorf("str_field should be a raw slot")
	}
	if !ast.IsBasic("IO") || ast.IsBasic("Main") {
		t.Error("IsBasic")
	}
	if ast.IsInheritable("String") || !ast.IsInheritable("IO") {
		t.Error("IsInheritable")
	}
}
