// Package semant checks a parsed program and annotates every expression with
// its static type. Code generation only runs on a program with no errors.
package semant

import (
	"fmt"

	"coolz80/ast"
	"coolz80/logger"
)

type SemanticAnalyzer struct {
	symbolTable *SymbolTable
	errors      []string

	// class being checked
	class *ast.Class
}

func NewSemanticAnalyzer() *SemanticAnalyzer {
	return &SemanticAnalyzer{
		symbolTable: NewSymbolTable(),
		errors:      []string{},
	}
}

func (sa *SemanticAnalyzer) Errors() []string {
	return sa.errors
}

func (sa *SemanticAnalyzer) SymbolTable() *SymbolTable {
	return sa.symbolTable
}

func (sa *SemanticAnalyzer) errorf(class *ast.Class, line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if class != nil {
		msg = fmt.Sprintf("%s:%d: %s", class.Filename, line, msg)
	}
	logger.LogDiagnostic("semant", msg)
	sa.errors = append(sa.errors, msg)
}

func (sa *SemanticAnalyzer) errorAt(line int, format string, args ...any) {
	sa.errorf(sa.class, line, format, args...)
}

// Analyze runs the checks in order: class graph, feature tables, Main, then
// expression typing. It stops after a phase that reported errors.
func (sa *SemanticAnalyzer) Analyze(program *ast.Program) {
	if !sa.buildClassGraph(program) {
		return
	}

	ordered := sa.topologicalSort(program.Classes)
	for _, class := range ordered {
		sa.collectFeatures(class)
	}
	sa.validateMainClass(program)
	if len(sa.errors) > 0 {
		return
	}

	for _, class := range program.Classes {
		sa.analyzeClass(class)
	}
}

func (sa *SemanticAnalyzer) buildClassGraph(program *ast.Program) bool {
	st := sa.symbolTable
	var user []*ast.Class
	for _, class := range program.Classes {
		name := class.Name.Value
		switch {
		case ast.IsBasic(name), name == ast.SelfType:
			sa.errorf(class, class.Line(), "Redefinition of basic class %s.", name)
			continue
		case st.Classes[name] != nil:
			sa.errorf(class, class.Line(), "Class %s was previously defined.", name)
			continue
		}
		logger.Debug("registering class", "class", name, "parent", class.ParentName())
		st.AddClass(class)
		user = append(user, class)
	}

	for _, class := range user {
		parent := class.ParentName()
		switch {
		case !ast.IsInheritable(parent):
			sa.errorf(class, class.Line(), "Class %s cannot inherit class %s.", class.Name.Value, parent)
		case st.Classes[parent] == nil:
			sa.errorf(class, class.Line(), "Class %s inherits from an undefined class %s.", class.Name.Value, parent)
		default:
			st.Inheritance.Edges[class.Name.Value] = parent
		}
	}
	if len(sa.errors) > 0 {
		return false
	}

	for _, class := range user {
		if st.Inheritance.HasCycle(class.Name.Value) {
			sa.errorf(class, class.Line(), "Class %s, or an ancestor of %s, is involved in an inheritance cycle.",
				class.Name.Value, class.Name.Value)
		}
	}
	return len(sa.errors) == 0
}

// topologicalSort orders classes so that every parent precedes its children.
func (sa *SemanticAnalyzer) topologicalSort(classes []*ast.Class) []*ast.Class {
	byName := make(map[string]*ast.Class, len(classes))
	for _, c := range classes {
		byName[c.Name.Value] = c
	}

	visited := make(map[string]bool)
	order := []*ast.Class{}

	var visit func(cls *ast.Class)
	visit = func(cls *ast.Class) {
		if visited[cls.Name.Value] {
			return
		}
		visited[cls.Name.Value] = true
		if parent, ok := byName[cls.ParentName()]; ok {
			visit(parent)
		}
		order = append(order, cls)
	}

	for _, cls := range classes {
		visit(cls)
	}
	return order
}

// collectFeatures fills the method and attribute tables of class, checking
// redefinitions against the already collected ancestors.
func (sa *SemanticAnalyzer) collectFeatures(class *ast.Class) {
	st := sa.symbolTable
	sym := st.Classes[class.Name.Value]
	parent := class.ParentName()

	for _, feature := range class.Features {
		switch f := feature.(type) {
		case *ast.Method:
			name := f.Name.Value
			if _, dup := sym.Methods[name]; dup {
				sa.errorf(class, f.Line(), "Method %s is multiply defined.", name)
				continue
			}
			sa.checkSignature(class, f)
			if inherited, ok := st.LookupMethod(parent, name); ok {
				sa.checkOverride(class, f, inherited)
			}
			sym.Methods[name] = methodSymbol(class.Name.Value, f, false)

		case *ast.Attribute:
			name := f.Name.Value
			switch {
			case name == ast.Self:
				sa.errorf(class, f.Line(), "'self' cannot be the name of an attribute.")
				continue
			case sym.Attributes[name] != nil:
				sa.errorf(class, f.Line(), "Attribute %s is multiply defined in class.", name)
				continue
			}
			if _, ok := st.LookupAttribute(parent, name); ok {
				sa.errorf(class, f.Line(), "Attribute %s is an attribute of an inherited class.", name)
				continue
			}
			if !st.isValidType(f.Type.Value) {
				sa.errorf(class, f.Line(), "Class %s of attribute %s is undefined.", f.Type.Value, name)
			}
			sym.Attributes[name] = attributeSymbol(class.Name.Value, f)
		}
	}
}

func (sa *SemanticAnalyzer) checkSignature(class *ast.Class, m *ast.Method) {
	seen := make(map[string]bool)
	for _, formal := range m.Parameters {
		name := formal.Name.Value
		switch {
		case name == ast.Self:
			sa.errorf(class, formal.Line(), "'self' cannot be the name of a formal parameter.")
		case seen[name]:
			sa.errorf(class, formal.Line(), "Formal parameter %s is multiply defined.", name)
		}
		seen[name] = true

		switch typ := formal.Type.Value; {
		case typ == ast.SelfType:
			sa.errorf(class, formal.Line(), "Formal parameter %s cannot have type SELF_TYPE.", name)
		case !sa.symbolTable.isValidType(typ):
			sa.errorf(class, formal.Line(), "Class %s of formal parameter %s is undefined.", typ, name)
		}
	}
	if !sa.symbolTable.isValidType(m.ReturnType.Value) {
		sa.errorf(class, m.Line(), "Undefined return type %s in method %s.", m.ReturnType.Value, m.Name.Value)
	}
}

func (sa *SemanticAnalyzer) checkOverride(class *ast.Class, m *ast.Method, inherited *Symbol) {
	name := m.Name.Value
	if len(m.Parameters) != len(inherited.Parameters) {
		sa.errorf(class, m.Line(), "Incompatible number of formal parameters in redefined method %s.", name)
		return
	}
	for i, formal := range m.Parameters {
		if want := inherited.Parameters[i].Type.Value; formal.Type.Value != want {
			sa.errorf(class, formal.Line(), "In redefined method %s, parameter type %s is different from original type %s",
				name, formal.Type.Value, want)
		}
	}
	if m.ReturnType.Value != inherited.ReturnType {
		sa.errorf(class, m.Line(), "In redefined method %s, return type %s is different from original return type %s.",
			name, m.ReturnType.Value, inherited.ReturnType)
	}
}

func (sa *SemanticAnalyzer) validateMainClass(program *ast.Program) {
	main, ok := sa.symbolTable.Classes[ast.MainClass]
	if !ok || main.IsBuiltin {
		sa.errorf(nil, 0, "Class Main is not defined.")
		return
	}

	method, ok := sa.symbolTable.LookupMethod(ast.MainClass, ast.MainMethod)
	if !ok {
		sa.errorf(main.Decl, main.Line, "No 'main' method in class Main.")
		return
	}
	if len(method.Parameters) != 0 {
		sa.errorf(main.Decl, method.Line, "'main' method in class Main should have no arguments.")
	}
}

func (sa *SemanticAnalyzer) analyzeClass(class *ast.Class) {
	sa.class = class
	defer func() { sa.class = nil }()
	className := class.Name.Value
	st := sa.symbolTable

	for _, feature := range class.Features {
		switch f := feature.(type) {
		case *ast.Attribute:
			if _, empty := f.Init.(*ast.NoExpr); empty {
				continue
			}
			initType := sa.typeOf(f.Init)
			if !st.IsConformingType(initType, f.Type.Value, className) {
				sa.errorAt(f.Line(), "Inferred type %s of initialization of attribute %s does not conform to declared type %s.",
					initType, f.Name.Value, f.Type.Value)
			}

		case *ast.Method:
			st.EnterScope(SymbolMethod)
			for _, formal := range f.Parameters {
				st.Bind(formal.Name.Value, formal.Type.Value)
			}
			bodyType := sa.typeOf(f.Body)
			st.ExitScope()

			declared := f.ReturnType.Value
			if st.isValidType(declared) && !st.IsConformingType(bodyType, declared, className) {
				sa.errorAt(f.Line(), "Inferred return type %s of method %s does not conform to declared return type %s.",
					bodyType, f.Name.Value, declared)
			}
		}
	}
}
