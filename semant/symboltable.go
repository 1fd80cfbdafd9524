package semant

import (
	"coolz80/ast"
)

type SymbolKind int

const (
	SymbolClass SymbolKind = iota
	SymbolMethod
	SymbolAttribute
	SymbolLocal
)

// Symbol is a class, method, attribute or local binding.
type Symbol struct {
	Name          string
	Kind          SymbolKind
	Type          string // declared type of attributes and locals
	DefiningClass string
	Line          int

	// methods
	Parameters []*ast.Formal
	ReturnType string
	IsBuiltin  bool

	// classes
	Parent     string
	Decl       *ast.Class
	Methods    map[string]*Symbol
	Attributes map[string]*Symbol
}

// Scope is one level of local bindings: formals, a let binding or a case
// branch.
type Scope struct {
	Kind    SymbolKind
	Symbols map[string]*Symbol
	Parent  *Scope
}

// SymbolTable holds the class graph and the current chain of local scopes.
type SymbolTable struct {
	CurrentScope *Scope
	Classes      map[string]*Symbol
	Inheritance  *InheritanceGraph
}

// InheritanceGraph maps each class to its parent.
type InheritanceGraph struct {
	Edges map[string]string
}

func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		CurrentScope: &Scope{Kind: SymbolClass, Symbols: make(map[string]*Symbol)},
		Classes:      make(map[string]*Symbol),
		Inheritance:  &InheritanceGraph{Edges: make(map[string]string)},
	}
	for _, class := range ast.BasicClasses() {
		sym := st.AddClass(class)
		sym.IsBuiltin = true
		st.Inheritance.Edges[class.Name.Value] = class.ParentName()
		for _, m := range class.Methods() {
			sym.Methods[m.Name.Value] = methodSymbol(class.Name.Value, m, true)
		}
		for _, a := range class.Attributes() {
			sym.Attributes[a.Name.Value] = attributeSymbol(class.Name.Value, a)
		}
	}
	return st
}

// AddClass registers a class symbol without linking it into the graph.
func (st *SymbolTable) AddClass(class *ast.Class) *Symbol {
	sym := &Symbol{
		Name:       class.Name.Value,
		Kind:       SymbolClass,
		Line:       class.Line(),
		Parent:     class.ParentName(),
		Decl:       class,
		Methods:    make(map[string]*Symbol),
		Attributes: make(map[string]*Symbol),
	}
	st.Classes[sym.Name] = sym
	return sym
}

func methodSymbol(className string, m *ast.Method, builtin bool) *Symbol {
	return &Symbol{
		Name:          m.Name.Value,
		Kind:          SymbolMethod,
		DefiningClass: className,
		Line:          m.Line(),
		Parameters:    m.Parameters,
		ReturnType:    m.ReturnType.Value,
		IsBuiltin:     builtin,
	}
}

func attributeSymbol(className string, a *ast.Attribute) *Symbol {
	return &Symbol{
		Name:          a.Name.Value,
		Kind:          SymbolAttribute,
		Type:          a.Type.Value,
		DefiningClass: className,
		Line:          a.Line(),
	}
}

func (st *SymbolTable) EnterScope(kind SymbolKind) {
	st.CurrentScope = &Scope{
		Kind:    kind,
		Symbols: make(map[string]*Symbol),
		Parent:  st.CurrentScope,
	}
}

func (st *SymbolTable) ExitScope() {
	if st.CurrentScope.Parent != nil {
		st.CurrentScope = st.CurrentScope.Parent
	}
}

// Bind adds a local to the innermost scope.
func (st *SymbolTable) Bind(name, typ string) {
	st.CurrentScope.Symbols[name] = &Symbol{Name: name, Kind: SymbolLocal, Type: typ}
}

// LookupSymbol searches the local scopes from innermost outwards.
func (st *SymbolTable) LookupSymbol(name string) (*Symbol, bool) {
	for scope := st.CurrentScope; scope != nil; scope = scope.Parent {
		if symbol, exists := scope.Symbols[name]; exists {
			return symbol, true
		}
	}
	return nil, false
}

// Ancestors returns className followed by its ancestors up to Object. It
// stops early on a cycle.
func (g *InheritanceGraph) Ancestors(className string) []string {
	var chain []string
	seen := make(map[string]bool)
	for current := className; current != "" && current != ast.NoClass && !seen[current]; current = g.Edges[current] {
		seen[current] = true
		chain = append(chain, current)
	}
	return chain
}

// HasCycle reports whether following parents from className revisits a
// class.
func (g *InheritanceGraph) HasCycle(className string) bool {
	seen := make(map[string]bool)
	for current := className; current != "" && current != ast.NoClass; current = g.Edges[current] {
		if seen[current] {
			return true
		}
		seen[current] = true
	}
	return false
}

// LookupMethod finds methodName in className or its nearest ancestor.
func (st *SymbolTable) LookupMethod(className, methodName string) (*Symbol, bool) {
	for _, c := range st.Inheritance.Ancestors(className) {
		if class, ok := st.Classes[c]; ok {
			if m, ok := class.Methods[methodName]; ok {
				return m, true
			}
		}
	}
	return nil, false
}

// LookupAttribute finds attrName in className or an ancestor.
func (st *SymbolTable) LookupAttribute(className, attrName string) (*Symbol, bool) {
	for _, c := range st.Inheritance.Ancestors(className) {
		if class, ok := st.Classes[c]; ok {
			if a, ok := class.Attributes[attrName]; ok {
				return a, true
			}
		}
	}
	return nil, false
}

func (st *SymbolTable) isValidType(typeName string) bool {
	if typeName == ast.SelfType {
		return true
	}
	_, exists := st.Classes[typeName]
	return exists
}

// IsConformingType reports type1 <= type2 inside currentClass.
func (st *SymbolTable) IsConformingType(type1, type2 string, currentClass string) bool {
	if type1 == ast.SelfType && type2 == ast.SelfType {
		return true
	}
	if type2 == ast.SelfType {
		return false
	}
	type1 = st.ResolveSelfType(type1, currentClass)
	for _, c := range st.Inheritance.Ancestors(type1) {
		if c == type2 {
			return true
		}
	}
	return false
}

// GetLeastUpperBound is the closest common ancestor of two types.
func (st *SymbolTable) GetLeastUpperBound(type1, type2 string, currentClass string) string {
	if type1 == ast.SelfType && type2 == ast.SelfType {
		return ast.SelfType
	}
	type1 = st.ResolveSelfType(type1, currentClass)
	type2 = st.ResolveSelfType(type2, currentClass)

	ancestors1 := make(map[string]bool)
	for _, c := range st.Inheritance.Ancestors(type1) {
		ancestors1[c] = true
	}
	for _, c := range st.Inheritance.Ancestors(type2) {
		if ancestors1[c] {
			return c
		}
	}
	return ast.ObjectClass
}

func (st *SymbolTable) ResolveSelfType(typeName string, currentClass string) string {
	if typeName == ast.SelfType {
		return currentClass
	}
	return typeName
}
