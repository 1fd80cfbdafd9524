package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"coolz80/ast"
)

var (
	i8Ptr = types.NewPointer(types.I8)
	word  = types.I16
)

// BuildManifest describes the object model of ct as an LLVM module: one
// struct type per class layout, the prototypes, the dispatch tables as
// arrays of method declarations, and the class tables the runtime indexes
// by tag. It carries no code; it exists so external tools can read the
// layout the assembly was generated against.
func BuildManifest(ct *ClassTable) *ir.Module {
	m := ir.NewModule()
	m.SourceFilename = "coolz80"

	methods := make(map[string]*ir.Func)
	declare := func(label string, params int) *ir.Func {
		if fn, ok := methods[label]; ok {
			return fn
		}
		ps := []*ir.Param{ir.NewParam("self", i8Ptr)}
		for i := 0; i < params; i++ {
			ps = append(ps, ir.NewParam(fmt.Sprintf("arg%d", i), i8Ptr))
		}
		fn := m.NewFunc(label, i8Ptr, ps...)
		methods[label] = fn
		return fn
	}

	protos := make([]*ir.Global, ct.Len())
	inits := make([]*ir.Func, ct.Len())
	names := make([]*ir.Global, ct.Len())

	for _, node := range ct.Classes() {
		fields := []types.Type{word, word, i8Ptr}
		values := []constant.Constant{
			constant.NewInt(word, int64(node.Tag)),
			constant.NewInt(word, int64(node.ObjectSize)),
			nil, // dispatch table, filled in below
		}
		for _, attr := range node.Attributes {
			t, v := slotType(attr)
			fields = append(fields, t)
			values = append(values, v)
		}
		st := types.NewStruct(fields...)
		m.NewTypeDef(node.Name, st)

		var dispatch []constant.Constant
		for _, entry := range node.Dispatch.Entries() {
			fn := declare(entry.Label(), methodArity(ct, entry))
			dispatch = append(dispatch, constant.NewBitCast(fn, i8Ptr))
		}
		tableType := types.NewArray(uint64(len(dispatch)), i8Ptr)
		table := m.NewGlobalDef(node.DispTabLabel(), constant.NewArray(tableType, dispatch...))
		table.Immutable = true

		values[2] = constant.NewBitCast(table, i8Ptr)
		protos[node.Tag] = m.NewGlobalDef(node.ProtObjLabel(), constant.NewStruct(st, values...))
		inits[node.Tag] = m.NewFunc(node.InitLabel(), i8Ptr, ir.NewParam("self", i8Ptr))
		names[node.Tag] = m.NewGlobalDef(node.Name+"_name", constant.NewCharArrayFromString(node.Name+"\x00"))
		names[node.Tag].Immutable = true
	}

	pair := types.NewStruct(i8Ptr, i8Ptr)
	var objTab, nameTab []constant.Constant
	for tag := range protos {
		objTab = append(objTab, constant.NewStruct(pair,
			constant.NewBitCast(protos[tag], i8Ptr),
			constant.NewBitCast(inits[tag], i8Ptr)))
		nameTab = append(nameTab, constant.NewBitCast(names[tag], i8Ptr))
	}
	m.NewGlobalDef(classObjTab, constant.NewArray(types.NewArray(uint64(len(objTab)), pair), objTab...))
	m.NewGlobalDef(classNameTab, constant.NewArray(types.NewArray(uint64(len(nameTab)), i8Ptr), nameTab...))

	row := types.NewStruct(word, word)
	var tree []constant.Constant
	for _, entry := range ct.InheritanceTree() {
		tree = append(tree, constant.NewStruct(row,
			constant.NewInt(word, int64(entry.Tag)),
			constant.NewInt(word, int64(entry.Delta))))
	}
	m.NewGlobalDef(inheritanceTree, constant.NewArray(types.NewArray(uint64(len(tree)), row), tree...))
	return m
}

// slotType maps an attribute to its field type and zero value. Raw slots
// are 16-bit words except the inline characters of String.
func slotType(attr AttributeInfo) (types.Type, constant.Constant) {
	if !attr.IsPrimSlot() {
		return i8Ptr, constant.NewNull(i8Ptr)
	}
	if attr.Owner == ast.StringClass {
		chars := types.NewArray(1, types.I8)
		return chars, constant.NewZeroInitializer(chars)
	}
	return word, constant.NewInt(word, 0)
}

// methodArity is the number of formals of the implementation behind entry.
func methodArity(ct *ClassTable, entry MethodInfo) int {
	impl, ok := ct.Lookup(entry.Impl)
	if !ok {
		return 0
	}
	for _, method := range impl.Class.Methods() {
		if method.Name.Value == entry.Name {
			return len(method.Parameters)
		}
	}
	return 0
}
