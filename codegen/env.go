package codegen

import (
	"coolz80/z80"
)

// VariableEnvironment maps names in scope to their storage for one routine.
// Scopes nest like the source: formals, then let and case bindings. It also
// hands out temporary slots in the activation record.
type VariableEnvironment struct {
	class  *ClassNode
	scopes []map[string]z80.RegisterOffset

	temps    int // slots in use
	maxTemps int
}

func newVariableEnvironment(class *ClassNode) *VariableEnvironment {
	return &VariableEnvironment{class: class}
}

func (env *VariableEnvironment) enterScope() {
	env.scopes = append(env.scopes, make(map[string]z80.RegisterOffset))
}

func (env *VariableEnvironment) exitScope() {
	env.scopes = env.scopes[:len(env.scopes)-1]
}

// bind places name at loc in the innermost scope.
func (env *VariableEnvironment) bind(name string, loc z80.RegisterOffset) error {
	if !z80.FitsDisplacement(loc.Offset) {
		return internalErrorf(env.class.Name, "%s at %s is out of index range", name, loc)
	}
	env.scopes[len(env.scopes)-1][name] = loc
	return nil
}

// lookup resolves name through the enclosing scopes, then the attributes of
// the current class.
func (env *VariableEnvironment) lookup(name string) (z80.RegisterOffset, error) {
	for i := len(env.scopes) - 1; i >= 0; i-- {
		if loc, ok := env.scopes[i][name]; ok {
			return loc, nil
		}
	}
	attr, ok := env.class.Attribute(name)
	if !ok {
		return z80.RegisterOffset{}, internalErrorf(env.class.Name, "unbound identifier %s", name)
	}
	loc := z80.RegisterOffset{Base: z80.SELF, Offset: attr.Offset}
	if !z80.FitsDisplacement(loc.Offset) {
		return z80.RegisterOffset{}, internalErrorf(env.class.Name, "attribute %s at %s is out of index range", name, loc)
	}
	return loc, nil
}

// allocTemp claims the next temporary slot. Slots are released in reverse
// order with freeTemp.
func (env *VariableEnvironment) allocTemp() z80.RegisterOffset {
	loc := z80.RegisterOffset{Base: z80.FP, Offset: env.temps * WordSize}
	env.temps++
	if env.temps > env.maxTemps {
		env.maxTemps = env.temps
	}
	return loc
}

func (env *VariableEnvironment) freeTemp() {
	env.temps--
}

// MaxTemps is the high-water mark of temporary slots.
func (env *VariableEnvironment) MaxTemps() int { return env.maxTemps }

// formalLocation returns where formal i of n sits relative to the frame
// pointer of a routine with temps temporaries. Actuals are pushed left to
// right, so the last one is nearest the return address.
func formalLocation(temps, i, n int) z80.RegisterOffset {
	return z80.RegisterOffset{
		Base:   z80.FP,
		Offset: temps*WordSize + frameArgumentsStart + (n-1-i)*WordSize,
	}
}

// Activation record above the temporaries: caller's self, caller's frame
// pointer, return address, then the actuals.
const (
	frameSavedSelf      = 0
	frameSavedFP        = WordSize
	frameReturnAddress  = 2 * WordSize
	frameArgumentsStart = 3 * WordSize
)
