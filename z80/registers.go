// Package z80 writes Z80 assembly text for the TI-83+ toolchain: register
// names, memory locations, instructions and data directives.
package z80

import "fmt"

type Register string

const (
	A Register = "a"
	B Register = "b"
	C Register = "c"
	D Register = "d"
	E Register = "e"
	H Register = "h"
	L Register = "l"

	BC Register = "bc"
	DE Register = "de"
	HL Register = "hl"
	IX Register = "ix"
	IY Register = "iy"
	SP Register = "sp"
)

// Roles of the registers in generated code.
const (
	ACC  = A  // 8-bit accumulator
	ARG0 = HL // first argument and result
	SELF = IX // current object
	FP   = IY // frame pointer
)

// WordSize is the size in bytes of a pointer or an Int payload.
const WordSize = 2

// Low returns the low byte of a general purpose pair.
func (r Register) Low() Register {
	switch r {
	case BC:
		return C
	case DE:
		return E
	case HL:
		return L
	}
	panic(fmt.Sprintf("z80: register %s has no low half", r))
}

// High returns the high byte of a general purpose pair.
func (r Register) High() Register {
	switch r {
	case BC:
		return B
	case DE:
		return D
	case HL:
		return H
	}
	panic(fmt.Sprintf("z80: register %s has no high half", r))
}

// Flag is a jump condition. The zero value means unconditional.
type Flag string

const (
	Always  Flag = ""
	Zero    Flag = "z"
	NonZero Flag = "nz"
	Carry   Flag = "c"
	NoCarry Flag = "nc"
)

// Location is either an absolute address or a register-relative one.
// Writer.Fetch switches on the two kinds.
type Location interface {
	fmt.Stringer
	location()
}

// Absolute is a label plus a byte offset. Static objects, tables and code
// are referenced by their Absolute address.
type Absolute struct {
	Label  string
	Offset int
}

// At is the Absolute address of label itself.
func At(label string) Absolute { return Absolute{Label: label} }

func (Absolute) location() {}

func (a Absolute) String() string {
	switch {
	case a.Offset > 0:
		return fmt.Sprintf("%s+%d", a.Label, a.Offset)
	case a.Offset < 0:
		return fmt.Sprintf("%s-%d", a.Label, -a.Offset)
	}
	return a.Label
}

// RegisterOffset addresses memory at an index register plus a signed 8-bit
// displacement.
type RegisterOffset struct {
	Base   Register
	Offset int
}

func (RegisterOffset) location() {}

func (r RegisterOffset) String() string {
	if r.Offset < 0 {
		return fmt.Sprintf("(%s-%d)", r.Base, -r.Offset)
	}
	return fmt.Sprintf("(%s+%d)", r.Base, r.Offset)
}

// Next is the byte after r.
func (r RegisterOffset) Next() RegisterOffset {
	return RegisterOffset{Base: r.Base, Offset: r.Offset + 1}
}

// FitsDisplacement reports whether both bytes of a word at offset are
// reachable with an index displacement.
func FitsDisplacement(offset int) bool {
	return offset >= -128 && offset+1 <= 127
}
