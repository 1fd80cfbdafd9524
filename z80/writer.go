package z80

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Writer emits one assembly line per call. The first write error is kept
// and later writes are dropped; check Err once at the end.
type Writer struct {
	w     io.Writer
	err   error
	lines int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Err() error { return w.err }

// Lines is the number of lines written so far.
func (w *Writer) Lines() int { return w.lines }

func (w *Writer) line(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format+"\n", args...)
	w.lines++
}

func (w *Writer) Label(name string) {
	w.line("%s:", name)
}

func (w *Writer) Include(filename string) {
	w.line("#include\t%q", filename)
}

// Raw writes text verbatim, for assembler macros such as defpage(0).
func (w *Writer) Raw(text string) {
	w.line("%s", text)
}

// Word emits a .dw holding the address a.
func (w *Writer) Word(a Absolute) {
	w.line("\t.dw\t%s", a)
}

func (w *Writer) WordInt(n int) {
	w.line("\t.dw\t%d", n)
}

// Asciz emits the bytes of s followed by a NUL terminator. Printable
// characters are grouped into quoted runs; anything else, including quotes
// and backslashes, is written as a decimal byte.
func (w *Writer) Asciz(s string) {
	w.line("\t.db\t%s", DBOperands(s))
}

// DBOperands renders s as the operand list of a .db directive.
func DBOperands(s string) string {
	var parts []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, `"`+run.String()+`"`)
			run.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			run.WriteByte(c)
			continue
		}
		flush()
		parts = append(parts, strconv.Itoa(int(c)))
	}
	flush()
	parts = append(parts, "0")
	return strings.Join(parts, ",")
}

// Op writes an instruction with comma-separated operands.
func (w *Writer) Op(mnemonic string, operands ...string) {
	if len(operands) == 0 {
		w.line("\t%s", mnemonic)
		return
	}
	w.line("\t%s\t%s", mnemonic, strings.Join(operands, ","))
}

// Load copies src into dst. Only the forms the Z80 has, such as ld sp,hl,
// are meaningful.
func (w *Writer) Load(dst, src Register) {
	w.Op("ld", string(dst), string(src))
}

func (w *Writer) LoadInt(dst Register, n int) {
	w.Op("ld", string(dst), strconv.Itoa(n))
}

// Fetch puts the value loc denotes in the pair dst. An Absolute denotes its
// own address, so dst ends up referencing the static object or code there.
// A RegisterOffset denotes the little-endian word stored at it.
func (w *Writer) Fetch(dst Register, loc Location) {
	switch loc := loc.(type) {
	case Absolute:
		w.Op("ld", string(dst), loc.String())
	case RegisterOffset:
		w.Op("ld", string(dst.Low()), loc.String())
		w.Op("ld", string(dst.High()), loc.Next().String())
	default:
		panic(fmt.Sprintf("z80: cannot fetch from %T", loc))
	}
}

// StoreWord writes a register pair to the word at loc.
func (w *Writer) StoreWord(loc RegisterOffset, src Register) {
	w.Op("ld", loc.String(), string(src.Low()))
	w.Op("ld", loc.Next().String(), string(src.High()))
}

// LoadIndirect reads the word hl points at into dst, leaving hl on the
// high byte.
func (w *Writer) LoadIndirect(dst Register) {
	w.Op("ld", string(dst.Low()), "(hl)")
	w.Op("inc", "hl")
	w.Op("ld", string(dst.High()), "(hl)")
}

// StoreIndirect writes the pair src to the word hl points at, leaving hl
// on the high byte.
func (w *Writer) StoreIndirect(src Register) {
	w.Op("ld", "(hl)", string(src.Low()))
	w.Op("inc", "hl")
	w.Op("ld", "(hl)", string(src.High()))
}

// Move copies a 16-bit register through the stack, which works for every
// pair including the index registers.
func (w *Writer) Move(dst, src Register) {
	w.Push(src)
	w.Pop(dst)
}

func (w *Writer) Push(r Register) { w.Op("push", string(r)) }
func (w *Writer) Pop(r Register)  { w.Op("pop", string(r)) }

func (w *Writer) Add(dst, src Register) { w.Op("add", string(dst), string(src)) }
func (w *Writer) Sbc(dst, src Register) { w.Op("sbc", string(dst), string(src)) }
func (w *Writer) Or(r Register)         { w.Op("or", string(r)) }
func (w *Writer) Xor(mask int)          { w.Op("xor", strconv.Itoa(mask)) }
func (w *Writer) Inc(r Register)        { w.Op("inc", string(r)) }
func (w *Writer) Dec(r Register)        { w.Op("dec", string(r)) }
func (w *Writer) Scf()                  { w.Op("scf") }
func (w *Writer) ExDEHL()               { w.Op("ex", "de", "hl") }

// ClearCarry is "or a", which resets the carry flag before sbc.
func (w *Writer) ClearCarry() { w.Or(A) }

// TestZero sets Z when the pair r is zero. It clobbers a.
func (w *Writer) TestZero(r Register) {
	w.Op("ld", string(A), string(r.High()))
	w.Or(r.Low())
}

func (w *Writer) Call(label string) { w.Op("call", label) }

func (w *Writer) Jp(flag Flag, label string) {
	if flag == Always {
		w.Op("jp", label)
		return
	}
	w.Op("jp", string(flag), label)
}

func (w *Writer) Ret() { w.Op("ret") }
