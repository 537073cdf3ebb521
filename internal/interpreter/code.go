// Package interpreter implements the small-step stepper over administrative
// instructions and the call/invoke protocol that drives it. It is the
// "tree-walking interpreter" half of the engine; the other half,
// instantiation, lives in internal/instantiate.
package interpreter

import (
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/wasm"
	"github.com/ambit-run/ambit/internal/values"
)

// AdminInstr is the stepper's working alphabet: syntactic instructions plus
// the control signals the stepper itself generates while unwinding blocks,
// frames, and branches.
type AdminInstr interface {
	isAdmin()
}

// Plain wraps a syntactic Wasm instruction, delegated to evalPlain.
type Plain struct {
	Instr instr.Instr
}

func (Plain) isAdmin() {}

// Invoke is a call request: either pushed by the Call/CallIndirect plain
// instructions, or by the public Invoke entry point to start execution.
type Invoke struct {
	Func wasm.ModuleFunc
}

func (Invoke) isAdmin() {}

// Trapping is a poisoned instruction. When it reaches the head of a Code it
// aborts enclosing labels/frames by propagating outward until a caller
// turns it into a wasm.TrapError.
type Trapping struct {
	Region instr.Region
	Msg    string
}

func (Trapping) isAdmin() {}

// Returning is a function return request, valid only immediately inside a
// Framed.
type Returning struct {
	Values []values.Value
}

func (Returning) isAdmin() {}

// Breaking is a branch request. Depth is decremented as it passes through
// enclosing Labels; it is valid only immediately inside a Label.
type Breaking struct {
	Depth  uint32
	Values []values.Value
}

func (Breaking) isAdmin() {}

// Label is a block/loop control-flow scope and branch target. Cont is
// prepended to the outer instruction stream when execution escapes the
// label via a Breaking(0, ...): empty for Block/If, and the loop's own
// Plain instruction (re-entering the label) for Loop.
type Label struct {
	Arity int
	Cont  []AdminInstr
	Inner *Code
}

func (*Label) isAdmin() {}

// Framed is a function activation: private locals plus a result arity.
// Stepping inside a Framed installs Frame as the current frame. The call
// budget is charged once by evalInvoke when the Framed is created and given
// back when it unwinds; individual steps do not charge it. OnDone, if set,
// fires exactly once
// when the frame unwinds (by falling off the end, Returning, or Trapping) —
// it is how evalInvoke's FunctionListener.After notification gets called
// without the stepper itself knowing about listeners.
type Framed struct {
	Arity  int
	Frame  *Frame
	Inner  *Code
	OnDone func(results []values.Value, err error)
}

func (*Framed) isAdmin() {}

// Code is the evaluator's working state inside one label/frame: a value
// stack (LIFO, top is element 0) and a pending admin-instruction stream.
// Every "prepend a short sequence of instructions ahead of what's already
// pending" is PrependInstrs below; a slice-with-front-insert stands in for
// a proper difference list.
type Code struct {
	Values []values.Value
	Instrs []AdminInstr
}

// NewCode builds a Code from a starting instruction list with an empty
// value stack.
func NewCode(instrs []AdminInstr) *Code {
	return &Code{Instrs: instrs}
}

// PushValues prepends vs onto the value stack, in order, so that vs[0]
// ends up deepest and vs[len(vs)-1] ends up on top — i.e. pushing [a, b]
// leaves b on top, matching sequential Const a; Const b.
func (c *Code) PushValues(vs ...values.Value) {
	if len(vs) == 0 {
		return
	}
	c.Values = append(append([]values.Value(nil), reverse(vs)...), c.Values...)
}

func reverse(vs []values.Value) []values.Value {
	out := make([]values.Value, len(vs))
	for i, v := range vs {
		out[len(vs)-1-i] = v
	}
	return out
}

// PopValue pops the top value, reporting false on underflow.
func (c *Code) PopValue() (values.Value, bool) {
	if len(c.Values) == 0 {
		return nil, false
	}
	v := c.Values[0]
	c.Values = c.Values[1:]
	return v, true
}

// PopValues pops the top n values, returning them in push order
// (index 0 is the deepest of the n), reporting false on underflow.
func (c *Code) PopValues(n int) ([]values.Value, bool) {
	if len(c.Values) < n {
		return nil, false
	}
	popped := make([]values.Value, n)
	for i := 0; i < n; i++ {
		popped[n-1-i] = c.Values[i]
	}
	c.Values = c.Values[n:]
	return popped, true
}

// PrependInstrs inserts is at the front of the instruction stream.
func (c *Code) PrependInstrs(is ...AdminInstr) {
	if len(is) == 0 {
		return
	}
	c.Instrs = append(append([]AdminInstr(nil), is...), c.Instrs...)
}

// PopInstr removes and returns the head instruction.
func (c *Code) PopInstr() (AdminInstr, bool) {
	if len(c.Instrs) == 0 {
		return nil, false
	}
	i := c.Instrs[0]
	c.Instrs = c.Instrs[1:]
	return i, true
}

func plainSeq(is []instr.Instr) []AdminInstr {
	out := make([]AdminInstr, len(is))
	for i, ins := range is {
		out[i] = Plain{Instr: ins}
	}
	return out
}
