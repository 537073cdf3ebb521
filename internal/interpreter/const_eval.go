package interpreter

import (
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

// EvalConst evaluates a constant initializer expression (a global's init,
// or an element/data segment's offset): the Wasm core spec's constant
// expression grammar permits only Const and GetGlobal of an
// already-instantiated imported immutable global. Any other instruction, a
// GetGlobal index past mi.Globals, or finishing with a stack depth other
// than exactly one, is a CrashError — a validated module's constant
// expressions can't produce any of these. The mutability of a global read
// by GetGlobal is not checked here.
func EvalConst(mi *wasm.ModuleInst, body []instr.Instr) (values.Value, error) {
	var stack []values.Value
	for _, in := range body {
		switch in.Kind {
		case instr.Const:
			stack = append(stack, in.ConstValue)
		case instr.GetGlobal:
			if int(in.Idx) >= len(mi.Globals) {
				return nil, &wasm.CrashError{Region: in.Region, Msg: "undefined global index in constant expression"}
			}
			stack = append(stack, mi.Globals[in.Idx].Get())
		default:
			return nil, &wasm.CrashError{Region: in.Region, Msg: "non-constant instruction in constant expression"}
		}
	}
	if len(stack) != 1 {
		return nil, &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "constant expression did not produce exactly one value"}
	}
	return stack[0], nil
}
