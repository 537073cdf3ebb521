package interpreter

import (
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

// Step advances cfg/code by exactly one admin-instruction. It mutates code
// in place (Values/Instrs are slices owned by code)
// and returns an error only for CrashError, ExhaustionError, or a
// TrapError surfaced all the way to the top level — Trapping/Returning/
// Breaking moving between nested Labels/Frameds are not errors, they're
// admin instructions the loop keeps stepping through.
func Step(cfg *Config, code *Code) error {
	head, ok := code.PopInstr()
	if !ok {
		return nil
	}
	switch h := head.(type) {
	case Plain:
		return evalPlain(cfg, code, h.Instr)
	case Invoke:
		return evalInvoke(cfg, code, h.Func)
	case Trapping:
		return &wasm.TrapError{Region: h.Region, Msg: h.Msg}
	case Returning:
		return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "undefined frame"}
	case Breaking:
		return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "undefined label"}
	case *Label:
		return stepLabel(cfg, code, h)
	case *Framed:
		return stepFramed(cfg, code, h)
	}
	return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "unreachable admin instruction kind"}
}

// Run drives Step until code's instruction stream empties or an error is
// raised, returning the final value stack (in stack order, top first) on
// success.
func Run(cfg *Config, code *Code) ([]values.Value, error) {
	for len(code.Instrs) > 0 {
		if err := Step(cfg, code); err != nil {
			return nil, err
		}
	}
	return code.Values, nil
}

// stepLabel advances execution one step inside a block/loop scope.
func stepLabel(cfg *Config, code *Code, l *Label) error {
	if len(l.Inner.Instrs) == 0 {
		// Control fell off the end of the block: whatever is left on the
		// inner stack becomes the label's result.
		code.Values = append(l.Inner.Values, code.Values...)
		return nil
	}

	switch inner := l.Inner.Instrs[0].(type) {
	case Trapping:
		code.PrependInstrs(inner)
		return nil
	case Returning:
		code.PrependInstrs(inner)
		return nil
	case Breaking:
		if inner.Depth == 0 {
			if len(inner.Values) < l.Arity {
				return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "stack underflow"}
			}
			results := inner.Values[:l.Arity]
			code.Values = append(append([]values.Value(nil), results...), code.Values...)
			code.PrependInstrs(l.Cont...)
			return nil
		}
		code.PrependInstrs(Breaking{Depth: inner.Depth - 1, Values: inner.Values})
		return nil
	default:
		if err := Step(cfg, l.Inner); err != nil {
			return err
		}
		code.PrependInstrs(l)
		return nil
	}
}

// stepFramed advances execution one step inside a function activation.
func stepFramed(cfg *Config, code *Code, f *Framed) error {
	if len(f.Inner.Instrs) == 0 {
		if len(f.Inner.Values) < f.Arity {
			return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "stack underflow"}
		}
		results := f.Inner.Values[:f.Arity]
		code.Values = append(append([]values.Value(nil), results...), code.Values...)
		cfg.Budget++
		if f.OnDone != nil {
			f.OnDone(results, nil)
		}
		return nil
	}

	switch inner := f.Inner.Instrs[0].(type) {
	case Trapping:
		cfg.Budget++
		if f.OnDone != nil {
			f.OnDone(nil, &wasm.TrapError{Region: inner.Region, Msg: inner.Msg})
		}
		code.PrependInstrs(inner)
		return nil
	case Returning:
		if len(inner.Values) < f.Arity {
			return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "stack underflow"}
		}
		results := inner.Values[:f.Arity]
		code.Values = append(append([]values.Value(nil), results...), code.Values...)
		cfg.Budget++
		if f.OnDone != nil {
			f.OnDone(results, nil)
		}
		return nil
	case Breaking:
		// Unreachable on a validated module: a branch that survives every
		// enclosing Label without being consumed has no target.
		return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "undefined label"}
	default:
		// The budget was already charged once, at frame entry (when this
		// Framed was created by evalInvoke), and is given back by the
		// cases above when the frame unwinds — re-entering this case on
		// every subsequent Step call is bookkeeping, not a new call.
		caller := cfg.Frame
		cfg.Frame = f.Frame
		err := Step(cfg, f.Inner)
		cfg.Frame = caller
		if err != nil {
			return err
		}
		code.PrependInstrs(f)
		return nil
	}
}
