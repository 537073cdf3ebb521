package interpreter

import (
	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

// evalInvoke handles the Invoke administrative instruction: pop arguments,
// type check them against fn's declared parameters, then dispatch on the
// three ModuleFunc variants.
func evalInvoke(cfg *Config, code *Code, fn wasm.ModuleFunc) error {
	ft := fn.Type()
	args, ok := code.PopValues(len(ft.Params))
	if !ok {
		return underflow()
	}
	for i, want := range ft.Params {
		if args[i].ValueType() != want {
			return crash("call argument type mismatch")
		}
	}

	caller := cfg.Ctx
	listener, ctx := beforeCall(cfg, fn, args)

	switch f := fn.(type) {
	case *wasm.AstFunc:
		if err := cfg.EnterFrame(); err != nil {
			afterCall(listener, ctx, fn, nil, err)
			return err
		}
		cfg.Ctx = ctx
		frame := NewFrame(f.Owner, args, f.Locals)
		body := &Code{Instrs: []AdminInstr{&Label{
			Arity: len(ft.Results),
			Inner: &Code{Instrs: plainSeq(f.Body)},
		}}}
		code.PrependInstrs(&Framed{
			Arity: len(ft.Results),
			Frame: frame,
			Inner: body,
			OnDone: func(results []values.Value, err error) {
				cfg.Ctx = caller
				afterCall(listener, ctx, fn, results, err)
			},
		})
		return nil

	case *wasm.HostFunc:
		results := f.Fn(args)
		if err := checkResultTypes(ft.Results, results); err != nil {
			afterCall(listener, ctx, fn, nil, err)
			return err
		}
		afterCall(listener, ctx, fn, results, nil)
		code.PushValues(results...)
		return nil

	case *wasm.HostFuncEff:
		results, err := f.Fn(args)
		if err != nil {
			afterCall(listener, ctx, fn, nil, err)
			trap(code, wasm.DefaultRegion, err.Error())
			return nil
		}
		if tErr := checkResultTypes(ft.Results, results); tErr != nil {
			afterCall(listener, ctx, fn, nil, tErr)
			return tErr
		}
		afterCall(listener, ctx, fn, results, nil)
		code.PushValues(results...)
		return nil
	}

	return crash("unknown ModuleFunc variant")
}

// checkResultTypes guards against a misbehaving host function: its return
// shape must match its own declared FuncType.
func checkResultTypes(want []api.ValueType, got []values.Value) error {
	if len(want) != len(got) {
		return crash("host function result arity mismatch")
	}
	for i, t := range want {
		if got[i].ValueType() != t {
			return crash("host function result type mismatch")
		}
	}
	return nil
}
