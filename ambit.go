// Package ambit is a small, dependency-light WebAssembly core execution
// engine: a tree-walking interpreter over already-decoded module ASTs
// (binary/text decoding and validation are out of scope). It implements
// instantiation, invocation, and the host-function boundary; embedding a
// text/binary decoder in front of it is the caller's job.
package ambit

import (
	"context"

	"github.com/ambit-run/ambit/internal/instantiate"
	"github.com/ambit-run/ambit/internal/interpreter"
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

// Re-exported so callers don't need to import internal/wasm directly for
// the types that cross this package's public boundary.
type (
	Module   = wasm.Module
	Store    = wasm.Store
	ModuleRef = wasm.ModuleRef
	ModuleInst = wasm.ModuleInst
	Value    = values.Value
	FuncType = wasm.FuncType
)

// NewStore returns an empty module store.
func NewStore() *Store { return wasm.NewStore() }

// Instantiate runs the Wasm core instantiation algorithm
// (https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#instantiation%E2%91%A0)
// against cfg's call budget, resolving imports through names and
// registering the result in store under the returned ref.
func Instantiate(cfg *RuntimeConfig, store *Store, names *Names, m *Module) (ModuleRef, *ModuleInst, error) {
	if cfg == nil {
		cfg = NewRuntimeConfig()
	}
	return instantiate.InstantiateWithBudget(store, names, m, cfg.callBudget)
}

// InvokeByName looks up name in inst's exports (must be a function), calls
// it with args, and returns its results.
func InvokeByName(cfg *RuntimeConfig, store *Store, ref ModuleRef, inst *ModuleInst, name string, args []Value) ([]Value, error) {
	if cfg == nil {
		cfg = NewRuntimeConfig()
	}
	ext, ok := inst.Export(name)
	if !ok {
		return nil, &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgMissingExternForImport("", name)}
	}
	fn, ok := ext.(wasm.ExternFunc)
	if !ok {
		return nil, &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "export is not a function: " + name}
	}
	ctx := context.Background()
	if cfg.listenerFactory != nil {
		ctx = interpreter.WithFunctionListenerFactory(ctx, cfg.listenerFactory)
	}
	results, err := instantiate.Invoke(ctx, store, ref, fn.Func, args, cfg.callBudget)
	if err != nil {
		return nil, err
	}
	return reverseValues(results), nil
}

// GetByName looks up name in inst's exports (must be a global) and reads
// its current value.
func GetByName(inst *ModuleInst, name string) (Value, error) {
	ext, ok := inst.Export(name)
	if !ok {
		return nil, &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgMissingExternForImport("", name)}
	}
	g, ok := ext.(wasm.ExternGlobal)
	if !ok {
		return nil, &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "export is not a global: " + name}
	}
	return g.Global.Get(), nil
}

// CreateHostFunc wraps an infallible Go function as a ModuleFunc.
func CreateHostFunc(ft FuncType, fn func(args []Value) []Value) wasm.ModuleFunc {
	return &wasm.HostFunc{FuncType: ft, Fn: fn}
}

// CreateHostFuncEff wraps a fallible Go function as a ModuleFunc; a
// returned error becomes a TrapError at the call site.
func CreateHostFuncEff(ft FuncType, fn func(args []Value) ([]Value, error)) wasm.ModuleFunc {
	return &wasm.HostFuncEff{FuncType: ft, Fn: fn}
}

// reverseValues flips the stepper's top-first value order into the
// natural, left-to-right result order a caller expects from invokeByName.
func reverseValues(vs []Value) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[len(vs)-1-i] = v
	}
	return out
}
