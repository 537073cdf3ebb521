package interpreter

import (
	"context"

	"github.com/ambit-run/ambit/internal/wasm"
	"github.com/ambit-run/ambit/internal/values"
)

// FunctionListener can be registered to be notified around every Invoke
// admin-instruction handled by the call/invoke protocol. This is additive
// instrumentation, grounded on wazero's experimental.FunctionListener:
// instantiation and execution semantics are unaffected by whether a
// listener is installed.
type FunctionListener interface {
	// Before is invoked before a function call. The returned context is
	// used for the duration of that call, including nested calls.
	Before(ctx context.Context, fn wasm.ModuleFunc, args []values.Value) context.Context
	// After is invoked after a function call, successful or not.
	After(ctx context.Context, fn wasm.ModuleFunc, results []values.Value, err error)
}

// FunctionListenerFactory returns a FunctionListener per invocation, or nil
// to skip instrumentation for that call.
type FunctionListenerFactory interface {
	NewListener(fn wasm.ModuleFunc) FunctionListener
}

type listenerFactoryKey struct{}

// WithFunctionListenerFactory attaches a factory to ctx, the same pattern
// as wazero's FunctionListenerFactoryKey context value.
func WithFunctionListenerFactory(ctx context.Context, f FunctionListenerFactory) context.Context {
	return context.WithValue(ctx, listenerFactoryKey{}, f)
}

func listenerFactoryFrom(ctx context.Context) FunctionListenerFactory {
	f, _ := ctx.Value(listenerFactoryKey{}).(FunctionListenerFactory)
	return f
}

// beforeCall consults cfg.Ctx for an installed FunctionListenerFactory and,
// if one is present, notifies it of the call about to start. It returns the
// (possibly nil) listener and the context to use for the call's duration.
func beforeCall(cfg *Config, fn wasm.ModuleFunc, args []values.Value) (FunctionListener, context.Context) {
	factory := listenerFactoryFrom(cfg.Ctx)
	if factory == nil {
		return nil, cfg.Ctx
	}
	l := factory.NewListener(fn)
	if l == nil {
		return nil, cfg.Ctx
	}
	return l, l.Before(cfg.Ctx, fn, args)
}

func afterCall(l FunctionListener, ctx context.Context, fn wasm.ModuleFunc, results []values.Value, err error) {
	if l == nil {
		return
	}
	l.After(ctx, fn, results, err)
}
