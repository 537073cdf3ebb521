package interpreter

import (
	"context"

	"github.com/ambit-run/ambit/internal/wasm"
	"github.com/ambit-run/ambit/internal/values"
)

// Frame is an activation record: a function call's locals and the
// ModuleRef of the module that owns the executing function. Locals are
// resolved against this module, never the caller's.
type Frame struct {
	Module wasm.ModuleRef
	Locals []*values.Mutable[values.Value]
}

// NewFrame builds a frame with locals = args followed by zero-valued
// declared locals.
func NewFrame(module wasm.ModuleRef, args []values.Value, declared []byte) *Frame {
	locals := make([]*values.Mutable[values.Value], 0, len(args)+len(declared))
	for _, a := range args {
		locals = append(locals, values.NewMutable(a))
	}
	for _, t := range declared {
		locals = append(locals, values.NewMutable(values.ZeroValue(t)))
	}
	return &Frame{Module: module, Locals: locals}
}

// Config is the evaluator's global state threaded through every Step call:
// the module store, the currently installed frame, and the remaining call
// budget. A Config belongs to exactly one logical execution and must not
// be shared across concurrent invocations without external
// synchronization.
type Config struct {
	Store  *wasm.Store
	Frame  *Frame
	Budget int

	// Ctx carries an optional FunctionListenerFactory (see listener.go),
	// the ambient observability hook wired around Invoke handling.
	Ctx context.Context
}

// NewConfig starts a fresh evaluation with the standard call budget.
func NewConfig(store *wasm.Store, frame *Frame) *Config {
	return &Config{Store: store, Frame: frame, Budget: wasm.StartingBudget, Ctx: context.Background()}
}

// EnterFrame decrements the budget, returning an ExhaustionError once it
// reaches zero. This bounds call depth by a fixed budget instead of the
// host's OS stack, so call-stack exhaustion is a catchable trap rather
// than a process crash.
func (c *Config) EnterFrame() error {
	if c.Budget <= 0 {
		return &wasm.ExhaustionError{Region: wasm.DefaultRegion, Msg: wasm.MsgCallStackExhausted}
	}
	c.Budget--
	return nil
}
