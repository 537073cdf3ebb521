package ambit

import (
	"github.com/ambit-run/ambit/internal/interpreter"
	"github.com/ambit-run/ambit/internal/wasm"
)

// RuntimeConfig is immutable, functional configuration: every With* method
// returns a new, independent config rather than mutating the receiver,
// mirroring wazero's config.go clone-on-write builder.
type RuntimeConfig struct {
	callBudget      int
	listenerFactory interpreter.FunctionListenerFactory
}

// NewRuntimeConfig returns the default configuration: the standard 300-call
// budget and no installed listener.
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{callBudget: wasm.StartingBudget}
}

func (c *RuntimeConfig) clone() *RuntimeConfig {
	cp := *c
	return &cp
}

// WithCallBudget overrides the default call budget (300).
// Page size is not configurable: it is fixed at the Wasm core spec's 65536
// bytes (https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#page-size).
func (c *RuntimeConfig) WithCallBudget(budget int) *RuntimeConfig {
	ret := c.clone()
	ret.callBudget = budget
	return ret
}

// WithFunctionListenerFactory installs observability instrumentation around
// every Invoke admin-instruction (internal/interpreter's listener.go).
func (c *RuntimeConfig) WithFunctionListenerFactory(f interpreter.FunctionListenerFactory) *RuntimeConfig {
	ret := c.clone()
	ret.listenerFactory = f
	return ret
}
