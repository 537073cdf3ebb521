package wasm

import (
	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/values"
)

// ModuleFunc is one of AstFunc, HostFunc, or HostFuncEff. It is addressed
// by reference from ModuleInst.Funcs, TableInst elements, and ExternFunc.
type ModuleFunc interface {
	Type() FuncType
	isModuleFunc()
}

// AstFunc is a function defined in a module body, executed by the stepper.
// It carries its owning module's ModuleRef (not a direct pointer) so that
// Call/CallIndirect resolve locals/globals against the callee's module,
// never the caller's.
type AstFunc struct {
	FuncType FuncType
	Owner    ModuleRef
	Locals   []api.ValueType // declared locals beyond parameters
	Body     []instr.Instr
}

func (f *AstFunc) Type() FuncType { return f.FuncType }
func (*AstFunc) isModuleFunc()    {}

// HostFunc is a host function that cannot fail: [Value] -> [Value].
type HostFunc struct {
	FuncType FuncType
	Fn       func(args []values.Value) []values.Value
}

func (f *HostFunc) Type() FuncType { return f.FuncType }
func (*HostFunc) isModuleFunc()    {}

// HostFuncEff is a host function that may fail. A non-nil error becomes a
// TrapError at the call site: Go's (result, error) idiom standing in for
// an Either<String, [Value]> rather than exception machinery.
type HostFuncEff struct {
	FuncType FuncType
	Fn       func(args []values.Value) ([]values.Value, error)
}

func (f *HostFuncEff) Type() FuncType { return f.FuncType }
func (*HostFuncEff) isModuleFunc()    {}
