package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

// newTestModule registers a ModuleInst with the given funcs in a fresh
// store and returns the store and the module's ref.
func newTestModule(funcs ...wasm.ModuleFunc) (*wasm.Store, wasm.ModuleRef) {
	store := wasm.NewStore()
	ref := store.NextKey()
	inst := &wasm.ModuleInst{Module: &wasm.Module{}, Funcs: funcs, Exports: map[string]wasm.ExternVal{}}
	store.Set(ref, inst)
	return store, ref
}

func addFunc(owner wasm.ModuleRef) *wasm.AstFunc {
	ft := wasm.FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	body := []instr.Instr{
		{Kind: instr.GetLocal, Idx: 0},
		{Kind: instr.GetLocal, Idx: 1},
		{Kind: instr.Binary, Op: instr.Add},
	}
	return &wasm.AstFunc{FuncType: ft, Owner: owner, Body: body}
}

func TestRunArithmeticAdd(t *testing.T) {
	store := wasm.NewStore()
	ref := store.NextKey()
	fn := addFunc(ref)
	store.Set(ref, &wasm.ModuleInst{Module: &wasm.Module{}, Funcs: []wasm.ModuleFunc{fn}, Exports: map[string]wasm.ExternVal{}})

	frame := NewFrame(ref, nil, nil)
	cfg := NewConfig(store, frame)
	code := NewCode([]AdminInstr{Invoke{Func: fn}})
	code.PushValues(values.I32(2), values.I32(3))

	results, err := Run(cfg, code)
	require.NoError(t, err)
	require.Equal(t, []values.Value{values.I32(5)}, results)
}

func TestRunUnreachableTrap(t *testing.T) {
	ft := wasm.FuncType{}
	fn := &wasm.AstFunc{FuncType: ft, Body: []instr.Instr{{Kind: instr.Unreachable}}}
	store, ref := newTestModule(fn)
	fn.Owner = ref

	frame := NewFrame(ref, nil, nil)
	cfg := NewConfig(store, frame)
	code := NewCode([]AdminInstr{Invoke{Func: fn}})

	_, err := Run(cfg, code)
	require.Error(t, err)
	trapErr, ok := err.(*wasm.TrapError)
	require.True(t, ok)
	require.Equal(t, wasm.MsgUnreachableExecuted, trapErr.Msg)
}

func TestRunLoopWithBrIfSum(t *testing.T) {
	ft := wasm.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	// locals: 0=n (param), 1=i, 2=sum
	body := []instr.Instr{
		{Kind: instr.Const, ConstValue: values.I32(0)},
		{Kind: instr.SetLocal, Idx: 2},
		{Kind: instr.Const, ConstValue: values.I32(1)},
		{Kind: instr.SetLocal, Idx: 1},
		{Kind: instr.Loop, BlockType: instr.BlockType{}, Then: []instr.Instr{
			{Kind: instr.GetLocal, Idx: 2},
			{Kind: instr.GetLocal, Idx: 1},
			{Kind: instr.Binary, Op: instr.Add},
			{Kind: instr.SetLocal, Idx: 2},
			{Kind: instr.GetLocal, Idx: 1},
			{Kind: instr.Const, ConstValue: values.I32(1)},
			{Kind: instr.Binary, Op: instr.Add},
			{Kind: instr.SetLocal, Idx: 1},
			{Kind: instr.GetLocal, Idx: 1},
			{Kind: instr.GetLocal, Idx: 0},
			{Kind: instr.Compare, Op: instr.LeS},
			{Kind: instr.BrIf, Depth: 0},
		}},
		{Kind: instr.GetLocal, Idx: 2},
	}
	fn := &wasm.AstFunc{FuncType: ft, Locals: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Body: body}
	store, ref := newTestModule(fn)
	fn.Owner = ref

	frame := NewFrame(ref, nil, nil)
	cfg := NewConfig(store, frame)
	code := NewCode([]AdminInstr{Invoke{Func: fn}})
	code.PushValues(values.I32(10))

	results, err := Run(cfg, code)
	require.NoError(t, err)
	require.Equal(t, []values.Value{values.I32(55)}, results)
}

func TestBudgetExhaustionOnUnboundedRecursion(t *testing.T) {
	ft := wasm.FuncType{}
	store, ref := newTestModule()
	fn := &wasm.AstFunc{FuncType: ft, Owner: ref, Body: []instr.Instr{{Kind: instr.Call, FuncIdx: 0}}}
	mi, _ := store.Get(ref)
	mi.Funcs = []wasm.ModuleFunc{fn}

	frame := NewFrame(ref, nil, nil)
	cfg := NewConfig(store, frame)
	code := NewCode([]AdminInstr{Invoke{Func: fn}})

	_, err := Run(cfg, code)
	require.Error(t, err)
	exh, ok := err.(*wasm.ExhaustionError)
	require.True(t, ok, "expected ExhaustionError, got %T: %v", err, err)
	require.Equal(t, wasm.MsgCallStackExhausted, exh.Msg)
}
