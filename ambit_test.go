package ambit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

func i32() api.ValueType { return api.ValueTypeI32 }

func values32(n int32) Value { return values.I32(n) }

// TestEndToEndArithmetic is scenario 1: add(2, 3) == 5.
func TestEndToEndArithmetic(t *testing.T) {
	m := &Module{
		Types: []FuncType{{Params: []api.ValueType{i32(), i32()}, Results: []api.ValueType{i32()}}},
		Funcs: []wasm.FuncDecl{{
			TypeIdx: 0,
			Body: []instr.Instr{
				{Kind: instr.GetLocal, Idx: 0},
				{Kind: instr.GetLocal, Idx: 1},
				{Kind: instr.Binary, Op: instr.Add},
			},
		}},
		Exports: []wasm.Export{{Name: "add", Kind: wasm.ExportKindFunc, Idx: 0}},
	}

	store := NewStore()
	names := NewNames()
	ref, inst, err := Instantiate(nil, store, names, m)
	require.NoError(t, err)

	results, err := InvokeByName(nil, store, ref, inst, "add", []Value{values32(2), values32(3)})
	require.NoError(t, err)
	require.Equal(t, []Value{values32(5)}, results)
}

// TestEndToEndUnreachableTrap is scenario 2.
func TestEndToEndUnreachableTrap(t *testing.T) {
	m := &Module{
		Types: []FuncType{{}},
		Funcs: []wasm.FuncDecl{{TypeIdx: 0, Body: []instr.Instr{{Kind: instr.Unreachable}}}},
		Exports: []wasm.Export{{Name: "t", Kind: wasm.ExportKindFunc, Idx: 0}},
	}
	store := NewStore()
	ref, inst, err := Instantiate(nil, store, NewNames(), m)
	require.NoError(t, err)

	_, err = InvokeByName(nil, store, ref, inst, "t", nil)
	require.Error(t, err)
	trapErr, ok := err.(*wasm.TrapError)
	require.True(t, ok)
	require.Equal(t, wasm.MsgUnreachableExecuted, trapErr.Msg)
}

// TestEndToEndLoopSum is scenario 3: sum 1..n via a loop with br_if.
func TestEndToEndLoopSum(t *testing.T) {
	body := []instr.Instr{
		{Kind: instr.Const, ConstValue: values32(0)},
		{Kind: instr.SetLocal, Idx: 2},
		{Kind: instr.Const, ConstValue: values32(1)},
		{Kind: instr.SetLocal, Idx: 1},
		{Kind: instr.Loop, Then: []instr.Instr{
			{Kind: instr.GetLocal, Idx: 2},
			{Kind: instr.GetLocal, Idx: 1},
			{Kind: instr.Binary, Op: instr.Add},
			{Kind: instr.SetLocal, Idx: 2},
			{Kind: instr.GetLocal, Idx: 1},
			{Kind: instr.Const, ConstValue: values32(1)},
			{Kind: instr.Binary, Op: instr.Add},
			{Kind: instr.SetLocal, Idx: 1},
			{Kind: instr.GetLocal, Idx: 1},
			{Kind: instr.GetLocal, Idx: 0},
			{Kind: instr.Compare, Op: instr.LeS},
			{Kind: instr.BrIf, Depth: 0},
		}},
		{Kind: instr.GetLocal, Idx: 2},
	}
	m := &Module{
		Types: []FuncType{{Params: []api.ValueType{i32()}, Results: []api.ValueType{i32()}}},
		Funcs: []wasm.FuncDecl{{TypeIdx: 0, Locals: []api.ValueType{i32(), i32()}, Body: body}},
		Exports: []wasm.Export{{Name: "sum", Kind: wasm.ExportKindFunc, Idx: 0}},
	}
	store := NewStore()
	ref, inst, err := Instantiate(nil, store, NewNames(), m)
	require.NoError(t, err)

	results, err := InvokeByName(nil, store, ref, inst, "sum", []Value{values32(10)})
	require.NoError(t, err)
	require.Equal(t, []Value{values32(55)}, results)
}

// TestEndToEndMemoryGrow is scenario 4.
func TestEndToEndMemoryGrow(t *testing.T) {
	m := &Module{
		Types:     []FuncType{{Results: []api.ValueType{i32()}}, {Params: []api.ValueType{i32()}, Results: []api.ValueType{i32()}}},
		Memories:  []wasm.MemoryType{{Min: 1}},
		Funcs: []wasm.FuncDecl{
			{TypeIdx: 0, Body: []instr.Instr{{Kind: instr.MemorySize}}},
			{TypeIdx: 1, Body: []instr.Instr{{Kind: instr.GetLocal, Idx: 0}, {Kind: instr.MemoryGrow}}},
		},
		Exports: []wasm.Export{
			{Name: "size", Kind: wasm.ExportKindFunc, Idx: 0},
			{Name: "grow", Kind: wasm.ExportKindFunc, Idx: 1},
		},
	}
	store := NewStore()
	ref, inst, err := Instantiate(nil, store, NewNames(), m)
	require.NoError(t, err)

	results, err := InvokeByName(nil, store, ref, inst, "size", nil)
	require.NoError(t, err)
	require.Equal(t, []Value{values32(1)}, results)

	results, err = InvokeByName(nil, store, ref, inst, "grow", []Value{values32(2)})
	require.NoError(t, err)
	require.Equal(t, []Value{values32(1)}, results, "grow returns the prior page count")

	results, err = InvokeByName(nil, store, ref, inst, "size", nil)
	require.NoError(t, err)
	require.Equal(t, []Value{values32(3)}, results)
}

// TestEndToEndCallIndirectTypeMismatch is scenario 5.
func TestEndToEndCallIndirectTypeMismatch(t *testing.T) {
	m := &Module{
		Types: []FuncType{
			{Results: []api.ValueType{i32()}},                    // type 0: the table function's real type
			{Results: []api.ValueType{api.ValueTypeI64}},          // type 1: what the call site expects
		},
		Tables: []wasm.TableType{{Min: 1}},
		Funcs: []wasm.FuncDecl{
			{TypeIdx: 0, Body: []instr.Instr{{Kind: instr.Const, ConstValue: values32(1)}}},
			{TypeIdx: 1, Body: []instr.Instr{
				{Kind: instr.Const, ConstValue: values32(0)},
				{Kind: instr.CallIndirect, TypeIdx: 1, TableIdx: 0},
			}},
		},
		Elements: []wasm.ElementSegment{{
			TableIdx: 0,
			Offset:   []instr.Instr{{Kind: instr.Const, ConstValue: values32(0)}},
			FuncIdxs: []uint32{0},
		}},
		Exports: []wasm.Export{{Name: "callit", Kind: wasm.ExportKindFunc, Idx: 1}},
	}
	store := NewStore()
	ref, inst, err := Instantiate(nil, store, NewNames(), m)
	require.NoError(t, err)

	_, err = InvokeByName(nil, store, ref, inst, "callit", nil)
	require.Error(t, err)
	trapErr, ok := err.(*wasm.TrapError)
	require.True(t, ok)
	require.Equal(t, wasm.MsgIndirectCallTypeMismatch, trapErr.Msg)
}

// TestEndToEndImportResolutionFailure is scenario 6.
func TestEndToEndImportResolutionFailure(t *testing.T) {
	moduleA := &Module{}
	store := NewStore()
	names := NewNames()
	refA, _, err := Instantiate(nil, store, names, moduleA)
	require.NoError(t, err)
	names.Register("A", refA)

	moduleB := &Module{
		Types: []FuncType{{}},
		Imports: []wasm.Import{{
			Module: "A", Name: "missing",
			Desc: wasm.ImportDesc{Kind: wasm.ImportKindFunc, TypeIdx: 0},
		}},
	}

	_, _, err = Instantiate(nil, store, names, moduleB)
	require.Error(t, err)
	linkErr, ok := err.(*wasm.LinkError)
	require.True(t, ok)
	require.Contains(t, linkErr.Msg, "Missing extern for import")
}
