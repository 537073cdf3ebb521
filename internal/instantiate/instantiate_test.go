package instantiate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

type fakeNames map[string]wasm.ModuleRef

func (f fakeNames) Resolve(name string) (wasm.ModuleRef, bool) {
	ref, ok := f[name]
	return ref, ok
}

func TestInstantiateImportsFunctionAndGlobal(t *testing.T) {
	store := wasm.NewStore()
	names := fakeNames{}

	moduleA := &wasm.Module{
		Types: []wasm.FuncType{{Results: []api.ValueType{api.ValueTypeI32}}},
		Funcs: []wasm.FuncDecl{{TypeIdx: 0, Body: []instr.Instr{
			{Kind: instr.Const, ConstValue: values.I32(99)},
		}}},
		Globals: []wasm.GlobalDecl{{
			Type: wasm.GlobalType{ValueType: api.ValueTypeI32, Mutable: false},
			Init: []instr.Instr{{Kind: instr.Const, ConstValue: values.I32(7)}},
		}},
		Exports: []wasm.Export{
			{Name: "f", Kind: wasm.ExportKindFunc, Idx: 0},
			{Name: "g", Kind: wasm.ExportKindGlobal, Idx: 0},
		},
	}
	refA, _, err := Instantiate(store, names, moduleA)
	require.NoError(t, err)
	names["A"] = refA

	moduleB := &wasm.Module{
		Types: []wasm.FuncType{{Results: []api.ValueType{api.ValueTypeI32}}},
		Imports: []wasm.Import{
			{Module: "A", Name: "f", Desc: wasm.ImportDesc{Kind: wasm.ImportKindFunc, TypeIdx: 0}},
			{Module: "A", Name: "g", Desc: wasm.ImportDesc{Kind: wasm.ImportKindGlobal, Global: wasm.GlobalType{ValueType: api.ValueTypeI32, Mutable: false}}},
		},
		Exports: []wasm.Export{{Name: "f", Kind: wasm.ExportKindFunc, Idx: 0}},
	}
	refB, instB, err := Instantiate(store, names, moduleB)
	require.NoError(t, err)
	require.NotEqual(t, refA, refB)
	require.Len(t, instB.Funcs, 1)
	require.Len(t, instB.Globals, 1)
	require.Equal(t, values.I32(7), instB.Globals[0].Get())
}

func TestInstantiateTwiceYieldsIndependentMemories(t *testing.T) {
	store := wasm.NewStore()
	m := &wasm.Module{Memories: []wasm.MemoryType{{Min: 1}}}

	ref1, inst1, err := Instantiate(store, fakeNames{}, m)
	require.NoError(t, err)
	ref2, inst2, err := Instantiate(store, fakeNames{}, m)
	require.NoError(t, err)
	require.NotEqual(t, ref1, ref2)

	require.NoError(t, inst1.Memories[0].StoreValue(api.ValueTypeI32, 0, 0, values.I32(123)))
	v, err := inst2.Memories[0].LoadValue(api.ValueTypeI32, 0, 0)
	require.NoError(t, err)
	require.Equal(t, values.I32(0), v, "writes through inst1 must not affect inst2's memory")
}

func TestInstantiateElementSegmentOverflowLinkErrors(t *testing.T) {
	m := &wasm.Module{
		Types:  []wasm.FuncType{{}},
		Tables: []wasm.TableType{{Min: 1}},
		Funcs:  []wasm.FuncDecl{{TypeIdx: 0, Body: nil}},
		Elements: []wasm.ElementSegment{{
			TableIdx: 0,
			Offset:   []instr.Instr{{Kind: instr.Const, ConstValue: values.I32(0)}},
			FuncIdxs: []uint32{0, 0}, // table only has 1 slot
		}},
	}
	_, _, err := Instantiate(wasm.NewStore(), fakeNames{}, m)
	require.Error(t, err)
	linkErr, ok := err.(*wasm.LinkError)
	require.True(t, ok)
	require.Equal(t, wasm.MsgElementsDoNotFitTable, linkErr.Msg)
}

func TestInstantiateDataSegmentOverflowLinkErrors(t *testing.T) {
	m := &wasm.Module{
		Memories: []wasm.MemoryType{{Min: 1}},
		Data: []wasm.DataSegment{{
			MemIdx: 0,
			Offset: []instr.Instr{{Kind: instr.Const, ConstValue: values.I32(int32(wasm.PageSize - 2))}},
			Bytes:  []byte{1, 2, 3, 4},
		}},
	}
	_, _, err := Instantiate(wasm.NewStore(), fakeNames{}, m)
	require.Error(t, err)
	linkErr, ok := err.(*wasm.LinkError)
	require.True(t, ok)
	require.Equal(t, wasm.MsgDataDoesNotFitMemory, linkErr.Msg)
}

func TestMatchLimitsAllowsNarrowerActualBound(t *testing.T) {
	expectedMax := uint32(10)
	actualMax := uint32(5)
	require.True(t, matchLimits(2, &actualMax, 1, &expectedMax))
	require.False(t, matchLimits(0, &actualMax, 1, &expectedMax), "actual min below expected min must fail")

	unboundedActual := (*uint32)(nil)
	require.False(t, matchLimits(2, unboundedActual, 1, &expectedMax), "unbounded actual cannot satisfy a bounded expectation")
}
