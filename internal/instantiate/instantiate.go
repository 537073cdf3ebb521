// Package instantiate implements the Wasm core instantiation algorithm
// (https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#instantiation%E2%91%A0):
// resolving imports against a host-registry of module names, allocating
// runtime entities, committing element/data segments, publishing exports,
// and running the start function.
package instantiate

import (
	"context"

	"github.com/ambit-run/ambit/internal/interpreter"
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

// Resolver names modules for import resolution — a host-registry of
// already-instantiated module names that initialization takes as a
// parameter. ambit.Names implements this.
type Resolver interface {
	Resolve(name string) (wasm.ModuleRef, bool)
}

// Instantiate runs instantiation to completion with the default call
// budget.
func Instantiate(store *wasm.Store, names Resolver, m *wasm.Module) (wasm.ModuleRef, *wasm.ModuleInst, error) {
	return InstantiateWithBudget(store, names, m, wasm.StartingBudget)
}

// InstantiateWithBudget is Instantiate with an explicit call budget for the
// start function invocation, letting ambit.RuntimeConfig override the
// default.
func InstantiateWithBudget(store *wasm.Store, names Resolver, m *wasm.Module, budget int) (wasm.ModuleRef, *wasm.ModuleInst, error) {
	inst := wasm.NewModuleInst(m)

	if err := resolveImports(store, names, m, inst); err != nil {
		return 0, nil, err
	}

	ref := store.NextKey()

	tables, err := allocTables(m)
	if err != nil {
		return 0, nil, err
	}
	inst.Tables = append(inst.Tables, tables...)

	mems, err := allocMemories(m)
	if err != nil {
		return 0, nil, err
	}
	inst.Memories = append(inst.Memories, mems...)

	for _, f := range m.Funcs {
		inst.Funcs = append(inst.Funcs, &wasm.AstFunc{
			FuncType: inst.Types[f.TypeIdx],
			Owner:    ref,
			Locals:   f.Locals,
			Body:     f.Body,
		})
	}

	globals, err := allocGlobals(inst, m)
	if err != nil {
		return 0, nil, err
	}
	inst.Globals = append(inst.Globals, globals...)

	if err := initElements(inst, m); err != nil {
		return 0, nil, err
	}
	if err := initData(inst, m); err != nil {
		return 0, nil, err
	}

	publishExports(inst, m)

	// Publish under ref only once linking has succeeded, and before start,
	// since the start function resolves its module through the store.
	store.Set(ref, inst)

	if m.Start != nil {
		if _, err := invoke(context.Background(), store, ref, inst.Funcs[*m.Start], nil, budget); err != nil {
			return 0, nil, err
		}
	}

	return ref, inst, nil
}

func resolveImports(store *wasm.Store, names Resolver, m *wasm.Module, inst *wasm.ModuleInst) error {
	for _, imp := range m.Imports {
		ref, ok := names.Resolve(imp.Module)
		if !ok {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgMissingModuleForImport(imp.Module)}
		}
		src, ok := store.Get(ref)
		if !ok {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgMissingModuleForImport(imp.Module)}
		}
		ext, ok := src.Export(imp.Name)
		if !ok {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgMissingExternForImport(imp.Module, imp.Name)}
		}
		expected := imp.Desc
		if !matchExternType(m, ext, expected) {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgIncompatibleImportType}
		}
		switch v := ext.(type) {
		case wasm.ExternFunc:
			inst.Funcs = append(inst.Funcs, v.Func)
		case wasm.ExternTable:
			inst.Tables = append(inst.Tables, v.Table)
		case wasm.ExternMemory:
			inst.Memories = append(inst.Memories, v.Memory)
		case wasm.ExternGlobal:
			inst.Globals = append(inst.Globals, v.Global)
		}
	}
	return nil
}

// matchExternType is the import subtype check. Funcs and
// globals require exact signature equality; tables and memories allow the
// actual bound to be narrower than declared (a tighter max, or a higher
// min, still satisfies an importer that asked for no more than that).
func matchExternType(m *wasm.Module, actual wasm.ExternVal, expected wasm.ImportDesc) bool {
	switch v := actual.(type) {
	case wasm.ExternFunc:
		if expected.Kind != wasm.ImportKindFunc {
			return false
		}
		if int(expected.TypeIdx) >= len(m.Types) {
			return false
		}
		return v.Func.Type().Equal(m.Types[expected.TypeIdx])
	case wasm.ExternTable:
		if expected.Kind != wasm.ImportKindTable {
			return false
		}
		return matchLimits(v.Table.Size(), tableMaxOf(v), expected.Table.Min, expected.Table.Max)
	case wasm.ExternMemory:
		if expected.Kind != wasm.ImportKindMemory {
			return false
		}
		return matchLimits(v.Memory.Size(), memoryMaxOf(v), expected.Memory.Min, expected.Memory.Max)
	case wasm.ExternGlobal:
		if expected.Kind != wasm.ImportKindGlobal {
			return false
		}
		return v.Global.Type.Mutable == expected.Global.Mutable && v.Global.Type.ValueType == expected.Global.ValueType
	}
	return false
}

// matchLimits checks that an actual (min, max) is at least as restrictive
// as what the importer expected: actual's floor may be higher and its
// ceiling may be lower, never the reverse.
func matchLimits(actualMin uint32, actualMax *uint32, expectedMin uint32, expectedMax *uint32) bool {
	if actualMin < expectedMin {
		return false
	}
	if expectedMax == nil {
		return true
	}
	return actualMax != nil && *actualMax <= *expectedMax
}

// tableMaxOf and memoryMaxOf recover the declared max from an already
// allocated extern through the Max() accessor each type provides for this
// purpose.
func tableMaxOf(v wasm.ExternTable) *uint32   { return v.Table.Max() }
func memoryMaxOf(v wasm.ExternMemory) *uint32 { return v.Memory.Max() }

func allocTables(m *wasm.Module) ([]*wasm.TableInst, error) {
	out := make([]*wasm.TableInst, 0, len(m.Tables))
	for _, t := range m.Tables {
		ti, err := wasm.AllocTable(t)
		if err != nil {
			return nil, &wasm.LinkError{Region: wasm.DefaultRegion, Msg: err.Error()}
		}
		out = append(out, ti)
	}
	return out, nil
}

func allocMemories(m *wasm.Module) ([]*wasm.MemoryInst, error) {
	out := make([]*wasm.MemoryInst, 0, len(m.Memories))
	for _, t := range m.Memories {
		mi, err := wasm.AllocMemory(t)
		if err != nil {
			return nil, &wasm.LinkError{Region: wasm.DefaultRegion, Msg: err.Error()}
		}
		out = append(out, mi)
	}
	return out, nil
}

func allocGlobals(inst *wasm.ModuleInst, m *wasm.Module) ([]*wasm.GlobalInst, error) {
	out := make([]*wasm.GlobalInst, 0, len(m.Globals))
	for _, g := range m.Globals {
		v, err := interpreter.EvalConst(inst, g.Init)
		if err != nil {
			return nil, err
		}
		gi, err := wasm.AllocGlobal(g.Type, v)
		if err != nil {
			return nil, &wasm.LinkError{Region: wasm.DefaultRegion, Msg: err.Error()}
		}
		out = append(out, gi)
	}
	return out, nil
}

func initElements(inst *wasm.ModuleInst, m *wasm.Module) error {
	for _, seg := range m.Elements {
		if int(seg.TableIdx) >= len(inst.Tables) {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgElementsDoNotFitTable}
		}
		table := inst.Tables[seg.TableIdx]
		offVal, err := interpreter.EvalConst(inst, seg.Offset)
		if err != nil {
			return err
		}
		off, ok := offVal.(values.I32)
		if !ok {
			return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "element offset must be i32"}
		}
		end := uint64(uint32(off)) + uint64(len(seg.FuncIdxs))
		if end > uint64(table.Size()) {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgElementsDoNotFitTable}
		}
		funcs := make([]wasm.ModuleFunc, len(seg.FuncIdxs))
		for i, fi := range seg.FuncIdxs {
			if int(fi) >= len(inst.Funcs) {
				return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgElementsDoNotFitTable}
			}
			funcs[i] = inst.Funcs[fi]
		}
		if err := table.Blit(uint32(off), funcs); err != nil {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgElementsDoNotFitTable}
		}
	}
	return nil
}

func initData(inst *wasm.ModuleInst, m *wasm.Module) error {
	for _, seg := range m.Data {
		if int(seg.MemIdx) >= len(inst.Memories) {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgDataDoesNotFitMemory}
		}
		mem := inst.Memories[seg.MemIdx]
		offVal, err := interpreter.EvalConst(inst, seg.Offset)
		if err != nil {
			return err
		}
		off, ok := offVal.(values.I32)
		if !ok {
			return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "data offset must be i32"}
		}
		// i64_extend_u_i32: zero-extend the i32 offset into the 64-bit
		// effective address space storeBytes works in.
		base := uint64(uint32(off))
		if err := mem.StoreBytes(base, seg.Bytes); err != nil {
			return &wasm.LinkError{Region: wasm.DefaultRegion, Msg: wasm.MsgDataDoesNotFitMemory}
		}
	}
	return nil
}

func publishExports(inst *wasm.ModuleInst, m *wasm.Module) {
	for _, exp := range m.Exports {
		var ext wasm.ExternVal
		switch exp.Kind {
		case wasm.ExportKindFunc:
			ext = wasm.ExternFunc{Func: inst.Funcs[exp.Idx]}
		case wasm.ExportKindTable:
			ext = wasm.ExternTable{Table: inst.Tables[exp.Idx]}
		case wasm.ExportKindMemory:
			ext = wasm.ExternMemory{Memory: inst.Memories[exp.Idx]}
		case wasm.ExportKindGlobal:
			ext = wasm.ExternGlobal{Global: inst.Globals[exp.Idx]}
		}
		inst.Exports[exp.Name] = ext
	}
}

// invoke runs fn to completion with args, sharing the Invoke protocol used
// by the stepper for any other call — the start function is not special
// beyond having no arguments and needing its results discarded.
func invoke(ctx context.Context, store *wasm.Store, ref wasm.ModuleRef, fn wasm.ModuleFunc, args []values.Value, budget int) ([]values.Value, error) {
	frame := interpreter.NewFrame(ref, nil, nil)
	cfg := interpreter.NewConfig(store, frame)
	cfg.Budget = budget
	if ctx != nil {
		cfg.Ctx = ctx
	}
	code := interpreter.NewCode([]interpreter.AdminInstr{interpreter.Invoke{Func: fn}})
	code.PushValues(args...)
	return interpreter.Run(cfg, code)
}

// Invoke runs an already-resolved ModuleFunc to completion — exported so
// ambit.InvokeByName can share this package's call plumbing instead of
// duplicating it.
func Invoke(ctx context.Context, store *wasm.Store, ref wasm.ModuleRef, fn wasm.ModuleFunc, args []values.Value, budget int) ([]values.Value, error) {
	return invoke(ctx, store, ref, fn, args, budget)
}
