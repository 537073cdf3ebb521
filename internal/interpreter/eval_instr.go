package interpreter

import (
	"fmt"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/numeric"
	"github.com/ambit-run/ambit/internal/values"
	"github.com/ambit-run/ambit/internal/wasm"
)

// evalPlain has one clause per Wasm opcode. Anything that doesn't match the
// (instr, stack) shape it expects is a CrashError — unreachable on a
// validated module.
func evalPlain(cfg *Config, code *Code, in instr.Instr) error {
	switch in.Kind {
	case instr.Unreachable:
		trap(code, in.Region, wasm.MsgUnreachableExecuted)
		return nil

	case instr.Nop:
		return nil

	case instr.Drop:
		if _, ok := code.PopValue(); !ok {
			return underflow()
		}
		return nil

	case instr.Select:
		cond, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		c, ok := cond.(values.I32)
		if !ok {
			return crash("select condition must be i32")
		}
		v2, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		v1, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		if c == 0 {
			code.PushValues(v2)
		} else {
			code.PushValues(v1)
		}
		return nil

	case instr.Block:
		code.PrependInstrs(&Label{
			Arity: in.BlockType.Arity(),
			Inner: &Code{Instrs: plainSeq(in.Then)},
		})
		return nil

	case instr.Loop:
		code.PrependInstrs(&Label{
			Arity: 0,
			Cont:  []AdminInstr{Plain{Instr: in}},
			Inner: &Code{Instrs: plainSeq(in.Then)},
		})
		return nil

	case instr.If:
		cond, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		c, ok := cond.(values.I32)
		if !ok {
			return crash("if condition must be i32")
		}
		body := in.Else
		if c != 0 {
			body = in.Then
		}
		code.PrependInstrs(Plain{Instr: instr.Instr{
			Kind: instr.Block, Region: in.Region, BlockType: in.BlockType, Then: body,
		}})
		return nil

	case instr.Br:
		vs := append([]values.Value(nil), code.Values...)
		code.Values = nil
		code.PrependInstrs(Breaking{Depth: in.Depth, Values: vs})
		return nil

	case instr.BrIf:
		cond, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		c, ok := cond.(values.I32)
		if !ok {
			return crash("br_if condition must be i32")
		}
		if c == 0 {
			return nil
		}
		return evalPlain(cfg, code, instr.Instr{Kind: instr.Br, Region: in.Region, Depth: in.Depth})

	case instr.BrTable:
		idxVal, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		i, ok := idxVal.(values.I32)
		if !ok {
			return crash("br_table index must be i32")
		}
		target := in.Default
		if i >= 0 && int(i) < len(in.Targets) {
			target = in.Targets[i]
		}
		return evalPlain(cfg, code, instr.Instr{Kind: instr.Br, Region: in.Region, Depth: target})

	case instr.Return:
		vs := append([]values.Value(nil), code.Values...)
		code.Values = nil
		code.PrependInstrs(Returning{Values: vs})
		return nil

	case instr.Call:
		mi, err := currentModule(cfg)
		if err != nil {
			return err
		}
		if int(in.FuncIdx) >= len(mi.Funcs) {
			return crash("undefined function index")
		}
		code.PrependInstrs(Invoke{Func: mi.Funcs[in.FuncIdx]})
		return nil

	case instr.CallIndirect:
		mi, err := currentModule(cfg)
		if err != nil {
			return err
		}
		idxVal, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		i, ok := idxVal.(values.I32)
		if !ok {
			return crash("call_indirect index must be i32")
		}
		if int(in.TableIdx) >= len(mi.Tables) {
			return crash("undefined table index")
		}
		table := mi.Tables[in.TableIdx]
		f, lookupErr := table.Load(uint32(i))
		if lookupErr != nil || f == nil {
			trap(code, in.Region, wasm.MsgUninitializedElement(uint32(i)))
			return nil
		}
		if int(in.TypeIdx) >= len(mi.Types) {
			return crash("undefined type index")
		}
		if !f.Type().Equal(mi.Types[in.TypeIdx]) {
			trap(code, in.Region, wasm.MsgIndirectCallTypeMismatch)
			return nil
		}
		code.PrependInstrs(Invoke{Func: f})
		return nil

	case instr.GetLocal:
		if int(in.Idx) >= len(cfg.Frame.Locals) {
			return crash("undefined local index")
		}
		code.PushValues(cfg.Frame.Locals[in.Idx].Get())
		return nil

	case instr.SetLocal:
		v, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		if int(in.Idx) >= len(cfg.Frame.Locals) {
			return crash("undefined local index")
		}
		cfg.Frame.Locals[in.Idx].Set(v)
		return nil

	case instr.TeeLocal:
		v, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		if int(in.Idx) >= len(cfg.Frame.Locals) {
			return crash("undefined local index")
		}
		cfg.Frame.Locals[in.Idx].Set(v)
		code.PushValues(v)
		return nil

	case instr.GetGlobal:
		mi, err := currentModule(cfg)
		if err != nil {
			return err
		}
		if int(in.Idx) >= len(mi.Globals) {
			return crash("undefined global index")
		}
		code.PushValues(mi.Globals[in.Idx].Get())
		return nil

	case instr.SetGlobal:
		mi, err := currentModule(cfg)
		if err != nil {
			return err
		}
		v, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		if int(in.Idx) >= len(mi.Globals) {
			return crash("undefined global index")
		}
		if gErr := mi.Globals[in.Idx].Set(v); gErr != nil {
			trap(code, in.Region, gErr.Error())
			return nil
		}
		return nil

	case instr.Load:
		return evalLoad(cfg, code, in)

	case instr.Store:
		return evalStore(cfg, code, in)

	case instr.MemorySize:
		mi, err := currentModule(cfg)
		if err != nil {
			return err
		}
		if len(mi.Memories) == 0 {
			return crash("undefined memory index")
		}
		code.PushValues(values.I32(int32(mi.Memories[0].Size())))
		return nil

	case instr.MemoryGrow:
		mi, err := currentModule(cfg)
		if err != nil {
			return err
		}
		if len(mi.Memories) == 0 {
			return crash("undefined memory index")
		}
		deltaVal, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		delta, ok := deltaVal.(values.I32)
		if !ok {
			return crash("memory.grow delta must be i32")
		}
		prior, grew := mi.Memories[0].Grow(uint32(delta))
		if grew {
			code.PushValues(values.I32(int32(prior)))
		} else {
			code.PushValues(values.I32(-1))
		}
		return nil

	case instr.Const:
		code.PushValues(in.ConstValue)
		return nil

	case instr.Test:
		v, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		r, err := numeric.TestOp(in.Op, v)
		return applyNumeric(code, in.Region, r, err)

	case instr.Compare:
		v2, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		v1, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		r, err := numeric.CompareOp(in.Op, v1, v2)
		return applyNumeric(code, in.Region, r, err)

	case instr.Unary:
		v, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		r, err := numeric.UnaryOp(in.Op, v)
		return applyNumeric(code, in.Region, r, err)

	case instr.Binary:
		v2, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		v1, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		r, err := numeric.BinaryOp(in.Op, v1, v2)
		return applyNumeric(code, in.Region, r, err)

	case instr.Convert:
		v, ok := code.PopValue()
		if !ok {
			return underflow()
		}
		r, err := numeric.ConvertOp(in.Op, in.ValueType, v)
		return applyNumeric(code, in.Region, r, err)
	}

	return crash(fmt.Sprintf("missing or ill-typed operand on stack for instruction kind %d", in.Kind))
}

func applyNumeric(code *Code, region instr.Region, v values.Value, err error) error {
	if err != nil {
		trap(code, region, err.Error())
		return nil
	}
	code.PushValues(v)
	return nil
}

func evalLoad(cfg *Config, code *Code, in instr.Instr) error {
	mi, err := currentModule(cfg)
	if err != nil {
		return err
	}
	if len(mi.Memories) == 0 {
		return crash("undefined memory index")
	}
	baseVal, ok := code.PopValue()
	if !ok {
		return underflow()
	}
	base, ok := baseVal.(values.I32)
	if !ok {
		return crash("memory base address must be i32")
	}
	mem := mi.Memories[0]
	var v values.Value
	var loadErr error
	if in.MemArg.StorageBits == naturalWidthBits(in.ValueType) {
		v, loadErr = mem.LoadValue(in.ValueType, uint32(base), in.MemArg.Offset)
	} else {
		v, loadErr = mem.LoadPacked(in.ValueType, in.MemArg.StorageBits, in.MemArg.SignExtend, uint32(base), in.MemArg.Offset)
	}
	if loadErr != nil {
		trap(code, in.Region, loadErr.Error())
		return nil
	}
	code.PushValues(v)
	return nil
}

func evalStore(cfg *Config, code *Code, in instr.Instr) error {
	mi, err := currentModule(cfg)
	if err != nil {
		return err
	}
	if len(mi.Memories) == 0 {
		return crash("undefined memory index")
	}
	v, ok := code.PopValue()
	if !ok {
		return underflow()
	}
	baseVal, ok := code.PopValue()
	if !ok {
		return underflow()
	}
	base, ok := baseVal.(values.I32)
	if !ok {
		return crash("memory base address must be i32")
	}
	mem := mi.Memories[0]
	var storeErr error
	if in.MemArg.StorageBits == naturalWidthBits(in.ValueType) {
		storeErr = mem.StoreValue(in.ValueType, uint32(base), in.MemArg.Offset, v)
	} else {
		storeErr = mem.StorePacked(in.MemArg.StorageBits, uint32(base), in.MemArg.Offset, v)
	}
	if storeErr != nil {
		trap(code, in.Region, storeErr.Error())
		return nil
	}
	return nil
}

func naturalWidthBits(t api.ValueType) uint8 {
	switch t {
	case api.ValueTypeI32, api.ValueTypeF32:
		return 32
	case api.ValueTypeI64, api.ValueTypeF64:
		return 64
	}
	return 0
}

func currentModule(cfg *Config) (*wasm.ModuleInst, error) {
	mi, ok := cfg.Store.Get(cfg.Frame.Module)
	if !ok {
		return nil, &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "undefined module"}
	}
	return mi, nil
}

func trap(code *Code, region instr.Region, msg string) {
	code.PrependInstrs(Trapping{Region: region, Msg: msg})
}

func underflow() error {
	return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: "stack underflow"}
}

func crash(msg string) error {
	return &wasm.CrashError{Region: wasm.DefaultRegion, Msg: msg}
}
