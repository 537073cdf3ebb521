// Package instr defines the syntactic Wasm instruction AST that an external
// decoder is assumed to have already produced (binary/text decoding is out
// of scope for this engine). Administrative instructions — the stepper's
// own working alphabet of Label/Framed/Trapping/etc — live in
// internal/interpreter, which wraps these Plain instructions rather than
// extending them.
package instr

import (
	"fmt"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/values"
)

// Region is a source byte span in the originating module. The zero value
// means "no originating region".
type Region struct {
	Start, End uint32
}

// IsDefault reports whether r carries no position information.
func (r Region) IsDefault() bool { return r == Region{} }

func (r Region) String() string {
	if r.IsDefault() {
		return "<unknown>"
	}
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

// Kind discriminates the Instr union.
type Kind uint8

const (
	Unreachable Kind = iota
	Nop
	Drop
	Select
	Block
	Loop
	If
	Br
	BrIf
	BrTable
	Return
	Call
	CallIndirect
	GetLocal
	SetLocal
	TeeLocal
	GetGlobal
	SetGlobal
	Load
	Store
	MemorySize
	MemoryGrow
	Const
	Test
	Compare
	Unary
	Binary
	Convert
)

// MemArg is the static operand of a Load/Store instruction.
type MemArg struct {
	Offset uint32
	// StorageBits is the width actually moved to/from memory: 8, 16, 32 or
	// 64. It may be narrower than ValueType's natural width (i32.load8_s
	// etc).
	StorageBits uint8
	// SignExtend applies to Load only: whether a narrow load sign-extends
	// (true) or zero-extends (false) into the full value width.
	SignExtend bool
}

// BlockType is a block/loop/if's declared result arity: either no result
// or exactly one (this engine does not implement the multi-value proposal).
type BlockType struct {
	HasResult bool
	Result    api.ValueType
}

// Arity returns 0 or 1.
func (t BlockType) Arity() int {
	if t.HasResult {
		return 1
	}
	return 0
}

// Instr is one syntactic Wasm instruction. Only the fields relevant to
// Kind are populated; this mirrors a tagged union using a single struct
// with a discriminant, the conventional way to express a closed sum type
// in Go.
type Instr struct {
	Kind   Kind
	Region Region

	// Block / Loop / If
	BlockType BlockType
	Then      []Instr // Block/Loop body, or If's true branch
	Else      []Instr // If's false branch only

	// Br / BrIf
	Depth uint32

	// BrTable
	Targets []uint32
	Default uint32

	// Call
	FuncIdx uint32

	// CallIndirect
	TypeIdx  uint32
	TableIdx uint32

	// GetLocal / SetLocal / TeeLocal / GetGlobal / SetGlobal
	Idx uint32

	// Load / Store
	MemArg    MemArg
	ValueType api.ValueType

	// MemoryGrow / MemorySize use table/memory index 0 implicitly; no
	// per-instruction fields needed for the single-memory model this
	// engine implements.

	// Const
	ConstValue values.Value

	// Test / Compare / Unary / Binary / Convert
	Op OpCode
}

// OpCode names a numeric operator within one of the Test/Compare/Unary/
// Binary/Convert families. The family is given by Instr.Kind; OpCode only
// needs to be unique within a family.
type OpCode uint16

// Test family (single operand, i32 result).
const (
	Eqz OpCode = iota
)

// Compare family (two same-type operands, i32 result).
const (
	Eq OpCode = iota
	Ne
	LtS
	LtU
	GtS
	GtU
	LeS
	LeU
	GeS
	GeU
	Lt // float
	Gt // float
	Le // float
	Ge // float
)

// Unary family (same-type operand and result).
const (
	Clz OpCode = iota
	Ctz
	Popcnt
	Abs
	Neg
	Ceil
	Floor
	Trunc
	Nearest
	Sqrt
)

// Binary family (two same-type operands, same-type result).
const (
	Add OpCode = iota
	Sub
	Mul
	DivS
	DivU
	RemS
	RemU
	And
	Or
	Xor
	Shl
	ShrS
	ShrU
	Rotl
	Rotr
	Div // float
	Min
	Max
	Copysign
)

// Convert family (type-directed conversion; the specific source/target
// types are carried by the surrounding Instr.ValueType and this code).
const (
	Wrap       OpCode = iota // i64 -> i32
	ExtendSI32               // i32 -> i64 signed
	ExtendUI32                // i32 -> i64 unsigned
	TruncSF32                 // f32 -> int signed
	TruncUF32                 // f32 -> int unsigned
	TruncSF64                 // f64 -> int signed
	TruncUF64                 // f64 -> int unsigned
	ConvertSI32                // i32 -> float signed
	ConvertUI32                // i32 -> float unsigned
	ConvertSI64                // i64 -> float signed
	ConvertUI64                // i64 -> float unsigned
	Demote                     // f64 -> f32
	Promote                    // f32 -> f64
	ReinterpretI                // int bits -> float bits
	ReinterpretF                // float bits -> int bits
)
