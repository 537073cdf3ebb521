package values

import (
	"fmt"
	"math"

	"github.com/ambit-run/ambit/api"
)

// Value is a tagged WebAssembly numeric value. Each concrete type below
// implements Value; callers switch on the concrete type (or ValueType())
// rather than unpacking a shared representation.
type Value interface {
	ValueType() api.ValueType
	String() string
	isValue()
}

// I32 is a 32-bit integer value. Wasm has no distinction between signed and
// unsigned i32 at the value level; operators interpret the bits as needed.
type I32 int32

func (I32) ValueType() api.ValueType { return api.ValueTypeI32 }
func (v I32) String() string         { return fmt.Sprintf("i32:%d", int32(v)) }
func (I32) isValue()                 {}

// I64 is a 64-bit integer value.
type I64 int64

func (I64) ValueType() api.ValueType { return api.ValueTypeI64 }
func (v I64) String() string         { return fmt.Sprintf("i64:%d", int64(v)) }
func (I64) isValue()                 {}

// F32 is a 32-bit floating point value.
type F32 float32

func (F32) ValueType() api.ValueType { return api.ValueTypeF32 }
func (v F32) String() string         { return fmt.Sprintf("f32:%v", float32(v)) }
func (F32) isValue()                 {}

// Bits returns the IEEE-754 bit pattern, used where Wasm's numeric
// semantics require comparison by bit pattern rather than float equality
// (e.g. NaN payloads).
func (v F32) Bits() uint32 { return math.Float32bits(float32(v)) }

// F64 is a 64-bit floating point value.
type F64 float64

func (F64) ValueType() api.ValueType { return api.ValueTypeF64 }
func (v F64) String() string         { return fmt.Sprintf("f64:%v", float64(v)) }
func (F64) isValue()                 {}

// Bits returns the IEEE-754 bit pattern.
func (v F64) Bits() uint64 { return math.Float64bits(float64(v)) }

// ZeroValue returns the default-initialized Value for a declared ValueType,
// used to seed locals that aren't supplied as call arguments.
func ZeroValue(t api.ValueType) Value {
	switch t {
	case api.ValueTypeI32:
		return I32(0)
	case api.ValueTypeI64:
		return I64(0)
	case api.ValueTypeF32:
		return F32(0)
	case api.ValueTypeF64:
		return F64(0)
	}
	panic(fmt.Sprintf("BUG: unknown value type %#x", t))
}

// Mutable is a single-slot interior-mutable cell. Its lifetime is bound to
// whatever owns it (a Frame for locals, a GlobalInst for global content) —
// it is never shared beyond that owner except through the owner's own
// aliasing (e.g. an imported global's cell is shared by reference with the
// importing module).
type Mutable[T any] struct {
	v T
}

// NewMutable allocates a cell holding v.
func NewMutable[T any](v T) *Mutable[T] {
	return &Mutable[T]{v: v}
}

func (c *Mutable[T]) Get() T  { return c.v }
func (c *Mutable[T]) Set(v T) { c.v = v }
