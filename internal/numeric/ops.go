// Package numeric implements the pure numeric operator dispatch: one
// function per opcode family (test/compare/unary/binary/convert), each a
// pure (operands) -> (Value, error) mapping. None of these functions touch
// the store, the stack, or any mutable cell — the stepper
// (internal/interpreter) is the only caller, and it is the only place a
// NumericError becomes a trap.
package numeric

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/values"
)

func typeErr(want api.ValueType, got values.Value) error {
	return &NumericError{Msg: fmt.Sprintf("type mismatch: expected %s, got %s", api.ValueTypeName(want), got.String())}
}

// NumericError is returned by every function in this file on a malformed
// operand or an arithmetic condition the Wasm spec defines as trapping
// (division by zero, integer overflow, invalid float-to-int conversion).
// A validated module never triggers the type-mismatch case; the stepper
// converts any NumericError into a wasm.TrapError.
type NumericError struct {
	Msg string
}

func (e *NumericError) Error() string { return e.Msg }

// TestOp evaluates a single-operand i32/i64 test, producing an i32 of 0/1.
func TestOp(op instr.OpCode, v values.Value) (values.Value, error) {
	switch op {
	case instr.Eqz:
		switch x := v.(type) {
		case values.I32:
			return boolI32(x == 0), nil
		case values.I64:
			return boolI32(x == 0), nil
		default:
			return nil, typeErr(api.ValueTypeI32, v)
		}
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unknown test opcode %d", op)}
}

// CompareOp evaluates a two-operand same-type comparison, producing an i32
// of 0/1. The Wasm core spec's comparison instructions compare v1 (pushed
// first / deeper) against v2 (pushed second / on top) in that order.
func CompareOp(op instr.OpCode, v1, v2 values.Value) (values.Value, error) {
	switch a := v1.(type) {
	case values.I32:
		b, ok := v2.(values.I32)
		if !ok {
			return nil, typeErr(api.ValueTypeI32, v2)
		}
		return compareInt(op, int64(int32(a)), int64(int32(b)), uint64(uint32(a)), uint64(uint32(b)))
	case values.I64:
		b, ok := v2.(values.I64)
		if !ok {
			return nil, typeErr(api.ValueTypeI64, v2)
		}
		return compareInt(op, int64(a), int64(b), uint64(a), uint64(b))
	case values.F32:
		b, ok := v2.(values.F32)
		if !ok {
			return nil, typeErr(api.ValueTypeF32, v2)
		}
		return compareFloat(op, float64(a), float64(b))
	case values.F64:
		b, ok := v2.(values.F64)
		if !ok {
			return nil, typeErr(api.ValueTypeF64, v2)
		}
		return compareFloat(op, float64(a), float64(b))
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unsupported compare operand %s", v1.String())}
}

func compareInt(op instr.OpCode, signedA, signedB int64, unsignedA, unsignedB uint64) (values.Value, error) {
	switch op {
	case instr.Eq:
		return boolI32(signedA == signedB), nil
	case instr.Ne:
		return boolI32(signedA != signedB), nil
	case instr.LtS:
		return boolI32(signedA < signedB), nil
	case instr.LtU:
		return boolI32(unsignedA < unsignedB), nil
	case instr.GtS:
		return boolI32(signedA > signedB), nil
	case instr.GtU:
		return boolI32(unsignedA > unsignedB), nil
	case instr.LeS:
		return boolI32(signedA <= signedB), nil
	case instr.LeU:
		return boolI32(unsignedA <= unsignedB), nil
	case instr.GeS:
		return boolI32(signedA >= signedB), nil
	case instr.GeU:
		return boolI32(unsignedA >= unsignedB), nil
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unknown integer compare opcode %d", op)}
}

func compareFloat(op instr.OpCode, a, b float64) (values.Value, error) {
	switch op {
	case instr.Eq:
		return boolI32(a == b), nil
	case instr.Ne:
		return boolI32(a != b), nil
	case instr.Lt:
		return boolI32(a < b), nil
	case instr.Gt:
		return boolI32(a > b), nil
	case instr.Le:
		return boolI32(a <= b), nil
	case instr.Ge:
		return boolI32(a >= b), nil
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unknown float compare opcode %d", op)}
}

func boolI32(b bool) values.I32 {
	if b {
		return 1
	}
	return 0
}

// UnaryOp evaluates a same-type unary operator.
func UnaryOp(op instr.OpCode, v values.Value) (values.Value, error) {
	switch x := v.(type) {
	case values.I32:
		switch op {
		case instr.Clz:
			return values.I32(bits.LeadingZeros32(uint32(x))), nil
		case instr.Ctz:
			return values.I32(bits.TrailingZeros32(uint32(x))), nil
		case instr.Popcnt:
			return values.I32(bits.OnesCount32(uint32(x))), nil
		}
	case values.I64:
		switch op {
		case instr.Clz:
			return values.I64(bits.LeadingZeros64(uint64(x))), nil
		case instr.Ctz:
			return values.I64(bits.TrailingZeros64(uint64(x))), nil
		case instr.Popcnt:
			return values.I64(bits.OnesCount64(uint64(x))), nil
		}
	case values.F32:
		f := float64(x)
		switch op {
		case instr.Abs:
			return values.F32(math.Abs(f)), nil
		case instr.Neg:
			return values.F32(-f), nil
		case instr.Ceil:
			return values.F32(math.Ceil(f)), nil
		case instr.Floor:
			return values.F32(math.Floor(f)), nil
		case instr.Trunc:
			return values.F32(math.Trunc(f)), nil
		case instr.Nearest:
			return values.F32(math.RoundToEven(f)), nil
		case instr.Sqrt:
			return values.F32(math.Sqrt(f)), nil
		}
	case values.F64:
		f := float64(x)
		switch op {
		case instr.Abs:
			return values.F64(math.Abs(f)), nil
		case instr.Neg:
			return values.F64(-f), nil
		case instr.Ceil:
			return values.F64(math.Ceil(f)), nil
		case instr.Floor:
			return values.F64(math.Floor(f)), nil
		case instr.Trunc:
			return values.F64(math.Trunc(f)), nil
		case instr.Nearest:
			return values.F64(math.RoundToEven(f)), nil
		case instr.Sqrt:
			return values.F64(math.Sqrt(f)), nil
		}
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unsupported unary operand %s for opcode %d", v.String(), op)}
}

// BinaryOp evaluates a same-type binary operator. The caller pops v2 (top
// of stack, second syntactic operand) before v1, and calls
// BinaryOp(op, v1, v2) in that order.
func BinaryOp(op instr.OpCode, v1, v2 values.Value) (values.Value, error) {
	switch a := v1.(type) {
	case values.I32:
		b, ok := v2.(values.I32)
		if !ok {
			return nil, typeErr(api.ValueTypeI32, v2)
		}
		return binaryI32(op, a, b)
	case values.I64:
		b, ok := v2.(values.I64)
		if !ok {
			return nil, typeErr(api.ValueTypeI64, v2)
		}
		return binaryI64(op, a, b)
	case values.F32:
		b, ok := v2.(values.F32)
		if !ok {
			return nil, typeErr(api.ValueTypeF32, v2)
		}
		return binaryFloat32(op, a, b)
	case values.F64:
		b, ok := v2.(values.F64)
		if !ok {
			return nil, typeErr(api.ValueTypeF64, v2)
		}
		return binaryFloat64(op, a, b)
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unsupported binary operand %s", v1.String())}
}

func binaryI32(op instr.OpCode, a, b values.I32) (values.Value, error) {
	switch op {
	case instr.Add:
		return a + b, nil
	case instr.Sub:
		return a - b, nil
	case instr.Mul:
		return a * b, nil
	case instr.DivS:
		if b == 0 {
			return nil, &NumericError{Msg: "integer divide by zero"}
		}
		if a == math.MinInt32 && b == -1 {
			return nil, &NumericError{Msg: "integer overflow"}
		}
		return a / b, nil
	case instr.DivU:
		if b == 0 {
			return nil, &NumericError{Msg: "integer divide by zero"}
		}
		return values.I32(uint32(a) / uint32(b)), nil
	case instr.RemS:
		if b == 0 {
			return nil, &NumericError{Msg: "integer divide by zero"}
		}
		if a == math.MinInt32 && b == -1 {
			return values.I32(0), nil
		}
		return a % b, nil
	case instr.RemU:
		if b == 0 {
			return nil, &NumericError{Msg: "integer divide by zero"}
		}
		return values.I32(uint32(a) % uint32(b)), nil
	case instr.And:
		return a & b, nil
	case instr.Or:
		return a | b, nil
	case instr.Xor:
		return a ^ b, nil
	case instr.Shl:
		return a << (uint32(b) % 32), nil
	case instr.ShrS:
		return a >> (uint32(b) % 32), nil
	case instr.ShrU:
		return values.I32(uint32(a) >> (uint32(b) % 32)), nil
	case instr.Rotl:
		return values.I32(bits.RotateLeft32(uint32(a), int(uint32(b)%32))), nil
	case instr.Rotr:
		return values.I32(bits.RotateLeft32(uint32(a), -int(uint32(b)%32))), nil
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unknown i32 binary opcode %d", op)}
}

func binaryI64(op instr.OpCode, a, b values.I64) (values.Value, error) {
	switch op {
	case instr.Add:
		return a + b, nil
	case instr.Sub:
		return a - b, nil
	case instr.Mul:
		return a * b, nil
	case instr.DivS:
		if b == 0 {
			return nil, &NumericError{Msg: "integer divide by zero"}
		}
		if a == math.MinInt64 && b == -1 {
			return nil, &NumericError{Msg: "integer overflow"}
		}
		return a / b, nil
	case instr.DivU:
		if b == 0 {
			return nil, &NumericError{Msg: "integer divide by zero"}
		}
		return values.I64(uint64(a) / uint64(b)), nil
	case instr.RemS:
		if b == 0 {
			return nil, &NumericError{Msg: "integer divide by zero"}
		}
		if a == math.MinInt64 && b == -1 {
			return values.I64(0), nil
		}
		return a % b, nil
	case instr.RemU:
		if b == 0 {
			return nil, &NumericError{Msg: "integer divide by zero"}
		}
		return values.I64(uint64(a) % uint64(b)), nil
	case instr.And:
		return a & b, nil
	case instr.Or:
		return a | b, nil
	case instr.Xor:
		return a ^ b, nil
	case instr.Shl:
		return a << (uint64(b) % 64), nil
	case instr.ShrS:
		return a >> (uint64(b) % 64), nil
	case instr.ShrU:
		return values.I64(uint64(a) >> (uint64(b) % 64)), nil
	case instr.Rotl:
		return values.I64(bits.RotateLeft64(uint64(a), int(uint64(b)%64))), nil
	case instr.Rotr:
		return values.I64(bits.RotateLeft64(uint64(a), -int(uint64(b)%64))), nil
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unknown i64 binary opcode %d", op)}
}

func binaryFloat32(op instr.OpCode, a, b values.F32) (values.Value, error) {
	x, y := float64(a), float64(b)
	switch op {
	case instr.Add:
		return values.F32(x + y), nil
	case instr.Sub:
		return values.F32(x - y), nil
	case instr.Mul:
		return values.F32(x * y), nil
	case instr.Div:
		return values.F32(x / y), nil
	case instr.Min:
		return values.F32(wasmCompatMin(x, y)), nil
	case instr.Max:
		return values.F32(wasmCompatMax(x, y)), nil
	case instr.Copysign:
		return values.F32(math.Copysign(x, y)), nil
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unknown f32 binary opcode %d", op)}
}

func binaryFloat64(op instr.OpCode, a, b values.F64) (values.Value, error) {
	x, y := float64(a), float64(b)
	switch op {
	case instr.Add:
		return values.F64(x + y), nil
	case instr.Sub:
		return values.F64(x - y), nil
	case instr.Mul:
		return values.F64(x * y), nil
	case instr.Div:
		return values.F64(x / y), nil
	case instr.Min:
		return values.F64(wasmCompatMin(x, y)), nil
	case instr.Max:
		return values.F64(wasmCompatMax(x, y)), nil
	case instr.Copysign:
		return values.F64(math.Copysign(x, y)), nil
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unknown f64 binary opcode %d", op)}
}

// ConvertOp evaluates a type-directed conversion covering both the
// int-to-int/float family and the float-to-int/int-to-float family, merged
// here since the target type fully determines which applies.
func ConvertOp(op instr.OpCode, target api.ValueType, v values.Value) (values.Value, error) {
	switch op {
	case instr.Wrap:
		x, ok := v.(values.I64)
		if !ok {
			return nil, typeErr(api.ValueTypeI64, v)
		}
		return values.I32(int32(uint32(uint64(x)))), nil
	case instr.ExtendSI32:
		x, ok := v.(values.I32)
		if !ok {
			return nil, typeErr(api.ValueTypeI32, v)
		}
		return values.I64(int64(x)), nil
	case instr.ExtendUI32:
		x, ok := v.(values.I32)
		if !ok {
			return nil, typeErr(api.ValueTypeI32, v)
		}
		return values.I64(int64(uint64(uint32(x)))), nil
	case instr.TruncSF32, instr.TruncUF32, instr.TruncSF64, instr.TruncUF64:
		return truncToInt(op, target, v)
	case instr.ConvertSI32:
		x, ok := v.(values.I32)
		if !ok {
			return nil, typeErr(api.ValueTypeI32, v)
		}
		return convertFloat(target, float64(x)), nil
	case instr.ConvertUI32:
		x, ok := v.(values.I32)
		if !ok {
			return nil, typeErr(api.ValueTypeI32, v)
		}
		return convertFloat(target, float64(uint32(x))), nil
	case instr.ConvertSI64:
		x, ok := v.(values.I64)
		if !ok {
			return nil, typeErr(api.ValueTypeI64, v)
		}
		return convertFloat(target, float64(x)), nil
	case instr.ConvertUI64:
		x, ok := v.(values.I64)
		if !ok {
			return nil, typeErr(api.ValueTypeI64, v)
		}
		return convertFloat(target, float64(uint64(x))), nil
	case instr.Demote:
		x, ok := v.(values.F64)
		if !ok {
			return nil, typeErr(api.ValueTypeF64, v)
		}
		return values.F32(float32(x)), nil
	case instr.Promote:
		x, ok := v.(values.F32)
		if !ok {
			return nil, typeErr(api.ValueTypeF32, v)
		}
		return values.F64(float64(x)), nil
	case instr.ReinterpretI:
		switch x := v.(type) {
		case values.I32:
			return values.F32(math.Float32frombits(uint32(x))), nil
		case values.I64:
			return values.F64(math.Float64frombits(uint64(x))), nil
		}
		return nil, &NumericError{Msg: fmt.Sprintf("reinterpret expects an integer operand, got %s", v.String())}
	case instr.ReinterpretF:
		switch x := v.(type) {
		case values.F32:
			return values.I32(int32(x.Bits())), nil
		case values.F64:
			return values.I64(int64(x.Bits())), nil
		}
		return nil, &NumericError{Msg: fmt.Sprintf("reinterpret expects a float operand, got %s", v.String())}
	}
	return nil, &NumericError{Msg: fmt.Sprintf("unknown convert opcode %d", op)}
}

func convertFloat(target api.ValueType, f float64) values.Value {
	if target == api.ValueTypeF32 {
		return values.F32(float32(f))
	}
	return values.F64(f)
}

func truncToInt(op instr.OpCode, target api.ValueType, v values.Value) (values.Value, error) {
	var f float64
	switch x := v.(type) {
	case values.F32:
		f = float64(x)
	case values.F64:
		f = float64(x)
	default:
		return nil, &NumericError{Msg: fmt.Sprintf("trunc expects a float operand, got %s", v.String())}
	}
	if math.IsNaN(f) {
		return nil, &NumericError{Msg: "invalid conversion to integer"}
	}
	signed := op == instr.TruncSF32 || op == instr.TruncSF64
	truncated := math.Trunc(f)
	if target == api.ValueTypeI32 {
		if signed {
			if truncated < math.MinInt32 || truncated > math.MaxInt32 {
				return nil, &NumericError{Msg: "integer overflow"}
			}
			return values.I32(int32(truncated)), nil
		}
		if truncated < 0 || truncated > math.MaxUint32 {
			return nil, &NumericError{Msg: "integer overflow"}
		}
		return values.I32(int32(uint32(truncated))), nil
	}
	// target == ValueTypeI64
	if signed {
		if truncated < math.MinInt64 || truncated >= math.MaxInt64 {
			return nil, &NumericError{Msg: "integer overflow"}
		}
		return values.I64(int64(truncated)), nil
	}
	if truncated < 0 || truncated >= math.MaxUint64 {
		return nil, &NumericError{Msg: "integer overflow"}
	}
	return values.I64(int64(uint64(truncated))), nil
}
