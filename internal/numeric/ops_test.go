package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/values"
)

func TestBinaryOpIntegerArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   instr.OpCode
		a, b values.Value
		want values.Value
	}{
		{"i32 add", instr.Add, values.I32(2), values.I32(3), values.I32(5)},
		{"i32 sub", instr.Sub, values.I32(5), values.I32(3), values.I32(2)},
		{"i64 mul", instr.Mul, values.I64(6), values.I64(7), values.I64(42)},
		{"i32 shl", instr.Shl, values.I32(1), values.I32(4), values.I32(16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryOp(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBinaryOpIntegerDivideByZeroTraps(t *testing.T) {
	_, err := BinaryOp(instr.DivS, values.I32(1), values.I32(0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "divide by zero")
}

func TestBinaryOpSignedOverflowTraps(t *testing.T) {
	_, err := BinaryOp(instr.DivS, values.I32(math.MinInt32), values.I32(-1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflow")
}

func TestCompareOpOrdering(t *testing.T) {
	got, err := CompareOp(instr.LtS, values.I32(-1), values.I32(1))
	require.NoError(t, err)
	require.Equal(t, values.I32(1), got)

	got, err = CompareOp(instr.LtU, values.I32(-1), values.I32(1))
	require.NoError(t, err)
	require.Equal(t, values.I32(0), got, "-1 as unsigned is huge, so -1 < 1 is false")
}

func TestTestOpEqz(t *testing.T) {
	got, err := TestOp(instr.Eqz, values.I32(0))
	require.NoError(t, err)
	require.Equal(t, values.I32(1), got)

	got, err = TestOp(instr.Eqz, values.I32(5))
	require.NoError(t, err)
	require.Equal(t, values.I32(0), got)
}

func TestUnaryOpClzCtzPopcnt(t *testing.T) {
	got, err := UnaryOp(instr.Clz, values.I32(1))
	require.NoError(t, err)
	require.Equal(t, values.I32(31), got)

	got, err = UnaryOp(instr.Popcnt, values.I32(7))
	require.NoError(t, err)
	require.Equal(t, values.I32(3), got)
}

func TestConvertOpWrapAndExtend(t *testing.T) {
	got, err := ConvertOp(instr.Wrap, values.I32(0).ValueType(), values.I64(0x1_0000_0001))
	require.NoError(t, err)
	require.Equal(t, values.I32(1), got)

	got, err = ConvertOp(instr.ExtendSI32, values.I64(0).ValueType(), values.I32(-1))
	require.NoError(t, err)
	require.Equal(t, values.I64(-1), got)
}

func TestConvertOpTruncNaNTraps(t *testing.T) {
	_, err := ConvertOp(instr.TruncSF64, values.I32(0).ValueType(), values.F64(math.NaN()))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid conversion to integer")
}

func TestConvertOpTruncOutOfRangeTraps(t *testing.T) {
	_, err := ConvertOp(instr.TruncSF64, values.I32(0).ValueType(), values.F64(1e20))
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflow")
}
