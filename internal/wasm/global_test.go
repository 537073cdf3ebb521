package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/values"
)

func TestGlobalSetThenGetRoundTrips(t *testing.T) {
	g, err := AllocGlobal(GlobalType{ValueType: api.ValueTypeI32, Mutable: true}, values.I32(1))
	require.NoError(t, err)

	require.NoError(t, g.Set(values.I32(42)))
	require.Equal(t, values.I32(42), g.Get())
}

func TestGlobalSetImmutableTraps(t *testing.T) {
	g, err := AllocGlobal(GlobalType{ValueType: api.ValueTypeI32, Mutable: false}, values.I32(1))
	require.NoError(t, err)

	err = g.Set(values.I32(2))
	require.Error(t, err)
	require.Equal(t, MsgWriteToImmutableGlobal, err.(*GlobalError).Msg)
}

func TestGlobalSetTypeMismatchTraps(t *testing.T) {
	g, err := AllocGlobal(GlobalType{ValueType: api.ValueTypeI32, Mutable: true}, values.I32(1))
	require.NoError(t, err)

	err = g.Set(values.I64(2))
	require.Error(t, err)
	require.Equal(t, MsgGlobalWriteTypeMismatch, err.(*GlobalError).Msg)
}

func TestAllocGlobalInitTypeMismatch(t *testing.T) {
	_, err := AllocGlobal(GlobalType{ValueType: api.ValueTypeI32, Mutable: true}, values.F32(1))
	require.Error(t, err)
}
