package wasmer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/ambit-run/ambit"
	"github.com/ambit-run/ambit/internal/values"
)

func newWasmerAdd(t testing.TB) *wasmer.Instance {
	store := wasmer.NewStore(wasmer.NewEngine())
	module, err := wasmer.NewModule(store, addWasm)
	require.NoError(t, err)
	instance, err := wasmer.NewInstance(module, wasmer.NewImportObject())
	require.NoError(t, err)
	return instance
}

func TestAddAgreesWithWasmer(t *testing.T) {
	store := ambit.NewStore()
	ref, inst, err := ambit.Instantiate(nil, store, ambit.NewNames(), newAddModule())
	require.NoError(t, err)

	results, err := ambit.InvokeByName(nil, store, ref, inst, "add", []ambit.Value{values.I32(2), values.I32(3)})
	require.NoError(t, err)
	require.Equal(t, []ambit.Value{values.I32(5)}, results)

	instance := newWasmerAdd(t)
	add, err := instance.Exports.GetFunction("add")
	require.NoError(t, err)

	want, err := add(int32(2), int32(3))
	require.NoError(t, err)
	require.Equal(t, int32(5), want)
}

func BenchmarkAddAmbit(b *testing.B) {
	store := ambit.NewStore()
	ref, inst, err := ambit.Instantiate(nil, store, ambit.NewNames(), newAddModule())
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ambit.InvokeByName(nil, store, ref, inst, "add", []ambit.Value{values.I32(2), values.I32(3)}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAddWasmer(b *testing.B) {
	instance := newWasmerAdd(b)
	add, err := instance.Exports.GetFunction("add")
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := add(int32(2), int32(3)); err != nil {
			b.Fatal(err)
		}
	}
}
