package wasm

import (
	"github.com/ambit-run/ambit/internal/values"
)

// GlobalInst is a typed mutable cell, addressed by module-local index.
type GlobalInst struct {
	Type    GlobalType
	Content *values.Mutable[values.Value]
}

// AllocGlobal checks typeOf(v) against t.ValueType and records mutability.
func AllocGlobal(t GlobalType, v values.Value) (*GlobalInst, error) {
	if v.ValueType() != t.ValueType {
		return nil, &GlobalError{Region: DefaultRegion, Msg: MsgGlobalWriteTypeMismatch}
	}
	return &GlobalInst{Type: t, Content: values.NewMutable(v)}, nil
}

// Get reads the current value.
func (g *GlobalInst) Get() values.Value { return g.Content.Get() }

// Set writes v, failing if the global is immutable or v has the wrong type.
func (g *GlobalInst) Set(v values.Value) error {
	if !g.Type.Mutable {
		return &GlobalError{Region: DefaultRegion, Msg: MsgWriteToImmutableGlobal}
	}
	if v.ValueType() != g.Type.ValueType {
		return &GlobalError{Region: DefaultRegion, Msg: MsgGlobalWriteTypeMismatch}
	}
	g.Content.Set(v)
	return nil
}
