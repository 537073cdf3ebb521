// Package wasmtime runs the same add(i32, i32) -> i32 function through this
// project's interpreter and through wasmtime-go, so the two can be compared
// with `go test -bench`.
package wasmtime

import (
	"github.com/ambit-run/ambit"
	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/instr"
	"github.com/ambit-run/ambit/internal/wasm"
)

// addWasm is the canonical "local.get 0; local.get 1; i32.add" module,
// encoded by hand: magic+version, a type section (func (i32 i32) -> i32), a
// function section, an export section exporting it as "add", and a code
// section with the four-instruction body.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

// newAddModule builds the AST equivalent of addWasm directly, bypassing a
// binary decoder (this interpreter operates on already-decoded modules).
func newAddModule() *ambit.Module {
	return &ambit.Module{
		Types: []ambit.FuncType{{
			Params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
			Results: []api.ValueType{api.ValueTypeI32},
		}},
		Funcs: []wasm.FuncDecl{{
			TypeIdx: 0,
			Body: []instr.Instr{
				{Kind: instr.GetLocal, Idx: 0},
				{Kind: instr.GetLocal, Idx: 1},
				{Kind: instr.Binary, Op: instr.Add},
			},
		}},
		Exports: []wasm.Export{{Name: "add", Kind: wasm.ExportKindFunc, Idx: 0}},
	}
}
