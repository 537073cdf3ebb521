package wasm

import (
	"strings"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/instr"
)

// FuncType is a function signature: an ordered sequence of parameter types
// and an ordered sequence of result types. Result length is at most 1 in
// practice (this engine does not implement the multi-value proposal).
type FuncType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Equal reports whether two FuncTypes describe the same signature.
func (t FuncType) Equal(o FuncType) bool {
	return valueTypesEqual(t.Params, o.Params) && valueTypesEqual(t.Results, o.Results)
}

func valueTypesEqual(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t FuncType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteString(") -> (")
	for i, r := range t.Results {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(api.ValueTypeName(r))
	}
	b.WriteByte(')')
	return b.String()
}

// GlobalType describes a global's declared value type and mutability.
type GlobalType struct {
	ValueType api.ValueType
	Mutable   bool
}

// TableType declares a table's element count bounds, in elements.
type TableType struct {
	Min uint32
	Max *uint32 // nil means unbounded
}

// MemoryType declares a memory's size bounds, in pages.
type MemoryType struct {
	Min uint32
	Max *uint32 // nil means unbounded
}

// ImportKind discriminates the ImportDesc union.
type ImportKind byte

const (
	ImportKindFunc ImportKind = iota
	ImportKindTable
	ImportKindMemory
	ImportKindGlobal
)

// ImportDesc is the type-side of an import declaration: what the importing
// module expects the named extern to look like.
type ImportDesc struct {
	Kind     ImportKind
	TypeIdx  uint32 // valid when Kind == ImportKindFunc
	Table    TableType
	Memory   MemoryType
	Global   GlobalType
}

// Import is one entry of a module's import section.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// FuncDecl is a module-defined function: its declared type, its additional
// locals (beyond parameters), and its body as already-decoded instructions.
type FuncDecl struct {
	TypeIdx uint32
	Locals  []api.ValueType
	Body    []instr.Instr
}

// GlobalDecl is a module-defined global: its type and constant initializer.
type GlobalDecl struct {
	Type GlobalType
	Init []instr.Instr
}

// ExportKind discriminates the ExportDesc union.
type ExportKind = ImportKind

const (
	ExportKindFunc   = ImportKindFunc
	ExportKindTable  = ImportKindTable
	ExportKindMemory = ImportKindMemory
	ExportKindGlobal = ImportKindGlobal
)

// Export is one entry of a module's export section, naming a module-local
// index (counting imports first — imports occupy the lowest indices in
// each index space, ahead of module-defined entities).
type Export struct {
	Name string
	Kind ExportKind
	Idx  uint32
}

// ElementSegment initializes a range of a table with function references.
type ElementSegment struct {
	TableIdx uint32
	Offset   []instr.Instr
	FuncIdxs []uint32
}

// DataSegment initializes a range of a memory with bytes.
type DataSegment struct {
	MemIdx uint32
	Offset []instr.Instr
	Bytes  []byte
}

// Module is the decoded abstract syntax this engine consumes. Binary/text
// decoding and validation are out of scope; this struct is the contract an
// external decoder must fill in.
type Module struct {
	Types     []FuncType
	Imports   []Import
	Funcs     []FuncDecl
	Tables    []TableType
	Memories  []MemoryType
	Globals   []GlobalDecl
	Exports   []Export
	Elements  []ElementSegment
	Data      []DataSegment
	Start     *uint32 // module-local func index, nil if absent
}
