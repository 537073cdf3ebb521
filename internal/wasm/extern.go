package wasm

import "github.com/ambit-run/ambit/api"

// ExternVal is one of ExternFunc, ExternTable, ExternMemory, ExternGlobal —
// the value carried by an import or export. Each variant wraps a reference
// (pointer or interface) to the already-allocated runtime entity, never a
// copy — imports are shared-ownership handles.
type ExternVal interface {
	ExternType() api.ExternType
	isExternVal()
}

type ExternFunc struct{ Func ModuleFunc }

func (ExternFunc) ExternType() api.ExternType { return api.ExternTypeFunc }
func (ExternFunc) isExternVal()                {}

type ExternTable struct{ Table *TableInst }

func (ExternTable) ExternType() api.ExternType { return api.ExternTypeTable }
func (ExternTable) isExternVal()                {}

type ExternMemory struct{ Memory *MemoryInst }

func (ExternMemory) ExternType() api.ExternType { return api.ExternTypeMemory }
func (ExternMemory) isExternVal()                {}

type ExternGlobal struct{ Global *GlobalInst }

func (ExternGlobal) ExternType() api.ExternType { return api.ExternTypeGlobal }
func (ExternGlobal) isExternVal()                {}
