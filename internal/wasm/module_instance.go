package wasm

// ModuleRef is an opaque integer key naming a ModuleInst in a Store.
// AstFunc stores one of these rather than a direct *ModuleInst pointer,
// breaking the cycle a module's functions would otherwise have with the
// exports that refer back to them.
type ModuleRef int

// ModuleInst is a runtime instantiation of a Module, bound to resolved
// imports and allocated runtime entities. Imports prepend to each vector
// so module-local indices keep addressing correctly.
type ModuleInst struct {
	Module *Module

	Types    []FuncType
	Funcs    []ModuleFunc
	Tables   []*TableInst
	Memories []*MemoryInst
	Globals  []*GlobalInst

	Exports map[string]ExternVal
}

// NewModuleInst creates an empty instance holding only the module AST, the
// starting point of instantiation.
func NewModuleInst(m *Module) *ModuleInst {
	return &ModuleInst{
		Module:  m,
		Types:   append([]FuncType(nil), m.Types...),
		Exports: map[string]ExternVal{},
	}
}

// Export looks up a named export, distinguishing "not found" from "found
// but wrong kind" the way InvokeByName/GetByName need to.
func (mi *ModuleInst) Export(name string) (ExternVal, bool) {
	v, ok := mi.Exports[name]
	return v, ok
}
