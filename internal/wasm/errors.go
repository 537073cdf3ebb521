package wasm

import (
	"fmt"

	"github.com/ambit-run/ambit/internal/instr"
)

// Region is a source span in the originating module, carried through every
// error the way the decoder would attach position info. The zero value
// means "no originating region" (the default region). Defined in
// internal/instr so that package can attach regions to instructions without
// importing this package back.
type Region = instr.Region

// DefaultRegion is used when an error has no originating module position,
// e.g. when a host function is invoked directly.
var DefaultRegion = instr.Region{}

// LinkError means instantiation failed before a module was registered.
type LinkError struct {
	Region Region
	Msg    string
}

func (e *LinkError) Error() string { return fmt.Sprintf("link error: %s", e.Msg) }

// TrapError is a well-defined runtime trap per Wasm semantics. It aborts the
// current invocation without corrupting the store beyond side effects
// already committed.
type TrapError struct {
	Region Region
	Msg    string
}

func (e *TrapError) Error() string { return fmt.Sprintf("trap: %s", e.Msg) }

// CrashError means a runtime invariant broke that module validation should
// have prevented. It indicates a bug in the toolchain feeding this engine,
// or in the engine itself.
type CrashError struct {
	Region Region
	Msg    string
}

func (e *CrashError) Error() string { return fmt.Sprintf("crash: %s", e.Msg) }

// MemoryError is a raw allocator-level failure from MemoryInst operations.
type MemoryError struct {
	Region Region
	Msg    string
}

func (e *MemoryError) Error() string { return fmt.Sprintf("memory error: %s", e.Msg) }

// TableError is a raw allocator-level failure from TableInst operations.
type TableError struct {
	Region Region
	Msg    string
}

func (e *TableError) Error() string { return fmt.Sprintf("table error: %s", e.Msg) }

// GlobalError is a raw allocator-level failure from GlobalInst operations.
type GlobalError struct {
	Region Region
	Msg    string
}

func (e *GlobalError) Error() string { return fmt.Sprintf("global error: %s", e.Msg) }

// ExhaustionError means the call budget reached zero on frame entry.
type ExhaustionError struct {
	Region Region
	Msg    string
}

func (e *ExhaustionError) Error() string { return fmt.Sprintf("exhaustion error: %s", e.Msg) }

// NumericError is the numeric-failure kind of this taxonomy. The numeric
// operator layer (internal/numeric) reports its failures with its own
// numeric.NumericError, not this type; the stepper converts those into
// TrapErrors, so embedders never observe either one directly.
type NumericError struct {
	Msg string
}

func (e *NumericError) Error() string { return fmt.Sprintf("numeric error: %s", e.Msg) }

// Exact trap message strings. Conformance tests match on these verbatim,
// so they are not reworded.
const (
	MsgUnreachableExecuted        = "unreachable executed"
	MsgIndirectCallTypeMismatch   = "indirect call type mismatch"
	MsgOutOfBoundsMemoryAccess    = "out of bounds memory access"
	MsgMemorySizeOverflow         = "memory size overflow"
	MsgMemorySizeLimitReached     = "memory size limit reached"
	MsgMemoryAccessTypeMismatch   = "type mismatch at memory access"
	MsgOutOfMemory                = "out of memory"
	MsgCallStackExhausted         = "call stack exhausted"
	MsgWriteToImmutableGlobal     = "write to immutable global"
	MsgGlobalWriteTypeMismatch    = "type mismatch at global write"
	MsgElementsDoNotFitTable      = "elements segment does not fit table"
	MsgDataDoesNotFitMemory       = "data segment does not fit memory"
	MsgIncompatibleImportType     = "incompatible import type"
)

// MsgUninitializedElement formats the uninitialized-table-slot trap, the
// one trap message that carries a runtime value.
func MsgUninitializedElement(i uint32) string {
	return fmt.Sprintf("uninitialized element %d", i)
}

// MsgMissingModuleForImport formats the link error for an unresolved import
// module name.
func MsgMissingModuleForImport(name string) string {
	return fmt.Sprintf("Missing module for import: %s", name)
}

// MsgMissingExternForImport formats the link error for an import whose
// module resolved but whose item name did not.
func MsgMissingExternForImport(mod, name string) string {
	return fmt.Sprintf("Missing extern for import: %s.%s", mod, name)
}

// StartingBudget is the call budget a fresh Config is given, preserved
// verbatim for conformance with the reference test suite.
const StartingBudget = 300

// PageSize is the fixed size in bytes of one unit of linear memory growth.
const PageSize = 65536
