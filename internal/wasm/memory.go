package wasm

import (
	"encoding/binary"
	"math"

	"github.com/ambit-run/ambit/api"
	"github.com/ambit-run/ambit/internal/values"
)

// MemoryInst is linear memory: a page-multiple logical size backed by a
// physical byte buffer. The buffer length is its "bound" and the page
// count is its "size" — kept as two separate accessors since Wasm
// addresses are always in bytes but growth is always in pages.
type MemoryInst struct {
	data []byte
	max  *uint32 // pages, nil means unbounded
}

// AllocMemory allocates a zeroed, page-aligned buffer sized to t.Min pages.
func AllocMemory(t MemoryType) (inst *MemoryInst, err error) {
	if t.Max != nil && t.Min > *t.Max {
		return nil, &MemoryError{Region: DefaultRegion, Msg: "memory minimum exceeds maximum"}
	}
	defer func() {
		if r := recover(); r != nil {
			inst, err = nil, &MemoryError{Region: DefaultRegion, Msg: MsgOutOfMemory}
		}
	}()
	return &MemoryInst{data: make([]byte, uint64(t.Min)*PageSize), max: t.Max}, nil
}

// Size returns the current size in pages.
func (m *MemoryInst) Size() uint32 { return uint32(uint64(len(m.data)) / PageSize) }

// Bound returns the current physical buffer length in bytes.
func (m *MemoryInst) Bound() uint32 { return uint32(len(m.data)) }

// Max returns the declared maximum page count, or nil if unbounded — used
// by import matching to recover a memory's declared limits.
func (m *MemoryInst) Max() *uint32 { return m.max }

// Grow attempts to add delta pages. It reports the prior page count and
// whether the grow succeeded; the memory.grow instruction must never trap,
// so every failure mode here is reported through the boolean, not an error.
func (m *MemoryInst) Grow(delta uint32) (prior uint32, ok bool) {
	prior = m.Size()
	next := uint64(prior) + uint64(delta)
	if next > math.MaxUint32/PageSize {
		return prior, false
	}
	if m.max != nil && next > uint64(*m.max) {
		return prior, false
	}
	ok = func() (grew bool) {
		defer func() {
			if recover() != nil {
				grew = false
			}
		}()
		m.data = append(m.data, make([]byte, uint64(delta)*PageSize)...)
		return true
	}()
	return prior, ok
}

// effectiveAddress computes the 64-bit effective address: zero-extended
// i32 base plus static offset, reporting an overflow of the address
// computation itself before any bounds check against the memory is tried.
func effectiveAddress(base uint32, offset uint32, width uint32) (addr uint64, err error) {
	a := uint64(base) + uint64(offset)
	if a+uint64(width) < a {
		return 0, &MemoryError{Region: DefaultRegion, Msg: MsgMemorySizeOverflow}
	}
	return a, nil
}

func (m *MemoryInst) checkBounds(base, offset, width uint32) (uint64, error) {
	addr, err := effectiveAddress(base, offset, width)
	if err != nil {
		return 0, err
	}
	// Wasm 1.0 addresses are i32-indexed: no access can reach past the
	// 4GiB address space (the memory64 proposal's wider addressing is
	// out of scope for this engine).
	if addr+uint64(width) > math.MaxUint32 {
		return 0, &MemoryError{Region: DefaultRegion, Msg: MsgMemorySizeLimitReached}
	}
	if addr+uint64(width) > uint64(len(m.data)) {
		return 0, &MemoryError{Region: DefaultRegion, Msg: MsgOutOfBoundsMemoryAccess}
	}
	return addr, nil
}

// LoadValue reads a full-width value (i32/i64/f32/f64) at base+offset.
func (m *MemoryInst) LoadValue(t api.ValueType, base, offset uint32) (values.Value, error) {
	width := widthOf(t)
	addr, err := m.checkBounds(base, offset, width)
	if err != nil {
		return nil, err
	}
	switch t {
	case api.ValueTypeI32:
		return values.I32(int32(binary.LittleEndian.Uint32(m.data[addr:]))), nil
	case api.ValueTypeI64:
		return values.I64(int64(binary.LittleEndian.Uint64(m.data[addr:]))), nil
	case api.ValueTypeF32:
		return values.F32(math.Float32frombits(binary.LittleEndian.Uint32(m.data[addr:]))), nil
	case api.ValueTypeF64:
		return values.F64(math.Float64frombits(binary.LittleEndian.Uint64(m.data[addr:]))), nil
	}
	return nil, &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
}

// StoreValue writes a full-width value at base+offset. v's dynamic type
// must match t; a mismatch is a MemoryError carrying the spec's
// "type mismatch at memory access" text, surfaced by the stepper as a
// trap exactly like an out-of-bounds access.
func (m *MemoryInst) StoreValue(t api.ValueType, base, offset uint32, v values.Value) error {
	width := widthOf(t)
	addr, err := m.checkBounds(base, offset, width)
	if err != nil {
		return err
	}
	switch t {
	case api.ValueTypeI32:
		x, ok := v.(values.I32)
		if !ok {
			return &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
		}
		binary.LittleEndian.PutUint32(m.data[addr:], uint32(x))
	case api.ValueTypeI64:
		x, ok := v.(values.I64)
		if !ok {
			return &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
		}
		binary.LittleEndian.PutUint64(m.data[addr:], uint64(x))
	case api.ValueTypeF32:
		x, ok := v.(values.F32)
		if !ok {
			return &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
		}
		binary.LittleEndian.PutUint32(m.data[addr:], x.Bits())
	case api.ValueTypeF64:
		x, ok := v.(values.F64)
		if !ok {
			return &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
		}
		binary.LittleEndian.PutUint64(m.data[addr:], x.Bits())
	default:
		return &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
	}
	return nil
}

// LoadPacked reads sz bits (8/16/32) at base+offset and sign- or
// zero-extends into t (i32 or i64), per the *.load8_s/_u etc instructions.
func (m *MemoryInst) LoadPacked(t api.ValueType, sz uint8, signExt bool, base, offset uint32) (values.Value, error) {
	addr, err := m.checkBounds(base, offset, uint32(sz)/8)
	if err != nil {
		return nil, err
	}
	var raw uint64
	switch sz {
	case 8:
		raw = uint64(m.data[addr])
	case 16:
		raw = uint64(binary.LittleEndian.Uint16(m.data[addr:]))
	case 32:
		raw = uint64(binary.LittleEndian.Uint32(m.data[addr:]))
	default:
		return nil, &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
	}
	if signExt {
		shift := 64 - sz
		signed := int64(raw<<shift) >> shift
		if t == api.ValueTypeI32 {
			return values.I32(int32(signed)), nil
		}
		return values.I64(signed), nil
	}
	if t == api.ValueTypeI32 {
		return values.I32(int32(uint32(raw))), nil
	}
	return values.I64(int64(raw)), nil
}

// StorePacked writes the low sz bits of v (i32 or i64) at base+offset.
func (m *MemoryInst) StorePacked(sz uint8, base, offset uint32, v values.Value) error {
	addr, err := m.checkBounds(base, offset, uint32(sz)/8)
	if err != nil {
		return err
	}
	var raw uint64
	switch x := v.(type) {
	case values.I32:
		raw = uint64(uint32(x))
	case values.I64:
		raw = uint64(x)
	default:
		return &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
	}
	switch sz {
	case 8:
		m.data[addr] = byte(raw)
	case 16:
		binary.LittleEndian.PutUint16(m.data[addr:], uint16(raw))
	case 32:
		binary.LittleEndian.PutUint32(m.data[addr:], uint32(raw))
	default:
		return &MemoryError{Region: DefaultRegion, Msg: MsgMemoryAccessTypeMismatch}
	}
	return nil
}

// StoreBytes copies b into memory starting at byte offset addr, used by
// data segment initialization during instantiation. It reports
// out-of-bounds as a MemoryError, not a silent truncation.
func (m *MemoryInst) StoreBytes(addr uint64, b []byte) error {
	end := addr + uint64(len(b))
	if end < addr || end > uint64(len(m.data)) {
		return &MemoryError{Region: DefaultRegion, Msg: MsgOutOfBoundsMemoryAccess}
	}
	copy(m.data[addr:], b)
	return nil
}

func widthOf(t api.ValueType) uint32 {
	switch t {
	case api.ValueTypeI32, api.ValueTypeF32:
		return 4
	case api.ValueTypeI64, api.ValueTypeF64:
		return 8
	}
	return 0
}
