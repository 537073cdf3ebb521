package wasm

// TableInst is a fixed-max bounded sequence of optional function
// references. Wasm 1.0 has exactly one table kind (funcref); this engine
// does not implement the reference-types proposal's other kinds.
type TableInst struct {
	elements []ModuleFunc
	max      *uint32
}

// AllocTable validates a TableType and allocates the backing storage,
// rejecting a min>max declaration.
func AllocTable(t TableType) (*TableInst, error) {
	if t.Max != nil && t.Min > *t.Max {
		return nil, &TableError{Region: DefaultRegion, Msg: "table minimum exceeds maximum"}
	}
	return &TableInst{elements: make([]ModuleFunc, t.Min), max: t.Max}, nil
}

// Size returns the current element count.
func (t *TableInst) Size() uint32 { return uint32(len(t.elements)) }

// Max returns the declared maximum element count, or nil if unbounded —
// used by import matching to recover a table's declared limits.
func (t *TableInst) Max() *uint32 { return t.max }

// Load returns the function reference at i, or a TableError if i is out of
// bounds. A nil, nil result means the slot exists but is uninitialized.
func (t *TableInst) Load(i uint32) (ModuleFunc, error) {
	if i >= uint32(len(t.elements)) {
		return nil, &TableError{Region: DefaultRegion, Msg: "out of bounds table access"}
	}
	return t.elements[i], nil
}

// Blit overwrites t.elements[offset:offset+len(values)] in place. If
// offset+len(values) exceeds Size() it returns a TableError and writes
// nothing, so there are no partial writes. The element segment commit step
// of instantiation also checks bounds before calling Blit.
func (t *TableInst) Blit(offset uint32, funcs []ModuleFunc) error {
	end := uint64(offset) + uint64(len(funcs))
	if end > uint64(len(t.elements)) {
		return &TableError{Region: DefaultRegion, Msg: "out of bounds table access"}
	}
	copy(t.elements[offset:], funcs)
	return nil
}

// Grow appends delta empty slots, respecting max. It reports the prior
// size and whether growth succeeded, mirroring MemoryInst.Grow's contract
// so MemoryGrow-style callers (table.grow, used by bulk-memory — not
// reachable from this engine's instruction set, but kept symmetric for
// the allocator layer) share one idiom.
func (t *TableInst) Grow(delta uint32) (prior uint32, ok bool) {
	prior = t.Size()
	next := uint64(prior) + uint64(delta)
	if t.max != nil && next > uint64(*t.max) {
		return prior, false
	}
	if next > uint64(^uint32(0)) {
		return prior, false
	}
	t.elements = append(t.elements, make([]ModuleFunc, delta)...)
	return prior, true
}
