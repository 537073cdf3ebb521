package ambit

import (
	"sync"

	"github.com/ambit-run/ambit/internal/wasm"
)

// Names is the host-registry of module names that instantiation's import
// resolution looks imports up against: a place for an embedder to give a
// ModuleRef a name before linking another module against it. It is
// concurrency-safe since an embedder may instantiate modules from multiple
// goroutines even though a single Config (one logical execution) is not.
type Names struct {
	mu  sync.RWMutex
	ids map[string]wasm.ModuleRef
}

// NewNames returns an empty name registry.
func NewNames() *Names {
	return &Names{ids: map[string]wasm.ModuleRef{}}
}

// Register binds name to ref, overwriting any previous binding.
func (n *Names) Register(name string, ref wasm.ModuleRef) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids[name] = ref
}

// Resolve looks up name, implementing instantiate.Resolver.
func (n *Names) Resolve(name string) (wasm.ModuleRef, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ref, ok := n.ids[name]
	return ref, ok
}
