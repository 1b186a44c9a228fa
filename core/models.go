package core

import (
	"encoding/binary"
	"sync"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for persisted objects.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NamedObject is anything that can be stored under a name in the registry.
// An empty name means the object is not registered.
type NamedObject interface {
	// Name returns the current name, or "" when detached.
	Name() string

	// SetName changes the externally visible name. Composite objects
	// propagate the change to their members; force skips uniqueness checks
	// on names they generate.
	SetName(name string, force bool) error

	// MemorySize returns the footprint in bytes, recursive for composites.
	MemorySize() uint64
}

// Grouping is implemented by objects that aggregate other objects in order.
type Grouping interface {
	NamedObject
	// Items returns a snapshot of the direct members.
	Items() []NamedObject
	// Size returns the number of direct members.
	Size() int
}

// Histogrammed is implemented by objects that expose histogram data.
type Histogrammed interface {
	NamedObject
	NumberOfHistograms() int
	Run() *Run
}

// Base holds the name of a NamedObject. Embed it to get Name and SetName.
type Base struct {
	mu   sync.RWMutex
	name string
}

// Name returns the current name.
func (b *Base) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// SetName stores the name. Plain objects never fail to be renamed.
func (b *Base) SetName(name string, _ bool) error {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
	return nil
}

// AsGrouping reports whether obj aggregates other objects.
func AsGrouping(obj NamedObject) (Grouping, bool) {
	g, ok := obj.(Grouping)
	return g, ok
}
