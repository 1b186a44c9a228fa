package storage

import (
	"context"
	"time"

	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/registry"
)

// Summary describes a persisted top-level object without loading it.
type Summary struct {
	Name       string
	Kind       NodeKind
	Members    int
	MemorySize uint64
	SavedAt    time.Time
}

// Manifest records the last full registry save.
type Manifest struct {
	Objects int
	SavedAt time.Time
}

// ObjectRepository persists trees of named objects.
// Implementations must be thread-safe and support concurrent access.
type ObjectRepository interface {
	// SaveObject stores obj under its current name, replacing any previous
	// tree stored under that name. Groups are stored with all nested members.
	// Returns ErrInvalidQuery if obj has no name.
	SaveObject(ctx context.Context, obj core.NamedObject) error

	// LoadObject rebuilds the object stored under name. Groups are created
	// against reg but not bound in it.
	// Returns ErrNotFound if nothing is stored under name.
	LoadObject(ctx context.Context, reg *registry.Registry, name string) (core.NamedObject, error)

	// DeleteObject removes the tree stored under name.
	// Returns ErrNotFound if nothing is stored under name.
	DeleteObject(ctx context.Context, name string) error

	// ListObjects returns summaries of every stored top-level object,
	// ordered by name.
	ListObjects(ctx context.Context) ([]Summary, error)

	// SaveRegistry stores every top-level object of reg and records a
	// manifest. Objects stored earlier but no longer in reg are kept.
	SaveRegistry(ctx context.Context, reg *registry.Registry) (*Manifest, error)

	// LoadRegistry loads every stored object and binds it in reg with
	// AddOrReplace. Returns the number of objects bound.
	LoadRegistry(ctx context.Context, reg *registry.Registry) (int, error)

	// LoadManifest returns the manifest of the last SaveRegistry.
	// Returns nil, nil if the registry was never saved.
	LoadManifest(ctx context.Context) (*Manifest, error)

	// Close releases repository resources. The backend stays open.
	Close() error
}
