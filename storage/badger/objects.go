package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/group"
	"github.com/poiesic/adstore/registry"
	"github.com/poiesic/adstore/storage"
)

// ObjectRepository implements storage.ObjectRepository for BadgerDB.
type ObjectRepository struct {
	backend   *Backend
	groupOpts []group.Option
	logger    *slog.Logger
}

var _ storage.ObjectRepository = (*ObjectRepository)(nil)

// RepositoryOption configures an ObjectRepository.
type RepositoryOption func(*ObjectRepository)

// WithGroupOptions sets the options used for groups rebuilt by loads.
func WithGroupOptions(opts ...group.Option) RepositoryOption {
	return func(r *ObjectRepository) {
		r.groupOpts = opts
	}
}

// WithRepositoryLogger sets a custom logger.
// Default is the backend's logger.
func WithRepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(r *ObjectRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewObjectRepository creates a new ObjectRepository on backend.
func NewObjectRepository(backend *Backend, opts ...RepositoryOption) (*ObjectRepository, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	r := &ObjectRepository{
		backend: backend,
		logger:  backend.logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases repository resources. The backend stays open.
func (r *ObjectRepository) Close() error {
	return nil
}

// SaveObject stores obj under its current name.
func (r *ObjectRepository) SaveObject(ctx context.Context, obj core.NamedObject) error {
	if obj == nil {
		return fmt.Errorf("%w: nil object", storage.ErrInvalidQuery)
	}
	return r.save(ctx, obj.Name(), obj, time.Now().UTC())
}

func (r *ObjectRepository) save(ctx context.Context, name string, obj core.NamedObject, savedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	nodes, err := storage.Flatten(name, obj, savedAt)
	if err != nil {
		return err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		// Drop the previous tree first so removed members do not linger.
		if err := r.deleteTree(tx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		for _, node := range nodes {
			if err := tx.Set(makeNodeKey(node.ID), storage.MarshalNode(node)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeRootKey(name), storage.MarshalID(nodes[0].ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}

	r.logger.Debug("object saved", "name", name, "nodes", len(nodes))
	return nil
}

// LoadObject rebuilds the object stored under name. The returned object is
// detached; binding it in the registry gives it its name.
func (r *ObjectRepository) LoadObject(ctx context.Context, reg *registry.Registry, name string) (core.NamedObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var obj core.NamedObject
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		root, err := r.readRoot(tx, name)
		if err != nil {
			return err
		}
		obj, err = storage.Build(root, func(id core.ID) (*storage.Node, error) {
			return r.readNode(tx, id)
		}, reg, r.groupOpts...)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// DeleteObject removes the tree stored under name.
func (r *ObjectRepository) DeleteObject(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := r.deleteTree(tx, name); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListObjects returns summaries of every stored top-level object.
func (r *ObjectRepository) ListObjects(ctx context.Context) ([]storage.Summary, error) {
	var summaries []storage.Summary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = rootKeyPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}
			node, err := r.readNode(tx, id)
			if err != nil {
				return err
			}
			summaries = append(summaries, storage.Summary{
				Name:       node.Name,
				Kind:       node.Kind,
				Members:    len(node.Children),
				MemorySize: node.MemorySize,
				SavedAt:    node.SavedAt,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// SaveRegistry stores every top-level object of reg and records a manifest.
func (r *ObjectRepository) SaveRegistry(ctx context.Context, reg *registry.Registry) (*storage.Manifest, error) {
	savedAt := time.Now().UTC()
	saved := 0
	for _, name := range reg.Names() {
		obj, err := reg.Retrieve(name)
		if errors.Is(err, core.ErrNotFound) {
			// Removed while saving.
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := r.save(ctx, name, obj, savedAt); err != nil {
			return nil, err
		}
		saved++
	}

	manifest := &storage.Manifest{Objects: saved, SavedAt: savedAt}
	if err := r.saveManifest(manifest); err != nil {
		return nil, err
	}
	r.logger.Info("registry saved", "objects", saved)
	return manifest, nil
}

// LoadRegistry loads every stored object and binds it in reg.
func (r *ObjectRepository) LoadRegistry(ctx context.Context, reg *registry.Registry) (int, error) {
	summaries, err := r.ListObjects(ctx)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, s := range summaries {
		obj, err := r.LoadObject(ctx, reg, s.Name)
		if err != nil {
			return loaded, fmt.Errorf("loading %s: %w", s.Name, err)
		}
		if err := reg.AddOrReplace(s.Name, obj); err != nil {
			return loaded, fmt.Errorf("binding %s: %w", s.Name, err)
		}
		loaded++
	}
	r.logger.Info("registry loaded", "objects", loaded)
	return loaded, nil
}

func (r *ObjectRepository) readRoot(tx *badger.Txn, name string) (*storage.Node, error) {
	item, err := tx.Get(makeRootKey(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return nil, err
	}
	var id core.ID
	err = item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.readNode(tx, id)
}

func (r *ObjectRepository) readNode(tx *badger.Txn, id core.ID) (*storage.Node, error) {
	item, err := tx.Get(makeNodeKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: node %d", storage.ErrNotFound, id)
		}
		return nil, err
	}
	var node *storage.Node
	err = item.Value(func(val []byte) error {
		var err error
		node, err = storage.UnmarshalNode(val)
		return err
	})
	return node, err
}

// deleteTree removes the root key for name and every node below it.
func (r *ObjectRepository) deleteTree(tx *badger.Txn, name string) error {
	root, err := r.readRoot(tx, name)
	if err != nil {
		return err
	}
	if err := r.deleteNode(tx, root, 0); err != nil {
		return err
	}
	return tx.Delete(makeRootKey(name))
}

func (r *ObjectRepository) deleteNode(tx *badger.Txn, node *storage.Node, depth int) error {
	if depth > storage.MaxTreeDepth {
		return fmt.Errorf("%w: stored tree deeper than %d", core.ErrTooDeepNesting, storage.MaxTreeDepth)
	}
	for _, id := range node.Children {
		child, err := r.readNode(tx, id)
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("dangling child node", "parent", node.Name, "id", id)
			continue
		}
		if err != nil {
			return err
		}
		if err := r.deleteNode(tx, child, depth+1); err != nil {
			return err
		}
	}
	return tx.Delete(makeNodeKey(node.ID))
}
