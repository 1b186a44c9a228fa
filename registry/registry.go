package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/notify"
)

type entry struct {
	name string
	obj  core.NamedObject
}

// Registry is the process-wide store of named objects.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]entry
	bus      *notify.Bus
	matcher  core.NameMatcher
	illegal  string
	logger   *slog.Logger
	reserved map[string]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// WithCaseSensitive selects case-sensitive names. Default is case-insensitive.
func WithCaseSensitive(sensitive bool) Option {
	return func(r *Registry) {
		r.matcher = core.NameMatcher{CaseSensitive: sensitive}
	}
}

// WithIllegalCharacters overrides the characters rejected in names.
func WithIllegalCharacters(chars string) Option {
	return func(r *Registry) {
		r.illegal = chars
	}
}

// New creates an empty registry publishing on bus. A nil bus gets a private one.
func New(bus *notify.Bus, opts ...Option) *Registry {
	if bus == nil {
		bus = notify.NewBus()
	}
	r := &Registry{
		entries:  make(map[string]entry),
		reserved: make(map[string]struct{}),
		bus:      bus,
		illegal:  core.DefaultIllegalCharacters,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bus returns the bus the registry publishes on.
func (r *Registry) Bus() *notify.Bus {
	return r.bus
}

// Matcher returns the name comparison policy.
func (r *Registry) Matcher() core.NameMatcher {
	return r.matcher
}

// ValidateName checks name against the registry naming rules.
func (r *Registry) ValidateName(name string) error {
	return core.ValidateName(name, r.illegal)
}

// Add binds name to obj and names the object.
// Returns ErrDuplicateName if name is already bound. On failure the
// registry is left unchanged.
func (r *Registry) Add(name string, obj core.NamedObject) error {
	if obj == nil {
		return fmt.Errorf("%w: nil object for %q", core.ErrTypeMismatch, name)
	}
	if err := r.ValidateName(name); err != nil {
		return err
	}
	key := r.matcher.Key(name)

	r.mu.Lock()
	if _, ok := r.entries[key]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrDuplicateName, name)
	}
	if _, ok := r.reserved[key]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrDuplicateName, name)
	}
	r.reserved[key] = struct{}{}
	r.mu.Unlock()

	// Naming a group may query the registry, so it runs unlocked while the
	// key is reserved.
	if err := obj.SetName(name, false); err != nil {
		r.mu.Lock()
		delete(r.reserved, key)
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	delete(r.reserved, key)
	r.entries[key] = entry{name: name, obj: obj}
	r.mu.Unlock()

	r.logger.Debug("object added", "name", name)
	r.publish(notify.Event{Type: notify.ObjectAdded, Name: name, Object: obj})
	return nil
}

// AddOrReplace binds name to obj, replacing any previous binding. The
// previous object is detached (its name cleared) unless it is still bound
// under another name.
func (r *Registry) AddOrReplace(name string, obj core.NamedObject) error {
	if obj == nil {
		return fmt.Errorf("%w: nil object for %q", core.ErrTypeMismatch, name)
	}
	if err := r.ValidateName(name); err != nil {
		return err
	}
	key := r.matcher.Key(name)

	r.mu.Lock()
	if _, ok := r.reserved[key]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrDuplicateName, name)
	}
	old, existed := r.entries[key]
	if !existed {
		r.mu.Unlock()
		return r.Add(name, obj)
	}
	if old.obj == obj {
		r.entries[key] = entry{name: name, obj: obj}
		r.mu.Unlock()
		r.publish(notify.Event{Type: notify.ObjectReplaced, Name: name, Object: obj, Previous: obj})
		return nil
	}
	r.entries[key] = entry{name: name, obj: obj}
	r.mu.Unlock()

	if err := obj.SetName(name, true); err != nil {
		r.mu.Lock()
		if cur, ok := r.entries[key]; ok && cur.obj == obj {
			r.entries[key] = old
		}
		r.mu.Unlock()
		return err
	}

	if r.Count(old.obj) == 0 {
		if err := old.obj.SetName("", false); err != nil {
			r.logger.Warn("failed to detach replaced object", "name", name, "err", err)
		}
	}

	r.logger.Debug("object replaced", "name", name)
	r.publish(notify.Event{Type: notify.ObjectReplaced, Name: name, Object: obj, Previous: old.obj})
	return nil
}

// Retrieve returns the object bound to name.
// Returns ErrNotFound if name is not bound.
func (r *Registry) Retrieve(name string) (core.NamedObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[r.matcher.Key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, name)
	}
	return e.obj, nil
}

// RetrieveAs returns the object bound to name as a T.
// Returns ErrNotFound or ErrTypeMismatch.
func RetrieveAs[T core.NamedObject](r *Registry, name string) (T, error) {
	var zero T
	obj, err := r.Retrieve(name)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, not %T", core.ErrTypeMismatch, name, obj, zero)
	}
	return typed, nil
}

// DoesExist reports whether name is bound.
func (r *Registry) DoesExist(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[r.matcher.Key(name)]
	return ok
}

// Count returns how many top-level names are bound to obj.
func (r *Registry) Count(obj core.NamedObject) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.obj == obj {
			n++
		}
	}
	return n
}

// Remove unbinds name and detaches the object.
// Returns ErrNotFound if name is not bound.
func (r *Registry) Remove(name string) error {
	key := r.matcher.Key(name)

	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, name)
	}

	// Phase 1: let the object clear its name (and its members') while it is
	// still bound, so their registry lookups see a consistent store.
	cleared := false
	if r.Count(e.obj) == 1 {
		cleared = true
		if err := e.obj.SetName("", false); err != nil {
			r.logger.Warn("failed to clear name before removal", "name", e.name, "err", err)
		}
	}

	// Phase 2: erase, unless the binding changed meanwhile.
	r.mu.Lock()
	cur, ok := r.entries[key]
	if !ok || cur.obj != e.obj {
		boundAs := ""
		for _, other := range r.entries {
			if other.obj == e.obj {
				boundAs = other.name
				break
			}
		}
		r.mu.Unlock()
		if cleared && boundAs != "" {
			if err := e.obj.SetName(boundAs, true); err != nil {
				r.logger.Warn("failed to restore name", "name", boundAs, "err", err)
			}
		}
		return fmt.Errorf("%w: %s", core.ErrNotFound, name)
	}
	delete(r.entries, key)
	r.mu.Unlock()

	r.logger.Debug("object removed", "name", e.name)
	r.publish(notify.Event{Type: notify.ObjectRemoved, Name: e.name, Object: e.obj})
	return nil
}

// RemoveFromTopLevel unbinds name without touching the object's name. Used
// when a group adopts a registered object as a member.
func (r *Registry) RemoveFromTopLevel(name string) error {
	key := r.matcher.Key(name)

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrNotFound, name)
	}
	delete(r.entries, key)
	r.mu.Unlock()

	r.publish(notify.Event{Type: notify.ObjectRemoved, Name: e.name, Object: e.obj})
	return nil
}

// Rename moves the binding of oldName to newName and renames the object.
func (r *Registry) Rename(oldName, newName string) error {
	if err := r.ValidateName(newName); err != nil {
		return err
	}
	oldKey, newKey := r.matcher.Key(oldName), r.matcher.Key(newName)

	r.mu.Lock()
	e, ok := r.entries[oldKey]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrNotFound, oldName)
	}
	if oldKey != newKey {
		if _, taken := r.entries[newKey]; taken {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", core.ErrDuplicateName, newName)
		}
		if _, taken := r.reserved[newKey]; taken {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", core.ErrDuplicateName, newName)
		}
	}
	delete(r.entries, oldKey)
	r.reserved[newKey] = struct{}{}
	r.mu.Unlock()

	err := e.obj.SetName(newName, false)

	r.mu.Lock()
	delete(r.reserved, newKey)
	if err != nil {
		r.entries[oldKey] = e
		r.mu.Unlock()
		return err
	}
	r.entries[newKey] = entry{name: newName, obj: e.obj}
	r.mu.Unlock()

	r.publish(notify.Event{Type: notify.ObjectRenamed, Name: newName, OldName: e.name, Object: e.obj})
	return nil
}

// Clear removes every entry and detaches the objects.
func (r *Registry) Clear() {
	r.mu.Lock()
	old := r.entries
	r.entries = make(map[string]entry)
	r.mu.Unlock()

	for _, e := range old {
		if err := e.obj.SetName("", false); err != nil {
			r.logger.Warn("failed to clear name", "name", e.name, "err", err)
		}
	}
	r.publish(notify.Event{Type: notify.StoreCleared})
}

// Names returns the bound names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.name)
	}
	r.mu.RUnlock()
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(r.matcher.Key(a), r.matcher.Key(b))
	})
	return names
}

// TopLevelItems returns the bound objects in name order.
func (r *Registry) TopLevelItems() []core.NamedObject {
	names := r.Names()
	items := make([]core.NamedObject, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range names {
		if e, ok := r.entries[r.matcher.Key(n)]; ok {
			items = append(items, e.obj)
		}
	}
	return items
}

// Size returns the number of bound names.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// NotifyGroupUpdated publishes GroupUpdated for group, bound as name.
// Returns ErrNotFound when name is not bound to group.
func (r *Registry) NotifyGroupUpdated(name string, group core.NamedObject) error {
	obj, err := r.Retrieve(name)
	if err != nil {
		return err
	}
	if obj != group {
		return fmt.Errorf("%w: %s is bound to another object", core.ErrNotFound, name)
	}
	return r.bus.Publish(notify.Event{Type: notify.GroupUpdated, Name: name, Object: obj})
}

func (r *Registry) publish(ev notify.Event) {
	// Observer failures are logged by the bus and never fail the mutation.
	_ = r.bus.Publish(ev)
}
