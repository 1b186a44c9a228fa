package group

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"weak"

	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/notify"
	"github.com/poiesic/adstore/registry"
)

// DefaultMaxNesting bounds the depth of recursive group operations.
const DefaultMaxNesting = 5

// Group is a named object holding an ordered list of other named objects.
type Group struct {
	nameMu sync.RWMutex
	name   string

	mu      sync.Mutex
	members []core.NamedObject
	counter int

	reg        *registry.Registry
	matcher    core.NameMatcher
	maxNesting int
	logger     *slog.Logger

	obsMu     sync.Mutex
	observing bool
	suspended int
	observer  *registryObserver
}

var _ core.Grouping = (*Group)(nil)

// Option configures a Group.
type Option func(*Group)

// WithMaxNesting sets the nesting bound for recursive operations.
func WithMaxNesting(n int) Option {
	return func(g *Group) {
		if n < 0 {
			n = 0
		}
		g.maxNesting = n
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Group) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// WithObserving sets whether the group starts observing the registry.
// Default is true.
func WithObserving(enable bool) Option {
	return func(g *Group) {
		g.observing = enable
	}
}

// New creates an empty, detached group bound to reg.
func New(reg *registry.Registry, opts ...Option) (*Group, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	g := &Group{
		reg:        reg,
		matcher:    reg.Matcher(),
		maxNesting: DefaultMaxNesting,
		logger:     slog.Default(),
		observing:  true,
	}
	g.observer = &registryObserver{g: weak.Make(g)}
	for _, opt := range opts {
		opt(g)
	}
	if g.observing {
		g.observing = false
		g.ObserveRegistry(true)
	}
	// The bus only holds the observer, so an unreachable group is collected
	// and its subscription dropped here.
	runtime.AddCleanup(g, unsubscribe, observerHandle{bus: reg.Bus(), obs: g.observer})
	return g, nil
}

type observerHandle struct {
	bus *notify.Bus
	obs *registryObserver
}

func unsubscribe(h observerHandle) {
	h.bus.Unsubscribe(notify.ObjectRemoved, h.obs)
	h.bus.Unsubscribe(notify.ObjectReplaced, h.obs)
}

// Close stops observing the registry. The group stays usable.
func (g *Group) Close() {
	g.ObserveRegistry(false)
}

// Name returns the group name.
func (g *Group) Name() string {
	g.nameMu.RLock()
	defer g.nameMu.RUnlock()
	return g.name
}

func (g *Group) setOwnName(name string) {
	g.nameMu.Lock()
	g.name = name
	g.nameMu.Unlock()
}

// SetName renames the group and gives every unnamed member a generated name.
//
// If a generated name is bound in the registry to a different object, all
// names assigned during this call are reverted, the group keeps its previous
// name and core.ErrNameConflict is returned. force skips that check.
//
// An empty name detaches the group: members lose their names unless they
// are still bound at the top level of the registry.
func (g *Group) SetName(name string, force bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if name == "" {
		for _, m := range g.members {
			if m.Name() == "" || g.reg.Count(m) > 0 {
				continue
			}
			if err := m.SetName("", false); err != nil {
				g.logger.Warn("failed to clear member name", "group", g.Name(), "member", m.Name(), "err", err)
			}
		}
		g.setOwnName("")
		return nil
	}

	savedCounter := g.counter
	var assigned []core.NamedObject
	rollback := func() {
		for _, m := range assigned {
			if err := m.SetName("", true); err != nil {
				g.logger.Warn("failed to revert member name", "group", g.Name(), "member", m.Name(), "err", err)
			}
		}
		g.counter = savedCounter
	}

	for _, m := range g.members {
		if m.Name() != "" {
			continue
		}
		candidate := g.nextNameLocked(name, m)
		if !force && g.boundToOther(candidate, m) {
			rollback()
			return fmt.Errorf("%w: %s already exists", core.ErrNameConflict, candidate)
		}
		if err := m.SetName(candidate, force); err != nil {
			rollback()
			return err
		}
		assigned = append(assigned, m)
	}

	g.setOwnName(name)
	return nil
}

// nextNameLocked returns the next generated name not used by a sibling.
// Must be called with g.mu held.
func (g *Group) nextNameLocked(base string, self core.NamedObject) string {
	for {
		g.counter++
		candidate := fmt.Sprintf("%s_%d", base, g.counter)
		if !g.siblingNamedLocked(candidate, self) {
			return candidate
		}
	}
}

func (g *Group) siblingNamedLocked(name string, self core.NamedObject) bool {
	for _, m := range g.members {
		if m != self && g.matcher.Match(m.Name(), name) {
			return true
		}
	}
	return false
}

// boundToOther reports whether name is bound in the registry to an object
// other than obj.
func (g *Group) boundToOther(name string, obj core.NamedObject) bool {
	existing, err := g.reg.Retrieve(name)
	return err == nil && existing != obj
}

func (g *Group) indexLocked(obj core.NamedObject) int {
	for i, m := range g.members {
		if m == obj {
			return i
		}
	}
	return -1
}

// Add moves the object bound to name in the registry into the group.
// Returns core.ErrNotFound if name is not bound.
func (g *Group) Add(name string) error {
	obj, err := g.reg.Retrieve(name)
	if err != nil {
		return err
	}
	if err := g.AddWorkspace(obj); err != nil {
		return err
	}
	// A detached group does not adopt; the object still leaves the top level.
	if existing, err := g.reg.Retrieve(name); err == nil && existing == obj {
		g.withoutObservation(func() {
			if err := g.reg.RemoveFromTopLevel(name); err != nil && !errors.Is(err, core.ErrNotFound) {
				g.logger.Warn("failed to detach member from top level", "group", g.Name(), "member", name, "err", err)
			}
		})
	}
	return nil
}

// AddWorkspace appends obj to the group. Adding an object that is already a
// member is a no-op. When the group is named, obj receives a generated name
// if it has none, or is adopted from the registry top level if it has one.
func (g *Group) AddWorkspace(obj core.NamedObject) error {
	if obj == nil {
		return fmt.Errorf("%w: nil member", core.ErrTypeMismatch)
	}
	if err := g.checkCycle(obj); err != nil {
		return err
	}

	g.mu.Lock()
	if g.indexLocked(obj) >= 0 {
		g.mu.Unlock()
		g.logger.Warn("object is already a member", "group", g.Name(), "member", obj.Name())
		return nil
	}

	adopt := ""
	if groupName := g.Name(); groupName != "" {
		memberName := obj.Name()
		switch {
		case memberName == "":
			saved := g.counter
			candidate := g.nextNameLocked(groupName, obj)
			if g.boundToOther(candidate, obj) {
				g.counter = saved
				g.mu.Unlock()
				return fmt.Errorf("%w: %s already exists", core.ErrNameConflict, candidate)
			}
			if err := obj.SetName(candidate, false); err != nil {
				g.counter = saved
				g.mu.Unlock()
				return err
			}
		default:
			if existing, err := g.reg.Retrieve(memberName); err == nil && existing == obj {
				adopt = memberName
			}
			if g.siblingNamedLocked(memberName, obj) {
				candidate := g.nextNameLocked(groupName, obj)
				g.logger.Debug("renaming duplicate member", "group", groupName, "from", memberName, "to", candidate)
				if err := obj.SetName(candidate, true); err != nil {
					g.mu.Unlock()
					return err
				}
			}
		}
	}
	g.members = append(g.members, obj)
	g.mu.Unlock()

	if adopt != "" {
		g.withoutObservation(func() {
			if err := g.reg.RemoveFromTopLevel(adopt); err != nil && !errors.Is(err, core.ErrNotFound) {
				g.logger.Warn("failed to adopt member", "group", g.Name(), "member", adopt, "err", err)
			}
		})
	}
	g.Updated()
	return nil
}

// checkCycle rejects obj if it is g or a group that already contains g.
func (g *Group) checkCycle(obj core.NamedObject) error {
	if obj == core.NamedObject(g) {
		return fmt.Errorf("%w: group %q cannot contain itself", core.ErrCycle, g.Name())
	}
	sub, ok := obj.(*Group)
	if !ok {
		return nil
	}
	n, err := sub.Count(g)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %q already contains %q", core.ErrCycle, sub.Name(), g.Name())
	}
	return nil
}

// RemoveWorkspace removes obj from this group only. The registry is not
// modified. Removing a non-member is a no-op.
func (g *Group) RemoveWorkspace(obj core.NamedObject) {
	g.mu.Lock()
	idx := g.indexLocked(obj)
	if idx < 0 {
		g.mu.Unlock()
		return
	}
	g.members = slices.Delete(g.members, idx, idx+1)
	g.mu.Unlock()
	g.Updated()
}

// Remove takes the first direct member called name out of the group and
// binds it at the registry top level under that name. Nested groups are not
// searched; an absent name is a no-op. Returns core.ErrDuplicateName, with
// the group unchanged, if the name is bound to a different object.
func (g *Group) Remove(name string) error {
	g.mu.Lock()
	idx := -1
	for i, m := range g.members {
		if g.matcher.Match(m.Name(), name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.mu.Unlock()
		return nil
	}
	member := g.members[idx]
	memberName := member.Name()
	if memberName != "" && g.boundToOther(memberName, member) {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrDuplicateName, memberName)
	}
	g.members = slices.Delete(g.members, idx, idx+1)
	g.mu.Unlock()

	err := g.pushToTopLevel(member)
	g.Updated()
	return err
}

// pushToTopLevel binds a named member at the registry top level unless it
// is already bound there.
func (g *Group) pushToTopLevel(member core.NamedObject) error {
	name := member.Name()
	if name == "" {
		return nil
	}
	if existing, err := g.reg.Retrieve(name); err == nil && existing == member {
		return nil
	}
	if err := g.reg.Add(name, member); err != nil {
		return fmt.Errorf("returning %s to registry: %w", name, err)
	}
	return nil
}

// RemoveAll empties the group and returns every named member to the
// registry top level under its current name. Returns core.ErrDuplicateName,
// with the group unchanged, if a member's name is bound to a different
// object. Members that still cannot be returned stay in the group.
func (g *Group) RemoveAll() error {
	g.mu.Lock()
	for _, m := range g.members {
		if name := m.Name(); name != "" && g.boundToOther(name, m) {
			g.mu.Unlock()
			return fmt.Errorf("%w: %s", core.ErrDuplicateName, name)
		}
	}
	members := g.members
	g.members = nil
	g.mu.Unlock()

	var errs []error
	var failed []core.NamedObject
	for _, m := range members {
		if err := g.pushToTopLevel(m); err != nil {
			errs = append(errs, err)
			failed = append(failed, m)
		}
	}
	if len(failed) > 0 {
		g.mu.Lock()
		g.members = append(failed, g.members...)
		g.mu.Unlock()
	}
	g.Updated()
	return errors.Join(errs...)
}

// DeepRemove removes every member called name from this group and all
// nested groups, and clears the removed members' names. A removed member
// that is a group keeps its own members untouched. If this group ends up
// empty while registered, it removes itself from the registry.
//
// The whole tree is checked against the nesting bound first; on
// core.ErrTooDeepNesting nothing is modified.
func (g *Group) DeepRemove(name string) error {
	if err := g.checkNesting(0, g.maxNesting); err != nil {
		return err
	}

	var removed []core.NamedObject
	var touched []*Group
	g.deepRemove(name, &removed, &touched)

	for _, m := range removed {
		if mn := m.Name(); mn != "" {
			if existing, err := g.reg.Retrieve(mn); err == nil && existing == m {
				if err := g.reg.Remove(mn); err != nil {
					g.logger.Warn("failed to remove member from registry", "member", mn, "err", err)
				}
				continue
			}
		}
		if sub, ok := m.(*Group); ok {
			sub.setOwnName("")
		} else if err := m.SetName("", false); err != nil {
			g.logger.Warn("failed to clear member name", "member", m.Name(), "err", err)
		}
	}
	for _, t := range touched {
		t.Updated()
	}

	g.removeSelfIfEmpty()
	return nil
}

func (g *Group) deepRemove(name string, removed *[]core.NamedObject, touched *[]*Group) {
	g.mu.Lock()
	defer g.mu.Unlock()

	kept := make([]core.NamedObject, 0, len(g.members))
	for _, m := range g.members {
		if g.matcher.Match(m.Name(), name) {
			*removed = append(*removed, m)
			continue
		}
		if sub, ok := m.(*Group); ok {
			sub.deepRemove(name, removed, touched)
		}
		kept = append(kept, m)
	}
	if len(kept) != len(g.members) {
		g.members = kept
		*touched = append(*touched, g)
	}
}

func (g *Group) removeSelfIfEmpty() {
	name := g.Name()
	if name == "" || !g.IsEmpty() {
		return
	}
	if existing, err := g.reg.Retrieve(name); err != nil || existing != core.NamedObject(g) {
		return
	}
	if err := g.reg.Remove(name); err != nil && !errors.Is(err, core.ErrNotFound) {
		g.logger.Warn("failed to remove empty group", "group", name, "err", err)
	}
}

// DeepRemoveAll empties the group and deletes every member from the
// registry: members lose their names and are not returned to the top level.
func (g *Group) DeepRemoveAll() error {
	for {
		g.mu.Lock()
		if len(g.members) == 0 {
			g.mu.Unlock()
			break
		}
		member := g.members[0]
		g.members = g.members[1:]
		g.mu.Unlock()

		if err := g.discard(member); err != nil {
			// Put the member back so it is not lost.
			g.mu.Lock()
			g.members = append([]core.NamedObject{member}, g.members...)
			g.mu.Unlock()
			g.Updated()
			return err
		}
	}
	g.Updated()
	return nil
}

// discard unbinds member from the top level, or clears its name when it is
// not bound anywhere.
func (g *Group) discard(member core.NamedObject) error {
	name := member.Name()
	if name != "" {
		if existing, err := g.reg.Retrieve(name); err == nil && existing == member {
			if err := g.reg.Remove(name); err != nil && !errors.Is(err, core.ErrNotFound) {
				return err
			}
			return nil
		}
	}
	if g.reg.Count(member) == 0 {
		if err := member.SetName("", false); err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
	}
	return nil
}

// checkNesting fails if any group below g lies deeper than the bound.
func (g *Group) checkNesting(nesting, limit int) error {
	if nesting > limit {
		return fmt.Errorf("%w: depth %d exceeds %d", core.ErrTooDeepNesting, nesting, limit)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if sub, ok := m.(*Group); ok {
			if err := sub.checkNesting(nesting+1, limit); err != nil {
				return err
			}
		}
	}
	return nil
}

// Contains reports whether a direct member is called name.
func (g *Group) Contains(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if g.matcher.Match(m.Name(), name) {
			return true
		}
	}
	return false
}

// Item returns the member at index.
// Returns core.ErrIndexOutOfRange when index is outside [0, Size()).
func (g *Group) Item(index int) (core.NamedObject, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index < 0 || index >= len(g.members) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", core.ErrIndexOutOfRange, index, len(g.members))
	}
	return g.members[index], nil
}

// ItemByName returns the first direct member called name.
// Returns core.ErrNotFound if there is none.
func (g *Group) ItemByName(name string) (core.NamedObject, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if g.matcher.Match(m.Name(), name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in group %s", core.ErrNotFound, name, g.Name())
}

// FindItem searches this group and nested groups depth-first and returns
// the first object called name. ok is false when nothing matches.
func (g *Group) FindItem(name string) (core.NamedObject, bool, error) {
	return g.findItem(name, 0, g.maxNesting)
}

func (g *Group) findItem(name string, nesting, limit int) (core.NamedObject, bool, error) {
	if nesting > limit {
		return nil, false, fmt.Errorf("%w: depth %d exceeds %d", core.ErrTooDeepNesting, nesting, limit)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if g.matcher.Match(m.Name(), name) {
			return m, true, nil
		}
		if sub, ok := m.(*Group); ok {
			found, ok, err := sub.findItem(name, nesting+1, limit)
			if err != nil {
				return nil, false, err
			}
			if ok {
				return found, true, nil
			}
		}
	}
	return nil, false, nil
}

// Count returns how many times obj appears in this group and nested groups.
func (g *Group) Count(obj core.NamedObject) (int, error) {
	return g.count(obj, 0, g.maxNesting)
}

func (g *Group) count(obj core.NamedObject, nesting, limit int) (int, error) {
	if nesting > limit {
		return 0, fmt.Errorf("%w: depth %d exceeds %d", core.ErrTooDeepNesting, nesting, limit)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, m := range g.members {
		if m == obj {
			n++
		}
		if sub, ok := m.(*Group); ok {
			c, err := sub.count(obj, nesting+1, limit)
			if err != nil {
				return 0, err
			}
			n += c
		}
	}
	return n, nil
}

// IsEmpty reports whether the group has no members.
func (g *Group) IsEmpty() bool {
	return g.Size() == 0
}

// Size returns the number of direct members.
func (g *Group) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Items returns a snapshot of the direct members.
func (g *Group) Items() []core.NamedObject {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.members)
}

// Names returns a snapshot of the direct members' names.
func (g *Group) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, len(g.members))
	for i, m := range g.members {
		names[i] = m.Name()
	}
	return names
}

// SortByName orders the members by name.
func (g *Group) SortByName() {
	g.mu.Lock()
	slices.SortStableFunc(g.members, func(a, b core.NamedObject) int {
		return strings.Compare(g.matcher.Key(a.Name()), g.matcher.Key(b.Name()))
	})
	g.mu.Unlock()
	g.Updated()
}

// AreNamesSimilar reports whether every member is named "<group>_<suffix>",
// splitting at the last underscore. False for an empty group.
func (g *Group) AreNamesSimilar() bool {
	groupName := g.Name()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.members) == 0 {
		return false
	}
	for _, m := range g.members {
		name := m.Name()
		idx := strings.LastIndex(name, "_")
		if idx < 0 || !g.matcher.Match(name[:idx], groupName) {
			return false
		}
	}
	return true
}

// IsMultiperiod reports whether every member holds histogram data with a
// positive "nperiods" run property. False for an empty group.
func (g *Group) IsMultiperiod() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.members) == 0 {
		g.logger.Debug("not a multiperiod group: no members", "group", g.Name())
		return false
	}
	for _, m := range g.members {
		h, ok := m.(core.Histogrammed)
		if !ok {
			g.logger.Debug("not a multiperiod group: member has no histograms", "group", g.Name(), "member", m.Name())
			return false
		}
		n, err := h.Run().IntProperty(core.NPeriodsProperty)
		if err != nil || n < 1 {
			g.logger.Debug("not a multiperiod group: bad period count", "group", g.Name(), "member", m.Name(), "err", err)
			return false
		}
	}
	return true
}

// MemorySize returns the sum of the direct members' memory sizes.
func (g *Group) MemorySize() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var total uint64
	for _, m := range g.members {
		total += m.MemorySize()
	}
	return total
}

// Updated publishes GroupUpdated when the group observes a registry it is
// bound in. Not being registered is expected and ignored.
func (g *Group) Updated() {
	if !g.IsObserving() {
		return
	}
	name := g.Name()
	if name == "" {
		return
	}
	err := g.reg.NotifyGroupUpdated(name, g)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		g.logger.Warn("group update notification failed", "group", name, "err", err)
	}
}

// ObserveRegistry turns registry observation on or off. Idempotent.
func (g *Group) ObserveRegistry(enable bool) {
	g.obsMu.Lock()
	defer g.obsMu.Unlock()
	if enable == g.observing {
		return
	}
	g.observing = enable
	if g.suspended == 0 {
		g.subscribeLocked(enable)
	}
}

// subscribeLocked must be called with g.obsMu held.
func (g *Group) subscribeLocked(enable bool) {
	bus := g.reg.Bus()
	if enable {
		bus.Subscribe(notify.ObjectRemoved, g.observer)
		bus.Subscribe(notify.ObjectReplaced, g.observer)
		return
	}
	bus.Unsubscribe(notify.ObjectRemoved, g.observer)
	bus.Unsubscribe(notify.ObjectReplaced, g.observer)
}

// IsObserving reports whether the group observes the registry.
func (g *Group) IsObserving() bool {
	g.obsMu.Lock()
	defer g.obsMu.Unlock()
	return g.observing
}

// withoutObservation runs fn with observation suspended so the group does
// not react to its own registry changes.
// Suspensions nest; ObserveRegistry calls made meanwhile take effect when
// the last one ends.
func (g *Group) withoutObservation(fn func()) {
	g.obsMu.Lock()
	g.suspended++
	if g.suspended == 1 && g.observing {
		g.subscribeLocked(false)
	}
	g.obsMu.Unlock()

	defer func() {
		g.obsMu.Lock()
		g.suspended--
		if g.suspended == 0 && g.observing {
			g.subscribeLocked(true)
		}
		g.obsMu.Unlock()
	}()
	fn()
}

type registryObserver struct {
	g weak.Pointer[Group]
}

func (o *registryObserver) HandleEvent(ev notify.Event) error {
	g := o.g.Value()
	if g == nil {
		return nil
	}
	switch ev.Type {
	case notify.ObjectRemoved:
		if ev.Object == nil || ev.Object == core.NamedObject(g) {
			return nil
		}
		g.mu.Lock()
		idx := g.indexLocked(ev.Object)
		if idx < 0 {
			g.mu.Unlock()
			return nil
		}
		g.members = slices.Delete(g.members, idx, idx+1)
		g.mu.Unlock()
		g.Updated()
	case notify.ObjectReplaced:
		if ev.Previous == nil || ev.Previous == ev.Object {
			return nil
		}
		g.mu.Lock()
		idx := g.indexLocked(ev.Previous)
		if idx < 0 || g.indexLocked(ev.Object) >= 0 {
			g.mu.Unlock()
			return nil
		}
		g.members[idx] = ev.Object
		g.mu.Unlock()
		g.Updated()
	}
	return nil
}

// String returns a one-line summary.
func (g *Group) String() string {
	name := g.Name()
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("%s (group, %d members)", name, g.Size())
}

// Print returns an indented tree of the group and its nested members.
func (g *Group) Print() (string, error) {
	var sb strings.Builder
	if err := g.print(&sb, 0, g.maxNesting); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Group) print(sb *strings.Builder, nesting, limit int) error {
	if nesting > limit {
		return fmt.Errorf("%w: depth %d exceeds %d", core.ErrTooDeepNesting, nesting, limit)
	}
	indent := strings.Repeat("  ", nesting)
	sb.WriteString(indent + g.String() + "\n")

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if sub, ok := m.(*Group); ok {
			if err := sub.print(sb, nesting+1, limit); err != nil {
				return err
			}
			continue
		}
		sb.WriteString(fmt.Sprintf("%s  %s\n", indent, m.Name()))
	}
	return nil
}
