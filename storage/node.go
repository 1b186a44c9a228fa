package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/group"
	"github.com/poiesic/adstore/registry"
)

// MaxTreeDepth bounds how deep a stored tree may be.
const MaxTreeDepth = 32

// NodeKind identifies what a stored node rebuilds into.
type NodeKind uint8

const (
	KindWorkspace NodeKind = iota + 1
	KindGroup
)

func (k NodeKind) String() string {
	switch k {
	case KindWorkspace:
		return "workspace"
	case KindGroup:
		return "group"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is the persisted form of one named object. Groups list their
// members as child node IDs.
type Node struct {
	ID         core.ID
	Name       string
	Kind       NodeKind
	MemorySize uint64
	Title      string
	Spectra    [][]float64
	Properties map[string]string
	Children   []core.ID
	SavedAt    time.Time
}

// RootKey returns the canonical storage key for a top-level name.
// Stored names are matched case-insensitively.
func RootKey(name string) string {
	return strings.ToLower(name)
}

// Flatten converts obj, stored under name, and for groups every nested
// member into nodes. The first node is the root.
func Flatten(name string, obj core.NamedObject, savedAt time.Time) ([]*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: object has no name", ErrInvalidQuery)
	}
	var nodes []*Node
	if _, err := flatten(obj, RootKey(name), 0, savedAt, &nodes); err != nil {
		return nil, err
	}
	nodes[0].Name = name
	return nodes, nil
}

func flatten(obj core.NamedObject, path string, depth int, savedAt time.Time, nodes *[]*Node) (core.ID, error) {
	if depth > MaxTreeDepth {
		return 0, fmt.Errorf("%w: stored tree deeper than %d", core.ErrTooDeepNesting, MaxTreeDepth)
	}
	node := &Node{
		ID:         core.IDFromContent(path),
		Name:       obj.Name(),
		MemorySize: obj.MemorySize(),
		SavedAt:    savedAt,
	}
	*nodes = append(*nodes, node)

	switch o := obj.(type) {
	case *core.Workspace:
		node.Kind = KindWorkspace
		node.Title = o.Title()
		node.Spectra = o.Spectra()
		node.Properties = o.Run().Properties()
	case core.Grouping:
		node.Kind = KindGroup
		for i, member := range o.Items() {
			childPath := fmt.Sprintf("%s/%d:%s", path, i, strings.ToLower(member.Name()))
			id, err := flatten(member, childPath, depth+1, savedAt, nodes)
			if err != nil {
				return 0, err
			}
			node.Children = append(node.Children, id)
		}
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedKind, obj)
	}
	return node.ID, nil
}

// NodeLookup fetches a stored node by ID.
type NodeLookup func(id core.ID) (*Node, error)

// Build rebuilds the object tree rooted at root. Groups are created against
// reg with opts but are not bound in it; nested members get their stored
// names.
func Build(root *Node, lookup NodeLookup, reg *registry.Registry, opts ...group.Option) (core.NamedObject, error) {
	return build(root, lookup, reg, opts, 0)
}

func build(node *Node, lookup NodeLookup, reg *registry.Registry, opts []group.Option, depth int) (core.NamedObject, error) {
	if depth > MaxTreeDepth {
		return nil, fmt.Errorf("%w: stored tree deeper than %d", core.ErrTooDeepNesting, MaxTreeDepth)
	}
	switch node.Kind {
	case KindWorkspace:
		return core.NewWorkspaceFromData(node.Title, node.Spectra, node.Properties), nil
	case KindGroup:
		g, err := group.New(reg, opts...)
		if err != nil {
			return nil, err
		}
		for _, id := range node.Children {
			childNode, err := lookup(id)
			if err != nil {
				return nil, err
			}
			child, err := build(childNode, lookup, reg, opts, depth+1)
			if err != nil {
				return nil, err
			}
			if childNode.Name != "" {
				if err := child.SetName(childNode.Name, true); err != nil {
					return nil, err
				}
			}
			if err := g.AddWorkspace(child); err != nil {
				return nil, err
			}
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, node.Kind)
	}
}
