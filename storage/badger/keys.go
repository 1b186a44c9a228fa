package badger

import (
	"fmt"

	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/storage"
)

// Key prefixes for different data types
const (
	nodePrefix  = "objnode"
	rootPrefix  = "objroot"
	manifestKey = "manifest:registry"
)

// makeNodeKey generates a key for a node by ID.
func makeNodeKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", nodePrefix, id))
}

// makeRootKey generates the key mapping a top-level name to its root node.
// Format: prefix:lowercased-name
func makeRootKey(name string) []byte {
	return []byte(rootPrefix + ":" + storage.RootKey(name))
}

// rootKeyPrefix is the iteration prefix for all top-level names.
func rootKeyPrefix() []byte {
	return []byte(rootPrefix + ":")
}
