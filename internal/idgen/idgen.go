// Package idgen derives the stable, content-addressed node IDs described in
// spec §3: "<kind>:<hash32>" where hash32 is collision-resistant over at
// least 128 bits of hash input derived from (filePath, kind, name, startLine).
package idgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/standardbeagle/codegraph/internal/types"
)

// NodeID returns the stable identifier for a declaration. Changing
// startLine moves the entity to a new ID by design (spec §3 invariants):
// re-extraction of a moved declaration drops the old edges rather than
// silently rewriting them underneath a caller.
func NodeID(filePath string, kind types.Kind, name string, startLine int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", filePath, kind, name, startLine)
	sum := h.Sum(nil)
	// hash32: 32 hex characters == 128 bits, satisfying the collision
	// resistance floor in spec §3 while keeping IDs short and greppable.
	return string(kind) + ":" + hex.EncodeToString(sum[:16])
}

// FileNodeID is the stable ID of the synthetic file node that roots every
// containment chain for a given path (spec §3 invariants).
func FileNodeID(filePath string) string {
	return NodeID(filePath, types.KindFile, filePath, 0)
}
