// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tree implements the append-only merkle tree of shielded notes.
//
// The tree is dense: leaves occupy consecutive positions and are never
// deleted. Missing subtrees hash to precomputed empty-subtree values, so the
// root is defined for any leaf count and re-deriving it from stored leaves
// reproduces the on-chain root bit-for-bit.
package tree

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/dusk-network/dusk-go/dusk"
)

// domain separators prevent second-preimage attacks on the tree.
var (
	domainLeaf = []byte{0x00}
	domainNode = []byte{0x01}
)

// emptyHashes[l] is the hash of an empty subtree of height l.
var emptyHashes [dusk.NoteTreeDepth + 1]dusk.Bytes32

func init() {
	emptyHashes[0] = dusk.Blake2b(domainLeaf)
	for i := 1; i <= dusk.NoteTreeDepth; i++ {
		emptyHashes[i] = dusk.Blake2b(domainNode, emptyHashes[i-1].Bytes(), emptyHashes[i-1].Bytes())
	}
}

func hashNode(left, right dusk.Bytes32) dusk.Bytes32 {
	return dusk.Blake2b(domainNode, left.Bytes(), right.Bytes())
}

// Opening is an inclusion proof of a leaf at a position.
type Opening struct {
	Pos      uint64
	Leaf     dusk.Bytes32
	Siblings [dusk.NoteTreeDepth]dusk.Bytes32
}

// Verify folds the opening path and compares against the given root.
func (o *Opening) Verify(root dusk.Bytes32) bool {
	current := o.Leaf
	for level := 0; level < dusk.NoteTreeDepth; level++ {
		if o.Pos>>level&1 == 0 {
			current = hashNode(current, o.Siblings[level])
		} else {
			current = hashNode(o.Siblings[level], current)
		}
	}
	return current == root
}

// Tree is the append-only note tree.
//
// Mutations happen on the single execution thread only. Reverting an
// inter-contract call truncates the tree back to its checkpointed length,
// which is the only way leaves ever disappear.
type Tree struct {
	levels [dusk.NoteTreeDepth + 1][]dusk.Bytes32
	roots  *lru.Cache // retained roots window
}

// New creates an empty tree retaining historyLen past roots.
func New(historyLen int) *Tree {
	roots, err := lru.New(historyLen)
	if err != nil {
		panic(err)
	}
	return &Tree{roots: roots}
}

// Len returns the number of leaves.
func (t *Tree) Len() uint64 {
	return uint64(len(t.levels[0]))
}

// Root returns the current root.
func (t *Tree) Root() dusk.Bytes32 {
	if len(t.levels[dusk.NoteTreeDepth]) == 0 {
		return emptyHashes[dusk.NoteTreeDepth]
	}
	return t.levels[dusk.NoteTreeDepth][0]
}

// Append appends a leaf and returns its position.
func (t *Tree) Append(leaf dusk.Bytes32) uint64 {
	pos := uint64(len(t.levels[0]))
	t.levels[0] = append(t.levels[0], leaf)

	for level := 1; level <= dusk.NoteTreeDepth; level++ {
		idx := pos >> level
		node := t.node(level-1, idx*2)
		node = hashNode(node, t.node(level-1, idx*2+1))
		if idx < uint64(len(t.levels[level])) {
			t.levels[level][idx] = node
		} else {
			t.levels[level] = append(t.levels[level], node)
		}
	}
	return pos
}

// node returns the node at (level, idx), or the empty-subtree hash when the
// index is beyond the populated range.
func (t *Tree) node(level int, idx uint64) dusk.Bytes32 {
	if idx < uint64(len(t.levels[level])) {
		return t.levels[level][idx]
	}
	return emptyHashes[level]
}

// Opening returns the inclusion proof of the leaf at pos, or false when the
// position is unallocated.
func (t *Tree) Opening(pos uint64) (*Opening, bool) {
	if pos >= t.Len() {
		return nil, false
	}
	o := Opening{Pos: pos, Leaf: t.levels[0][pos]}
	for level := 0; level < dusk.NoteTreeDepth; level++ {
		o.Siblings[level] = t.node(level, pos>>level^1)
	}
	return &o, true
}

// TruncateTo removes all leaves at positions >= n and recomputes the
// affected right edge of the tree.
func (t *Tree) TruncateTo(n uint64) {
	if n >= t.Len() {
		return
	}
	length := n
	t.levels[0] = t.levels[0][:length]
	for level := 1; level <= dusk.NoteTreeDepth; level++ {
		if length > 0 {
			length = (length + 1) / 2
		}
		if length == 0 {
			t.levels[level] = t.levels[level][:0]
			continue
		}
		t.levels[level] = t.levels[level][:length]
		// the last node may have lost its right child
		idx := length - 1
		t.levels[level][idx] = hashNode(t.node(level-1, idx*2), t.node(level-1, idx*2+1))
	}
}

// RetainRoot records the current root into the bounded history window.
// Called once per accepted block.
func (t *Tree) RetainRoot() {
	t.roots.Add(t.Root(), struct{}{})
}

// KnownRoot reports whether the given root is the current root or a retained
// historical one. Proofs bound to unknown roots must be rejected.
func (t *Tree) KnownRoot(root dusk.Bytes32) bool {
	if root == t.Root() {
		return true
	}
	return t.roots.Contains(root)
}
