// ABOUTME: Immutable B+Tree bulk-loaded from sorted terms
// ABOUTME: Built once per index generation, then read concurrently without locks

package termtree

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrUnsorted indicates Build input is not strictly ascending
	ErrUnsorted = errors.New("termtree: items not strictly ascending")

	// ErrKeyTooLarge indicates an item exceeds the page limits
	ErrKeyTooLarge = errors.New("termtree: key or value too large")
)

// Item is one key/value pair handed to Build
type Item struct {
	Key []byte
	Val []byte
}

// Tree is a read-only B+Tree. Pages live in an in-memory arena and are
// addressed by their arena index; index 0 is reserved so a zero root means
// an empty tree.
type Tree struct {
	pages [][]byte
	root  uint64
	count int
}

// Build bulk-loads items, which must be sorted by key with no duplicates
// and no empty keys. Leaves are packed left to right, then each internal
// level is packed from the first keys of the level below.
func Build(items []Item) (*Tree, error) {
	tree := &Tree{pages: make([][]byte, 1, len(items)/64+2)}

	for i, it := range items {
		if len(it.Key) == 0 || len(it.Key) > MaxKeySize || len(it.Val) > MaxValSize {
			return nil, fmt.Errorf("%w: item %d", ErrKeyTooLarge, i)
		}
		if i > 0 && bytes.Compare(items[i-1].Key, it.Key) >= 0 {
			return nil, fmt.Errorf("%w: item %d", ErrUnsorted, i)
		}
	}
	if len(items) == 0 {
		return tree, nil
	}

	// The leftmost leaf starts with an empty sentinel key covering the whole key space
	level := make([]Item, 0, len(items)+1)
	level = append(level, Item{})
	level = append(level, items...)

	kids := tree.packLevel(BNODE_LEAF, level, nil)
	for len(kids) > 1 {
		next := make([]Item, len(kids))
		ptrs := make([]uint64, len(kids))
		for i, ptr := range kids {
			next[i] = Item{Key: BNode(tree.pages[ptr]).getKey(0)}
			ptrs[i] = ptr
		}
		kids = tree.packLevel(BNODE_NODE, next, ptrs)
	}

	tree.root = kids[0]
	tree.count = len(items)
	return tree, nil
}

// packLevel fills pages of one level greedily and returns their pointers
func (tree *Tree) packLevel(btype uint16, level []Item, ptrs []uint64) []uint64 {
	var out []uint64
	for start := 0; start < len(level); {
		size := HEADER
		end := start
		for end < len(level) {
			next := size + pairSize(level[end].Key, level[end].Val)
			if next > BTREE_PAGE_SIZE && end > start {
				break
			}
			size = next
			end++
		}

		node := BNode(make([]byte, BTREE_PAGE_SIZE))
		node.setHeader(btype, uint16(end-start))
		for i := start; i < end; i++ {
			var ptr uint64
			if ptrs != nil {
				ptr = ptrs[i]
			}
			nodeAppendKV(node, uint16(i-start), ptr, level[i].Key, level[i].Val)
		}

		out = append(out, tree.alloc(node))
		start = end
	}
	return out
}

func (tree *Tree) alloc(node BNode) uint64 {
	tree.pages = append(tree.pages, node)
	return uint64(len(tree.pages) - 1)
}

func (tree *Tree) page(ptr uint64) BNode {
	return BNode(tree.pages[ptr])
}

// Len returns the number of items in the tree
func (tree *Tree) Len() int {
	return tree.count
}

// Pages returns the number of pages allocated, for size accounting
func (tree *Tree) Pages() int {
	return len(tree.pages) - 1
}

// Get retrieves a value by exact key
func (tree *Tree) Get(key []byte) ([]byte, bool) {
	if tree.root == 0 || len(key) == 0 {
		return nil, false
	}

	node := tree.page(tree.root)
	for {
		idx := nodeLookupLE(node, key)
		switch node.btype() {
		case BNODE_LEAF:
			if bytes.Equal(key, node.getKey(idx)) {
				return node.getVal(idx), true
			}
			return nil, false
		case BNODE_NODE:
			node = tree.page(node.getPtr(idx))
		default:
			panic("termtree: bad node type")
		}
	}
}
