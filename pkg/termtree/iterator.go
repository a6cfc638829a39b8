// ABOUTME: B+Tree iterator for ordered and prefix scans
// ABOUTME: Implements SeekLE and Next for forward iteration over leaves

package termtree

import "bytes"

// Iter walks the tree in key order. An Iter is not safe for concurrent use,
// but any number of iterators may walk the same Tree at once.
type Iter struct {
	tree *Tree
	path []BNode  // nodes from root to the current leaf
	pos  []uint16 // position at each level
}

// NewIterator creates a new iterator for the tree
func (tree *Tree) NewIterator() *Iter {
	return &Iter{
		tree: tree,
		path: make([]BNode, 0, 8),
		pos:  make([]uint16, 0, 8),
	}
}

// SeekLE positions the iterator at the last key <= key.
// Returns false if the tree is empty.
func (iter *Iter) SeekLE(key []byte) bool {
	iter.path = iter.path[:0]
	iter.pos = iter.pos[:0]

	if iter.tree.root == 0 {
		return false
	}

	node := iter.tree.page(iter.tree.root)
	for {
		iter.path = append(iter.path, node)
		idx := nodeLookupLE(node, key)
		iter.pos = append(iter.pos, idx)

		if node.btype() == BNODE_LEAF {
			return true
		}
		node = iter.tree.page(node.getPtr(idx))
	}
}

// Valid returns true if the iterator is positioned at a key
func (iter *Iter) Valid() bool {
	if len(iter.path) == 0 {
		return false
	}
	leaf := iter.path[len(iter.path)-1]
	return iter.pos[len(iter.pos)-1] < leaf.nkeys()
}

// Key returns the current key
func (iter *Iter) Key() []byte {
	if !iter.Valid() {
		return nil
	}
	leaf := iter.path[len(iter.path)-1]
	return leaf.getKey(iter.pos[len(iter.pos)-1])
}

// Val returns the current value
func (iter *Iter) Val() []byte {
	if !iter.Valid() {
		return nil
	}
	leaf := iter.path[len(iter.path)-1]
	return leaf.getVal(iter.pos[len(iter.pos)-1])
}

// Next advances to the next key. Returns false at the end of the tree.
func (iter *Iter) Next() bool {
	if len(iter.path) == 0 {
		return false
	}

	leafIdx := len(iter.pos) - 1
	iter.pos[leafIdx]++
	if iter.pos[leafIdx] < iter.path[leafIdx].nkeys() {
		return true
	}

	// Leaf exhausted: pop levels until a parent has another child
	iter.path = iter.path[:leafIdx]
	iter.pos = iter.pos[:leafIdx]
	for len(iter.pos) > 0 {
		top := len(iter.pos) - 1
		iter.pos[top]++
		if iter.pos[top] < iter.path[top].nkeys() {
			return iter.descendToLeftmost()
		}
		iter.path = iter.path[:top]
		iter.pos = iter.pos[:top]
	}
	return false
}

func (iter *Iter) descendToLeftmost() bool {
	for {
		top := len(iter.path) - 1
		child := iter.tree.page(iter.path[top].getPtr(iter.pos[top]))
		iter.path = append(iter.path, child)
		iter.pos = append(iter.pos, 0)
		if child.btype() == BNODE_LEAF {
			return true
		}
	}
}

// Scan visits every key >= start in order until fn returns false.
// The sentinel key is never visited.
func (tree *Tree) Scan(start []byte, fn func(key, val []byte) bool) {
	iter := tree.NewIterator()
	if !iter.SeekLE(start) {
		return
	}
	for iter.Valid() {
		key := iter.Key()
		if len(key) > 0 && bytes.Compare(key, start) >= 0 {
			if !fn(key, iter.Val()) {
				return
			}
		}
		if !iter.Next() {
			return
		}
	}
}

// ScanPrefix visits every key starting with prefix in order until fn
// returns false.
func (tree *Tree) ScanPrefix(prefix []byte, fn func(key, val []byte) bool) {
	tree.Scan(prefix, func(key, val []byte) bool {
		if !bytes.HasPrefix(key, prefix) {
			return false
		}
		return fn(key, val)
	})
}
