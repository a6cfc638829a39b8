// ABOUTME: B+Tree page layout shared by leaf and internal nodes
// ABOUTME: Header, pointer slots, offset table and packed key/value pairs

package termtree

import (
	"bytes"
	"encoding/binary"
	"sort"
)

const (
	BNODE_NODE = 1 // internal nodes without values
	BNODE_LEAF = 2 // leaf nodes with values
)

const (
	HEADER          = 4
	BTREE_PAGE_SIZE = 4096
	MaxKeySize      = 1000
	MaxValSize      = 3000
)

// BNode is one page: | type | nkeys | pointers | offsets | key-values |
type BNode []byte

func (node BNode) btype() uint16 {
	return binary.LittleEndian.Uint16(node[0:2])
}

func (node BNode) nkeys() uint16 {
	return binary.LittleEndian.Uint16(node[2:4])
}

func (node BNode) setHeader(btype uint16, nkeys uint16) {
	binary.LittleEndian.PutUint16(node[0:2], btype)
	binary.LittleEndian.PutUint16(node[2:4], nkeys)
}

func (node BNode) getPtr(idx uint16) uint64 {
	if idx >= node.nkeys() {
		panic("termtree: pointer index out of range")
	}
	pos := HEADER + 8*idx
	return binary.LittleEndian.Uint64(node[pos:])
}

func (node BNode) setPtr(idx uint16, val uint64) {
	if idx >= node.nkeys() {
		panic("termtree: pointer index out of range")
	}
	pos := HEADER + 8*idx
	binary.LittleEndian.PutUint64(node[pos:], val)
}

func offsetPos(node BNode, idx uint16) uint16 {
	if idx < 1 || idx > node.nkeys() {
		panic("termtree: offset index out of range")
	}
	return HEADER + 8*node.nkeys() + 2*(idx-1)
}

func (node BNode) getOffset(idx uint16) uint16 {
	if idx == 0 {
		return 0
	}
	return binary.LittleEndian.Uint16(node[offsetPos(node, idx):])
}

func (node BNode) setOffset(idx uint16, offset uint16) {
	binary.LittleEndian.PutUint16(node[offsetPos(node, idx):], offset)
}

// kvPos returns the position of the idx-th key/value pair
func (node BNode) kvPos(idx uint16) uint16 {
	if idx > node.nkeys() {
		panic("termtree: kv index out of range")
	}
	return HEADER + 8*node.nkeys() + 2*node.nkeys() + node.getOffset(idx)
}

func (node BNode) getKey(idx uint16) []byte {
	if idx >= node.nkeys() {
		panic("termtree: key index out of range")
	}
	pos := node.kvPos(idx)
	klen := binary.LittleEndian.Uint16(node[pos:])
	return node[pos+4:][:klen]
}

func (node BNode) getVal(idx uint16) []byte {
	if idx >= node.nkeys() {
		panic("termtree: value index out of range")
	}
	pos := node.kvPos(idx)
	klen := binary.LittleEndian.Uint16(node[pos+0:])
	vlen := binary.LittleEndian.Uint16(node[pos+2:])
	return node[pos+4+klen:][:vlen]
}

func (node BNode) nbytes() uint16 {
	return node.kvPos(node.nkeys())
}

// nodeLookupLE returns the last index whose key is <= key. The first key of
// every node is <= any key routed to it, so index 0 is the fallback.
func nodeLookupLE(node BNode, key []byte) uint16 {
	n := int(node.nkeys())
	i := sort.Search(n, func(i int) bool {
		return bytes.Compare(node.getKey(uint16(i)), key) > 0
	})
	if i == 0 {
		return 0
	}
	return uint16(i - 1)
}

// nodeAppendKV writes the idx-th pair; pairs must be appended in order
func nodeAppendKV(new BNode, idx uint16, ptr uint64, key []byte, val []byte) {
	new.setPtr(idx, ptr)

	pos := new.kvPos(idx)
	binary.LittleEndian.PutUint16(new[pos+0:], uint16(len(key)))
	binary.LittleEndian.PutUint16(new[pos+2:], uint16(len(val)))
	copy(new[pos+4:], key)
	copy(new[pos+4+uint16(len(key)):], val)

	new.setOffset(idx+1, new.getOffset(idx)+4+uint16(len(key)+len(val)))
}

// pairSize is the number of bytes one pair adds to a node
func pairSize(key, val []byte) int {
	return 8 + 2 + 4 + len(key) + len(val)
}

func init() {
	node1max := HEADER + 8 + 2 + 4 + MaxKeySize + MaxValSize
	if node1max > BTREE_PAGE_SIZE {
		panic("termtree: node size exceeds page size")
	}
}
