package huffman

import (
	"container/heap"
	"fmt"

	"github.com/xcompress/xcompress"
)

// A node of a Huffman tree. Nodes live in the Tree's nodes slice and refer
// to their children by index; leaves have left == -1.
type node struct {
	count uint64
	left  int32
	right int32
	value byte
}

func (n *node) isLeaf() bool {
	return n.left < 0
}

// A Tree is a Huffman tree built from a FrequencyTable.
//
// The encoder and the decoder each build their tree from the same table, so
// construction must be deterministic: when frequencies tie, the node that
// was created first is taken first. Leaves are created in byte-value order,
// and each parent after its children.
type Tree struct {
	nodes []node
	root  int32
}

// nodeQueue is a min-heap of node indexes ordered by count, then by index.
type nodeQueue struct {
	nodes []node
	items []int32
}

func (q *nodeQueue) Len() int { return len(q.items) }

func (q *nodeQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if q.nodes[a].count != q.nodes[b].count {
		return q.nodes[a].count < q.nodes[b].count
	}
	return a < b
}

func (q *nodeQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *nodeQueue) Push(x any) { q.items = append(q.items, x.(int32)) }

func (q *nodeQueue) Pop() any {
	n := len(q.items)
	x := q.items[n-1]
	q.items = q.items[:n-1]
	return x
}

// BuildTree builds the Huffman tree for f. If only one byte value occurs,
// the root is a leaf and that value's code is zero bits long. If f is empty,
// so is the tree.
func BuildTree(f *FrequencyTable) *Tree {
	n := f.NonZero()
	t := &Tree{
		nodes: make([]node, 0, 2*n),
		root:  -1,
	}
	if n == 0 {
		return t
	}

	q := &nodeQueue{items: make([]int32, 0, n)}
	for i, c := range f {
		if c != 0 {
			t.nodes = append(t.nodes, node{count: uint64(c), left: -1, right: -1, value: byte(i)})
			q.items = append(q.items, int32(len(t.nodes)-1))
		}
	}
	q.nodes = t.nodes
	heap.Init(q)

	for q.Len() > 1 {
		left := heap.Pop(q).(int32)
		right := heap.Pop(q).(int32)
		t.nodes = append(t.nodes, node{
			count: t.nodes[left].count + t.nodes[right].count,
			left:  left,
			right: right,
		})
		q.nodes = t.nodes
		heap.Push(q, int32(len(t.nodes)-1))
	}
	t.root = heap.Pop(q).(int32)
	return t
}

// Empty reports whether the tree has no symbols.
func (t *Tree) Empty() bool {
	return t.root < 0
}

// A Code is the bit pattern for one byte value, stored in the low Len bits
// of Bits and sent most significant bit first.
type Code struct {
	Bits uint64
	Len  uint8
}

// A CodeTable holds the Code for every byte value. Values that do not occur
// in the block have a zero Code.
type CodeTable [256]Code

// Codes derives the code table by walking the tree from the root to each
// leaf, appending 0 for a left edge and 1 for a right edge.
func (t *Tree) Codes() (*CodeTable, error) {
	var table CodeTable
	if t.Empty() {
		return &table, nil
	}

	type entry struct {
		node int32
		code Code
	}
	stack := []entry{{node: t.root}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[e.node]
		if n.isLeaf() {
			table[n.value] = e.code
			continue
		}
		if e.code.Len == 64 {
			return nil, fmt.Errorf("%w: Huffman code longer than 64 bits", xcompress.ErrCapacityExceeded)
		}
		next := Code{Bits: e.code.Bits << 1, Len: e.code.Len + 1}
		stack = append(stack,
			entry{n.right, Code{Bits: next.Bits | 1, Len: next.Len}},
			entry{n.left, next},
		)
	}
	return &table, nil
}
