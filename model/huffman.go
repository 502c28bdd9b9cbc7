package model

import "container/heap"

// canonicalLengths builds a standard Huffman tree over alphabet weighted by
// freq, then returns the per-symbol code length (parallel to alphabet) in
// canonical form: canonicalisation itself happens in buildHuffmanCodes,
// this just supplies the lengths. ok is false if the natural tree would
// exceed maxLenCap, in which case the caller should fall back to
// fixed-width.
func canonicalLengths(alphabet []byte, freq map[byte]int, maxLenCap int) (lengths []byte, ok bool) {
	n := len(alphabet)
	if n == 0 {
		return nil, false
	}
	if n == 1 {
		// A single-symbol alphabet needs no real code; force length 1, the
		// shortest a codeword can be. Fixed-width will win this comparison
		// anyway since it also costs 1 bit with none of the table overhead.
		return []byte{1}, true
	}

	h := &nodeHeap{}
	heap.Init(h)
	for i, b := range alphabet {
		heap.Push(h, &node{weight: freq[b], symbol: b, idx: i, tieBreak: i})
	}
	tieBreak := n
	for h.Len() > 1 {
		a := heap.Pop(h).(*node)
		b := heap.Pop(h).(*node)
		parent := &node{weight: a.weight + b.weight, left: a, right: b, tieBreak: tieBreak}
		tieBreak++
		heap.Push(h, parent)
	}
	root := heap.Pop(h).(*node)

	lengths = make([]byte, n)
	index := make(map[byte]int, n)
	for i, b := range alphabet {
		index[b] = i
	}
	maxLen := 0
	var walk func(nd *node, depth int)
	walk = func(nd *node, depth int) {
		if nd.left == nil && nd.right == nil {
			d := depth
			if d == 0 {
				d = 1 // single-node tree edge case
			}
			lengths[index[nd.symbol]] = byte(d)
			if d > maxLen {
				maxLen = d
			}
			return
		}
		walk(nd.left, depth+1)
		walk(nd.right, depth+1)
	}
	walk(root, 0)

	if maxLen > maxLenCap {
		return nil, false
	}
	return lengths, true
}

type node struct {
	weight   int
	symbol   byte
	idx      int
	tieBreak int
	left     *node
	right    *node
}

// nodeHeap orders by ascending weight; ties broken by insertion/merge order
// so the construction is deterministic and reproducible between encoder
// invocations.
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].tieBreak < h[j].tieBreak
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
