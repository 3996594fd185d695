/**
 * Copyright 2026 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */
package huffman

import (
	"container/heap"
	"fmt"
	"io"
	"strings"
)

// Node is either a leaf carrying a symbol or an internal node with
// exactly two children.
type Node struct {
	Symbol      byte
	Freq        uint64
	Left, Right *Node

	// leaves use their symbol, merged nodes 256 + merge sequence
	order int
}

func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

type nodeHeap []*Node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].Freq != h[j].Freq {
		return h[i].Freq < h[j].Freq
	}
	return h[i].order < h[j].order
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x interface{}) {
	*h = append(*h, x.(*Node))
}

func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return n
}

// BuildTree merges the two lightest nodes until one is left and returns
// it. Equal weights are ordered by symbol value for leaves and by
// creation order for merged nodes, so the same table always yields the
// same tree. An all-zero table yields nil.
func BuildTree(freqs FrequencyTable) *Node {
	h := make(nodeHeap, 0, 256)
	for i, f := range freqs {
		if f == 0 {
			continue
		}
		h = append(h, &Node{Symbol: byte(i), Freq: f, order: i})
	}
	if len(h) == 0 {
		return nil
	}

	heap.Init(&h)
	for seq := 256; h.Len() > 1; seq++ {
		zero := heap.Pop(&h).(*Node)
		one := heap.Pop(&h).(*Node)
		heap.Push(&h, &Node{
			Freq:  zero.Freq + one.Freq,
			Left:  zero,
			Right: one,
			order: seq,
		})
	}

	return heap.Pop(&h).(*Node)
}

// Print dumps the tree sideways, one node per line, with the code that
// leads to it.
func Print(w io.Writer, root *Node) {
	if root == nil {
		fmt.Fprintln(w, "(empty)")
		return
	}
	if root.IsLeaf() {
		fmt.Fprintf(w, "0 %q x%d\n", root.Symbol, root.Freq)
		return
	}
	printNode(w, root, "", 0)
}

func printNode(w io.Writer, n *Node, prefix string, depth int) {
	pad := strings.Repeat("    ", depth)
	label := prefix
	if label == "" {
		label = "-"
	}
	if n.IsLeaf() {
		fmt.Fprintf(w, "%s%s %q x%d\n", pad, label, n.Symbol, n.Freq)
		return
	}
	fmt.Fprintf(w, "%s%s <%d>\n", pad, label, n.Freq)
	printNode(w, n.Left, prefix+"0", depth+1)
	printNode(w, n.Right, prefix+"1", depth+1)
}

// vim: ai:ts=8:sw=8:noet:syntax=go
