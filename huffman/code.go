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
	"math/bits"
	"strings"
)

// Code is a root-to-leaf path, most significant bit first. Len == 0
// marks a symbol that does not occur.
type Code struct {
	Bits uint64
	Len  uint8
}

func (c Code) String() string {
	sb := &strings.Builder{}
	for i := int(c.Len) - 1; i >= 0; i-- {
		if c.Bits&(1<<uint(i)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// HasPrefix reports whether p is a prefix of c.
func (c Code) HasPrefix(p Code) bool {
	if p.Len > c.Len {
		return false
	}
	return c.Bits>>(c.Len-p.Len) == p.Bits
}

type CodeTable [256]Code

// Codes walks the tree and assigns 0 to every left edge and 1 to every
// right edge. A tree made of a single leaf gets the one-bit code "0".
func Codes(root *Node) (CodeTable, error) {
	var table CodeTable
	if root == nil {
		return table, nil
	}
	if root.IsLeaf() {
		table[root.Symbol] = Code{Bits: 0, Len: 1}
		return table, nil
	}

	err := fillTable(&table, root, Code{})
	return table, err
}

func fillTable(table *CodeTable, n *Node, prefix Code) error {
	if n.IsLeaf() {
		table[n.Symbol] = prefix
		return nil
	}
	if prefix.Len == 64 {
		return ErrCodeTooLong
	}

	zero := Code{Bits: prefix.Bits << 1, Len: prefix.Len + 1}
	one := Code{Bits: prefix.Bits<<1 | 1, Len: prefix.Len + 1}
	if err := fillTable(table, n.Left, zero); err != nil {
		return err
	}
	return fillTable(table, n.Right, one)
}

// BitLen returns the payload size in bits for a buffer with the given
// histogram. ok is false when the size does not fit into 64 bits.
func (t *CodeTable) BitLen(freqs FrequencyTable) (n uint64, ok bool) {
	for i, f := range freqs {
		if f == 0 {
			continue
		}
		hi, lo := bits.Mul64(f, uint64(t[i].Len))
		if hi != 0 {
			return 0, false
		}
		var carry uint64
		n, carry = bits.Add64(n, lo, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return n, true
}

// vim: ai:ts=8:sw=8:noet:syntax=go
