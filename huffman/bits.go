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
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// Pack concatenates the codes of data and zero-pads the result to a
// whole byte. It returns the packed bytes, the number of padding bits
// and the number of meaningful bits.
func Pack(data []byte, table *CodeTable) (payload []byte, padding uint8, nbits uint64, err error) {
	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)

	for i, b := range data {
		code := table[b]
		if code.Len == 0 {
			return nil, 0, 0, fmt.Errorf("no code for byte %#02x at offset %d", b, i)
		}
		if err = w.WriteBits(code.Bits, code.Len); err != nil {
			return nil, 0, 0, err
		}
		nbits += uint64(code.Len)
	}

	if _, err = w.Align(); err != nil {
		return nil, 0, 0, err
	}
	if err = w.Close(); err != nil {
		return nil, 0, 0, err
	}

	return buf.Bytes(), paddingFor(nbits), nbits, nil
}

func paddingFor(nbits uint64) uint8 {
	return uint8((8 - nbits%8) % 8)
}

// Unpack walks the tree from the root for every bit of payload except
// the trailing padding, emitting a symbol at each leaf. want is the
// number of symbols the header promised.
func Unpack(payload []byte, padding uint8, root *Node, want uint64) ([]byte, error) {
	if padding > 7 {
		return nil, malformed("padding of %d bits", padding)
	}
	total := uint64(len(payload)) * 8
	if total < uint64(padding) {
		return nil, malformed("padding of %d bits in an empty payload", padding)
	}
	total -= uint64(padding)

	if root == nil {
		if total != 0 || want != 0 {
			return nil, malformed("payload without a tree")
		}
		return []byte{}, nil
	}
	if want > total {
		return nil, malformed("%d bits cannot hold %d symbols", total, want)
	}

	r := bitio.NewReader(bytes.NewReader(payload))
	out := make([]byte, 0, want)
	node := root
	for i := uint64(0); i < total; i++ {
		one, err := r.ReadBool()
		if err != nil {
			return nil, fmt.Errorf("%w: bit %d: %s", ErrDecodeTraversal, i, err)
		}

		if root.IsLeaf() {
			if one {
				return nil, fmt.Errorf("%w: bit %d selects a missing branch", ErrDecodeTraversal, i)
			}
			out = append(out, root.Symbol)
			continue
		}

		if one {
			node = node.Right
		} else {
			node = node.Left
		}
		if node == nil {
			return nil, fmt.Errorf("%w: bit %d selects a missing branch", ErrDecodeTraversal, i)
		}
		if node.IsLeaf() {
			out = append(out, node.Symbol)
			node = root
		}
	}

	if node != root {
		return nil, fmt.Errorf("%w: bitstream ends inside a code", ErrDecodeTraversal)
	}
	if uint64(len(out)) != want {
		return nil, malformed("decoded %d bytes, header declares %d", len(out), want)
	}

	return out, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
