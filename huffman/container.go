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
	"encoding/binary"
)

const (
	Magic   = "HUFP"
	Version = 1

	flagEncrypted = 1 << 0
)

// Header is everything in an artifact that precedes the payload.
//
//	magic[4] version[1] flags[1] digest[32]? padding[1] count[2]
//	count x (symbol[1] uvarint)
//
// Symbols are stored in ascending order with non-zero counts; the
// decoder rebuilds the tree from them with BuildTree.
type Header struct {
	Version   uint8
	Encrypted bool
	Digest    [DigestSize]byte
	Padding   uint8
	Freqs     FrequencyTable
}

// Encode serializes the header followed by payload.
func (h *Header) Encode(payload []byte) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString(Magic)
	buf.WriteByte(h.Version)

	var flags byte
	if h.Encrypted {
		flags |= flagEncrypted
	}
	buf.WriteByte(flags)
	if h.Encrypted {
		buf.Write(h.Digest[:])
	}
	buf.WriteByte(h.Padding)

	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], uint16(h.Freqs.Symbols()))
	buf.Write(u16[:])

	var uv [binary.MaxVarintLen64]byte
	for i, f := range h.Freqs {
		if f == 0 {
			continue
		}
		buf.WriteByte(byte(i))
		n := binary.PutUvarint(uv[:], f)
		buf.Write(uv[:n])
	}

	buf.Write(payload)
	return buf.Bytes()
}

// ParseContainer splits an artifact into its header and payload. The
// payload aliases data.
func ParseContainer(data []byte) (Header, []byte, error) {
	var h Header

	if len(data) < len(Magic)+2 {
		return h, nil, malformed("%d bytes is too short for a header", len(data))
	}
	if string(data[:len(Magic)]) != Magic {
		return h, nil, malformed("unknown format marker %q", data[:len(Magic)])
	}
	data = data[len(Magic):]

	h.Version = data[0]
	if h.Version != Version {
		return h, nil, malformed("unsupported version %d", h.Version)
	}

	flags := data[1]
	if flags&^flagEncrypted != 0 {
		return h, nil, malformed("unknown flags %#02x", flags)
	}
	h.Encrypted = flags&flagEncrypted != 0
	data = data[2:]

	if h.Encrypted {
		if len(data) < DigestSize {
			return h, nil, malformed("truncated password digest")
		}
		copy(h.Digest[:], data)
		data = data[DigestSize:]
	}

	if len(data) < 3 {
		return h, nil, malformed("truncated header")
	}
	h.Padding = data[0]
	if h.Padding > 7 {
		return h, nil, malformed("padding of %d bits", h.Padding)
	}
	count := int(binary.BigEndian.Uint16(data[1:3]))
	if count > 256 {
		return h, nil, malformed("%d frequency entries", count)
	}
	data = data[3:]

	var total uint64
	last := -1
	for i := 0; i < count; i++ {
		if len(data) < 2 {
			return h, nil, malformed("truncated frequency entry %d", i)
		}
		sym := int(data[0])
		if sym <= last {
			return h, nil, malformed("frequency entry %d for byte %#02x is out of order", i, sym)
		}
		last = sym

		f, n := binary.Uvarint(data[1:])
		if n <= 0 {
			return h, nil, malformed("bad count in frequency entry %d", i)
		}
		if f == 0 {
			return h, nil, malformed("zero count for byte %#02x", sym)
		}
		if total+f < total {
			return h, nil, malformed("symbol count overflows")
		}
		total += f
		h.Freqs[sym] = f
		data = data[1+n:]
	}

	if count == 0 && (len(data) != 0 || h.Padding != 0) {
		return h, nil, malformed("payload without a frequency table")
	}

	return h, data, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
