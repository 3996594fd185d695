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

// Package huffman implements a single-buffer Huffman compressor with an
// optional password-gated XOR layer over the packed payload.
//
// An artifact is a Header (see ParseContainer) followed by the payload.
// The header stores the byte histogram rather than the tree shape; the
// decoder rebuilds the tree with the same deterministic BuildTree.
package huffman

import (
	"fmt"
	"time"
)

// Metrics describes one Compress call.
type Metrics struct {
	OriginalSize   int           `json:"original_size"`
	CompressedSize int           `json:"compressed_size"`
	PayloadBits    uint64        `json:"payload_bits"`
	Symbols        int           `json:"symbols"`
	Encrypted      bool          `json:"encrypted"`
	Ratio          float64       `json:"ratio"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Compress encodes raw into a self-describing artifact. An empty password
// leaves the payload in the clear.
func Compress(raw []byte, password string) ([]byte, Metrics, error) {
	t0 := time.Now()

	h := Header{
		Version: Version,
		Freqs:   Count(raw),
	}

	var payload []byte
	var nbits uint64
	if len(raw) > 0 {
		table, err := Codes(BuildTree(h.Freqs))
		if err != nil {
			return nil, Metrics{}, err
		}
		payload, h.Padding, nbits, err = Pack(raw, &table)
		if err != nil {
			return nil, Metrics{}, err
		}
	}

	if password != "" {
		h.Encrypted = true
		h.Digest = Digest(password)
		payload = XOR(payload, []byte(password))
	}

	artifact := h.Encode(payload)

	m := Metrics{
		OriginalSize:   len(raw),
		CompressedSize: len(artifact),
		PayloadBits:    nbits,
		Symbols:        h.Freqs.Symbols(),
		Encrypted:      h.Encrypted,
		Elapsed:        time.Since(t0),
	}
	if len(raw) > 0 {
		m.Ratio = float64(len(raw)-len(artifact)) / float64(len(raw)) * 100
	}

	return artifact, m, nil
}

// Decompress reverses Compress. Encrypted artifacts need the password
// they were made with; the payload is not touched before it is verified.
func Decompress(artifact []byte, password string) ([]byte, error) {
	h, payload, err := ParseContainer(artifact)
	if err != nil {
		return nil, err
	}

	if err := h.Verify(password); err != nil {
		return nil, err
	}

	want := h.Freqs.Total()
	if want == 0 {
		return []byte{}, nil
	}

	root := BuildTree(h.Freqs)
	table, err := Codes(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedContainer, err)
	}
	nbits, ok := table.BitLen(h.Freqs)
	if !ok {
		return nil, malformed("declared payload size overflows")
	}
	if uint64(len(payload)) != (nbits+7)/8 || h.Padding != paddingFor(nbits) {
		return nil, malformed(
			"payload is %d bytes with %d padding bits, header implies %d bits",
			len(payload), h.Padding, nbits,
		)
	}

	if h.Encrypted {
		payload = XOR(payload, []byte(password))
	}

	return Unpack(payload, h.Padding, root, want)
}

// Inspect parses only the header of an artifact.
func Inspect(artifact []byte) (Header, error) {
	h, _, err := ParseContainer(artifact)
	return h, err
}

// vim: ai:ts=8:sw=8:noet:syntax=go
