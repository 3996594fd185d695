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
	"crypto/sha256"
	"crypto/subtle"
)

const DigestSize = sha256.Size

// Digest is what an encrypted artifact stores instead of the password.
func Digest(password string) [DigestSize]byte {
	return sha256.Sum256([]byte(password))
}

// XOR applies the repeating keystream key to data: out[i] = data[i] ^
// key[i % len(key)]. It is its own inverse. This is obfuscation, not
// encryption.
func XOR(data, key []byte) []byte {
	out := make([]byte, len(data))
	if len(key) == 0 {
		copy(out, data)
		return out
	}
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}

// Verify checks password against the stored digest.
func (h *Header) Verify(password string) error {
	if !h.Encrypted {
		return nil
	}
	if password == "" {
		return ErrPasswordRequired
	}
	digest := Digest(password)
	if subtle.ConstantTimeCompare(digest[:], h.Digest[:]) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
