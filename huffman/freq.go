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

// FrequencyTable holds the number of occurrences of every byte value.
type FrequencyTable [256]uint64

// Count scans data once and returns its byte histogram.
func Count(data []byte) FrequencyTable {
	var freqs FrequencyTable
	for _, b := range data {
		freqs[b]++
	}
	return freqs
}

// Symbols returns the number of distinct bytes with a non-zero count.
func (f *FrequencyTable) Symbols() int {
	n := 0
	for _, c := range f {
		if c > 0 {
			n++
		}
	}
	return n
}

// Total returns the sum of all counts, which is the length of the
// buffer the table was built from.
func (f *FrequencyTable) Total() uint64 {
	var total uint64
	for _, c := range f {
		total += c
	}
	return total
}

// vim: ai:ts=8:sw=8:noet:syntax=go
