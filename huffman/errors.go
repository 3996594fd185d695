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
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is returned when an encrypted artifact is opened
	// without the right password.
	ErrAuthentication = errors.New("authentication failed")

	ErrPasswordRequired = fmt.Errorf("password required: %w", ErrAuthentication)
	ErrPasswordMismatch = fmt.Errorf("invalid password: %w", ErrAuthentication)

	// ErrMalformedContainer covers truncated artifacts, unknown markers and
	// headers that disagree with the payload.
	ErrMalformedContainer = errors.New("malformed container")

	// ErrDecodeTraversal means the bitstream ended or branched off the
	// tree in the middle of a code.
	ErrDecodeTraversal = errors.New("corrupt payload")

	ErrCodeTooLong = errors.New("code does not fit into 64 bits")
)

func malformed(format string, rest ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedContainer, fmt.Sprintf(format, rest...))
}

// vim: ai:ts=8:sw=8:noet:syntax=go
