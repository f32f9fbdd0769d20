// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package dataio

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// VariantError is returned when a one-byte discriminant holds a value that
// does not name any known variant.
type VariantError struct {
	// Type is the name of the discriminated type.
	Type string
	// Found is the value that was read.
	Found uint8
	// Allowed describes the accepted values.
	Allowed string
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("unexpected variant %d for %s (allowed: %s)", e.Found, e.Type, e.Allowed)
}

// ReadDiscriminant reads a single discriminant byte from r and validates it
// with valid.
//
// If r is exhausted, the returned error's cause is io.EOF.
func ReadDiscriminant(r io.Reader, typeName, allowed string, valid func(uint8) bool) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.Wrapf(err, "decoding %s", typeName)
	}
	if !valid(buf[0]) {
		return 0, &VariantError{Type: typeName, Found: buf[0], Allowed: allowed}
	}
	return buf[0], nil
}

// IsVariantError returns true if err's cause is a *VariantError.
func IsVariantError(err error) bool {
	_, ok := errors.Cause(err).(*VariantError)
	return ok
}
