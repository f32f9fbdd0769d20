// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package dataio

import (
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MaxString32Size is the largest u32-prefixed string that ReadString32 will
// accept. It bounds the allocation made for a corrupt length prefix.
const MaxString32Size = 16 * 1024 * 1024

// MaxString16Size is the largest content length of a u16-prefixed string.
const MaxString16Size = 0xFFFF

// ReadString32 reads a string prefixed by its u32 length.
//
// The content must be valid UTF-8.
func ReadString32(r io.Reader, what string) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", errors.Wrapf(err, "decoding %s length", what)
	}

	size := Order.Uint32(lenBuf[:])
	if size > MaxString32Size {
		return "", errors.Errorf("decoding %s: length %d exceeds maximum (%d)", what, size, MaxString32Size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", errors.Wrapf(err, "decoding %s content", what)
	}
	if !utf8.Valid(data) {
		return "", errors.Errorf("decoding %s: content is not valid UTF-8", what)
	}
	return string(data), nil
}

// WriteString32 writes v prefixed by its u32 length.
func WriteString32(w io.Writer, v string) error {
	var lenBuf [4]byte
	Order.PutUint32(lenBuf[:], uint32(len(v)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, v)
	return err
}

// Truncate16 returns v cut to at most MaxString16Size bytes, the largest
// content a u16-prefixed string can carry.
func Truncate16(v string) string {
	if len(v) <= MaxString16Size {
		return v
	}
	return v[:MaxString16Size]
}
