// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package dataio contains the primitives used to encode and decode the
// fixed-layout binary records of capture files and the live wire protocol.
//
// Every record is little-endian with fixed-width integers. Records are
// declared as Go structs and laid out by struc; padding is declared explicitly
// using "[N]pad" fields so that the struct matches its byte layout exactly.
package dataio

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Order is the byte order of all records.
var Order = binary.LittleEndian

var structOptions = &struc.Options{Order: Order}

// Unpack decodes the fixed-layout record v from r.
//
// v must be a pointer to a struc-compatible struct. On failure, the returned
// error identifies the record being decoded through what. If r is exhausted
// before any byte of the record could be read, the error's cause is io.EOF;
// if the record is truncated, it is io.ErrUnexpectedEOF.
func Unpack(r io.Reader, v interface{}, what string) error {
	cr := CountingReader{R: r}
	if err := struc.UnpackWithOptions(&cr, v, structOptions); err != nil {
		// struc reads field by field, so a record truncated on a field boundary
		// reports a plain EOF.
		if err == io.EOF && cr.Count > 0 {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrapf(err, "decoding %s", what)
	}
	return nil
}

// UnpackBytes decodes the fixed-layout record v from the head of buf.
func UnpackBytes(buf []byte, v interface{}, what string) error {
	return Unpack(bytes.NewReader(buf), v, what)
}

// Pack encodes the fixed-layout record v to w.
func Pack(w io.Writer, v interface{}) error {
	return struc.PackWithOptions(w, v, structOptions)
}

// Size returns the encoded size of the record v.
func Size(v interface{}) (int, error) {
	return struc.Sizeof(v)
}

// CountingReader is an io.Reader that counts the bytes read through it.
type CountingReader struct {
	// R is the underlying reader.
	R io.Reader
	// Count is the number of bytes read so far.
	Count int64
}

func (cr *CountingReader) Read(b []byte) (int, error) {
	amt, err := cr.R.Read(b)
	cr.Count += int64(amt)
	return amt, err
}
