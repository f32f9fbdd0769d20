// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"io"

	"github.com/pkg/errors"
)

// Cursor reads a Trace's events in order.
//
// Each Cursor owns its own reader over the capture, so Cursors on the same
// Trace are independent. A Cursor is not safe for concurrent use.
type Cursor struct {
	dr    *decodedReader
	count int64
}

// OpenCursor opens a Cursor positioned at the first event of t.
func OpenCursor(t *Trace) (*Cursor, error) {
	dr, err := openDecoded(t.Source)
	if err != nil {
		return nil, err
	}
	if dr.compression != t.Compression {
		_ = dr.Close()
		return nil, errors.Errorf("capture compression changed since load (%s, now %s)", t.Compression, dr.compression)
	}
	if err := dr.skipTo(t.EventOffset); err != nil {
		_ = dr.Close()
		return nil, errors.Wrap(err, "positioning event cursor")
	}
	return &Cursor{dr: dr}, nil
}

// Next returns the next event.
//
// Next returns io.EOF when the event section is exhausted.
func (c *Cursor) Next() (Event, error) {
	e, err := ReadEvent(c.dr)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(err, "reading event #%d", c.count)
	}
	c.count++
	return e, nil
}

// Count returns the number of events read so far.
func (c *Cursor) Count() int64 { return c.count }

// Close closes the Cursor, releasing its reader.
func (c *Cursor) Close() error { return c.dr.Close() }
