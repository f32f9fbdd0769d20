// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"bufio"
	"bytes"

	"github.com/danjacques/gotracereplay/protocol/tracy"
	"github.com/danjacques/gotracereplay/support/bufferpool"
	"github.com/danjacques/gotracereplay/support/dataio"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// framePool holds compression destinations. A frame rarely exceeds the flush
// threshold by more than one record.
var framePool = bufferpool.Pool{
	Size: lz4.CompressBlockBound(256 * 1024),
}

// outbound accumulates response records and writes them as compressed frames.
//
// outbound is not safe for concurrent use.
type outbound struct {
	w         *bufio.Writer
	threshold int

	buf        bytes.Buffer
	compressor lz4.Compressor
}

func newOutbound(w *bufio.Writer, threshold int) *outbound {
	return &outbound{
		w:         w,
		threshold: threshold,
	}
}

// send appends r to the buffer, flushing first if the buffer is already past
// the threshold.
func (o *outbound) send(r tracy.Response) error {
	if o.buf.Len() > o.threshold {
		if err := o.flush(); err != nil {
			return err
		}
	}

	if err := tracy.EncodeResponse(&o.buf, r); err != nil {
		return errors.Wrapf(err, "encoding %s", r.Type())
	}
	sentRecords.WithLabelValues(r.Type().String()).Inc()
	return nil
}

// pending returns the number of uncompressed bytes waiting to be flushed.
func (o *outbound) pending() int { return o.buf.Len() }

// flush compresses and writes any buffered records as a single frame. If
// nothing is buffered, flush does nothing.
func (o *outbound) flush() error {
	if o.buf.Len() == 0 {
		return nil
	}

	src := o.buf.Bytes()
	dst := framePool.Get(lz4.CompressBlockBound(len(src)))
	defer dst.Release()

	size, err := o.compressor.CompressBlock(src, dst.Bytes())
	if err != nil {
		return errors.Wrap(err, "compressing frame")
	}

	var prefix [4]byte
	dataio.Order.PutUint32(prefix[:], uint32(size))
	if _, err := o.w.Write(prefix[:]); err != nil {
		return errors.Wrap(err, "writing frame size")
	}
	if _, err := o.w.Write(dst.Bytes()[:size]); err != nil {
		return errors.Wrap(err, "writing frame")
	}
	if err := o.w.Flush(); err != nil {
		return errors.Wrap(err, "flushing frame")
	}

	sentFrames.Inc()
	sentBytes.Add(float64(len(src)))
	sentCompressedBytes.Add(float64(size))
	o.buf.Reset()
	return nil
}
