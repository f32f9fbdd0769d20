// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Source opens independent readers over the bytes of a capture.
//
// Every replay connection opens its own reader, so that each has its own
// position in the capture.
type Source interface {
	// Name returns a description of the Source for diagnostics.
	Name() string
	// Open returns a new reader positioned at the start of the capture.
	//
	// If the returned reader also implements io.Seeker, it may be used to skip
	// directly to the event section.
	Open() (io.ReadCloser, error)
}

// FileSource is a Source backed by a file path.
type FileSource string

// Name implements Source.
func (fs FileSource) Name() string { return string(fs) }

// Open implements Source.
func (fs FileSource) Open() (io.ReadCloser, error) {
	fd, err := os.Open(string(fs))
	if err != nil {
		return nil, errors.Wrapf(err, "opening capture %q", string(fs))
	}
	return fd, nil
}

// BytesSource is a Source backed by an in-memory capture image.
type BytesSource []byte

// Name implements Source.
func (BytesSource) Name() string { return "<memory>" }

// Open implements Source.
func (bs BytesSource) Open() (io.ReadCloser, error) {
	return &bytesReadCloser{bytes.NewReader(bs)}, nil
}

type bytesReadCloser struct {
	*bytes.Reader
}

func (bytesReadCloser) Close() error { return nil }

// Compression is the compression applied to a capture's bytes.
type Compression int

const (
	// CompressionNone is an uncompressed capture.
	CompressionNone Compression = iota
	// CompressionSnappy is a capture compressed as a snappy framed stream.
	CompressionSnappy
	// CompressionGzip is a gzip-compressed capture.
	CompressionGzip
	// CompressionZstd is a zstd-compressed capture.
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

var (
	// snappyMagic is the stream identifier chunk that opens every snappy framed
	// stream.
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
	gzipMagic   = []byte{0x1f, 0x8b}
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Large buffer size (4MB), good for reading the file.
const readerBufferSize = 1024 * 1024 * 4

// decodedReader reads the decompressed bytes of a capture.
type decodedReader struct {
	io.Reader

	base        io.ReadCloser
	compression Compression

	// closeDecoder, if not nil, releases the decompressor.
	closeDecoder func()
}

// openDecoded opens src and wraps it to produce decompressed capture bytes.
//
// The returned reader is buffered.
func openDecoded(src Source) (*decodedReader, error) {
	base, err := src.Open()
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(base, readerBufferSize)
	dr := decodedReader{
		base: base,
	}

	// Sniff the compression. Peek will return a short slice for tiny captures,
	// which then simply fail to match.
	magic, _ := br.Peek(len(snappyMagic))
	switch {
	case bytes.HasPrefix(magic, snappyMagic):
		dr.compression = CompressionSnappy
		dr.Reader = bufio.NewReaderSize(snappy.NewReader(br), readerBufferSize)

	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			_ = base.Close()
			return nil, errors.Wrap(err, "creating gzip reader")
		}
		dr.compression = CompressionGzip
		dr.Reader = bufio.NewReaderSize(gz, readerBufferSize)

	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			_ = base.Close()
			return nil, errors.Wrap(err, "creating zstd reader")
		}
		dr.compression = CompressionZstd
		dr.Reader = bufio.NewReaderSize(zr, readerBufferSize)
		dr.closeDecoder = zr.Close

	default:
		dr.compression = CompressionNone
		dr.Reader = br
	}
	return &dr, nil
}

// skipTo advances dr to offset, which is measured in decompressed bytes from
// the start of the capture. dr must not have been read from.
//
// Uncompressed captures whose base supports seeking are seeked directly;
// otherwise the leading bytes are decompressed and discarded.
func (dr *decodedReader) skipTo(offset int64) error {
	if dr.compression == CompressionNone {
		if seeker, ok := dr.base.(io.Seeker); ok {
			if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
				return errors.Wrapf(err, "seeking to offset %d", offset)
			}
			dr.Reader.(*bufio.Reader).Reset(dr.base)
			return nil
		}
	}

	switch amt, err := io.CopyN(io.Discard, dr.Reader, offset); {
	case err == io.EOF:
		return errors.Wrapf(io.ErrUnexpectedEOF, "skipping to offset %d (capture holds %d bytes)", offset, amt)
	case err != nil:
		return errors.Wrapf(err, "skipping to offset %d", offset)
	default:
		return nil
	}
}

func (dr *decodedReader) Close() error {
	if dr.closeDecoder != nil {
		dr.closeDecoder()
	}
	return dr.base.Close()
}
