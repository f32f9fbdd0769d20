// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package capturetest builds capture images for tests.
package capturetest

import (
	"bytes"

	"github.com/danjacques/gotracereplay/capture"
	"github.com/danjacques/gotracereplay/support/dataio"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Builder accumulates the contents of a capture image.
type Builder struct {
	// Header is the capture's header. NewBuilder populates a valid signature
	// and version.
	Header capture.Header
	// Locations is the capture's location table.
	Locations []capture.RawLocation
	// Events is the capture's event section.
	Events []capture.Event

	// Compression is the compression to apply to the image.
	Compression capture.Compression
}

// NewBuilder returns a Builder for a valid, empty capture.
func NewBuilder() *Builder {
	b := Builder{
		Header: capture.Header{
			Signature:      capture.Signature,
			Version:        capture.Version,
			Multiplier:     1.0,
			InitBegin:      100,
			InitEnd:        200,
			Delay:          3,
			Resolution:     4,
			Epoch:          1700000000,
			ExecTime:       1700000001,
			ProcessID:      4242,
			SamplingPeriod: 125000,
			Flags:          1,
			CPUArch:        2,
			CPUID:          0x000806C1,
		},
	}
	copy(b.Header.CPUManufacturer[:], "GenuineIntel")
	copy(b.Header.ProgramName[:], "game.exe")
	copy(b.Header.HostInfo[:], "OS: test\nCPU cores: 8\n")
	return &b
}

// AddLocation appends a location and returns its identifier.
func (b *Builder) AddLocation(name, function, file string, line uint32, r, g, bl uint8) uint32 {
	loc := capture.RawLocation{
		Name:     name,
		Function: function,
		File:     file,
	}
	loc.Line = line
	loc.Color = [4]byte{r, g, bl, 0}
	b.Locations = append(b.Locations, loc)
	return uint32(len(b.Locations) - 1)
}

// Begin appends a ZoneBegin event.
func (b *Builder) Begin(thread, location uint32, ts uint64) *Builder {
	b.Events = append(b.Events, &capture.ZoneBegin{Thread: thread, Location: location, Timestamp: ts})
	return b
}

// End appends a ZoneEnd event.
func (b *Builder) End(thread uint32, ts uint64) *Builder {
	b.Events = append(b.Events, &capture.ZoneEnd{Thread: thread, Timestamp: ts})
	return b
}

// Color appends a ZoneColor event.
func (b *Builder) Color(thread uint32, r, g, bl uint8) *Builder {
	b.Events = append(b.Events, &capture.ZoneColor{Thread: thread, Color: [4]byte{r, g, bl, 0}})
	return b
}

// Mark appends a FrameMark event.
func (b *Builder) Mark(ts uint64) *Builder {
	b.Events = append(b.Events, &capture.FrameMark{Timestamp: ts})
	return b
}

// Bytes returns the capture image.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	must(dataio.Pack(&buf, &b.Header))

	count := struct{ Count uint32 }{uint32(len(b.Locations))}
	must(dataio.Pack(&buf, &count))
	for i := range b.Locations {
		must(capture.WriteRawLocation(&buf, &b.Locations[i]))
	}
	for _, e := range b.Events {
		must(capture.WriteEvent(&buf, e))
	}
	return compress(buf.Bytes(), b.Compression)
}

// Source returns the capture image as a capture.Source.
func (b *Builder) Source() capture.BytesSource { return capture.BytesSource(b.Bytes()) }

func compress(raw []byte, c capture.Compression) []byte {
	var buf bytes.Buffer
	switch c {
	case capture.CompressionSnappy:
		w := snappy.NewBufferedWriter(&buf)
		_, err := w.Write(raw)
		must(err)
		must(w.Close())

	case capture.CompressionGzip:
		w := gzip.NewWriter(&buf)
		_, err := w.Write(raw)
		must(err)
		must(w.Close())

	case capture.CompressionZstd:
		w, err := zstd.NewWriter(&buf)
		must(err)
		_, err = w.Write(raw)
		must(err)
		must(w.Close())

	default:
		return raw
	}
	return buf.Bytes()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
