// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"github.com/danjacques/gotracereplay/support/dataio"
	"github.com/danjacques/gotracereplay/support/logging"

	"github.com/pkg/errors"
)

// Trace is a loaded capture: its header, location table, and string table,
// plus the position of its event section.
//
// A Trace is immutable once Load returns, and is shared by all replay
// connections without synchronization.
type Trace struct {
	// Header is the capture's header.
	Header Header
	// Locations is the location table. A location's index is its identifier.
	Locations []Location
	// Strings holds every string referenced by Locations.
	Strings *StringTable

	// EventOffset is the offset of the event section, in decompressed bytes
	// from the start of the capture.
	EventOffset int64
	// Compression is the compression that the capture is stored with.
	Compression Compression

	// Source is the capture's source. Cursors open their own readers from it.
	Source Source
}

// Location returns the location whose identifier is index.
func (t *Trace) Location(index uint64) (*Location, bool) {
	if index >= uint64(len(t.Locations)) {
		return nil, false
	}
	return &t.Locations[index], true
}

// Load reads the header and location table of the capture in src.
//
// Load returns a *FormatError if the capture's signature or version is not
// supported. Any error returned by Load is fatal to replaying src.
func Load(src Source, logger logging.L) (*Trace, error) {
	logger = logging.Must(logger)

	dr, err := openDecoded(src)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := dr.Close(); err != nil {
			logger.Warnf("Failed to close capture %q: %s", src.Name(), err)
		}
	}()

	t := Trace{
		Strings:     NewStringTable(),
		Compression: dr.compression,
		Source:      src,
	}
	cr := dataio.CountingReader{R: dr}

	if err := dataio.Unpack(&cr, &t.Header, "capture header"); err != nil {
		return nil, err
	}
	if err := t.Header.validate(); err != nil {
		return nil, err
	}

	var count struct{ Count uint32 }
	if err := dataio.Unpack(&cr, &count, "location count"); err != nil {
		return nil, err
	}
	logger.Infof("Captured process: %s", t.Header.Program())
	logger.Infof("Found %d source locations", count.Count)

	// Each location needs at least 20 bytes; don't trust the count for the
	// initial allocation.
	capacity := count.Count
	if capacity > 1<<16 {
		capacity = 1 << 16
	}
	t.Locations = make([]Location, 0, capacity)
	for i := 0; i < int(count.Count); i++ {
		raw, err := ReadRawLocation(&cr, i)
		if err != nil {
			return nil, errors.Wrapf(err, "reading location table (%d locations)", count.Count)
		}

		// Name, then function, then file: identifiers depend on this order.
		t.Locations = append(t.Locations, Location{
			Name:     t.Strings.Intern(raw.Name),
			Function: t.Strings.Intern(raw.Function),
			File:     t.Strings.Intern(raw.File),
			Line:     raw.Line,
			ColorR:   raw.Color[0],
			ColorG:   raw.Color[1],
			ColorB:   raw.Color[2],
		})
	}

	t.EventOffset = cr.Count
	logger.Debugf("Capture %q (compression %s): %d strings, events begin at offset %d",
		src.Name(), t.Compression, t.Strings.Len(), t.EventOffset)
	return &t, nil
}
