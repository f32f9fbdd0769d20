// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"io"

	"github.com/danjacques/gotracereplay/support/dataio"
)

// RawLocation is a source location as it is stored in a capture file: three
// u32-prefixed strings followed by a fixed tail.
type RawLocation struct {
	Name     string
	Function string
	File     string

	LocationTail
}

// LocationTail is the fixed-size part of a RawLocation.
type LocationTail struct {
	Line uint32
	// Color is red, green, blue and an unused byte.
	Color [4]byte
}

// ReadRawLocation reads the RawLocation at ordinal index from r.
func ReadRawLocation(r io.Reader, index int) (*RawLocation, error) {
	var (
		loc RawLocation
		err error
	)
	what := func(field string) string { return fmt.Sprintf("location #%d %s", index, field) }

	if loc.Name, err = dataio.ReadString32(r, what("name")); err != nil {
		return nil, err
	}
	if loc.Function, err = dataio.ReadString32(r, what("function")); err != nil {
		return nil, err
	}
	if loc.File, err = dataio.ReadString32(r, what("file")); err != nil {
		return nil, err
	}
	if err := dataio.Unpack(r, &loc.LocationTail, what("line and color")); err != nil {
		return nil, err
	}
	return &loc, nil
}

// WriteRawLocation writes rl in its capture file layout.
func WriteRawLocation(w io.Writer, rl *RawLocation) error {
	for _, s := range []string{rl.Name, rl.Function, rl.File} {
		if err := dataio.WriteString32(w, s); err != nil {
			return err
		}
	}
	return dataio.Pack(w, &rl.LocationTail)
}

// Location is a resident source location. Its strings have been replaced by
// their identifiers in the capture's StringTable.
//
// A Location is identified by its ordinal position in the capture's location
// table.
type Location struct {
	Name     uint64
	Function uint64
	File     uint64
	Line     uint32

	ColorR uint8
	ColorG uint8
	ColorB uint8
}
