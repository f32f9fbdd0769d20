// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"bytes"
	"fmt"
)

const (
	// Signature is the magic value at the start of every capture file: the
	// ASCII bytes "utracydm" read as a little-endian u64.
	Signature uint64 = 0x6D64796361727475

	// Version is the only capture format version that can be replayed.
	Version uint32 = 1
)

// Header is the fixed-size record at the start of a capture file.
//
// The layout matches the file byte-for-byte, including its padding.
type Header struct {
	Signature uint64
	Version   uint32
	Pad0      []byte `struc:"[4]pad"`

	Multiplier     float64
	InitBegin      uint64
	InitEnd        uint64
	Delay          uint64
	Resolution     uint64
	Epoch          uint64
	ExecTime       uint64
	ProcessID      uint64
	SamplingPeriod uint64

	Flags           uint8
	CPUArch         uint8
	CPUManufacturer [12]byte
	Pad1            []byte `struc:"[2]pad"`
	CPUID           uint32

	ProgramName [64]byte
	HostInfo    [1024]byte
	Pad2        []byte `struc:"[4]pad"`
}

// HeaderSize is the encoded size of a Header.
const HeaderSize = 1200

// Program returns the captured program's name, without its null padding.
func (h *Header) Program() string { return nullTerminated(h.ProgramName[:]) }

// Host returns the captured host's description, without its null padding.
func (h *Header) Host() string { return nullTerminated(h.HostInfo[:]) }

// FormatError is returned when a capture is not in the supported format.
//
// It is fatal to loading: nothing can be replayed from such a capture.
type FormatError struct {
	// Field is the header field that failed validation.
	Field string
	// Found is the value that was read.
	Found uint64
	// Expected is the supported value.
	Expected uint64
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported capture %s: found 0x%X, expected 0x%X", e.Field, e.Found, e.Expected)
}

func (h *Header) validate() error {
	if h.Signature != Signature {
		return &FormatError{Field: "signature", Found: h.Signature, Expected: Signature}
	}
	if h.Version != Version {
		return &FormatError{Field: "version", Found: uint64(h.Version), Expected: uint64(Version)}
	}
	return nil
}

func nullTerminated(v []byte) string {
	if idx := bytes.IndexByte(v, 0); idx >= 0 {
		v = v[:idx]
	}
	return string(v)
}
