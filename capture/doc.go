// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package capture reads profiler capture files.
//
// A capture file is laid out as:
//
//	[Header]              1200 bytes, see Header.
//	[Location count]      u32.
//	[Locations...]        count x RawLocation.
//	[Events...]           24-byte event records, to end of file.
//
// All values are little-endian. The file may additionally be stored as a
// snappy framed stream, gzip or zstd; see Compression.
//
// Load reads everything up to the event section once, producing a Trace.
// Events are then read by any number of independent Cursors.
package capture
