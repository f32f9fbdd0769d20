// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package tracy implements the server side of the Tracy live profiling wire
// protocol, version 76.
//
// A connection opens with a handshake: the client sends ClientName and its
// protocol version, and the server answers with a HandshakeStatus byte and,
// if welcomed, a NetworkHeader.
//
// The server then streams frames, each a u32 compressed length followed by an
// LZ4 block. A decompressed frame is a concatenation of response records, each
// a ResponseType byte followed by its fixed payload. At any time, the client
// may send 13-byte Query records, which the server answers inline.
//
// All values are little-endian and packed without padding.
package tracy
