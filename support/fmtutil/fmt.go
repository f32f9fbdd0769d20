// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package fmtutil contains formatting helpers.
package fmtutil

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// HexSlice is a byte slice that renders as a sequence of hex bytes, instead
// of the default decimal bytes.
//
// Output as: "[4]byte{0x10, 0x20, 0x30, 0x40}"
type HexSlice []byte

func (hs HexSlice) String() string {
	var sb bytes.Buffer
	sb.Grow((6 * len(hs)) + 16) // 16 is more than we need for static content.
	fmt.Fprintf(&sb, "[%d]byte{", len(hs))
	for i, b := range hs {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02X", b)
	}
	sb.WriteString("}")
	return sb.String()
}

// Untrusted is a byte slice received from a peer. It renders as a quoted
// string if it is printable UTF-8, and as a HexSlice otherwise.
type Untrusted []byte

func (u Untrusted) String() string {
	if utf8.Valid(u) {
		s := string(u)
		q := strconv.Quote(s)
		if q[1:len(q)-1] == s {
			return q
		}
	}
	return HexSlice(u).String()
}
