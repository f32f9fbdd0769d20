// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"github.com/cespare/xxhash/v2"
)

// StringTable maps 64-bit identifiers to string content.
//
// Identifiers are assigned by Intern: a string's candidate identifier is its
// content hash, probing forward by one past identifiers that are bound to a
// different string. Because probes depend on earlier bindings, the order in
// which strings are interned determines their identifiers.
//
// The empty string is always bound to identifier 0.
//
// A StringTable is built once while loading a capture. After that it is only
// read, and is safe for concurrent use without synchronization.
type StringTable struct {
	strings map[uint64]string
	hash    func(string) uint64
}

// NewStringTable returns a StringTable holding only the empty string.
func NewStringTable() *StringTable {
	return &StringTable{
		strings: map[uint64]string{0: ""},
		hash:    hashString,
	}
}

// Intern returns the identifier bound to s, binding a new one if s has not
// been interned.
//
// Intern must not be called concurrently with any other method.
func (st *StringTable) Intern(s string) uint64 {
	id := st.hash(s)
	for {
		existing, ok := st.strings[id]
		switch {
		case !ok:
			st.strings[id] = s
			return id
		case existing == s:
			return id
		default:
			id++
		}
	}
}

// Lookup returns the string bound to id.
func (st *StringTable) Lookup(id uint64) (string, bool) {
	s, ok := st.strings[id]
	return s, ok
}

// LookupOr returns the string bound to id, or placeholder if id is not bound.
func (st *StringTable) LookupOr(id uint64, placeholder string) string {
	if s, ok := st.strings[id]; ok {
		return s
	}
	return placeholder
}

// Len returns the number of bound identifiers, including the empty string.
func (st *StringTable) Len() int { return len(st.strings) }

func hashString(s string) uint64 {
	if len(s) == 0 {
		return 0
	}
	return xxhash.Sum64String(s)
}
