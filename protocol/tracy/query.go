// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package tracy

import (
	"bytes"
	"strconv"

	"github.com/danjacques/gotracereplay/support/dataio"
)

// QueryType identifies a client query.
type QueryType uint8

// Query types.
const (
	QueryTerminate QueryType = iota
	QueryString
	QueryThreadString
	QuerySourceLocation
	QueryPlotName
	QueryFrameName
	QueryParameter
	QueryFiberName
	QueryDisconnect
	QueryCallstackFrame
	QueryExternalName
	QuerySymbol
	QuerySymbolCode
	QuerySourceCode
	QueryDataTransfer
	QueryDataTransferPart

	numQueryTypes
)

var queryTypeNames = [...]string{
	"Terminate",
	"String",
	"ThreadString",
	"SourceLocation",
	"PlotName",
	"FrameName",
	"Parameter",
	"FiberName",
	"Disconnect",
	"CallstackFrame",
	"ExternalName",
	"Symbol",
	"SymbolCode",
	"SourceCode",
	"DataTransfer",
	"DataTransferPart",
}

func (qt QueryType) String() string {
	if qt < numQueryTypes {
		return queryTypeNames[qt]
	}
	return "QueryType(" + strconv.Itoa(int(qt)) + ")"
}

// QuerySize is the encoded size of a Query.
const QuerySize = 13

// Query is a single request from a client.
type Query struct {
	Type QueryType
	// Pointer is the query's subject: a string identifier, a thread, or a
	// location index, depending on Type.
	Pointer uint64
	// Extra is additional type-specific data.
	Extra uint32
}

// DecodeQuery decodes a Query from the first QuerySize bytes of buf.
//
// An unknown query type is reported as a *dataio.VariantError.
func DecodeQuery(buf []byte) (*Query, error) {
	var q Query
	if err := dataio.UnpackBytes(buf, &q, "query"); err != nil {
		return nil, err
	}
	if q.Type >= numQueryTypes {
		return nil, &dataio.VariantError{
			Type:    "query type",
			Found:   uint8(q.Type),
			Allowed: "0-" + strconv.Itoa(int(numQueryTypes-1)),
		}
	}
	return &q, nil
}

// Encode returns the wire encoding of q.
func (q *Query) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(QuerySize)
	if err := dataio.Pack(&buf, q); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
