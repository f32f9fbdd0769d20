// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package tracy

import (
	"io"

	"github.com/danjacques/gotracereplay/support/dataio"

	"github.com/pkg/errors"
)

// Response is a single record in the server's stream.
type Response interface {
	// Type returns the record's discriminant.
	Type() ResponseType
}

// ZoneBegin opens a zone on the current thread.
//
// Timestamp is relative to the previous timestamp sent for the current
// thread.
type ZoneBegin struct {
	Timestamp uint64
	// Location is the index of the zone's source location.
	Location uint64
}

// ZoneEnd closes the current thread's innermost zone.
type ZoneEnd struct {
	Timestamp uint64
}

// ZoneColor sets the color of the current thread's innermost zone.
type ZoneColor struct {
	R, G, B uint8
}

// FrameMark delimits a frame. Timestamp is absolute.
type FrameMark struct {
	Timestamp uint64
	// Name is the frame set's name, or 0 for the default frame set.
	Name uint64
}

// ThreadContext makes Thread the current thread for subsequent zone records.
type ThreadContext struct {
	Thread uint32
}

// SourceLocation answers a QuerySourceLocation.
type SourceLocation struct {
	Name     uint64
	Function uint64
	File     uint64
	Line     uint32
	R, G, B  uint8
}

// StringData answers a QueryString.
type StringData struct {
	Pointer uint64
	Length  uint16 `struc:"uint16,sizeof=Content"`
	Content []byte
}

// ThreadName answers a QueryThreadString.
type ThreadName struct {
	Pointer uint64
	Length  uint16 `struc:"uint16,sizeof=Content"`
	Content []byte
}

// SourceCodeNotAvailable answers a QuerySourceCode.
type SourceCodeNotAvailable struct {
	ID uint32
}

// Ack is a record that consists only of its discriminant.
type Ack ResponseType

// Acknowledgements with no payload.
const (
	AckServerQueryNoop        = Ack(ResponseAckServerQueryNoop)
	AckSymbolCodeNotAvailable = Ack(ResponseAckSymbolCodeNotAvailable)
)

// Type implements Response.
func (*ZoneBegin) Type() ResponseType { return ResponseZoneBegin }

// Type implements Response.
func (*ZoneEnd) Type() ResponseType { return ResponseZoneEnd }

// Type implements Response.
func (*ZoneColor) Type() ResponseType { return ResponseZoneColor }

// Type implements Response.
func (*FrameMark) Type() ResponseType { return ResponseFrameMarkMsg }

// Type implements Response.
func (*ThreadContext) Type() ResponseType { return ResponseThreadContext }

// Type implements Response.
func (*SourceLocation) Type() ResponseType { return ResponseSourceLocation }

// Type implements Response.
func (*StringData) Type() ResponseType { return ResponseStringData }

// Type implements Response.
func (*ThreadName) Type() ResponseType { return ResponseThreadName }

// Type implements Response.
func (*SourceCodeNotAvailable) Type() ResponseType { return ResponseAckSourceCodeNotAvailable }

// Type implements Response.
func (a Ack) Type() ResponseType { return ResponseType(a) }

// NewStringData returns a StringData carrying v, truncated to the largest
// length that the record can describe.
func NewStringData(ptr uint64, v string) *StringData {
	v = dataio.Truncate16(v)
	return &StringData{Pointer: ptr, Length: uint16(len(v)), Content: []byte(v)}
}

// NewThreadName returns a ThreadName carrying v, truncated to the largest
// length that the record can describe.
func NewThreadName(ptr uint64, v string) *ThreadName {
	v = dataio.Truncate16(v)
	return &ThreadName{Pointer: ptr, Length: uint16(len(v)), Content: []byte(v)}
}

type responseHead struct {
	Type ResponseType
}

// EncodeResponse writes r's discriminant followed by its payload to w.
func EncodeResponse(w io.Writer, r Response) error {
	if err := dataio.Pack(w, &responseHead{Type: r.Type()}); err != nil {
		return err
	}
	if _, ok := r.(Ack); ok {
		return nil
	}
	return dataio.Pack(w, r)
}

func newResponse(rt ResponseType) Response {
	switch rt {
	case ResponseZoneBegin:
		return &ZoneBegin{}
	case ResponseZoneEnd:
		return &ZoneEnd{}
	case ResponseZoneColor:
		return &ZoneColor{}
	case ResponseFrameMarkMsg:
		return &FrameMark{}
	case ResponseThreadContext:
		return &ThreadContext{}
	case ResponseSourceLocation:
		return &SourceLocation{}
	case ResponseStringData:
		return &StringData{}
	case ResponseThreadName:
		return &ThreadName{}
	case ResponseAckSourceCodeNotAvailable:
		return &SourceCodeNotAvailable{}
	case ResponseAckServerQueryNoop, ResponseAckSymbolCodeNotAvailable:
		return Ack(rt)
	default:
		return nil
	}
}

// DecodeResponse reads a single record from r.
//
// Only the record types that EncodeResponse is used for are understood;
// others are reported as a *dataio.VariantError. If r is exhausted at a
// record boundary, DecodeResponse returns io.EOF.
func DecodeResponse(r io.Reader) (Response, error) {
	v, err := dataio.ReadDiscriminant(r, "response type", "records emitted by a replay server",
		func(v uint8) bool { return newResponse(ResponseType(v)) != nil })
	if err != nil {
		if errors.Cause(err) == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}

	resp := newResponse(ResponseType(v))
	if _, ok := resp.(Ack); ok {
		return resp, nil
	}
	if err := dataio.Unpack(r, resp, ResponseType(v).String()); err != nil {
		if errors.Cause(err) == io.EOF {
			err = errors.Wrapf(io.ErrUnexpectedEOF, "decoding %s", ResponseType(v))
		}
		return nil, err
	}
	return resp, nil
}
