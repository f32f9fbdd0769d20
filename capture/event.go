// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"io"
	"strconv"

	"github.com/danjacques/gotracereplay/support/dataio"

	"github.com/pkg/errors"
)

// EventKind is the discriminant of an event record.
type EventKind uint8

// Event kinds, as stored in capture files.
const (
	EventZoneBegin EventKind = 15
	EventZoneEnd   EventKind = 17
	EventZoneColor EventKind = 62
	EventFrameMark EventKind = 64
)

func (k EventKind) String() string {
	switch k {
	case EventZoneBegin:
		return "ZoneBegin"
	case EventZoneEnd:
		return "ZoneEnd"
	case EventZoneColor:
		return "ZoneColor"
	case EventFrameMark:
		return "FrameMark"
	default:
		return "EventKind(" + strconv.Itoa(int(k)) + ")"
	}
}

func validEventKind(v uint8) bool {
	switch EventKind(v) {
	case EventZoneBegin, EventZoneEnd, EventZoneColor, EventFrameMark:
		return true
	default:
		return false
	}
}

// EventRecordSize is the size of every event record: a discriminant, 7 bytes
// of padding, and a 16-byte payload.
const EventRecordSize = 24

// Event is a single decoded capture event. It is one of *ZoneBegin, *ZoneEnd,
// *ZoneColor, or *FrameMark.
type Event interface {
	// Kind returns the event's discriminant.
	Kind() EventKind
}

// ThreadEvent is an Event that occurred on a specific thread.
type ThreadEvent interface {
	Event

	// ThreadID returns the thread that the event occurred on.
	ThreadID() uint32
}

// ZoneBegin opens a zone at a source location.
type ZoneBegin struct {
	Thread    uint32
	Location  uint32
	Timestamp uint64
}

// ZoneEnd closes the innermost open zone on its thread.
type ZoneEnd struct {
	Thread    uint32
	Pad0      []byte `struc:"[4]pad"`
	Timestamp uint64
}

// ZoneColor overrides the color of the innermost open zone on its thread.
type ZoneColor struct {
	Thread uint32
	// Color is red, green, blue and an unused byte.
	Color [4]byte
	Pad0  []byte `struc:"[8]pad"`
}

// FrameMark delimits a frame.
type FrameMark struct {
	Name      uint32
	Pad0      []byte `struc:"[4]pad"`
	Timestamp uint64
}

// Kind implements Event.
func (*ZoneBegin) Kind() EventKind { return EventZoneBegin }

// Kind implements Event.
func (*ZoneEnd) Kind() EventKind { return EventZoneEnd }

// Kind implements Event.
func (*ZoneColor) Kind() EventKind { return EventZoneColor }

// Kind implements Event.
func (*FrameMark) Kind() EventKind { return EventFrameMark }

// ThreadID implements ThreadEvent.
func (e *ZoneBegin) ThreadID() uint32 { return e.Thread }

// ThreadID implements ThreadEvent.
func (e *ZoneEnd) ThreadID() uint32 { return e.Thread }

// ThreadID implements ThreadEvent.
func (e *ZoneColor) ThreadID() uint32 { return e.Thread }

type eventHead struct {
	Kind EventKind
	Pad0 []byte `struc:"[7]pad"`
}

// ReadEvent reads a single event record from r.
//
// If r is exhausted at a record boundary, ReadEvent returns io.EOF. A record
// that is cut short is an error.
func ReadEvent(r io.Reader) (Event, error) {
	kind, err := dataio.ReadDiscriminant(r, "event kind", "15, 17, 62, 64", validEventKind)
	if err != nil {
		if errors.Cause(err) == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}

	var pad [7]byte
	if _, err := io.ReadFull(r, pad[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "decoding %s event padding", EventKind(kind))
	}

	var e Event
	switch EventKind(kind) {
	case EventZoneBegin:
		e = &ZoneBegin{}
	case EventZoneEnd:
		e = &ZoneEnd{}
	case EventZoneColor:
		e = &ZoneColor{}
	case EventFrameMark:
		e = &FrameMark{}
	}
	if err := dataio.Unpack(r, e, EventKind(kind).String()+" event"); err != nil {
		if errors.Cause(err) == io.EOF {
			err = errors.Wrapf(io.ErrUnexpectedEOF, "decoding %s event", EventKind(kind))
		}
		return nil, err
	}
	return e, nil
}

// WriteEvent writes e in its capture file layout.
func WriteEvent(w io.Writer, e Event) error {
	head := eventHead{Kind: e.Kind()}
	if err := dataio.Pack(w, &head); err != nil {
		return err
	}
	return dataio.Pack(w, e)
}
