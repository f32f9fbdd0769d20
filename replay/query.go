// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"github.com/danjacques/gotracereplay/protocol/tracy"

	"github.com/pkg/errors"
)

const (
	// unknownString answers string queries for identifiers the trace does not
	// hold.
	unknownString = "Unkn"
	// threadName answers every thread name query.
	threadName = "Main"
)

// answer sends the response to q, if any.
//
// answer returns false if q asks for the session to end.
func (s *session) answer(q *tracy.Query) (bool, error) {
	receivedQueries.WithLabelValues(q.Type.String()).Inc()

	var resp tracy.Response
	switch q.Type {
	case tracy.QueryTerminate:
		s.logger.Debugf("Client requested termination.")
		return false, nil

	case tracy.QueryString:
		resp = tracy.NewStringData(q.Pointer, s.trace.Strings.LookupOr(q.Pointer, unknownString))

	case tracy.QueryThreadString:
		resp = tracy.NewThreadName(q.Pointer, threadName)

	case tracy.QuerySourceLocation:
		loc, ok := s.trace.Location(q.Pointer)
		if !ok {
			return false, errors.Errorf("source location %d out of range (%d locations)",
				q.Pointer, len(s.trace.Locations))
		}
		resp = &tracy.SourceLocation{
			Name:     loc.Name,
			Function: loc.Function,
			File:     loc.File,
			Line:     loc.Line,
			R:        loc.ColorR,
			G:        loc.ColorG,
			B:        loc.ColorB,
		}

	case tracy.QuerySymbolCode:
		resp = tracy.AckSymbolCodeNotAvailable

	case tracy.QuerySourceCode:
		resp = &tracy.SourceCodeNotAvailable{ID: uint32(q.Pointer)}

	case tracy.QueryDataTransfer, tracy.QueryDataTransferPart:
		resp = tracy.AckServerQueryNoop

	default:
		s.logger.Infof("Ignoring unsupported %s query (pointer 0x%X, extra 0x%X).", q.Type, q.Pointer, q.Extra)
		return true, nil
	}

	return true, s.out.send(resp)
}
