// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"

	"github.com/danjacques/gotracereplay/capture"
	"github.com/danjacques/gotracereplay/protocol/tracy"
	"github.com/danjacques/gotracereplay/support/dataio"
	"github.com/danjacques/gotracereplay/support/logging"
	"github.com/danjacques/gotracereplay/support/network"

	"github.com/pkg/errors"
)

// session replays a trace to a single connection.
type session struct {
	trace  *capture.Trace
	cfg    *Config
	logger logging.L

	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	out  *outbound

	// hasThread is false until the first zone record is sent.
	hasThread bool
	// thread is the thread that zone records currently apply to.
	thread uint32
	// timestamp is the baseline that zone timestamps are sent relative to.
	timestamp uint64
	// frame is the number of frame marks decoded so far.
	frame uint64
}

func newSession(trace *capture.Trace, cfg *Config, logger logging.L, conn net.Conn) *session {
	w := bufio.NewWriter(conn)
	return &session{
		trace:  trace,
		cfg:    cfg,
		logger: logger,
		conn:   conn,
		r:      bufio.NewReader(conn),
		w:      w,
		out:    newOutbound(w, cfg.FlushThreshold),
	}
}

func (s *session) run(c context.Context) error {
	if err := s.handshake(); err != nil {
		return err
	}

	drain, err := s.stream(c)
	if err != nil || !drain {
		return err
	}
	if err := s.out.flush(); err != nil {
		return err
	}

	s.logger.Infof("Sent %d frame(s), answering queries for up to %s.", s.frame, s.cfg.DrainTimeout)
	return s.drain(c)
}

func (s *session) handshake() error {
	if err := tracy.ReadClientName(s.r); err != nil {
		return err
	}
	version, err := tracy.ReadClientVersion(s.r)
	if err != nil {
		return err
	}
	if version != tracy.ProtocolVersion {
		if err := s.writeStatus(tracy.HandshakeProtocolMismatch); err != nil {
			s.logger.Debugf("Failed to report protocol mismatch: %s", err)
		}
		return &tracy.HandshakeError{Token: []byte(tracy.ClientName), Version: version}
	}

	if err := s.writeStatus(tracy.HandshakeWelcome); err != nil {
		return err
	}
	if err := dataio.Pack(s.w, networkHeader(&s.trace.Header)); err != nil {
		return errors.Wrap(err, "writing network header")
	}
	return errors.Wrap(s.w.Flush(), "flushing network header")
}

func (s *session) writeStatus(status tracy.HandshakeStatus) error {
	if err := s.w.WriteByte(byte(status)); err != nil {
		return errors.Wrap(err, "writing handshake status")
	}
	return errors.Wrap(s.w.Flush(), "flushing handshake status")
}

// stream sends the trace's events. It returns false if the session should
// end without draining.
func (s *session) stream(c context.Context) (bool, error) {
	cur, err := capture.OpenCursor(s.trace)
	if err != nil {
		return false, err
	}
	defer func() {
		if err := cur.Close(); err != nil {
			s.logger.Warnf("Failed to close event cursor: %s", err)
		}
	}()

	decoded := 0
	for {
		e, err := cur.Next()
		if err == io.EOF {
			s.logger.Debugf("Reached end of capture after %d event(s).", cur.Count())
			return true, nil
		}
		if err != nil {
			return false, err
		}
		sessionEvents.Inc()

		done, err := s.replay(e)
		if err != nil {
			return false, err
		}
		if done {
			s.logger.Debugf("Reached frame limit after %d event(s).", cur.Count())
			return true, nil
		}

		if decoded++; decoded >= s.cfg.CoalesceEvents {
			decoded = 0
			if err := c.Err(); err != nil {
				return false, err
			}
			if err := s.out.flush(); err != nil {
				return false, err
			}
			if more, err := s.poll(); err != nil || !more {
				return false, err
			}
		}
	}
}

// replay sends the records for e. It returns true once the frame limit has
// been passed.
func (s *session) replay(e capture.Event) (bool, error) {
	if fm, ok := e.(*capture.FrameMark); ok {
		s.frame++
		if s.frame > s.cfg.SkipFrames {
			if err := s.out.send(&tracy.FrameMark{Timestamp: fm.Timestamp}); err != nil {
				return false, err
			}
		}
		last, ok := s.cfg.lastFrame()
		return ok && s.frame > last, nil
	}

	te, ok := e.(capture.ThreadEvent)
	if !ok {
		return false, errors.Errorf("unknown event %T", e)
	}
	if s.frame <= s.cfg.SkipFrames {
		return false, nil
	}
	if err := s.switchThread(te.ThreadID()); err != nil {
		return false, err
	}

	switch e := te.(type) {
	case *capture.ZoneBegin:
		if err := s.out.send(&tracy.ZoneBegin{
			Timestamp: e.Timestamp - s.timestamp,
			Location:  uint64(e.Location),
		}); err != nil {
			return false, err
		}
		s.timestamp = e.Timestamp

	case *capture.ZoneEnd:
		if err := s.out.send(&tracy.ZoneEnd{Timestamp: e.Timestamp - s.timestamp}); err != nil {
			return false, err
		}
		s.timestamp = e.Timestamp

	case *capture.ZoneColor:
		return false, s.out.send(&tracy.ZoneColor{R: e.Color[0], G: e.Color[1], B: e.Color[2]})

	default:
		return false, errors.Errorf("unknown thread event %T", e)
	}
	return false, nil
}

// switchThread makes thread the current thread, resetting the timestamp
// baseline if it changes.
func (s *session) switchThread(thread uint32) error {
	if s.hasThread && s.thread == thread {
		return nil
	}
	s.hasThread, s.thread, s.timestamp = true, thread, 0
	return s.out.send(&tracy.ThreadContext{Thread: thread})
}

// drain answers queries until the drain timeout expires, the client asks to
// terminate, or the client disconnects.
func (s *session) drain(c context.Context) error {
	deadline := time.Now().Add(s.cfg.DrainTimeout)
	for {
		more, err := s.poll()
		if err != nil || !more {
			return err
		}
		if !time.Now().Before(deadline) {
			s.logger.Debugf("Drain timeout expired.")
			return nil
		}

		select {
		case <-c.Done():
			return c.Err()
		case <-time.After(s.cfg.DrainInterval):
		}
	}
}

// poll answers every query that the client has already sent, then flushes.
//
// poll returns false if the session should end, either because the client
// asked to terminate or because it closed the connection.
func (s *session) poll() (bool, error) {
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.PollWindow)); err != nil {
			return false, errors.Wrap(err, "setting poll deadline")
		}

		// A partial query stays buffered until the next poll.
		buf, err := s.r.Peek(tracy.QuerySize)
		if err != nil {
			if network.IsTimeout(err) {
				break
			}
			if errors.Cause(err) == io.EOF {
				s.logger.Debugf("Client closed the connection.")
				return false, nil
			}
			return false, errors.Wrap(err, "reading query")
		}

		q, err := tracy.DecodeQuery(buf)
		if _, discardErr := s.r.Discard(tracy.QuerySize); discardErr != nil {
			return false, errors.Wrap(discardErr, "consuming query")
		}
		if err != nil {
			return false, err
		}

		more, err := s.answer(q)
		if err != nil || !more {
			return false, err
		}
	}

	if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
		return false, errors.Wrap(err, "clearing poll deadline")
	}
	return true, s.out.flush()
}

func networkHeader(h *capture.Header) *tracy.NetworkHeader {
	return &tracy.NetworkHeader{
		Multiplier:      h.Multiplier,
		InitBegin:       h.InitBegin,
		InitEnd:         h.InitEnd,
		Delay:           h.Delay,
		Resolution:      h.Resolution,
		Epoch:           h.Epoch,
		ExecTime:        h.ExecTime,
		ProcessID:       h.ProcessID,
		SamplingPeriod:  h.SamplingPeriod,
		Flags:           h.Flags,
		CPUArch:         h.CPUArch,
		CPUManufacturer: h.CPUManufacturer,
		CPUID:           h.CPUID,
		ProgramName:     h.ProgramName,
		HostInfo:        h.HostInfo,
	}
}
