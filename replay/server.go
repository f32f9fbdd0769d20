// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"context"
	"net"
	"sync"

	"github.com/danjacques/gotracereplay/capture"
	"github.com/danjacques/gotracereplay/protocol/tracy"
	"github.com/danjacques/gotracereplay/support/logging"
	"github.com/danjacques/gotracereplay/support/network"

	"github.com/pkg/errors"
)

// Server replays a loaded trace to every client that connects to it.
//
// Each connection is served independently, with its own event cursor. The
// Server's exported fields must not be changed once serving has begun.
type Server struct {
	// Trace is the trace to replay. It must not be nil.
	Trace *capture.Trace

	// Config is the replay configuration.
	Config Config

	// Logger is the logger instance to use. If nil, no logging will be
	// performed.
	Logger logging.L
}

// Serve accepts connections from l and serves each in its own goroutine.
//
// Serve runs until c is cancelled or l fails. Serve closes l when c is
// cancelled, and waits for its connections to finish before returning. A
// session's error ends that session only, and is logged.
func (s *Server) Serve(c context.Context, l net.Listener) error {
	if err := s.Config.Validate(); err != nil {
		return err
	}
	logger := logging.Must(s.Logger)

	stop := context.AfterFunc(c, func() {
		if err := l.Close(); err != nil {
			logger.Debugf("Failed to close listener: %s", err)
		}
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	logger.Infof("Serving replay on %s.", l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			if c.Err() != nil {
				return c.Err()
			}
			return errors.Wrap(err, "accepting connection")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			switch err := s.ServeConn(c, conn); {
			case err == nil, c.Err() != nil:
				logger.Infof("[%s] Client disconnected.", conn.RemoteAddr())
			case network.IsDisconnect(err):
				logger.Infof("[%s] Client went away: %s", conn.RemoteAddr(), err)
			default:
				logger.Warnf("[%s] Client disconnected with error: %s", conn.RemoteAddr(), err)
			}
		}()
	}
}

// ServeConn serves a single connection until its session ends, and then
// closes it.
//
// ServeConn returns nil if the session ended normally: the client asked to
// terminate, disconnected, or the trace was fully sent and the drain window
// expired. If c is cancelled, the connection is closed and ServeConn returns
// c's error.
func (s *Server) ServeConn(c context.Context, conn net.Conn) error {
	logger := logging.Prefix(s.Logger, "["+conn.RemoteAddr().String()+"] ")
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debugf("Failed to close connection: %s", err)
		}
	}()

	if err := s.Config.Validate(); err != nil {
		return err
	}

	stop := context.AfterFunc(c, func() { _ = conn.Close() })
	defer stop()

	sessionsActiveGauge.Inc()
	defer sessionsActiveGauge.Dec()

	logger.Infof("Client connected.")
	err := newSession(s.Trace, &s.Config, logger, conn).run(c)
	if err != nil && c.Err() != nil {
		err = c.Err()
	}

	switch {
	case err == nil:
		sessionsFinished.WithLabelValues(resultOK).Inc()
	case tracy.IsHandshakeError(err):
		sessionsFinished.WithLabelValues(resultHandshake).Inc()
	case err == c.Err():
		sessionsFinished.WithLabelValues(resultCancelled).Inc()
	default:
		sessionsFinished.WithLabelValues(resultError).Inc()
	}
	return err
}
