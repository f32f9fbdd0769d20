// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package network

import (
	"io"
	"net"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
)

// ListenAddr returns the address to listen on for port on all interfaces.
func ListenAddr(port int) string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
}

// ListenTCP opens a TCP listener on all interfaces at port.
//
// If port is 0, a port will be chosen by the system.
func ListenTCP(port int) (net.Listener, error) {
	if port < 0 || port > 0xFFFF {
		return nil, errors.Errorf("invalid port %d", port)
	}
	l, err := net.Listen("tcp", ListenAddr(port))
	if err != nil {
		return nil, errors.Wrapf(err, "listening on port %d", port)
	}
	return l, nil
}

// IsTimeout returns true if err was caused by an expired deadline.
//
// The connection remains usable after a timeout, which makes a short read
// deadline a non-blocking poll.
func IsTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// IsDisconnect returns true if err indicates that the peer went away: an
// orderly close, a reset, or a broken pipe.
func IsDisconnect(err error) bool {
	switch cause := errors.Cause(err); {
	case cause == io.EOF, cause == io.ErrUnexpectedEOF:
		return true
	case errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return true
	default:
		return false
	}
}
