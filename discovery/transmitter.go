// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package discovery

import (
	"bytes"

	"github.com/danjacques/gotracereplay/protocol/tracy"
	"github.com/danjacques/gotracereplay/support/fmtutil"
	"github.com/danjacques/gotracereplay/support/logging"
	"github.com/danjacques/gotracereplay/support/network"
)

// DefaultTransmitterTarget returns a target for the default profiler
// broadcast port on the IPv4 broadcast address.
func DefaultTransmitterTarget() *network.UDPTarget {
	return network.UDP4BroadcastTarget(tracy.DefaultBroadcastPort)
}

// Transmitter broadcasts a server's presence.
//
// Transmitter is not safe for concurrent use.
type Transmitter struct {
	// Logger, if not nil, is the Logger to log Transmitter status to.
	Logger logging.L

	buf bytes.Buffer
}

// Broadcast sends msg as a single datagram through w.
func (t *Transmitter) Broadcast(w network.DatagramSender, msg *tracy.BroadcastMessage) error {
	// Clear our buffer from any previous instance.
	t.buf.Reset()

	if err := msg.WritePacket(&t.buf); err != nil {
		return err
	}

	t.logger().Debugf("Broadcasting %q (port %d, active %ds): %s",
		msg.ProgramName, msg.ListenPort, msg.ActiveTime, fmtutil.HexSlice(t.buf.Bytes()))
	return w.SendDatagram(t.buf.Bytes())
}

func (t *Transmitter) logger() logging.L { return logging.Must(t.Logger) }
