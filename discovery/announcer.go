// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package discovery

import (
	"context"
	"time"

	"github.com/danjacques/gotracereplay/protocol/tracy"
	"github.com/danjacques/gotracereplay/support/logging"
	"github.com/danjacques/gotracereplay/support/network"

	"github.com/pkg/errors"
)

// DefaultAnnounceInterval is the interval between broadcasts that profilers
// expect.
const DefaultAnnounceInterval = 3 * time.Second

// Announcer periodically broadcasts a server's presence.
type Announcer struct {
	// Sender sends the broadcasts. It must not be nil.
	Sender network.DatagramSender

	// Message describes the server. Its ActiveTime is filled in by the
	// Announcer.
	Message tracy.BroadcastMessage

	// Interval is the time between broadcasts.
	Interval time.Duration

	// Logger, if not nil, is the Logger to log Announcer status to.
	Logger logging.L
}

// Run broadcasts until c is cancelled, then broadcasts the server's departure.
//
// A failed broadcast is logged and retried at the next interval.
func (a *Announcer) Run(c context.Context) error {
	if a.Interval <= 0 {
		return errors.Errorf("invalid announce interval %s", a.Interval)
	}
	logger := logging.Must(a.Logger)
	t := Transmitter{Logger: a.Logger}

	send := func(msg *tracy.BroadcastMessage) {
		if err := t.Broadcast(a.Sender, msg); err != nil {
			broadcastErrors.Inc()
			logger.Warnf("Failed to broadcast to profilers: %s", err)
			return
		}
		broadcastsSent.Inc()
	}

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	msg := a.Message
	start := time.Now()
	for {
		msg.ActiveTime = int32(time.Since(start) / time.Second)
		send(&msg)

		select {
		case <-c.Done():
			msg.ActiveTime = -1
			send(&msg)
			return nil
		case <-ticker.C:
		}
	}
}
