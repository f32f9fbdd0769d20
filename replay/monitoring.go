// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracereplay_sessions_active",
		Help: "Count of connected clients being replayed to.",
	})

	sessionsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracereplay_sessions_finished",
		Help: "Count of finished sessions, by result.",
	}, []string{"result"})

	sessionEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracereplay_events",
		Help: "Count of capture events decoded for clients.",
	})

	sentRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracereplay_sent_records",
		Help: "Count of response records sent, by type.",
	}, []string{"type"})

	sentFrames = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracereplay_sent_frames",
		Help: "Count of compressed frames sent.",
	})

	sentBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracereplay_sent_bytes",
		Help: "Count of uncompressed response bytes sent.",
	})

	sentCompressedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracereplay_sent_compressed_bytes",
		Help: "Count of compressed frame bytes sent, excluding length prefixes.",
	})

	receivedQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracereplay_received_queries",
		Help: "Count of client queries received, by type.",
	}, []string{"type"})
)

// Session results, used to label sessionsFinished.
const (
	resultOK        = "ok"
	resultHandshake = "handshake"
	resultError     = "error"
	resultCancelled = "cancelled"
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		// Sessions
		sessionsActiveGauge,
		sessionsFinished,
		sessionEvents,

		// Wire
		sentRecords,
		sentFrames,
		sentBytes,
		sentCompressedBytes,
		receivedQueries,
	)
}
