// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	broadcastsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracereplay_discovery_broadcasts",
		Help: "Count of presence broadcasts sent.",
	})

	broadcastErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracereplay_discovery_broadcast_errors",
		Help: "Count of presence broadcasts that failed to send.",
	})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		broadcastsSent,
		broadcastErrors,
	)
}
