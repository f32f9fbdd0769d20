// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package tracereplay defines the logic for the "tracereplay" app.
//
// This app loads a capture file and replays it, over the Tracy live protocol,
// to every profiler client that connects.
package tracereplay

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/danjacques/gotracereplay/capture"
	"github.com/danjacques/gotracereplay/discovery"
	"github.com/danjacques/gotracereplay/protocol/tracy"
	"github.com/danjacques/gotracereplay/replay"
	"github.com/danjacques/gotracereplay/support/logging"
	"github.com/danjacques/gotracereplay/support/network"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

// DefaultPort is the port that Tracy clients connect to by default.
const DefaultPort = 8086

// Main is the main entry point.
func Main() {
	c, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := Run(c, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tracereplay: %s\n", err)
		os.Exit(1)
	}
}

// Run parses args and serves the capture that they name until c is cancelled.
//
// The capture is loaded before the listening port is bound, so a capture that
// cannot be replayed never accepts a client.
func Run(c context.Context, args []string) error {
	fs := pflag.NewFlagSet("tracereplay", pflag.ContinueOnError)
	port := fs.Int("port", DefaultPort, "TCP port to accept clients on.")
	metricsAddr := fs.String("metrics-addr", "", "If set, serve Prometheus metrics on this address.")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error).")
	broadcast := fs.Bool("broadcast", false, "Announce this server to profilers on the local network.")
	broadcastAddr := fs.String("broadcast-addr", discovery.DefaultTransmitterTarget().String(),
		"Address to send presence broadcasts to.")
	broadcastInterval := fs.Duration("broadcast-interval", discovery.DefaultAnnounceInterval,
		"Interval between presence broadcasts.")
	cfg := replay.DefaultConfig()
	cfg.AddFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tracereplay [flags] <capture>\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.Errorf("expected exactly one capture path, got %d", fs.NArg())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var target *network.UDPTarget
	if *broadcast {
		var err error
		if target, err = network.ParseUDP4Target(*broadcastAddr, tracy.DefaultBroadcastPort); err != nil {
			return errors.Wrap(err, "invalid broadcast address")
		}
		if *broadcastInterval <= 0 {
			return errors.Errorf("invalid broadcast interval %s", *broadcastInterval)
		}
	}

	zl, err := logging.New(*logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	path := fs.Arg(0)
	trace, err := capture.Load(capture.FileSource(path), logger)
	if err != nil {
		return errors.Wrapf(err, "loading capture %q", path)
	}

	l, err := network.ListenTCP(*port)
	if err != nil {
		return err
	}

	if *metricsAddr != "" {
		stop := serveMetrics(*metricsAddr, logger)
		defer stop()
	}

	if target != nil {
		a := discovery.Announcer{
			Sender: &network.ResilientDatagramSender{Factory: target.DatagramSender},
			Message: tracy.BroadcastMessage{
				ListenPort:  uint16(l.Addr().(*net.TCPAddr).Port),
				ProcessID:   trace.Header.ProcessID,
				ProgramName: trace.Header.Program(),
			},
			Interval: *broadcastInterval,
			Logger:   logging.Prefix(logger, "[broadcast] "),
		}

		// The departure broadcast is sent before Run returns.
		var wg sync.WaitGroup
		defer wg.Wait()
		ac, cancel := context.WithCancel(c)
		defer cancel()

		logger.Infof("Broadcasting presence to %s.", target)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { _ = a.Sender.Close() }()
			if err := a.Run(ac); err != nil {
				logger.Errorf("Presence broadcasts stopped: %s", err)
			}
		}()
	}

	s := replay.Server{
		Trace:  trace,
		Config: cfg,
		Logger: logger,
	}
	if err := s.Serve(c, l); err != nil && errors.Cause(err) != c.Err() {
		return err
	}
	logger.Infof("Shut down.")
	return nil
}

// serveMetrics serves this process's metrics on addr until the returned
// function is called.
func serveMetrics(addr string, logger logging.L) func() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	replay.RegisterMonitoring(reg)
	discovery.RegisterMonitoring(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Serving metrics on %s.", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Metrics server failed: %s", err)
		}
	}()

	return func() {
		c, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			logger.Warnf("Failed to shut down metrics server: %s", err)
		}
	}
}
