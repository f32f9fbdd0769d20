// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config controls how a Server replays its trace to each connection.
type Config struct {
	// SkipFrames is the number of leading frames whose events are not sent.
	SkipFrames uint64
	// LimitFrames is the number of frames to send after the skipped ones. If
	// zero, all remaining frames are sent.
	LimitFrames uint64

	// CoalesceEvents is the number of events decoded between outbound flushes
	// that also service pending queries.
	CoalesceEvents int
	// FlushThreshold is the uncompressed size beyond which the outbound buffer
	// is flushed before another record is appended.
	FlushThreshold int

	// PollWindow is how long a query poll waits for inbound data before
	// treating the connection as idle.
	PollWindow time.Duration
	// DrainInterval is the pause between query polls once all events have been
	// sent.
	DrainInterval time.Duration
	// DrainTimeout is how long queries are serviced once all events have been
	// sent.
	DrainTimeout time.Duration
}

// DefaultConfig returns the default replay configuration.
func DefaultConfig() Config {
	return Config{
		CoalesceEvents: 10000,
		FlushThreshold: 250 * 1024,
		PollWindow:     time.Millisecond,
		DrainInterval:  10 * time.Millisecond,
		DrainTimeout:   2 * time.Second,
	}
}

// AddFlags adds Config's flags to fs, using c's current values as defaults.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.Uint64Var(&c.SkipFrames, "skip-frames", c.SkipFrames,
		"Number of leading frames to skip.")
	fs.Uint64Var(&c.LimitFrames, "limit-frames", c.LimitFrames,
		"Number of frames to send after the skipped ones (0 for all).")
	fs.IntVar(&c.CoalesceEvents, "coalesce-events", c.CoalesceEvents,
		"Number of events between flushes that also answer queries.")
	fs.IntVar(&c.FlushThreshold, "flush-threshold", c.FlushThreshold,
		"Uncompressed size, in bytes, beyond which outbound data is flushed.")
	fs.DurationVar(&c.PollWindow, "poll-window", c.PollWindow,
		"How long a query poll waits for client data.")
	fs.DurationVar(&c.DrainInterval, "drain-interval", c.DrainInterval,
		"Pause between query polls after all events are sent.")
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout,
		"How long to answer queries after all events are sent.")
}

// Validate returns an error if c cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.CoalesceEvents <= 0:
		return errors.Errorf("coalesce events must be positive, got %d", c.CoalesceEvents)
	case c.FlushThreshold <= 0:
		return errors.Errorf("flush threshold must be positive, got %d", c.FlushThreshold)
	case c.PollWindow <= 0:
		return errors.Errorf("poll window must be positive, got %s", c.PollWindow)
	case c.DrainInterval < 0:
		return errors.Errorf("drain interval must not be negative, got %s", c.DrainInterval)
	case c.DrainTimeout < 0:
		return errors.Errorf("drain timeout must not be negative, got %s", c.DrainTimeout)
	default:
		return nil
	}
}

// lastFrame returns the last frame number to send, and false if there is no
// limit.
func (c *Config) lastFrame() (uint64, bool) {
	if c.LimitFrames == 0 {
		return 0, false
	}
	return c.SkipFrames + c.LimitFrames, true
}
