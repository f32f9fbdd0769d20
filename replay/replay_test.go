// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/danjacques/gotracereplay/capture"
	"github.com/danjacques/gotracereplay/capture/capturetest"
	"github.com/danjacques/gotracereplay/protocol/tracy"
	"github.com/danjacques/gotracereplay/replay"

	"github.com/spf13/pflag"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func testConfig() replay.Config {
	cfg := replay.DefaultConfig()
	cfg.DrainTimeout = 50 * time.Millisecond
	return cfg
}

func load(b *capturetest.Builder) *capture.Trace {
	trace, err := capture.Load(b.Source(), nil)
	Expect(err).ToNot(HaveOccurred())
	return trace
}

// newBuilder returns a builder with two locations.
func newBuilder() *capturetest.Builder {
	b := capturetest.NewBuilder()
	b.AddLocation("update", "Game::Update", "game.cpp", 10, 255, 0, 0)
	b.AddLocation("render", "Game::Render", "render.cpp", 20, 0, 255, 0)
	return b
}

var _ = Describe("Server", func() {
	var client *testClient
	AfterEach(func() {
		if client != nil {
			client.Close()
			client = nil
		}
	})

	Context("handshake", func() {
		It("closes the connection without a header on a bad client name", func() {
			var errC <-chan error
			client, errC = serveOne(load(newBuilder()), testConfig())

			_, err := client.conn.Write([]byte("NotTracy\x4c\x00\x00\x00"))
			Expect(err).ToNot(HaveOccurred())
			client.expectClosed()

			var sessionErr error
			Eventually(errC).Should(Receive(&sessionErr))
			Expect(tracy.IsHandshakeError(sessionErr)).To(BeTrue())
		})

		It("reports a protocol mismatch on a different version", func() {
			var errC <-chan error
			client, errC = serveOne(load(newBuilder()), testConfig())

			client.sendHandshake(75)
			Expect(client.readStatus()).To(Equal(tracy.HandshakeProtocolMismatch))
			client.expectClosed()

			var sessionErr error
			Eventually(errC).Should(Receive(&sessionErr))
			Expect(tracy.IsHandshakeError(sessionErr)).To(BeTrue())
			Expect(sessionErr.Error()).To(ContainSubstring("got 75"))
		})

		It("sends the capture's header to a welcomed client", func() {
			var errC <-chan error
			client, errC = serveOne(load(newBuilder()), testConfig())

			nh := client.connect()
			Expect(nh.Multiplier).To(Equal(1.0))
			Expect(nh.InitBegin).To(Equal(uint64(100)))
			Expect(nh.InitEnd).To(Equal(uint64(200)))
			Expect(nh.Delay).To(Equal(uint64(3)))
			Expect(nh.Resolution).To(Equal(uint64(4)))
			Expect(nh.ProcessID).To(Equal(uint64(4242)))
			Expect(nh.SamplingPeriod).To(Equal(uint64(125000)))
			Expect(nh.CPUID).To(Equal(uint32(0x000806C1)))
			Expect(string(nh.CPUManufacturer[:])).To(Equal("GenuineIntel"))
			Expect(string(nh.ProgramName[:8])).To(Equal("game.exe"))
			Expect(nh.ProgramName[8]).To(BeZero())

			Expect(client.readUntilClosed()).To(BeEmpty())
			Eventually(errC).Should(Receive(BeNil()))
		})
	})

	Context("streaming", func() {
		DescribeTable("replays every event of a small capture",
			func(compression capture.Compression) {
				b := newBuilder()
				b.Compression = compression
				b.Mark(100).
					Begin(7, 0, 110).
					Begin(7, 1, 115).
					End(7, 120).
					End(7, 130).
					Mark(200).
					Begin(9, 1, 205).
					Mark(300)

				var errC <-chan error
				client, errC = serveOne(load(b), testConfig())
				client.connect()

				Expect(client.readUntilClosed()).To(Equal([]tracy.Response{
					&tracy.FrameMark{Timestamp: 100},
					&tracy.ThreadContext{Thread: 7},
					&tracy.ZoneBegin{Timestamp: 110, Location: 0},
					&tracy.ZoneBegin{Timestamp: 5, Location: 1},
					&tracy.ZoneEnd{Timestamp: 5},
					&tracy.ZoneEnd{Timestamp: 10},
					&tracy.FrameMark{Timestamp: 200},
					&tracy.ThreadContext{Thread: 9},
					&tracy.ZoneBegin{Timestamp: 205, Location: 1},
					&tracy.FrameMark{Timestamp: 300},
				}))
				Eventually(errC).Should(Receive(BeNil()))
			},
			Entry("uncompressed", capture.CompressionNone),
			Entry("snappy", capture.CompressionSnappy),
			Entry("gzip", capture.CompressionGzip),
			Entry("zstd", capture.CompressionZstd),
		)

		It("drops events before the first frame", func() {
			b := newBuilder()
			b.Begin(1, 0, 10).End(1, 20).Mark(30).Begin(1, 0, 40)

			client, _ = serveOne(load(b), testConfig())
			client.connect()
			Expect(client.readUntilClosed()).To(Equal([]tracy.Response{
				&tracy.FrameMark{Timestamp: 30},
				&tracy.ThreadContext{Thread: 1},
				&tracy.ZoneBegin{Timestamp: 40, Location: 0},
			}))
		})

		It("sends only the frames within the skip and limit window", func() {
			b := newBuilder()
			for i := uint64(1); i <= 6; i++ {
				b.Mark(i*100).Begin(1, 0, i*100+10).End(1, i*100+20)
			}

			cfg := testConfig()
			cfg.SkipFrames = 2
			cfg.LimitFrames = 2

			client, _ = serveOne(load(b), cfg)
			client.connect()
			Expect(client.readUntilClosed()).To(Equal([]tracy.Response{
				&tracy.FrameMark{Timestamp: 300},
				&tracy.ThreadContext{Thread: 1},
				&tracy.ZoneBegin{Timestamp: 310, Location: 0},
				&tracy.ZoneEnd{Timestamp: 10},
				&tracy.FrameMark{Timestamp: 400},
				&tracy.ZoneBegin{Timestamp: 90, Location: 0},
				&tracy.ZoneEnd{Timestamp: 10},
				&tracy.FrameMark{Timestamp: 500},
			}))
		})

		It("switches thread context once per run of a thread", func() {
			b := newBuilder()
			b.Mark(0).
				Begin(1, 0, 10).
				Begin(2, 1, 20).
				End(2, 30).
				End(1, 40).
				Color(1, 1, 2, 3).
				Begin(1, 0, 50)

			client, _ = serveOne(load(b), testConfig())
			client.connect()
			Expect(client.readUntilClosed()).To(Equal([]tracy.Response{
				&tracy.FrameMark{Timestamp: 0},
				&tracy.ThreadContext{Thread: 1},
				&tracy.ZoneBegin{Timestamp: 10, Location: 0},
				&tracy.ThreadContext{Thread: 2},
				&tracy.ZoneBegin{Timestamp: 20, Location: 1},
				&tracy.ZoneEnd{Timestamp: 10},
				&tracy.ThreadContext{Thread: 1},
				&tracy.ZoneEnd{Timestamp: 40},
				&tracy.ZoneColor{R: 1, G: 2, B: 3},
				&tracy.ZoneBegin{Timestamp: 10, Location: 0},
			}))
		})

		It("switches thread context for a color on another thread", func() {
			b := newBuilder()
			b.Mark(0).Begin(1, 0, 10).Color(3, 4, 5, 6).End(1, 30)

			client, _ = serveOne(load(b), testConfig())
			client.connect()
			Expect(client.readUntilClosed()).To(Equal([]tracy.Response{
				&tracy.FrameMark{Timestamp: 0},
				&tracy.ThreadContext{Thread: 1},
				&tracy.ZoneBegin{Timestamp: 10, Location: 0},
				&tracy.ThreadContext{Thread: 3},
				&tracy.ZoneColor{R: 4, G: 5, B: 6},
				&tracy.ThreadContext{Thread: 1},
				&tracy.ZoneEnd{Timestamp: 30},
			}))
		})

		It("splits large replays into multiple frames", func() {
			b := newBuilder()
			b.Mark(0)
			for i := uint64(0); i < 100; i++ {
				b.Begin(1, 0, i*10).End(1, i*10+5)
			}

			cfg := testConfig()
			cfg.FlushThreshold = 64
			cfg.CoalesceEvents = 7

			client, _ = serveOne(load(b), cfg)
			client.connect()

			var frames, records int
			for {
				frame, err := client.readFrame()
				if err != nil {
					break
				}
				frames++
				records += len(frame)
			}
			Expect(frames).To(BeNumerically(">", 1))
			Expect(records).To(Equal(1 + 1 + 200))
		})

		It("stops when the client terminates during the replay", func() {
			b := newBuilder()
			b.Mark(0).Begin(1, 0, 10).End(1, 20).Mark(30)

			cfg := testConfig()
			cfg.CoalesceEvents = 1
			cfg.PollWindow = 100 * time.Millisecond

			var errC <-chan error
			client, errC = serveOne(load(b), cfg)
			client.sendHandshake(tracy.ProtocolVersion)
			client.query(tracy.Query{Type: tracy.QueryTerminate})
			client.readWelcome()

			Expect(client.readUntilClosed()).To(Equal([]tracy.Response{
				&tracy.FrameMark{Timestamp: 0},
			}))
			Eventually(errC).Should(Receive(BeNil()))
		})
	})

	Context("queries", func() {
		var (
			trace *capture.Trace
			errC  <-chan error
		)
		BeforeEach(func() {
			b := newBuilder()
			b.Mark(0)
			trace = load(b)

			cfg := testConfig()
			cfg.DrainTimeout = time.Minute
			client, errC = serveOne(trace, cfg)
			client.connect()
			Expect(client.readRecords(1)).To(Equal([]tracy.Response{&tracy.FrameMark{Timestamp: 0}}))
		})

		It("answers lookups from the trace", func() {
			loc := trace.Locations[1]
			client.query(
				tracy.Query{Type: tracy.QueryString, Pointer: loc.Function},
				tracy.Query{Type: tracy.QueryThreadString, Pointer: 7},
				tracy.Query{Type: tracy.QuerySourceLocation, Pointer: 1},
			)
			Expect(client.readRecords(3)).To(Equal([]tracy.Response{
				tracy.NewStringData(loc.Function, "Game::Render"),
				tracy.NewThreadName(7, "Main"),
				&tracy.SourceLocation{
					Name:     loc.Name,
					Function: loc.Function,
					File:     loc.File,
					Line:     20,
					G:        255,
				},
			}))

			client.query(tracy.Query{Type: tracy.QueryTerminate})
			client.expectClosed()
			Eventually(errC).Should(Receive(BeNil()))
		})

		It("answers unknown strings with a placeholder", func() {
			var unknown uint64 = 0xDEADBEEF
			_, ok := trace.Strings.Lookup(unknown)
			Expect(ok).To(BeFalse())

			client.query(tracy.Query{Type: tracy.QueryString, Pointer: unknown})
			Expect(client.readRecords(1)).To(Equal([]tracy.Response{tracy.NewStringData(unknown, "Unkn")}))
		})

		It("acknowledges unavailable code and data transfers", func() {
			client.query(
				tracy.Query{Type: tracy.QuerySymbolCode, Pointer: 0x1000},
				tracy.Query{Type: tracy.QueryPlotName, Pointer: 1},
				tracy.Query{Type: tracy.QuerySourceCode, Pointer: 12},
				tracy.Query{Type: tracy.QueryDataTransfer},
				tracy.Query{Type: tracy.QueryDataTransferPart},
			)
			Expect(client.readRecords(4)).To(Equal([]tracy.Response{
				tracy.AckSymbolCodeNotAvailable,
				&tracy.SourceCodeNotAvailable{ID: 12},
				tracy.AckServerQueryNoop,
				tracy.AckServerQueryNoop,
			}))
		})

		It("fails the session on an unknown source location", func() {
			client.query(tracy.Query{Type: tracy.QuerySourceLocation, Pointer: 2})
			client.expectClosed()

			var sessionErr error
			Eventually(errC).Should(Receive(&sessionErr))
			Expect(sessionErr).To(MatchError(ContainSubstring("source location 2 out of range")))
		})

		It("fails the session on an unknown query type", func() {
			_, err := client.conn.Write([]byte{200, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
			Expect(err).ToNot(HaveOccurred())
			client.expectClosed()

			var sessionErr error
			Eventually(errC).Should(Receive(&sessionErr))
			Expect(sessionErr).To(HaveOccurred())
		})

		It("ends the session when the client disconnects", func() {
			client.Close()
			client = nil
			Eventually(errC).Should(Receive(BeNil()))
		})

		It("waits for a query that arrives in pieces", func() {
			raw := (&tracy.Query{Type: tracy.QueryThreadString, Pointer: 3}).Encode()
			_, err := client.conn.Write(raw[:5])
			Expect(err).ToNot(HaveOccurred())
			time.Sleep(50 * time.Millisecond)
			_, err = client.conn.Write(raw[5:])
			Expect(err).ToNot(HaveOccurred())

			Expect(client.readRecords(1)).To(Equal([]tracy.Response{tracy.NewThreadName(3, "Main")}))
		})
	})

	Context("Serve", func() {
		It("serves clients until cancelled", func() {
			b := newBuilder()
			b.Mark(0)

			l, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).ToNot(HaveOccurred())

			cfg := testConfig()
			cfg.DrainTimeout = time.Minute
			s := replay.Server{Trace: load(b), Config: cfg}

			c, cancel := context.WithCancel(context.Background())
			defer cancel()
			serveErrC := make(chan error, 1)
			go func() {
				serveErrC <- s.Serve(c, l)
			}()

			first := dialClient(l.Addr().String())
			defer first.Close()
			second := dialClient(l.Addr().String())
			defer second.Close()

			first.connect()
			second.connect()
			Expect(first.readRecords(1)).To(Equal([]tracy.Response{&tracy.FrameMark{Timestamp: 0}}))
			Expect(second.readRecords(1)).To(Equal([]tracy.Response{&tracy.FrameMark{Timestamp: 0}}))

			cancel()
			Eventually(serveErrC, 10*time.Second).Should(Receive(Equal(context.Canceled)))
			first.expectClosed()
			second.expectClosed()
		})

		It("refuses an invalid configuration", func() {
			s := replay.Server{Trace: load(newBuilder()), Config: replay.Config{}}
			l, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).ToNot(HaveOccurred())
			defer l.Close()
			Expect(s.Serve(context.Background(), l)).ToNot(Succeed())
		})
	})
})

var _ = Describe("Config", func() {
	It("registers flags with defaults", func() {
		cfg := replay.DefaultConfig()
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		cfg.AddFlags(fs)

		Expect(fs.Parse([]string{"--skip-frames=2", "--limit-frames=3", "--drain-timeout=5s"})).To(Succeed())
		Expect(cfg.SkipFrames).To(Equal(uint64(2)))
		Expect(cfg.LimitFrames).To(Equal(uint64(3)))
		Expect(cfg.DrainTimeout).To(Equal(5 * time.Second))
		Expect(cfg.CoalesceEvents).To(Equal(10000))
		Expect(cfg.FlushThreshold).To(Equal(250 * 1024))
		Expect(cfg.Validate()).To(Succeed())
	})

	DescribeTable("rejects invalid values",
		func(mutate func(*replay.Config)) {
			cfg := replay.DefaultConfig()
			mutate(&cfg)
			Expect(cfg.Validate()).ToNot(Succeed())
		},
		Entry("coalesce events", func(c *replay.Config) { c.CoalesceEvents = 0 }),
		Entry("flush threshold", func(c *replay.Config) { c.FlushThreshold = -1 }),
		Entry("poll window", func(c *replay.Config) { c.PollWindow = 0 }),
		Entry("drain interval", func(c *replay.Config) { c.DrainInterval = -time.Second }),
		Entry("drain timeout", func(c *replay.Config) { c.DrainTimeout = -time.Second }),
	)
})

func TestReplay(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Testing replay")
}
