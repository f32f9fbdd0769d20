// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay_test

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"time"

	"github.com/danjacques/gotracereplay/capture"
	"github.com/danjacques/gotracereplay/protocol/tracy"
	"github.com/danjacques/gotracereplay/replay"
	"github.com/danjacques/gotracereplay/support/dataio"
	"github.com/danjacques/gotracereplay/support/network"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// testClient is the client side of a replay connection.
type testClient struct {
	conn net.Conn
	r    *bufio.Reader
}

// serveOne serves a single connection with a Server for trace, and returns a
// client connected to it. The session's result is sent to the returned
// channel.
func serveOne(trace *capture.Trace, cfg replay.Config) (*testClient, <-chan error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())

	s := replay.Server{
		Trace:  trace,
		Config: cfg,
	}
	errC := make(chan error, 1)
	go func() {
		defer GinkgoRecover()
		defer l.Close()

		conn, err := l.Accept()
		if err != nil {
			errC <- err
			return
		}
		errC <- s.ServeConn(context.Background(), conn)
	}()

	return dialClient(l.Addr().String()), errC
}

func dialClient(addr string) *testClient {
	conn, err := net.Dial("tcp", addr)
	Expect(err).ToNot(HaveOccurred())
	return &testClient{
		conn: conn,
		r:    bufio.NewReader(conn),
	}
}

func (tc *testClient) Close() { _ = tc.conn.Close() }

func (tc *testClient) sendHandshake(version uint32) {
	var buf bytes.Buffer
	Expect(tracy.WriteClientHandshake(&buf, version)).To(Succeed())
	_, err := tc.conn.Write(buf.Bytes())
	Expect(err).ToNot(HaveOccurred())
}

func (tc *testClient) readStatus() tracy.HandshakeStatus {
	v, err := tc.r.ReadByte()
	Expect(err).ToNot(HaveOccurred())
	return tracy.HandshakeStatus(v)
}

// connect performs a successful handshake and returns the server's header.
func (tc *testClient) connect() *tracy.NetworkHeader {
	tc.sendHandshake(tracy.ProtocolVersion)
	return tc.readWelcome()
}

// readWelcome reads a welcome status and the server's header.
func (tc *testClient) readWelcome() *tracy.NetworkHeader {
	Expect(tc.readStatus()).To(Equal(tracy.HandshakeWelcome))

	var nh tracy.NetworkHeader
	Expect(dataio.Unpack(tc.r, &nh, "network header")).To(Succeed())
	return &nh
}

func (tc *testClient) query(queries ...tracy.Query) {
	var buf bytes.Buffer
	for i := range queries {
		buf.Write(queries[i].Encode())
	}
	_, err := tc.conn.Write(buf.Bytes())
	Expect(err).ToNot(HaveOccurred())
}

type frameSize struct {
	Size uint32
}

// readFrame reads and decodes a single frame. At the end of the stream, it
// returns an error whose cause is io.EOF.
func (tc *testClient) readFrame() ([]tracy.Response, error) {
	var fs frameSize
	if err := dataio.Unpack(tc.r, &fs, "frame size"); err != nil {
		return nil, err
	}

	compressed := make([]byte, fs.Size)
	if _, err := io.ReadFull(tc.r, compressed); err != nil {
		return nil, err
	}
	raw := make([]byte, 1024*1024)
	size, err := lz4.UncompressBlock(compressed, raw)
	if err != nil {
		return nil, err
	}

	var records []tracy.Response
	r := bytes.NewReader(raw[:size])
	for {
		rec, err := tracy.DecodeResponse(r)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// readUntilClosed reads frames until the server closes the connection.
func (tc *testClient) readUntilClosed() []tracy.Response {
	var records []tracy.Response
	for {
		frame, err := tc.readFrame()
		if errors.Cause(err) == io.EOF {
			return records
		}
		Expect(err).ToNot(HaveOccurred())
		Expect(frame).ToNot(BeEmpty())
		records = append(records, frame...)
	}
}

// readRecords reads frames until exactly n records have been received.
func (tc *testClient) readRecords(n int) []tracy.Response {
	Expect(tc.conn.SetReadDeadline(time.Now().Add(10 * time.Second))).To(Succeed())
	defer func() { _ = tc.conn.SetReadDeadline(time.Time{}) }()

	var records []tracy.Response
	for len(records) < n {
		frame, err := tc.readFrame()
		Expect(err).ToNot(HaveOccurred())
		records = append(records, frame...)
	}
	Expect(records).To(HaveLen(n))
	return records
}

// expectClosed asserts that the server closes the connection without sending
// anything more.
func (tc *testClient) expectClosed() {
	Expect(tc.conn.SetReadDeadline(time.Now().Add(10 * time.Second))).To(Succeed())
	_, err := tc.r.ReadByte()
	Expect(err).To(HaveOccurred())
	Expect(network.IsTimeout(err)).To(BeFalse())
}
