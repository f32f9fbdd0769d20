// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package network

import (
	"net"
	"time"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type mockDatagramSender struct {
	Datagrams [][]byte

	err    error
	closed bool
}

func (mds *mockDatagramSender) Close() error {
	mds.closed = true
	return mds.err
}

func (mds *mockDatagramSender) SendDatagram(b []byte) error {
	if mds.err != nil {
		return mds.err
	}
	mds.Datagrams = append(mds.Datagrams, append([]byte(nil), b...))
	return nil
}

var _ = Describe("ResilientDatagramSender", func() {
	var (
		mocks      []*mockDatagramSender
		sendErr    error
		factoryErr error
		rds        *ResilientDatagramSender
	)
	BeforeEach(func() {
		mocks, sendErr, factoryErr = nil, nil, nil
		rds = &ResilientDatagramSender{
			Factory: func() (DatagramSender, error) {
				if factoryErr != nil {
					return nil, factoryErr
				}
				mds := &mockDatagramSender{err: sendErr}
				mocks = append(mocks, mds)
				return mds, nil
			},
		}
	})

	It("connects lazily and reuses the connection", func() {
		Expect(rds.SendDatagram([]byte("first"))).To(Succeed())
		Expect(rds.SendDatagram([]byte("second"))).To(Succeed())
		Expect(rds.Close()).To(Succeed())

		Expect(mocks).To(HaveLen(1))
		Expect(mocks[0].closed).To(BeTrue())
		Expect(mocks[0].Datagrams).To(Equal([][]byte{[]byte("first"), []byte("second")}))
	})

	It("reconnects after a failed send", func() {
		sendErr = errors.New("network unreachable")
		Expect(rds.SendDatagram([]byte("lost"))).To(MatchError("network unreachable"))

		sendErr = nil
		Expect(rds.SendDatagram([]byte("sent"))).To(Succeed())

		Expect(mocks).To(HaveLen(2))
		Expect(mocks[0].closed).To(BeTrue())
		Expect(mocks[0].Datagrams).To(BeEmpty())
		Expect(mocks[1].Datagrams).To(Equal([][]byte{[]byte("sent")}))
	})

	It("reports factory failures and retries on the next send", func() {
		factoryErr = errors.New("no route")
		err := rds.SendDatagram([]byte("lost"))
		Expect(err).To(MatchError(ContainSubstring("no route")))
		Expect(mocks).To(BeEmpty())

		factoryErr = nil
		Expect(rds.SendDatagram([]byte("sent"))).To(Succeed())
		Expect(mocks).To(HaveLen(1))
	})

	It("keeps the open connection if reconnecting fails", func() {
		Expect(rds.Connect()).To(Succeed())
		factoryErr = errors.New("no route")
		Expect(rds.Connect()).ToNot(Succeed())

		Expect(rds.SendDatagram([]byte("sent"))).To(Succeed())
		Expect(mocks).To(HaveLen(1))
		Expect(mocks[0].closed).To(BeFalse())
	})

	It("forwards close errors", func() {
		Expect(rds.Connect()).To(Succeed())
		mocks[0].err = errors.New("close failed")
		Expect(rds.Close()).To(MatchError("close failed"))
		Expect(rds.Close()).To(Succeed())
	})
})

var _ = Describe("UDPTarget", func() {
	It("parses targets with and without a port", func() {
		t, err := ParseUDP4Target("192.168.1.255", 8086)
		Expect(err).ToNot(HaveOccurred())
		Expect(t.String()).To(Equal("192.168.1.255:8086"))

		t, err = ParseUDP4Target("10.0.0.255:9000", 8086)
		Expect(err).ToNot(HaveOccurred())
		Expect(t.Port).To(Equal(9000))
		Expect(t.IP.Equal(net.IP{10, 0, 0, 255})).To(BeTrue())
	})

	It("rejects invalid targets", func() {
		for _, v := range []string{"", "example", "::1", "10.0.0.1:0", "10.0.0.1:port"} {
			_, err := ParseUDP4Target(v, 8086)
			Expect(err).To(HaveOccurred(), "for %q", v)
		}
	})

	It("targets the broadcast address by default", func() {
		Expect(UDP4BroadcastTarget(8086).String()).To(Equal("255.255.255.255:8086"))
	})

	It("sends datagrams to a local listener", func() {
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		t := UDPTarget{
			IP:   net.IPv4(127, 0, 0, 1),
			Port: conn.LocalAddr().(*net.UDPAddr).Port,
		}
		ds, err := t.DatagramSender()
		Expect(err).ToNot(HaveOccurred())
		defer ds.Close()

		Expect(ds.SendDatagram([]byte("hello"))).To(Succeed())
		Expect(ds.SendDatagram(make([]byte, MaxUDPSize+1))).ToNot(Succeed())

		buf := make([]byte, 64)
		Expect(conn.SetReadDeadline(time.Now().Add(10 * time.Second))).To(Succeed())
		n, err := conn.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("hello"))
	})
})
