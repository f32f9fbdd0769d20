// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package network

import (
	"net"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// MaxUDPSize is the largest UDP package size.
	MaxUDPSize = 65507
)

// UDPTarget is an IPv4 address and port that datagrams are sent to.
type UDPTarget struct {
	// IP is the address to send to.
	IP net.IP
	// Port is the port to send to.
	Port int
}

// UDP4BroadcastTarget returns a UDPTarget for the IPv4 limited broadcast
// address on port.
func UDP4BroadcastTarget(port int) *UDPTarget {
	return &UDPTarget{
		IP:   BroadcastIP4Address(),
		Port: port,
	}
}

// ParseUDP4Target parses v, an IPv4 address with an optional port, into a
// UDPTarget. If v has no port, defaultPort is used.
func ParseUDP4Target(v string, defaultPort int) (*UDPTarget, error) {
	host, port := v, defaultPort
	if h, p, err := net.SplitHostPort(v); err == nil {
		if port, err = strconv.Atoi(p); err != nil || port <= 0 || port > 0xFFFF {
			return nil, errors.Errorf("invalid port in %q", v)
		}
		host = h
	}

	ip, err := ParseIP4Address(host)
	if err != nil {
		return nil, err
	}
	return &UDPTarget{IP: ip, Port: port}, nil
}

func (t *UDPTarget) String() string {
	return net.JoinHostPort(t.IP.String(), strconv.Itoa(t.Port))
}

// DialUDP4 creates a UDP connection to the target.
//
// If successful, the caller is responsible for closing the connection.
func (t *UDPTarget) DialUDP4() (*net.UDPConn, error) {
	addr := net.UDPAddr{
		IP:   t.IP,
		Port: t.Port,
	}

	conn, err := net.DialUDP("udp4", nil, &addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", t)
	}
	return conn, nil
}

// DatagramSender is a convenience method to generate a basic DatagramSender
// for the target.
func (t *UDPTarget) DatagramSender() (DatagramSender, error) {
	conn, err := t.DialUDP4()
	if err != nil {
		return nil, err
	}
	return UDPDatagramSender(conn), nil
}
