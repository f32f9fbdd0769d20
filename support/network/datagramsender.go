// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package network

import (
	"io"
	"net"

	"github.com/pkg/errors"
)

// DatagramSender exposes an interface which sends individual datagrams.
type DatagramSender interface {
	io.Closer
	SendDatagram(b []byte) error
}

// UDPDatagramSender returns a DatagramSender that sends through conn.
//
// UDPDatagramSender takes ownership of conn, and will close it when Close is
// called.
func UDPDatagramSender(conn *net.UDPConn) DatagramSender {
	return &udpDatagramSender{conn}
}

type udpDatagramSender struct {
	conn *net.UDPConn
}

// SendDatagram implements DatagramSender.
func (uds *udpDatagramSender) SendDatagram(b []byte) error {
	if len(b) > MaxUDPSize {
		return errors.Errorf("datagram of %d bytes exceeds maximum size %d", len(b), MaxUDPSize)
	}
	_, err := uds.conn.Write(b)
	return err
}

func (uds *udpDatagramSender) Close() error { return uds.conn.Close() }

// ResilientDatagramSender is a DatagramSender that automatically reconnects
// on failure.
//
// A broadcast socket can fail while interfaces come and go; the next send
// dials a fresh one.
type ResilientDatagramSender struct {
	// Factory generates and connects a new DatagramSender. On success, the
	// ResilientDatagramSender will take ownership of the result.
	Factory func() (DatagramSender, error)

	base DatagramSender
}

var _ DatagramSender = (*ResilientDatagramSender)(nil)

// Connect causes rds to try and open a new connection.
//
// If Connect fails, and rds already has an open connection, the open connection
// will be left intact. If Connect succeeds, the previous connection will be
// closed.
func (rds *ResilientDatagramSender) Connect() error {
	base, err := rds.Factory()
	if err != nil {
		return err
	}

	if rds.base != nil {
		_ = rds.Close()
	}
	rds.base = base
	return nil
}

// Close closes the current connection, if one is open.
//
// If no connection is open, Close will do nothing.
func (rds *ResilientDatagramSender) Close() error {
	if rds.base == nil {
		return nil
	}

	err := rds.base.Close()
	rds.base = nil
	return err
}

// SendDatagram sends b through rds's underlying connection, connecting first
// if necessary. If the send fails, the connection is discarded.
func (rds *ResilientDatagramSender) SendDatagram(b []byte) error {
	if rds.base == nil {
		if err := rds.Connect(); err != nil {
			return errors.Wrap(err, "connecting")
		}
	}

	if err := rds.base.SendDatagram(b); err != nil {
		_ = rds.Close()
		return err
	}
	return nil
}
