// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package tracy

import (
	"bytes"
	"io"

	"github.com/danjacques/gotracereplay/support/dataio"

	"github.com/pkg/errors"
)

const (
	// BroadcastVersion is the version of BroadcastMessage's layout.
	BroadcastVersion uint16 = 3

	// DefaultBroadcastPort is the UDP port that profilers listen on for
	// broadcasts.
	DefaultBroadcastPort = 8086

	// ProgramNameSize is the size of a broadcast's program name field,
	// including its null terminator.
	ProgramNameSize = 64
)

// BroadcastMessage announces a server to profilers on the local network.
type BroadcastMessage struct {
	// ListenPort is the TCP port that the server accepts clients on.
	ListenPort uint16
	// ProcessID is the profiled process's ID.
	ProcessID uint64
	// ActiveTime is the number of seconds that the server has been available,
	// or -1 if it is going away.
	ActiveTime int32
	// ProgramName is the profiled program's name. It is truncated to fit
	// ProgramNameSize.
	ProgramName string
}

type broadcastHead struct {
	BroadcastVersion uint16
	ListenPort       uint16
	ProtocolVersion  uint32
	ProcessID        uint64
	ActiveTime       int32
}

// broadcastHeadSize is the size of the fixed part of a broadcast.
const broadcastHeadSize = 20

// WritePacket writes m as a broadcast datagram. The program name is sent with
// its null terminator and without padding.
func (m *BroadcastMessage) WritePacket(w io.Writer) error {
	head := broadcastHead{
		BroadcastVersion: BroadcastVersion,
		ListenPort:       m.ListenPort,
		ProtocolVersion:  ProtocolVersion,
		ProcessID:        m.ProcessID,
		ActiveTime:       m.ActiveTime,
	}
	if err := dataio.Pack(w, &head); err != nil {
		return err
	}

	name := m.ProgramName
	if len(name) >= ProgramNameSize {
		name = name[:ProgramNameSize-1]
	}
	if _, err := io.WriteString(w, name); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// ParseBroadcastMessage parses a broadcast datagram.
//
// Only broadcasts for BroadcastVersion and ProtocolVersion are accepted.
func ParseBroadcastMessage(b []byte) (*BroadcastMessage, error) {
	var head broadcastHead
	if err := dataio.UnpackBytes(b, &head, "broadcast"); err != nil {
		return nil, err
	}
	if head.BroadcastVersion != BroadcastVersion {
		return nil, errors.Errorf("unsupported broadcast version %d", head.BroadcastVersion)
	}
	if head.ProtocolVersion != ProtocolVersion {
		return nil, errors.Errorf("unsupported protocol version %d", head.ProtocolVersion)
	}

	name := b[broadcastHeadSize:]
	if idx := bytes.IndexByte(name, 0); idx >= 0 {
		name = name[:idx]
	}
	return &BroadcastMessage{
		ListenPort:  head.ListenPort,
		ProcessID:   head.ProcessID,
		ActiveTime:  head.ActiveTime,
		ProgramName: string(name),
	}, nil
}
