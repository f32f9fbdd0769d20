// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package tracy

import (
	"fmt"
	"io"

	"github.com/danjacques/gotracereplay/support/dataio"
	"github.com/danjacques/gotracereplay/support/fmtutil"

	"github.com/pkg/errors"
)

const (
	// ClientName is the token that a client sends to open a connection.
	ClientName = "TracyPrf"

	// ProtocolVersion is the only protocol version that is served.
	ProtocolVersion uint32 = 76
)

// HandshakeStatus is the server's one-byte answer to a client handshake.
type HandshakeStatus uint8

// Handshake statuses.
const (
	HandshakePending HandshakeStatus = iota
	HandshakeWelcome
	HandshakeProtocolMismatch
	HandshakeNotAvailable
	HandshakeDropped
)

// HandshakeError is returned when a client's handshake is not acceptable.
type HandshakeError struct {
	// Token is the identification token that the client sent.
	Token []byte
	// Version is the protocol version that the client sent. It is only valid if
	// Token was accepted.
	Version uint32
}

func (e *HandshakeError) Error() string {
	if string(e.Token) != ClientName {
		return fmt.Sprintf("invalid client, expected %q, got %s", ClientName, fmtutil.Untrusted(e.Token))
	}
	return fmt.Sprintf("invalid client version, expected %d, got %d", ProtocolVersion, e.Version)
}

// IsHandshakeError returns true if err's cause is a *HandshakeError.
func IsHandshakeError(err error) bool {
	_, ok := errors.Cause(err).(*HandshakeError)
	return ok
}

type clientHello struct {
	Version uint32
}

// ReadClientName reads the client's identification token from r.
//
// If the token is not ClientName, ReadClientName returns a *HandshakeError.
func ReadClientName(r io.Reader) error {
	token := make([]byte, len(ClientName))
	if _, err := io.ReadFull(r, token); err != nil {
		return errors.Wrap(err, "reading client name")
	}
	if string(token) != ClientName {
		return &HandshakeError{Token: token}
	}
	return nil
}

// ReadClientVersion reads the client's protocol version from r.
func ReadClientVersion(r io.Reader) (uint32, error) {
	var hello clientHello
	if err := dataio.Unpack(r, &hello, "client version"); err != nil {
		return 0, err
	}
	return hello.Version, nil
}

// WriteClientHandshake writes a client's side of the handshake.
func WriteClientHandshake(w io.Writer, version uint32) error {
	if _, err := io.WriteString(w, ClientName); err != nil {
		return err
	}
	return dataio.Pack(w, &clientHello{Version: version})
}

// NetworkHeader describes the profiled program. The server sends it once,
// immediately after welcoming a client.
type NetworkHeader struct {
	Multiplier     float64
	InitBegin      uint64
	InitEnd        uint64
	Delay          uint64
	Resolution     uint64
	Epoch          uint64
	ExecTime       uint64
	ProcessID      uint64
	SamplingPeriod uint64

	Flags           uint8
	CPUArch         uint8
	CPUManufacturer [12]byte
	CPUID           uint32

	ProgramName [64]byte
	HostInfo    [1024]byte
}

// NetworkHeaderSize is the encoded size of a NetworkHeader.
const NetworkHeaderSize = 1178
