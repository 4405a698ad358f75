// Copyright 2020 The NATS Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package wsengine implements the per-connection WebSocket engine
// described by the specification this module is built against: a
// handshake state machine that negotiates Hixie-76/HyBi-00, HyBi-07/10
// and RFC 6455 from the same initial byte stream, dialect-specific frame
// codecs, and the buffering/flushing discipline that lets a wrapped
// inner protocol write opaquely while framing is still being
// negotiated.
package wsengine

import (
	"github.com/pion/logging"
)

// State is the Connection's position in the handshake/framing state
// machine (§3, §4.4). Transitions only ever move forward.
type State int

const (
	StateRequest State = iota
	StateNegotiating
	StateChallenge
	StateFrames
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRequest:
		return "REQUEST"
	case StateNegotiating:
		return "NEGOTIATING"
	case StateChallenge:
		return "CHALLENGE"
	case StateFrames:
		return "FRAMES"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Connection is the central entity: one per accepted socket, bound to
// exactly one Transport, not reusable (§3).
type Connection struct {
	id        string
	transport Transport
	inner     InnerProtocol
	handle    *Handle
	cfg       *Config
	log       logging.LeveledLogger

	inbound []byte
	pending [][]byte

	state   State
	dialect Dialect

	codec      string
	binaryMode bool

	location string
	host     string
	origin   string
	secure   bool
	wsKey1   string
	wsKey2   string

	madeCalled bool
	lostCalled bool
	closed     bool
}

// NewConnection creates a Connection that drives the handshake itself,
// starting in REQUEST and parsing the request line straight off the
// transport's byte stream (§3 Lifecycle, "created on transport accept").
func NewConnection(transport Transport, cfg *Config, inner InnerProtocol) *Connection {
	if cfg == nil {
		cfg = &Config{}
	}
	c := &Connection{
		id:        newConnID(),
		transport: transport,
		inner:     inner,
		cfg:       cfg,
		log:       connLogger(cfg),
		state:     StateRequest,
		location:  "/",
		host:      "example.com",
		origin:    "http://example.com",
		secure:    transport.IsSecure(),
		binaryMode: cfg.BinaryMode,
	}
	c.handle = &Handle{conn: c}
	return c
}

// ID returns this Connection's unique identity, used to correlate log
// lines and metrics across the handshake and framing phases.
func (c *Connection) ID() string { return c.id }

// State returns the Connection's current position in the state machine.
func (c *Connection) State() State { return c.state }

// Dialect returns the negotiated dialect. It is set as soon as the
// handshake headers are negotiated (so HYBI00 is already reported in
// CHALLENGE); before that it returns the zero value, which is not any
// of HYBI00/HYBI07/HYBI10/RFC6455.
func (c *Connection) Dialect() Dialect { return c.dialect }

// SetBinaryMode toggles whether outbound application writes become
// binary (0x2) or text (0x1) HyBi-07+ frames. Has no effect on HyBi-00,
// which has no opcode to select. Mirrors the original's setBinaryMode.
func (c *Connection) SetBinaryMode(binary bool) {
	c.binaryMode = binary
}

// advance runs the REQUEST/NEGOTIATING/CHALLENGE steps as far as the
// currently buffered bytes allow, exactly the original's
// "while oldstate != self.state" loop: each step may immediately unblock
// the next, so we keep going until a pass makes no progress.
func (c *Connection) advance() {
	for {
		prev := c.state
		switch c.state {
		case StateRequest:
			c.stepRequest()
		case StateNegotiating:
			c.stepNegotiating()
		case StateChallenge:
			c.stepChallenge()
		}
		if c.state == prev || c.state == StateClosed {
			return
		}
	}
}

// stepRequest implements the Header Reader's request-line scan (§4.1).
func (c *Connection) stepRequest() {
	idx := indexCRLF(c.inbound)
	if idx < 0 {
		return
	}
	line := string(c.inbound[:idx])
	c.inbound = c.inbound[idx+2:]

	_, location, _, err := splitRequestLine(line)
	if err != nil {
		c.log.Debugf("conn %s: %v", c.id, err)
		c.loseConnection()
		return
	}
	c.location = location
	c.state = StateNegotiating
}

// stepNegotiating implements the Header Reader's header-block scan
// followed immediately by the Handshake Negotiator (§4.1, §4.2).
func (c *Connection) stepNegotiating() {
	idx := indexDoubleCRLF(c.inbound)
	if idx < 0 {
		return
	}
	head := string(c.inbound[:idx])
	c.inbound = c.inbound[idx+4:]

	headers := parseHeaderBlock(head)
	if err := c.negotiate(headers); err != nil {
		c.log.Infof("conn %s: handshake rejected: %v", c.id, err)
		c.loseConnection()
	}
}

// stepChallenge implements the HyBi-00 challenge-resolution step
// (§4.2): exactly 8 bytes follow the empty line.
func (c *Connection) stepChallenge() {
	if len(c.inbound) < 8 {
		return
	}
	var body [8]byte
	copy(body[:], c.inbound[:8])
	c.inbound = c.inbound[8:]

	digest, err := hybi00Challenge(c.wsKey1, c.wsKey2, body)
	if err != nil {
		c.log.Infof("conn %s: hybi-00 challenge failed: %v", c.id, err)
		c.loseConnection()
		return
	}

	preamble := hybi00Preamble(c.secure, c.host, c.location, c.origin, c.codec)
	if err := c.transport.WriteSequence([][]byte{preamble, digest[:]}); err != nil {
		c.loseConnection()
		return
	}
	c.log.Debugf("conn %s: completed HyBi-00/Hixie-76 handshake", c.id)
	c.enterFrames()
}

func indexCRLF(buf []byte) int {
	return indexOf(buf, []byte("\r\n"))
}

func indexDoubleCRLF(buf []byte) int {
	return indexOf(buf, []byte("\r\n\r\n"))
}

func indexOf(buf, sep []byte) int {
	n := len(sep)
	if n == 0 || len(buf) < n {
		return -1
	}
	for i := 0; i+n <= len(buf); i++ {
		if string(buf[i:i+n]) == string(sep) {
			return i
		}
	}
	return -1
}
