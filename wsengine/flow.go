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

package wsengine

// Flow Controller (§4.4, §6): ties the Header Reader, Handshake
// Negotiator and Frame Codec to the Connection's state machine, and
// arbitrates writes so the inner protocol can call Write/WriteSequence
// at any point in the lifecycle without knowing whether framing has
// been negotiated yet.

// DataReceived is the single entry point a Transport implementation
// calls with newly arrived bytes. It is not safe for concurrent calls
// on the same Connection (§3: single-threaded per-connection model).
func (c *Connection) DataReceived(data []byte) {
	if c.state == StateClosed {
		return
	}
	c.inbound = append(c.inbound, data...)
	if c.state != StateFrames {
		c.advance()
	}
	if c.state == StateFrames {
		c.processFrames()
	}
}

// negotiate implements the Handshake Negotiator (§4.2): validate the
// Upgrade/Connection headers, pick a codec, detect the dialect, then
// either move to CHALLENGE (HyBi-00) or answer immediately and enter
// FRAMES (HyBi-07/10, RFC6455).
func (c *Connection) negotiate(h headerMap) error {
	if !isWebSocket(h) {
		return errNotWebSocket
	}
	if host, ok := h["Host"]; ok {
		c.host = host
	}
	if origin, ok := h["Origin"]; ok {
		c.origin = origin
	} else if origin, ok := h["Sec-WebSocket-Origin"]; ok {
		c.origin = origin
	}

	codec, ok := selectCodec(h)
	if !ok {
		return errUnsupportedCodec
	}
	c.codec = codec

	dialect, ok := detectDialect(h)
	if !ok {
		return errUnknownDialect
	}
	c.dialect = dialect
	c.log.Debugf("conn %s: negotiated %s, key fingerprint %x", c.id, dialect, fingerprint(c.host, h["Sec-WebSocket-Key"]))

	if dialect == HYBI00 {
		c.wsKey1 = h["Sec-WebSocket-Key1"]
		c.wsKey2 = h["Sec-WebSocket-Key2"]
		c.state = StateChallenge
		return nil
	}

	preamble := hybi07Preamble(h["Sec-WebSocket-Key"], codec)
	if err := c.transport.Write(preamble); err != nil {
		return err
	}
	c.enterFrames()
	return nil
}

// enterFrames moves the Connection into FRAMES, tells the inner
// protocol the connection is ready, then flushes anything it wrote
// before framing was available (§3 Lifecycle, "flush at tail").
func (c *Connection) enterFrames() {
	c.state = StateFrames
	c.madeCalled = true
	c.inner.ConnectionMade(c.handle)
	c.drainPending()
}

// drainPending flushes application writes queued while still in
// REQUEST/NEGOTIATING/CHALLENGE, in the order they were made.
func (c *Connection) drainPending() {
	pending := c.pending
	c.pending = nil
	for _, p := range pending {
		if err := c.sendFrame(p); err != nil {
			return
		}
	}
}

// processFrames runs the Frame Codec over whatever has accumulated in
// inbound and dispatches each decoded frame.
func (c *Connection) processFrames() {
	var frames []Frame
	var rest []byte
	var err error

	if c.dialect == HYBI00 {
		frames, rest = decodeHybi00Frames(c.inbound)
	} else {
		frames, rest, err = decodeFrames(c.inbound)
	}
	c.inbound = rest
	if err != nil {
		c.handleProtocolError(err)
		return
	}

	for _, f := range frames {
		switch f.Kind {
		case FrameTextOrBinary:
			payload, derr := decodePayload(c.codec, f.Payload)
			if derr != nil {
				c.handleProtocolError(derr)
				return
			}
			c.inner.DataReceived(payload)
		case FrameClose:
			c.handlePeerClose(f.Code, f.Reason)
			return
		case FramePing:
			c.sendPong(f.Payload)
		case FramePong:
			// No action required; a pong carries no obligation (§4.3).
		}
		if c.state == StateClosed {
			return
		}
	}
}

// Write is the Connection half of Handle.Write: one application
// message. Before FRAMES it is buffered; after, it is framed and sent
// immediately.
func (c *Connection) Write(p []byte) error {
	if c.closed {
		return nil
	}
	if c.state != StateFrames {
		buf := make([]byte, len(p))
		copy(buf, p)
		c.pending = append(c.pending, buf)
		return nil
	}
	return c.sendFrame(p)
}

// WriteSequence is the Connection half of Handle.WriteSequence: each
// element keeps its own message boundary, unlike Transport.WriteSequence
// which coalesces the pieces of a single frame.
func (c *Connection) WriteSequence(ps [][]byte) error {
	for _, p := range ps {
		if err := c.Write(p); err != nil {
			return err
		}
	}
	return nil
}

// sendFrame applies the codec, then the dialect's frame encoding, then
// hands the resulting byte-slice sequence to the transport in a single
// WriteSequence call.
func (c *Connection) sendFrame(p []byte) error {
	encoded := encodePayload(c.codec, p)

	var seqs [][]byte
	if c.dialect == HYBI00 {
		seqs = encodeHybi00Frame(encoded)
	} else {
		seqs = encodeFrame(opcodeForPayload(c.binaryMode), encoded)
	}

	if err := c.transport.WriteSequence(seqs); err != nil {
		c.loseConnection()
		return err
	}
	return nil
}

// sendPong answers a PING in kind, carrying the same payload back
// (§4.3). Pongs are never queued: they only ever happen from within
// FRAMES, where processFrames already holds valid ping data.
func (c *Connection) sendPong(payload []byte) {
	if err := c.transport.WriteSequence(encodeFrame(opPong, payload)); err != nil {
		c.loseConnection()
	}
}

// Close implements the local-close half of §6: send a CLOSE frame
// carrying reason (HyBi-07+ only; HyBi-00 has no close frame to send),
// then tear the transport down. Idempotent.
func (c *Connection) Close(reason string) {
	if c.closed {
		return
	}
	if c.state == StateFrames && c.dialect.usesBinaryFraming() {
		c.transport.WriteSequence(encodeCloseFrame([]byte(reason)))
	}
	c.loseConnection()
}

// handlePeerClose implements the peer-initiated half of §6: log it,
// answer with a reciprocal empty-reason CLOSE if the dialect has one,
// then tear down.
func (c *Connection) handlePeerClose(code uint16, reason []byte) {
	c.log.Debugf("conn %s: peer closed: code=%d reason=%q", c.id, code, reason)
	if c.dialect.usesBinaryFraming() {
		c.transport.WriteSequence(encodeCloseFrame(nil))
	}
	c.loseConnection()
}

// handleProtocolError implements §6's error path: answer with a CLOSE
// carrying the error text as reason when the dialect supports one, log
// it, then tear down. HyBi-00 has no frame to carry the reason in, so
// it is only logged.
func (c *Connection) handleProtocolError(err error) {
	c.log.Infof("conn %s: protocol error: %v", c.id, err)
	if c.state == StateFrames && c.dialect.usesBinaryFraming() {
		c.transport.WriteSequence(encodeCloseFrame([]byte(protocolErrorString(err))))
	}
	c.loseConnection()
}

// loseConnection tears the transport down without sending a CLOSE
// frame: used for handshake-phase failures, where no frame codec has
// been negotiated yet, and as the common tail of every teardown path
// above. Idempotent.
func (c *Connection) loseConnection() {
	if c.closed {
		return
	}
	c.closed = true
	c.state = StateClosed
	c.transport.LoseConnection()
}

// ConnectionLost is called by the Transport once the underlying socket
// has actually finished closing, whether that closure was initiated by
// loseConnection above or happened independently (peer reset, network
// failure). The inner protocol is only ever told about it if
// ConnectionMade already ran (§3).
func (c *Connection) ConnectionLost(reason error) {
	c.state = StateClosed
	c.closed = true
	if c.madeCalled && !c.lostCalled {
		c.lostCalled = true
		c.inner.ConnectionLost(reason)
	}
}
