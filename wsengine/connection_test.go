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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-process Transport double: every write is
// recorded in order, and LoseConnection just flips a flag, mirroring
// the teacher's own in-package test doubles for client sockets.
type fakeTransport struct {
	writes [][]byte
	lost   bool
	secure bool
}

func (f *fakeTransport) Write(p []byte) error {
	f.writes = append(f.writes, append([]byte(nil), p...))
	return nil
}

func (f *fakeTransport) WriteSequence(seqs [][]byte) error {
	var buf []byte
	for _, s := range seqs {
		buf = append(buf, s...)
	}
	return f.Write(buf)
}

func (f *fakeTransport) LoseConnection() { f.lost = true }
func (f *fakeTransport) IsSecure() bool  { return f.secure }

// fakeInner is an InnerProtocol double recording every callback it
// receives, so tests can assert on lifecycle order without a real
// application behind the connection.
type fakeInner struct {
	handle      *Handle
	made        bool
	received    [][]byte
	lostReason  error
	lost        bool
}

func (f *fakeInner) ConnectionMade(h *Handle) {
	f.made = true
	f.handle = h
}

func (f *fakeInner) DataReceived(p []byte) {
	f.received = append(f.received, append([]byte(nil), p...))
}

func (f *fakeInner) ConnectionLost(reason error) {
	f.lost = true
	f.lostReason = reason
}

func rfc6455Handshake(key string) []byte {
	req := "GET /chat HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + key + "\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"\r\n"
	return []byte(req)
}

func TestConnectionRFC6455HandshakeAndEcho(t *testing.T) {
	transport := &fakeTransport{}
	inner := &fakeInner{}
	conn := NewConnection(transport, nil, inner)

	conn.DataReceived(rfc6455Handshake("dGhlIHNhbXBsZSBub25jZQ=="))

	require.True(t, inner.made)
	assert.Equal(t, StateFrames, conn.State())
	assert.Equal(t, RFC6455, conn.Dialect())
	require.Len(t, transport.writes, 1)
	assert.Contains(t, string(transport.writes[0]), "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=")

	transport.writes = nil
	conn.DataReceived([]byte{0x81, 0x05, 'H', 'e', 'l', 'l', 'o'})
	require.Len(t, inner.received, 1)
	assert.Equal(t, "Hello", string(inner.received[0]))

	inner.handle.Write([]byte("reply"))
	require.Len(t, transport.writes, 1)

	frames, rest, err := decodeFrames(transport.writes[0])
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, frames, 1)
	assert.Equal(t, "reply", string(frames[0].Payload))
}

func TestConnectionWriteBeforeFramesIsBufferedThenFlushed(t *testing.T) {
	transport := &fakeTransport{}
	inner := &fakeInner{}
	conn := NewConnection(transport, nil, inner)

	// Simulate the inner protocol being constructed and told to write
	// before the handshake has even started; the inner protocol has not
	// been handed its Handle yet in that case, so we exercise
	// Connection.Write directly.
	require.NoError(t, conn.Write([]byte("too early")))
	assert.Empty(t, transport.writes)

	conn.DataReceived(rfc6455Handshake("dGhlIHNhbXBsZSBub25jZQ=="))

	require.True(t, inner.made)
	require.Len(t, transport.writes, 2, "handshake response, then the flushed pending write")

	frames, _, err := decodeFrames(transport.writes[1])
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "too early", string(frames[0].Payload))
}

func TestConnectionHybi00HandshakeAndFrame(t *testing.T) {
	transport := &fakeTransport{}
	inner := &fakeInner{}
	conn := NewConnection(transport, nil, inner)

	req := "GET /demo HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Connection: Upgrade\r\n" +
		"Upgrade: WebSocket\r\n" +
		"Origin: http://example.com\r\n" +
		"Sec-WebSocket-Key1: 4 @1  46546xW%0l 1 5\r\n" +
		"Sec-WebSocket-Key2: 12998 5 Y3 1  .P00\r\n" +
		"\r\n"
	conn.DataReceived([]byte(req))
	assert.Equal(t, StateChallenge, conn.State())

	conn.DataReceived([]byte("^n:ds[4U"))
	require.True(t, inner.made)
	assert.Equal(t, StateFrames, conn.State())
	assert.Equal(t, HYBI00, conn.Dialect())

	require.Len(t, transport.writes, 1)
	assert.Contains(t, string(transport.writes[0]), "8jKS'y:G*Co,Wxa-")

	transport.writes = nil
	conn.DataReceived([]byte("\x00Hello\xff"))
	require.Len(t, inner.received, 1)
	assert.Equal(t, "Hello", string(inner.received[0]))
}

// wireFrame concatenates the byte-slice sequence encodeFrame/
// encodeCloseFrame return into the single buffer that would actually
// hit the wire, for tests that need to check exact bytes rather than
// decode them back (decoding a CLOSE always yields a status code, read
// from the first two payload bytes or synthesized when there are fewer,
// which would mask whether the encoder wrote one).
func wireFrame(seqs [][]byte) []byte {
	var buf []byte
	for _, s := range seqs {
		buf = append(buf, s...)
	}
	return buf
}

func TestConnectionPeerCloseReciprocates(t *testing.T) {
	transport := &fakeTransport{}
	inner := &fakeInner{}
	conn := NewConnection(transport, nil, inner)
	conn.DataReceived(rfc6455Handshake("dGhlIHNhbXBsZSBub25jZQ=="))

	transport.writes = nil
	conn.DataReceived(append([]byte{0x88, 0x02}, 0x03, 0xe8))

	assert.Equal(t, StateClosed, conn.State())
	assert.True(t, transport.lost)
	require.Len(t, transport.writes, 1)

	// The reciprocal CLOSE carries an empty reason and, per §4.3's
	// encode rule, no status code at all.
	assert.Equal(t, wireFrame(encodeFrame(opClose, nil)), transport.writes[0])
}

func TestConnectionProtocolErrorClosesWithReasonOnly(t *testing.T) {
	transport := &fakeTransport{}
	inner := &fakeInner{}
	conn := NewConnection(transport, nil, inner)
	conn.DataReceived(rfc6455Handshake("dGhlIHNhbXBsZSBub25jZQ=="))

	transport.writes = nil
	conn.DataReceived([]byte{0xF1, 0x00})

	assert.Equal(t, StateClosed, conn.State())
	require.Len(t, transport.writes, 1)

	// The error text becomes the CLOSE frame's payload verbatim; no
	// 2-byte status code is prepended (§4.3).
	reason := []byte("reserved bit set in frame header (0xf1)")
	assert.Equal(t, wireFrame(encodeFrame(opClose, reason)), transport.writes[0])
}

func TestConnectionCloseIsIdempotent(t *testing.T) {
	transport := &fakeTransport{}
	inner := &fakeInner{}
	conn := NewConnection(transport, nil, inner)
	conn.DataReceived(rfc6455Handshake("dGhlIHNhbXBsZSBub25jZQ=="))

	conn.Close("bye")
	conn.Close("bye again")

	assert.Equal(t, 2, len(transport.writes)) // handshake response + one close frame
}

func TestConnectionLostOnlyFiresAfterConnectionMade(t *testing.T) {
	transport := &fakeTransport{}
	inner := &fakeInner{}
	conn := NewConnection(transport, nil, inner)

	// Malformed request line: handshake never completes, so
	// ConnectionMade never runs.
	conn.DataReceived([]byte("GARBAGE\r\n\r\n"))
	conn.ConnectionLost(nil)
	assert.False(t, inner.lost)

	transport2 := &fakeTransport{}
	inner2 := &fakeInner{}
	conn2 := NewConnection(transport2, nil, inner2)
	conn2.DataReceived(rfc6455Handshake("dGhlIHNhbXBsZSBub25jZQ=="))
	conn2.ConnectionLost(nil)
	assert.True(t, inner2.lost)
}
