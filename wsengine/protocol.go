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

// InnerProtocol is the capability the engine exposes decoded application
// messages to (§6). It is the explicit, typed stand-in for the source
// implementation's duck-typed wrapped protocol: any consumer of frame
// payloads implements this interface and is handed a *Handle back to
// talk to the Connection.
type InnerProtocol interface {
	// ConnectionMade is invoked exactly once, when the Connection enters
	// FRAMES and is ready to carry application messages both ways.
	ConnectionMade(h *Handle)

	// DataReceived is invoked once per decoded application message (a
	// TEXT_OR_BINARY frame's payload), in wire order. Fragmented
	// messages are not reassembled: each fragment arrives as its own
	// call (§1 Non-goals).
	DataReceived(p []byte)

	// ConnectionLost is invoked at most once, only if ConnectionMade
	// was already invoked, when the connection terminates for any
	// reason (local close, peer close, transport loss, protocol
	// error).
	ConnectionLost(reason error)
}

// Handle is the capability set an InnerProtocol is given to talk back to
// its Connection. It exists so the inner protocol never holds a
// reference to Connection internals, only to these three operations
// (§3 Ownership).
type Handle struct {
	conn *Connection
}

// Write queues a single application message to become exactly one
// WebSocket message once framing is permitted.
func (h *Handle) Write(p []byte) {
	h.conn.Write(p)
}

// WriteSequence queues several application messages, preserving message
// boundaries: each element becomes its own WebSocket message, not a
// single concatenated one.
func (h *Handle) WriteSequence(ps [][]byte) {
	h.conn.WriteSequence(ps)
}

// LoseConnection tears down the connection from the inner protocol's
// side, same as a local close with no reason.
func (h *Handle) LoseConnection() {
	h.conn.Close("")
}
