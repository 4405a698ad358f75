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

// Transport is the byte-oriented capability the engine consumes from
// whatever accepted the underlying socket (§6). It never reaches into
// net.Conn, tls.Conn or any event-loop type directly, so a host can
// plug in any transport acquisition strategy (plain TCP, TLS, an
// in-process pipe for tests) without the engine knowing the
// difference.
type Transport interface {
	// Write sends raw bytes to the peer.
	Write(p []byte) error

	// WriteSequence sends a list of byte slices as if each had been
	// passed to Write in order, but lets the transport coalesce them
	// into fewer underlying writes.
	WriteSequence(seqs [][]byte) error

	// LoseConnection tears down the transport. Idempotent.
	LoseConnection()

	// IsSecure reports whether the transport is encrypted (TLS). The
	// engine never infers this itself; it is told at accept time.
	IsSecure() bool
}
