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
	"crypto/sha256"
	"encoding/binary"

	"github.com/minio/highwayhash"
	"github.com/nats-io/nuid"
)

// fingerprintKey is a fixed, non-secret 32-byte diversifier for the
// HighwayHash fingerprints attached to log lines. It only needs to be
// stable across a process, not secret: its purpose is correlating
// repeated handshakes from the same Host/key pair in logs, not
// authentication.
var fingerprintKey = sha256.Sum256([]byte("wsengine/conn-fingerprint/v1"))

// newConnID returns a short, unique per-connection identity, the same
// role nats-server's nuid-based IDs play for clients.
func newConnID() string {
	return nuid.Next()
}

// fingerprint returns a stable 64-bit digest of the given parts, used to
// tag log fields (e.g. Host header + Sec-WebSocket-Key) without
// spilling the raw values into logs on every line.
func fingerprint(parts ...string) uint64 {
	h, err := highwayhash.New(fingerprintKey[:])
	if err != nil {
		// Size is fixed at compile time (sha256.Size == highwayhash key
		// size); this cannot fail at runtime.
		panic(err)
	}
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return binary.BigEndian.Uint64(h.Sum(nil))
}
