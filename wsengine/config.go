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
	"github.com/pion/logging"
)

// recognizedCodecs is the set of payload codecs ("subprotocols", in WS
// parlance) this engine understands. Only "base64" is recognized, per
// spec; a Sec-WebSocket-Protocol value outside this set fails the
// handshake rather than being silently ignored.
var recognizedCodecs = map[string]bool{
	"base64": true,
}

// Config carries the per-listener settings every accepted Connection is
// built with. It plays the role the teacher's Options.Websocket
// sub-struct plays for nats-server, but is passed explicitly since this
// is a library, not an embedded server with a global options object.
type Config struct {
	// BinaryMode selects the default opcode for outbound application
	// writes: binary (0x2) when true, text (0x1) when false. A given
	// Connection can still override this at runtime via SetBinaryMode.
	BinaryMode bool

	// HandshakeLimiter is the listener's throttle for new handshake
	// attempts (see ratelimit.go). Connections never consult it; the
	// host's accept loop calls Allow before constructing a Connection.
	// Nil means unlimited.
	HandshakeLimiter *HandshakeLimiter

	// Logger receives structured log lines for handshake and framing
	// events. A scoped github.com/pion/logging default is used when
	// nil.
	Logger logging.LeveledLogger
}

// Validate mirrors the teacher's validateWebsocketOptions as a
// per-listener, not per-connection, hook. No field of Config has an
// invalid value, so it accepts every Config (including nil) and returns
// nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	return nil
}

func codecRecognized(name string) bool {
	return recognizedCodecs[name]
}
