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

import "github.com/pkg/errors"

// Sentinel errors for the handshake and negotiation steps. Frame-decode
// protocol errors carry their own message and are not pre-declared here,
// since the offending detail (reserved bit, opcode, etc.) is part of the
// text sent back to the peer in the CLOSE frame.
var (
	errMalformedRequestLine = errors.New("malformed request line")
	errNotWebSocket         = errors.New("not a websocket upgrade request")
	errUnsupportedCodec     = errors.New("unsupported Sec-WebSocket-Protocol")
	errUnknownDialect       = errors.New("could not determine websocket dialect")
	errHybi00NoSpaces       = errors.New("hybi-00 key contains no spaces")
	errDuplicateHeader      = errors.New("duplicate header not allowed before upgrade")
)

// wrapf is a thin wrapper kept so call sites read the same as the teacher's
// wsHandleProtocolError: build the message, keep going.
func wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
