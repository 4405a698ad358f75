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
	"net/http"
	"strings"
)

// fixupKey undoes net/http's textproto.CanonicalMIMEHeaderKey mangling
// of "WebSocket" into "Websocket" inside compound header names. Go's
// canonicalization runs purely lexically, title-casing the segment
// after each hyphen, and has no notion of "WebSocket" as one word, so
// "Sec-WebSocket-Key" round-trips through http.Header as
// "Sec-Websocket-Key". The original implementation hits the same wall
// and papers over it with the identical string fixup.
func fixupKey(name string) string {
	return strings.ReplaceAll(name, "Websocket", "WebSocket")
}

// duplicateSensitive is the set of headers that must appear at most
// once before the upgrade; more than one value for any of these fails
// the handshake outright rather than arbitrarily picking one (§7).
var duplicateSensitive = map[string]bool{
	"Origin":                 true,
	"WebSocket-Protocol":     true,
	"Sec-WebSocket-Protocol": true,
}

// headersFromRequest converts an already-parsed *http.Request's header
// map into the engine's headerMap, reversing the WebSocket/Websocket
// mangling and rejecting requests that carry more than one value for
// any duplicate-sensitive header. Duplicate Host headers are already
// rejected by net/http itself while reading the request, so Host is
// not re-checked here.
func headersFromRequest(r *http.Request) (headerMap, error) {
	h := make(headerMap, len(r.Header)+2)
	h["Host"] = r.Host

	for name, values := range r.Header {
		key := fixupKey(name)
		if duplicateSensitive[key] && len(values) > 1 {
			return nil, wrapf(errDuplicateHeader, "%s", key)
		}
		if len(values) == 0 {
			continue
		}
		h[key] = values[0]
	}
	return h, nil
}

// NewConnectionFromRequest creates a Connection for a request an
// http.Server has already read and hijacked: the request line and
// header block were parsed by net/http, so this constructor starts
// straight from the Handshake Negotiator instead of re-scanning raw
// bytes off the wire (§3, "two construction paths"). The caller is
// responsible for having hijacked the connection and handing the
// resulting raw socket to transport.
func NewConnectionFromRequest(r *http.Request, transport Transport, cfg *Config, inner InnerProtocol) (*Connection, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := &Connection{
		id:         newConnID(),
		transport:  transport,
		inner:      inner,
		cfg:        cfg,
		log:        connLogger(cfg),
		state:      StateNegotiating,
		location:   r.URL.RequestURI(),
		host:       r.Host,
		origin:     "http://" + r.Host,
		secure:     transport.IsSecure(),
		binaryMode: cfg.BinaryMode,
	}
	c.handle = &Handle{conn: c}

	headers, err := headersFromRequest(r)
	if err != nil {
		c.loseConnection()
		return nil, err
	}
	if err := c.negotiate(headers); err != nil {
		c.loseConnection()
		return nil, err
	}
	return c, nil
}
