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
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect identifies which of the three wire dialects this connection
// negotiated (§3).
type Dialect int

const (
	dialectUnset Dialect = iota
	HYBI00
	HYBI07
	HYBI10
	RFC6455
)

func (d Dialect) String() string {
	switch d {
	case HYBI00:
		return "HyBi-00"
	case HYBI07:
		return "HyBi-07"
	case HYBI10:
		return "HyBi-10"
	case RFC6455:
		return "RFC6455"
	default:
		return "unset"
	}
}

// usesBinaryFraming reports whether this dialect uses the RFC 6455-style
// binary frame header rather than HyBi-00 sentinel framing.
func (d Dialect) usesBinaryFraming() bool {
	return d == HYBI07 || d == HYBI10 || d == RFC6455
}

// wsGUID is the fixed GUID RFC 6455 concatenates onto the client's key
// before hashing it (§6, Glossary "Accept key").
const wsGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// acceptKey computes the Sec-WebSocket-Accept value for a HyBi-07+
// handshake: base64(SHA1(key + GUID)).
func acceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(wsGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// isWebSocket implements step 1 of the Negotiator (§4.2): the
// Connection header must contain "upgrade" (case-insensitive substring
// match) and the Upgrade header must equal "websocket"
// (case-insensitive).
func isWebSocket(h headerMap) bool {
	conn := strings.ToLower(h["Connection"])
	upgrade := strings.ToLower(h["Upgrade"])
	return strings.Contains(conn, "upgrade") && upgrade == "websocket"
}

// isHybi00 reports whether the headers carry the pair of keys that mark
// a Hixie-76/HyBi-00 handshake.
func isHybi00(h headerMap) bool {
	_, k1 := h["Sec-WebSocket-Key1"]
	_, k2 := h["Sec-WebSocket-Key2"]
	return k1 && k2
}

// selectCodec implements step 3 of the Negotiator: read
// Sec-WebSocket-Protocol (preferred) or WebSocket-Protocol, split on
// commas, and pick the first recognized codec. An absent header means
// no codec at all (ok=true, codec==""); a present header with no
// recognized entry fails the handshake.
func selectCodec(h headerMap) (codec string, ok bool) {
	raw, present := h["Sec-WebSocket-Protocol"]
	if !present {
		raw, present = h["WebSocket-Protocol"]
	}
	if !present {
		return "", true
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if codecRecognized(p) {
			return p, true
		}
	}
	return "", false
}

// hybi00KeyNumber extracts the integer formed from the key's ASCII
// digits and divides it (floor division) by the key's space count, per
// §4.2's HyBi-00 challenge resolution rule. Returns an error if the key
// has no spaces (division by zero).
func hybi00KeyNumber(key string) (uint32, error) {
	var digits strings.Builder
	spaces := 0
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ':
			spaces++
		}
	}
	if spaces == 0 {
		return 0, errHybi00NoSpaces
	}
	n, err := strconv.ParseUint(digits.String(), 10, 64)
	if err != nil {
		return 0, wrapf(err, "hybi-00 key has no digits")
	}
	return uint32(n / uint64(spaces)), nil
}

// hybi00Challenge computes the 16-byte MD5 digest the server must echo
// back to complete a Hixie-76/HyBi-00 handshake (§4.2, §6).
func hybi00Challenge(key1, key2 string, body [8]byte) ([16]byte, error) {
	first, err := hybi00KeyNumber(key1)
	if err != nil {
		return [16]byte{}, wrapf(err, "Sec-WebSocket-Key1")
	}
	second, err := hybi00KeyNumber(key2)
	if err != nil {
		return [16]byte{}, wrapf(err, "Sec-WebSocket-Key2")
	}
	var nonce [16]byte
	binary.BigEndian.PutUint32(nonce[0:4], first)
	binary.BigEndian.PutUint32(nonce[4:8], second)
	copy(nonce[8:16], body[:])
	return md5.Sum(nonce[:]), nil
}

// commonPreamble writes the status line and headers shared by every
// successful handshake response (§4.2).
func commonPreamble() []byte {
	var b []byte
	b = append(b, "HTTP/1.1 101 Switching Protocols\r\n"...)
	b = append(b, "Server: wsengine\r\n"...)
	b = append(b, fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123))...)
	b = append(b, "Upgrade: WebSocket\r\n"...)
	b = append(b, "Connection: Upgrade\r\n"...)
	return b
}

// hybi07Preamble builds the complete HyBi-07+ response: common preamble,
// optional Sec-WebSocket-Protocol, Sec-WebSocket-Accept, blank line.
func hybi07Preamble(key, codec string) []byte {
	b := commonPreamble()
	if codec != "" {
		b = append(b, fmt.Sprintf("Sec-WebSocket-Protocol: %s\r\n", codec)...)
	}
	b = append(b, fmt.Sprintf("Sec-WebSocket-Accept: %s\r\n", acceptKey(key))...)
	b = append(b, "\r\n"...)
	return b
}

// hybi00Preamble builds the complete HyBi-00 response sent after the
// 8-byte challenge body arrives, NOT including the 16-byte MD5 digest
// that follows it on the wire (§6).
func hybi00Preamble(secure bool, host, location, origin, codec string) []byte {
	proto := "ws"
	if secure {
		proto = "wss"
	}
	b := commonPreamble()
	b = append(b, fmt.Sprintf("Sec-WebSocket-Origin: %s\r\n", origin)...)
	b = append(b, fmt.Sprintf("Sec-WebSocket-Location: %s://%s%s\r\n", proto, host, location)...)
	if codec != "" {
		b = append(b, fmt.Sprintf("WebSocket-Protocol: %s\r\n", codec)...)
		b = append(b, fmt.Sprintf("Sec-WebSocket-Protocol: %s\r\n", codec)...)
	}
	b = append(b, "\r\n"...)
	return b
}

// detectDialect implements step 4 of the Negotiator: HyBi-00 keys take
// priority, then Sec-WebSocket-Version in {7,8,13}, else failure.
func detectDialect(h headerMap) (Dialect, bool) {
	if isHybi00(h) {
		return HYBI00, true
	}
	switch h["Sec-WebSocket-Version"] {
	case "7":
		return HYBI07, true
	case "8":
		return HYBI10, true
	case "13":
		return RFC6455, true
	default:
		return dialectUnset, false
	}
}
