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

// Command wsechod is a minimal WebSocket echo server demonstrating
// wsengine end to end: it accepts raw TCP connections (not an
// http.Server hijack) so that Hixie-76/HyBi-00 clients, which have no
// place in net/http's header model, negotiate the same way HyBi-07/10
// and RFC6455 clients do. Mirrors the shape of the teacher's
// startWebsocketServer: one listener, one accept loop, one goroutine
// per connection.
package main

import (
	"flag"
	"io"
	"net"

	"github.com/nats-io/nkeys"
	"github.com/pion/logging"

	"github.com/cordio/wsengine/wsengine"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8765", "address to listen on")
	ratePerSec := flag.Float64("handshake-rate", 50, "maximum new handshakes per second (0 disables the limit)")
	flag.Parse()

	loggerFactory := logging.NewDefaultLoggerFactory()
	log := loggerFactory.NewLogger("wsechod")

	banner, err := identityBanner()
	if err != nil {
		log.Errorf("failed to mint server identity: %v", err)
	} else {
		log.Infof("server identity: %s", banner)
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Errorf("listen: %v", err)
		return
	}
	log.Infof("listening for websocket clients on ws://%s", *addr)

	var limiter *wsengine.HandshakeLimiter
	if *ratePerSec > 0 {
		limiter = wsengine.NewHandshakeLimiter(*ratePerSec, int(*ratePerSec))
	}
	cfg := &wsengine.Config{
		HandshakeLimiter: limiter,
		Logger:           loggerFactory.NewLogger("wsengine"),
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Errorf("accept: %v", err)
			return
		}
		if limiter != nil && !limiter.Allow() {
			conn.Close()
			continue
		}
		go serve(conn, cfg, log)
	}
}

// serve drives one accepted socket: wrap it as a Transport, bind it to
// an echoProtocol, then pump bytes from the socket into the Connection
// until it fails or the Connection itself gives up on the transport.
func serve(nc net.Conn, cfg *wsengine.Config, log logging.LeveledLogger) {
	defer nc.Close()

	transport := &tcpTransport{conn: nc}
	inner := &echoProtocol{log: log}
	wsConn := wsengine.NewConnection(transport, cfg, inner)

	buf := make([]byte, 4096)
	for {
		n, err := nc.Read(buf)
		if n > 0 {
			wsConn.DataReceived(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				log.Debugf("conn %s: read error: %v", wsConn.ID(), err)
			}
			wsConn.ConnectionLost(err)
			return
		}
		if wsConn.State() == wsengine.StateClosed {
			wsConn.ConnectionLost(nil)
			return
		}
	}
}

// tcpTransport adapts a net.Conn to wsengine.Transport. It never
// multiplexes: one Connection owns it for its entire lifetime.
type tcpTransport struct {
	conn net.Conn
}

func (t *tcpTransport) Write(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

func (t *tcpTransport) WriteSequence(seqs [][]byte) error {
	for _, p := range seqs {
		if err := t.Write(p); err != nil {
			return err
		}
	}
	return nil
}

func (t *tcpTransport) LoseConnection() {
	t.conn.Close()
}

func (t *tcpTransport) IsSecure() bool {
	return false
}

// echoProtocol is the simplest possible InnerProtocol: whatever the
// peer sends becomes the next message sent back.
type echoProtocol struct {
	log    logging.LeveledLogger
	handle *wsengine.Handle
}

func (e *echoProtocol) ConnectionMade(h *wsengine.Handle) {
	e.handle = h
	e.log.Debug("connection ready for framing")
}

func (e *echoProtocol) DataReceived(p []byte) {
	e.handle.Write(p)
}

func (e *echoProtocol) ConnectionLost(reason error) {
	e.log.Debugf("connection lost: %v", reason)
}

// identityBanner mints a throwaway NKey server identity for the
// process, the same role nkeys plays for authenticating a nats-server
// instance, used here only to give each run of the demo a distinct,
// human-shareable public key in its startup banner. It is not involved
// in the handshake or framing itself (§1 Non-goals: no authentication).
func identityBanner() (string, error) {
	kp, err := nkeys.CreateServer()
	if err != nil {
		return "", err
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return "", err
	}
	return pub, nil
}
