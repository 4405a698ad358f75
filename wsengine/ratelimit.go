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

import "golang.org/x/time/rate"

// HandshakeLimiter throttles how many new connections per second are
// allowed to begin the REQUEST/NEGOTIATING dance on a listener, before
// any bytes of the handshake itself are read. It sits in front of the
// engine, not inside it: a rejected Allow() means the accepted socket
// should be closed immediately without ever constructing a Connection.
type HandshakeLimiter struct {
	limiter *rate.Limiter
}

// NewHandshakeLimiter builds a limiter that permits up to perSecond new
// handshakes per second, with burst allowed to spike momentarily.
func NewHandshakeLimiter(perSecond float64, burst int) *HandshakeLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &HandshakeLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow reports whether a new handshake attempt may proceed right now.
// A nil *HandshakeLimiter always allows, so callers can pass a possibly
// unconfigured limiter without a nil check.
func (l *HandshakeLimiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}
