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

func TestAcceptKey(t *testing.T) {
	got := acceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", got)
}

func TestHybi00Challenge(t *testing.T) {
	var body [8]byte
	copy(body[:], "^n:ds[4U")

	digest, err := hybi00Challenge("4 @1  46546xW%0l 1 5", "12998 5 Y3 1  .P00", body)
	require.NoError(t, err)
	assert.Equal(t, "8jKS'y:G*Co,Wxa-", string(digest[:]))
}

func TestHybi00KeyNumber(t *testing.T) {
	n, err := hybi00KeyNumber("4 @1  46546xW%0l 1 5")
	require.NoError(t, err)
	assert.Equal(t, uint32(829309203), n)

	n, err = hybi00KeyNumber("12998 5 Y3 1  .P00")
	require.NoError(t, err)
	assert.Equal(t, uint32(259970620), n)
}

func TestHybi00KeyNumberNoSpaces(t *testing.T) {
	_, err := hybi00KeyNumber("12345")
	assert.ErrorIs(t, err, errHybi00NoSpaces)
}

func TestIsWebSocket(t *testing.T) {
	good := headerMap{"Connection": "Upgrade", "Upgrade": "websocket"}
	assert.True(t, isWebSocket(good))

	good2 := headerMap{"Connection": "keep-alive, Upgrade", "Upgrade": "WebSocket"}
	assert.True(t, isWebSocket(good2))

	bad := headerMap{"Connection": "keep-alive", "Upgrade": "websocket"}
	assert.False(t, isWebSocket(bad))

	bad2 := headerMap{"Connection": "Upgrade", "Upgrade": "h2c"}
	assert.False(t, isWebSocket(bad2))
}

func TestDetectDialect(t *testing.T) {
	cases := []struct {
		name string
		h    headerMap
		want Dialect
		ok   bool
	}{
		{"hybi00", headerMap{"Sec-WebSocket-Key1": "a", "Sec-WebSocket-Key2": "b"}, HYBI00, true},
		{"hybi07", headerMap{"Sec-WebSocket-Version": "7"}, HYBI07, true},
		{"hybi10", headerMap{"Sec-WebSocket-Version": "8"}, HYBI10, true},
		{"rfc6455", headerMap{"Sec-WebSocket-Version": "13"}, RFC6455, true},
		{"unknown", headerMap{"Sec-WebSocket-Version": "99"}, dialectUnset, false},
		{"absent", headerMap{}, dialectUnset, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := detectDialect(tc.h)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSelectCodec(t *testing.T) {
	codec, ok := selectCodec(headerMap{})
	assert.True(t, ok)
	assert.Empty(t, codec)

	codec, ok = selectCodec(headerMap{"Sec-WebSocket-Protocol": "foo, base64, bar"})
	assert.True(t, ok)
	assert.Equal(t, "base64", codec)

	_, ok = selectCodec(headerMap{"Sec-WebSocket-Protocol": "foo, bar"})
	assert.False(t, ok)
}
