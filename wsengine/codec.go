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

import "encoding/base64"

// encodePayload and decodePayload apply the negotiated codec, if any, to
// application payloads. This affects only payload bytes, never the
// header/length/mask computations of the frame codec itself (§4.3).
// "base64" is the only recognized codec; an empty codec is a no-op.

func encodePayload(codec string, p []byte) []byte {
	if codec != "base64" {
		return p
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(p)))
	base64.StdEncoding.Encode(out, p)
	return out
}

func decodePayload(codec string, p []byte) ([]byte, error) {
	if codec != "base64" {
		return p, nil
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(p)))
	n, err := base64.StdEncoding.Decode(out, p)
	if err != nil {
		return nil, wrapf(err, "base64 decode")
	}
	return out[:n], nil
}
