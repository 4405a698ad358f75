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

import "bytes"

const (
	hybi00Start = 0x00
	hybi00End   = 0xFF
)

// decodeHybi00Frames implements the HyBi-00 sentinel framing decode rule
// (§4.3): find 0x00, then find 0xFF strictly after it, emit the bytes
// between as a TEXT_OR_BINARY frame, advance past the 0xFF. Bytes before
// the first 0x00 are garbage and are discarded; if no 0xFF follows a
// 0x00, parsing stops and the unread bytes (including that leading 0x00)
// are retained for the next call.
func decodeHybi00Frames(buf []byte) ([]Frame, []byte) {
	var frames []Frame

	start := bytes.IndexByte(buf, hybi00Start)
	for start != -1 {
		end := bytes.IndexByte(buf[start+1:], hybi00End)
		if end == -1 {
			// Incomplete frame; stop and keep everything from start on.
			break
		}
		end += start + 1
		frames = append(frames, Frame{Kind: FrameTextOrBinary, Payload: buf[start+1 : end]})
		start = indexByteFrom(buf, hybi00Start, end+1)
	}

	if start == -1 {
		// No frame start left: everything unread is garbage.
		return frames, buf[len(buf):]
	}
	return frames, buf[start:]
}

func indexByteFrom(buf []byte, b byte, from int) int {
	if from >= len(buf) {
		return -1
	}
	idx := bytes.IndexByte(buf[from:], b)
	if idx == -1 {
		return -1
	}
	return idx + from
}

// encodeHybi00Frame wraps a payload in the HyBi-00 sentinel frame: no
// length prefix, no control frames (§4.3).
func encodeHybi00Frame(payload []byte) [][]byte {
	return [][]byte{{hybi00Start}, payload, {hybi00End}}
}
