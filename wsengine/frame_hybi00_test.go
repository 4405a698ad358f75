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
)

func TestDecodeHybi00FramesLeadingGarbageDiscarded(t *testing.T) {
	buf := []byte("trash\x00Test\xff\x00Again\xff")

	frames, rest := decodeHybi00Frames(buf)

	assert.Empty(t, rest)
	if assert.Len(t, frames, 2) {
		assert.Equal(t, "Test", string(frames[0].Payload))
		assert.Equal(t, "Again", string(frames[1].Payload))
	}
}

func TestDecodeHybi00FramesInterFrameGarbageDiscarded(t *testing.T) {
	buf := []byte("trash\x00Test\xffSome\x00Again\xff")

	frames, rest := decodeHybi00Frames(buf)

	assert.Empty(t, rest)
	if assert.Len(t, frames, 2) {
		assert.Equal(t, "Test", string(frames[0].Payload))
		assert.Equal(t, "Again", string(frames[1].Payload))
	}
}

func TestDecodeHybi00FramesIncompleteTrailingFrameRetained(t *testing.T) {
	buf := []byte("trash\x00Test\xff\x00Partial")

	frames, rest := decodeHybi00Frames(buf)

	if assert.Len(t, frames, 1) {
		assert.Equal(t, "Test", string(frames[0].Payload))
	}
	assert.Equal(t, []byte("\x00Partial"), rest)
}

func TestDecodeHybi00FramesNoSentinelYet(t *testing.T) {
	buf := []byte("not a frame at all")
	frames, rest := decodeHybi00Frames(buf)
	assert.Empty(t, frames)
	assert.Empty(t, rest)
}

func TestEncodeHybi00FrameRoundTrip(t *testing.T) {
	payload := []byte("hello hixie")
	seqs := encodeHybi00Frame(payload)

	var buf []byte
	for _, s := range seqs {
		buf = append(buf, s...)
	}

	frames, rest := decodeHybi00Frames(buf)
	assert.Empty(t, rest)
	if assert.Len(t, frames, 1) {
		assert.Equal(t, payload, frames[0].Payload)
	}
}
