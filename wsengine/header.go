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

import "strings"

// Header Reader (§4.1). The request line and header block are plain
// text accumulated in Connection.inbound; these two helpers turn that
// text into structured data once a full unit (a line, or a header
// block) is available. Neither function blocks or retains partial
// input: the callers (Connection.stepRequest and
// Connection.stepNegotiating) keep the leftover bytes.

// headerMap is a mapping from header name to its last value, names kept
// exactly as received (§3: "case-sensitive ... not case-insensitive in
// this implementation").
type headerMap map[string]string

// splitRequestLine parses "<VERB> <LOCATION> HTTP/1.x" into its three
// whitespace-separated tokens. The location is returned verbatim,
// including any query string.
func splitRequestLine(line string) (verb, location, version string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return "", "", "", wrapf(errMalformedRequestLine, "got %d fields, want 3", len(fields))
	}
	return fields[0], fields[1], fields[2], nil
}

// parseHeaderBlock turns a head (everything up to, but not including,
// the blank-line terminator) into a headerMap. Lines without a colon
// are silently skipped; the text to each side of the first colon is
// whitespace-trimmed; duplicate names collapse to the last value seen.
func parseHeaderBlock(head string) headerMap {
	h := make(headerMap)
	for _, line := range strings.Split(head, "\r\n") {
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if name == "" {
			continue
		}
		h[name] = value
	}
	return h
}
