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

import "github.com/pion/logging"

// defaultLoggerFactory backs every Connection that is not given an explicit
// logger in its Config, the same "never nil" discipline the teacher's
// wsCaptureHTTPServerLog wrapper enforces around the stdlib log.Logger.
var defaultLoggerFactory = logging.NewDefaultLoggerFactory()

func connLogger(cfg *Config) logging.LeveledLogger {
	if cfg != nil && cfg.Logger != nil {
		return cfg.Logger
	}
	return defaultLoggerFactory.NewLogger("wsengine")
}
