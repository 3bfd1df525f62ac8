/* Copyright 2026 The StateChart Authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package statechart

import (
	"log"

	"github.com/google/statechart/core"
)

// Listener is re-exported for clients that only import the root
// package.
type Listener = core.Listener

// LoggerListener prints every callback through the standard logger.
// It is the factory's default listener.
type LoggerListener struct{}

func (l *LoggerListener) OnStateEntered(rt *core.Runtime, state *core.State) {
	log.Printf("entered state: %s", state.Id)
}

func (l *LoggerListener) OnStateExited(rt *core.Runtime, state *core.State) {
	log.Printf("exited state: %s", state.Id)
}

func (l *LoggerListener) OnTransitionFollowed(rt *core.Runtime, t *core.Transition) {
	log.Printf("followed transition: %s", t.DebugString())
}

func (l *LoggerListener) OnSendEvent(rt *core.Runtime, event, target, typ, id, data string) {
	log.Printf("send: event=%s target=%s type=%s id=%s data=%s", event, target, typ, id, data)
}
