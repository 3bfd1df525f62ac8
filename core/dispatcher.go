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

package core

// Listener observes a session.  Callbacks run inline on the calling
// goroutine, before the triggering Start or SendEvent returns.  A
// listener must not mutate the runtime.
type Listener interface {
	// OnStateEntered fires after the state's onentry ran.
	OnStateEntered(rt *Runtime, state *State)

	// OnStateExited fires after the state left the active set.
	OnStateExited(rt *Runtime, state *State)

	// OnTransitionFollowed fires after the transition body ran.
	OnTransitionFollowed(rt *Runtime, transition *Transition)

	// OnSendEvent fires for each <send>.  The interpreter does not
	// deliver the event; data carries the encoded param map or is
	// empty.
	OnSendEvent(rt *Runtime, event, target, typ, id, data string)
}

// EventDispatcher fans notifications out to listeners, synchronously,
// in registration order.
type EventDispatcher struct {
	listeners []Listener
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

// AddListener appends a listener.
func (d *EventDispatcher) AddListener(l Listener) {
	d.listeners = append(d.listeners, l)
}

func (d *EventDispatcher) NotifyStateEntered(rt *Runtime, state *State) {
	for _, l := range d.listeners {
		l.OnStateEntered(rt, state)
	}
}

func (d *EventDispatcher) NotifyStateExited(rt *Runtime, state *State) {
	for _, l := range d.listeners {
		l.OnStateExited(rt, state)
	}
}

func (d *EventDispatcher) NotifyTransitionFollowed(rt *Runtime, transition *Transition) {
	for _, l := range d.listeners {
		l.OnTransitionFollowed(rt, transition)
	}
}

func (d *EventDispatcher) NotifySendEvent(rt *Runtime, event, target, typ, id, data string) {
	for _, l := range d.listeners {
		l.OnSendEvent(rt, event, target, typ, id, data)
	}
}
