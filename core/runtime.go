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

import (
	"log"
	"strings"

	"github.com/google/statechart/datamodel"
)

// Event is an internal event: a name plus an optional payload, which
// is a datamodel value expression assigned to _event.data when the
// event is consumed.
type Event struct {
	Name    string
	Payload string
}

// IsErrorEvent reports whether an event name is "error" or starts with
// "error.".
func IsErrorEvent(name string) bool {
	return name == "error" || strings.HasPrefix(name, "error.")
}

// Runtime is the mutable state of one session: the active-state set,
// the FIFO internal-event queue, the running flag, the datamodel, and
// the event dispatcher.  The active set is written only by the
// Executor.  A Runtime must not be shared across goroutines.
type Runtime struct {
	running    bool
	active     []*State // insertion (entry) order
	internal   []Event
	datamodel  *datamodel.Datamodel
	dispatcher *EventDispatcher
}

// NewRuntime wraps a datamodel in a fresh, stopped runtime and binds
// itself as the datamodel's state checker.
func NewRuntime(dm *datamodel.Datamodel) *Runtime {
	if dm == nil {
		return nil
	}
	rt := &Runtime{
		datamodel:  dm,
		dispatcher: NewEventDispatcher(),
	}
	dm.SetRuntime(rt)
	return rt
}

// IsRunning reports whether the session is running.
func (rt *Runtime) IsRunning() bool { return rt.running }

// SetRunning sets the running flag.
func (rt *Runtime) SetRunning(running bool) { rt.running = running }

// ActiveStates returns the active states in entry order.  The caller
// must not modify the runtime through the result.
func (rt *Runtime) ActiveStates() []*State {
	return append([]*State(nil), rt.active...)
}

// IsActive reports whether state is in the active set.
func (rt *Runtime) IsActive(state *State) bool {
	for _, s := range rt.active {
		if s == state {
			return true
		}
	}
	return false
}

// IsActiveState reports whether some active state has the given id.
// This implements datamodel.StateChecker for the In() builtin.
func (rt *Runtime) IsActiveState(id string) bool {
	for _, s := range rt.active {
		if s.Id == id {
			return true
		}
	}
	return false
}

// AddActiveState inserts state into the active set.
func (rt *Runtime) AddActiveState(state *State) {
	if !rt.IsActive(state) {
		rt.active = append(rt.active, state)
	}
}

// EraseActiveState removes state from the active set.
func (rt *Runtime) EraseActiveState(state *State) {
	for i, s := range rt.active {
		if s == state {
			rt.active = append(rt.active[:i], rt.active[i+1:]...)
			return
		}
	}
}

// HasInternalEvent reports whether the internal queue is non-empty.
func (rt *Runtime) HasInternalEvent() bool { return len(rt.internal) > 0 }

// EnqueueInternalEvent appends an event to the internal queue.
func (rt *Runtime) EnqueueInternalEvent(name, payload string) {
	rt.internal = append(rt.internal, Event{Name: name, Payload: payload})
}

// DequeueInternalEvent pops the oldest internal event.
func (rt *Runtime) DequeueInternalEvent() (Event, bool) {
	if !rt.HasInternalEvent() {
		log.Print("there are no internal events to dequeue")
		return Event{}, false
	}
	evt := rt.internal[0]
	rt.internal = rt.internal[1:]
	return evt, true
}

// EnqueueExecutionError enqueues an error.execution event whose
// payload is a JSON object carrying msg.
func (rt *Runtime) EnqueueExecutionError(msg string) {
	rt.EnqueueInternalEvent("error.execution", datamodel.MakeJSONError(msg))
}

// Datamodel returns the session's datamodel.
func (rt *Runtime) Datamodel() *datamodel.Datamodel { return rt.datamodel }

// EventDispatcher returns the session's listener fan-out.
func (rt *Runtime) EventDispatcher() *EventDispatcher { return rt.dispatcher }

// Clear resets the active set, the internal queue, and the datamodel.
func (rt *Runtime) Clear() {
	rt.datamodel.Clear()
	rt.internal = nil
	rt.active = nil
}

// DebugString renders the runtime for diagnostics.
func (rt *Runtime) DebugString() string {
	ids := make([]string, len(rt.active))
	for i, s := range rt.active {
		ids[i] = s.Id
	}
	events := make([]string, len(rt.internal))
	for i, e := range rt.internal {
		events[i] = "(" + e.Name + " " + e.Payload + ")"
	}
	return "Runtime\n  Active States  : " + strings.Join(ids, ", ") +
		"\n  Internal Events: " + strings.Join(events, ", ")
}

// ActiveStateElement is one node of the serialized active-state tree.
type ActiveStateElement struct {
	Id          string                `json:"id"`
	ActiveChild []*ActiveStateElement `json:"active_child,omitempty"`
}

// SerializedRuntime is the persistable form of a runtime: the active
// tree rooted at the top-level states plus the running flag.
type SerializedRuntime struct {
	ActiveState []*ActiveStateElement `json:"active_state,omitempty"`
	Running     bool                  `json:"running,omitempty"`
}

func lookupOrInsert(id string, elements *[]*ActiveStateElement) *ActiveStateElement {
	for _, e := range *elements {
		if e.Id == id {
			return e
		}
	}
	e := &ActiveStateElement{Id: id}
	*elements = append(*elements, e)
	return e
}

// Serialize produces the active-state tree.  Serializing is only valid
// at a quiescent point: it refuses while internal events are pending.
func (rt *Runtime) Serialize() (*SerializedRuntime, bool) {
	if rt.HasInternalEvent() {
		log.Print("refusing to serialize a runtime with pending internal events")
		return nil, false
	}
	sr := &SerializedRuntime{Running: rt.IsRunning()}
	for _, state := range rt.active {
		var path []string
		for node := state; node != nil; node = node.Parent {
			path = append(path, node.Id)
		}
		elements := &sr.ActiveState
		for i := len(path) - 1; i >= 0; i-- {
			e := lookupOrInsert(path[i], elements)
			if i > 0 {
				elements = &e.ActiveChild
			}
		}
	}
	return sr, true
}
