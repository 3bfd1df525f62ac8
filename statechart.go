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

// Package statechart is a statechart interpreter following the W3C
// SCXML execution semantics.
//
// A chart description (package chart) becomes an immutable model, a
// StateMachineFactory lends out StateMachine sessions over the models
// it holds, and each session advances synchronously through Start and
// SendEvent.  Side effects run through the datamodel (package
// datamodel); listeners observe entries, exits, followed transitions,
// and <send> requests.
//
// A session can be serialized at any quiescent point and resumed later
// from the snapshot.
package statechart

import (
	"encoding/json"
	"errors"

	"github.com/google/statechart/core"
)

// Context is a full resumable session snapshot: the serialized
// active-state tree plus the serialized datamodel store.
type Context struct {
	Runtime   *core.SerializedRuntime `json:"runtime,omitempty"`
	Datamodel string                  `json:"datamodel,omitempty"`
}

// StateMachine is one session over a model.  It is not safe for
// concurrent use.
type StateMachine struct {
	executor *core.Executor
	model    *core.Model
	runtime  *core.Runtime
}

// newStateMachine wires a session together.
func newStateMachine(executor *core.Executor, model *core.Model, runtime *core.Runtime) *StateMachine {
	if executor == nil || model == nil || runtime == nil {
		return nil
	}
	return &StateMachine{executor: executor, model: model, runtime: runtime}
}

// Start enters the chart's initial configuration and runs to
// quiescence.  A no-op if the machine is already running.
func (m *StateMachine) Start() {
	m.executor.Start(m.model, m.runtime)
}

// SendEvent delivers an external event.  The payload, when non-empty,
// is a datamodel value expression assigned to _event.data.
func (m *StateMachine) SendEvent(event, payload string) {
	m.executor.SendEvent(m.model, m.runtime, event, payload)
}

// SendEventJSON delivers an external event whose payload is the JSON
// serialization of v, matching the datamodel's payload convention.
func (m *StateMachine) SendEventJSON(event string, v interface{}) error {
	payload := ""
	if v != nil {
		js, err := json.Marshal(v)
		if err != nil {
			return err
		}
		payload = string(js)
	}
	m.SendEvent(event, payload)
	return nil
}

// AddListener registers a listener for this session.
func (m *StateMachine) AddListener(l core.Listener) {
	m.runtime.EventDispatcher().AddListener(l)
}

// Runtime exposes the session state, read-only by convention.
func (m *StateMachine) Runtime() *core.Runtime { return m.runtime }

// Model exposes the shared model.
func (m *StateMachine) Model() *core.Model { return m.model }

// ExtractFromDatamodel evaluates a datamodel location and unmarshals
// the resulting JSON value into out.
func (m *StateMachine) ExtractFromDatamodel(location string, out interface{}) error {
	dm := m.runtime.Datamodel()
	if !dm.IsDefined(location) {
		return errors.New("location is not defined: " + location)
	}
	js, ok := dm.EvaluateExpression(location)
	if !ok {
		return errors.New("location failed to evaluate: " + location)
	}
	return json.Unmarshal([]byte(js), out)
}

// SerializeToContext snapshots the session.  It fails while internal
// events are pending; let the machine reach quiescence first.
func (m *StateMachine) SerializeToContext() (*Context, error) {
	sr, ok := m.runtime.Serialize()
	if !ok {
		return nil, errors.New("runtime has pending internal events")
	}
	return &Context{
		Runtime:   sr,
		Datamodel: m.runtime.Datamodel().SerializeAsString(),
	}, nil
}
