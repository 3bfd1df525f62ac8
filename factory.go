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
	"errors"
	"log"

	"github.com/google/statechart/chart"
	"github.com/google/statechart/core"
	"github.com/google/statechart/datamodel"
)

// StateMachineFactory holds built models and lends out StateMachine
// sessions over them.  One Executor is shared by every session; each
// session gets its own Runtime and Datamodel.
type StateMachineFactory struct {
	executor *core.Executor
	listener core.Listener
	models   map[string]*core.Model
}

// NewStateMachineFactory creates a factory whose sessions log through
// the default LoggerListener.
func NewStateMachineFactory() *StateMachineFactory {
	return NewStateMachineFactoryWithListener(&LoggerListener{})
}

// NewStateMachineFactoryWithListener creates a factory that attaches
// the given listener to every session it creates.  A nil listener
// attaches nothing.
func NewStateMachineFactoryWithListener(listener core.Listener) *StateMachineFactory {
	return &StateMachineFactory{
		executor: core.NewExecutor(),
		listener: listener,
		models:   make(map[string]*core.Model),
	}
}

// AddChart builds a chart description and registers the model under
// the chart's name.  A duplicate name replaces the existing model with
// a warning.
func (f *StateMachineFactory) AddChart(c *chart.Chart) error {
	model, err := chart.Build(c)
	if err != nil {
		return err
	}
	if _, have := f.models[model.Name]; have {
		log.Printf("existing model %q replaced", model.Name)
	}
	f.models[model.Name] = model
	return nil
}

// AddChartYAML parses and registers a YAML chart description.
func (f *StateMachineFactory) AddChartYAML(data []byte) error {
	c, err := chart.ParseYAML(data)
	if err != nil {
		return err
	}
	return f.AddChart(c)
}

// HasModel reports whether a model is registered under name.
func (f *StateMachineFactory) HasModel(name string) bool {
	_, have := f.models[name]
	return have
}

// Model returns the registered model, or nil.
func (f *StateMachineFactory) Model(name string) *core.Model {
	return f.models[name]
}

// NewStateMachine creates a fresh session over the named model.  The
// dispatcher supplies the host functions callable from expressions.
func (f *StateMachineFactory) NewStateMachine(name string, dispatcher *datamodel.FunctionDispatcher) (*StateMachine, error) {
	model, have := f.models[name]
	if !have {
		return nil, errors.New("no model named " + name)
	}
	dm := datamodel.New(dispatcher)
	if dm == nil {
		return nil, errors.New("a function dispatcher is required")
	}
	m := newStateMachine(f.executor, model, core.NewRuntime(dm))
	if f.listener != nil {
		m.AddListener(f.listener)
	}
	return m, nil
}

// NewStateMachineFromContext creates a session over the named model
// resumed from a snapshot: the datamodel store is restored verbatim,
// the active set is re-resolved against the model, and the running
// flag is copied.  The internal queue is empty by construction.
func (f *StateMachineFactory) NewStateMachineFromContext(name string, ctx *Context, dispatcher *datamodel.FunctionDispatcher) (*StateMachine, error) {
	model, have := f.models[name]
	if !have {
		return nil, errors.New("no model named " + name)
	}
	if ctx == nil {
		return nil, errors.New("nil context")
	}
	dm := datamodel.NewFromString(ctx.Datamodel, dispatcher)
	if dm == nil {
		return nil, errors.New("context datamodel failed to parse")
	}
	rt := core.NewRuntime(dm)
	if ctx.Runtime != nil {
		for _, state := range model.ActiveStates(ctx.Runtime.ActiveState) {
			rt.AddActiveState(state)
		}
		rt.SetRunning(ctx.Runtime.Running)
	}
	m := newStateMachine(f.executor, model, rt)
	if f.listener != nil {
		m.AddListener(f.listener)
	}
	return m, nil
}
