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

	"github.com/google/uuid"
)

// DefaultMaxMicrosteps bounds the number of microsteps inside one
// macrostep, so a divergent eventless loop terminates instead of
// spinning.
var DefaultMaxMicrosteps = 1000

// Executor is the stateless interpretation algorithm.  It may be
// shared across sessions.  Start and SendEvent are synchronous and run
// to quiescence before returning; re-entrant calls from listeners are
// not supported.
type Executor struct {
	// MaxMicrosteps overrides DefaultMaxMicrosteps when positive.
	MaxMicrosteps int
}

// NewExecutor creates an Executor with the default microstep bound.
func NewExecutor() *Executor {
	return &Executor{MaxMicrosteps: DefaultMaxMicrosteps}
}

func (e *Executor) maxMicrosteps() int {
	if e.MaxMicrosteps > 0 {
		return e.MaxMicrosteps
	}
	return DefaultMaxMicrosteps
}

func declareOrEnqueueError(rt *Runtime, id string) bool {
	if !rt.Datamodel().Declare(id) {
		rt.EnqueueExecutionError("Declare failed: " + id)
		return false
	}
	return true
}

func assignStringOrEnqueueError(rt *Runtime, id, str string) bool {
	if !rt.Datamodel().AssignString(id, str) {
		rt.EnqueueExecutionError("AssignString failed: " + id + " = " + str)
		return false
	}
	return true
}

func assignExpressionOrEnqueueError(rt *Runtime, id, expr string) bool {
	if !rt.Datamodel().AssignExpression(id, expr) {
		rt.EnqueueExecutionError("AssignExpression failed: " + id + " = " + expr)
		return false
	}
	return true
}

// initializeDatamodel executes datamodel blocks in document order.
func initializeDatamodel(rt *Runtime, block ExecutableContent, states []*State) {
	execute(rt, block)
	for _, state := range states {
		initializeDatamodel(rt, state.Datamodel, state.Children)
	}
}

// Start clears the runtime, declares the system locations, initializes
// the datamodel (early binding, document order), enters the top-level
// initial transition's targets, and runs one macrostep.  A no-op if
// the runtime is already running.
func (e *Executor) Start(model *Model, rt *Runtime) {
	if model == nil || rt == nil {
		return
	}
	if rt.IsRunning() {
		log.Print("no op; runtime is already running")
		return
	}

	rt.Clear()
	rt.SetRunning(true)

	declareOrEnqueueError(rt, "_name")
	assignStringOrEnqueueError(rt, "_name", model.Name)
	declareOrEnqueueError(rt, "_sessionid")
	assignStringOrEnqueueError(rt, "_sessionid", "SESSION_"+uuid.NewString())
	declareOrEnqueueError(rt, "_event")
	assignExpressionOrEnqueueError(rt, "_event", rt.Datamodel().EncodeParameters(nil))

	if model.Binding == BindingEarly {
		// The SCXML specification does not dictate an early-binding
		// initialization order; we use document order.
		initializeDatamodel(rt, model.Datamodel, model.TopLevel)
	} else {
		log.Print("late binding is not supported")
	}

	e.enterStates(model, rt, []*Transition{model.Initial})
	e.executeUntilStable(model, rt)
}

// SendEvent assigns the event data, takes a microstep for any enabled
// transitions, and runs to quiescence.  Events received while the
// machine is not running are ignored.
func (e *Executor) SendEvent(model *Model, rt *Runtime, event, payload string) {
	if model == nil || rt == nil {
		return
	}
	if !rt.IsRunning() {
		return
	}
	e.processExternalEvent(model, rt, event, payload)
	e.executeUntilStable(model, rt)
}

func (e *Executor) processExternalEvent(model *Model, rt *Runtime, event, payload string) {
	e.assignEventData(rt, event, payload)
	transitions := model.TransitionsForEvent(rt, event)
	if len(transitions) > 0 {
		e.microStep(model, rt, transitions)
	}
}

// executeUntilStable is one macrostep: a loop of microsteps that
// considers eventless transitions first and internal events next,
// until neither yields work, the machine stops running, or the
// microstep bound is hit.  An unhandled error event terminates the
// macrostep early, so error loops cannot spin forever.
func (e *Executor) executeUntilStable(model *Model, rt *Runtime) {
	limit := e.maxMicrosteps()
	for steps := 0; rt.IsRunning() && steps < limit; steps++ {
		transitions := model.EventlessTransitions(rt)
		if len(transitions) == 0 {
			if !rt.HasInternalEvent() {
				break
			}
			evt, _ := rt.DequeueInternalEvent()
			e.assignEventData(rt, evt.Name, evt.Payload)
			transitions = model.TransitionsForEvent(rt, evt.Name)
			if IsErrorEvent(evt.Name) {
				if len(transitions) == 0 {
					log.Printf("macrostep terminated by unhandled error (event: %s, payload: %s)",
						evt.Name, evt.Payload)
					break
				}
				log.Printf("[ERROR] event: %s, payload: %s", evt.Name, evt.Payload)
			}
		}
		if len(transitions) > 0 {
			e.microStep(model, rt, transitions)
		}
	}
	if !rt.IsRunning() {
		e.shutdown(model, rt)
	}
}

// microStep exits, runs the transition bodies, and enters, in that
// order across the whole transition set.
func (e *Executor) microStep(model *Model, rt *Runtime, transitions []*Transition) {
	e.exitStates(model, rt, transitions)
	for _, t := range transitions {
		execute(rt, t.Executable)
		rt.EventDispatcher().NotifyTransitionFollowed(rt, t)
	}
	e.enterStates(model, rt, transitions)
}

func (e *Executor) enterStates(model *Model, rt *Runtime, transitions []*Transition) {
	states, defaultEntry, ok := model.ComputeEntrySet(rt, transitions)
	if !ok {
		rt.EnqueueExecutionError("entry-set computation failed")
		return
	}

	for _, state := range states {
		rt.AddActiveState(state)
		execute(rt, state.OnEntry)
		rt.EventDispatcher().NotifyStateEntered(rt, state)

		if defaultEntry[state] {
			if state.Initial != nil {
				execute(rt, state.Initial.Executable)
			} else {
				log.Printf("state %q should have an initial transition", state.Id)
			}
		}

		if state.IsFinal() {
			if state.Parent == nil {
				rt.SetRunning(false)
				continue
			}
			rt.EnqueueInternalEvent("done.state."+state.Parent.Id, "")
			// A parallel grandparent completes when all of its
			// children are in final configurations.
			if grandparent := state.Parent.Parent; grandparent != nil && grandparent.IsParallel() {
				all := true
				for _, child := range grandparent.Children {
					if !model.IsInFinalState(rt, child) {
						all = false
						break
					}
				}
				if all {
					rt.EnqueueInternalEvent("done.state."+grandparent.Id, "")
				}
			}
		}
	}
}

func (e *Executor) exitStates(model *Model, rt *Runtime, transitions []*Transition) {
	// Already in exit order.
	for _, state := range model.ComputeExitSet(rt, transitions) {
		execute(rt, state.OnExit)
		rt.EraseActiveState(state)
		rt.EventDispatcher().NotifyStateExited(rt, state)
	}
}

// assignEventData populates _event before transition selection.  The
// name always overwrites; the payload overwrites _event.data only when
// non-empty, so the previous data survives a payloadless event.
func (e *Executor) assignEventData(rt *Runtime, event, payload string) {
	// Stop at the first failure so only one error is raised.
	if !assignStringOrEnqueueError(rt, "_event.name", event) {
		return
	}
	if payload != "" {
		assignExpressionOrEnqueueError(rt, "_event.data", payload)
	}
}

// shutdown exits every active state in reverse document order and
// drains the internal queue, logging any error events left behind.
func (e *Executor) shutdown(model *Model, rt *Runtime) {
	states := rt.ActiveStates()
	model.SortStatesByDocumentOrder(true, states)
	for _, state := range states {
		execute(rt, state.OnExit)
		rt.EraseActiveState(state)
	}
	for rt.HasInternalEvent() {
		evt, _ := rt.DequeueInternalEvent()
		if IsErrorEvent(evt.Name) {
			log.Printf("[ERROR] event: %s, payload: %s", evt.Name, evt.Payload)
		}
	}
}
