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

package core_test

import (
	"strings"
	"testing"

	"github.com/google/statechart/chart"
	"github.com/google/statechart/core"
	"github.com/google/statechart/datamodel"
	. "github.com/google/statechart/util/testutil"
)

func buildModel(t *testing.T, yamlChart string) *core.Model {
	t.Helper()
	c, err := chart.ParseYAML([]byte(yamlChart))
	if err != nil {
		t.Fatal(err)
	}
	m, err := chart.Build(c)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newSession(t *testing.T, yamlChart string) (*core.Model, *core.Runtime, *core.Executor) {
	t.Helper()
	m := buildModel(t, yamlChart)
	rt := core.NewRuntime(datamodel.New(datamodel.NewFunctionDispatcher()))
	if rt == nil {
		t.Fatal("no runtime")
	}
	return m, rt, core.NewExecutor()
}

func activeAtomic(rt *core.Runtime) []string {
	var acc []string
	for _, s := range rt.ActiveStates() {
		if s.IsAtomic() {
			acc = append(acc, s.Id)
		}
	}
	return acc
}

func wantActive(t *testing.T, rt *core.Runtime, want ...string) {
	t.Helper()
	got := SortedStrings(activeAtomic(rt))
	if JS(got) != JS(SortedStrings(want)) {
		t.Fatalf("active atomic states: got %v, want %v", got, want)
	}
}

// recorder keeps the order of every callback.
type recorder struct {
	trace []string
}

func (r *recorder) OnStateEntered(rt *core.Runtime, s *core.State) {
	r.trace = append(r.trace, "enter:"+s.Id)
}

func (r *recorder) OnStateExited(rt *core.Runtime, s *core.State) {
	r.trace = append(r.trace, "exit:"+s.Id)
}

func (r *recorder) OnTransitionFollowed(rt *core.Runtime, tr *core.Transition) {
	src := "<root>"
	if tr.Source != nil {
		src = tr.Source.Id
	}
	r.trace = append(r.trace, "follow:"+src)
}

func (r *recorder) OnSendEvent(rt *core.Runtime, event, target, typ, id, data string) {
	r.trace = append(r.trace, "send:"+event+":"+data)
}

// E4: event descriptor hierarchy with first-declared-wins.
const descriptorChart = `
name: descriptors
states:
  - id: A
    transitions:
      - event: [event1]
        target: [B]
      - event: [event1.sub]
        target: [C]
      - event: ["*"]
        target: [D]
  - id: B
  - id: C
  - id: D
`

func TestEventDescriptorHierarchy(t *testing.T) {
	m, rt, ex := newSession(t, descriptorChart)
	ex.Start(m, rt)
	wantActive(t, rt, "A")

	ex.SendEvent(m, rt, "event1.sub.anything", "")
	wantActive(t, rt, "B")

	m2, rt2, ex2 := newSession(t, descriptorChart)
	ex2.Start(m2, rt2)
	ex2.SendEvent(m2, rt2, "totally_unrelated", "")
	wantActive(t, rt2, "D")
}

// E5: a parallel state completes when all regions reach finals.
const parallelDoneChart = `
name: paralleldone
states:
  - id: P
    type: parallel
    transitions:
      - event: [done.state.P]
        target: [all_done]
    states:
      - id: B
        states:
          - id: b_work
            transitions:
              - event: [finish.b]
                target: [b_done]
          - id: b_done
            type: final
      - id: C
        states:
          - id: c_work
            transitions:
              - event: [finish.c]
                target: [c_done]
          - id: c_done
            type: final
      - id: D
        states:
          - id: d_work
            transitions:
              - event: [finish.d]
                target: [d_done]
          - id: d_done
            type: final
  - id: all_done
`

func TestParallelDoneEvent(t *testing.T) {
	m, rt, ex := newSession(t, parallelDoneChart)

	counter := &doneCounter{}
	rt.EventDispatcher().AddListener(counter)

	ex.Start(m, rt)
	wantActive(t, rt, "b_work", "c_work", "d_work")

	ex.SendEvent(m, rt, "finish.b", "")
	wantActive(t, rt, "b_done", "c_work", "d_work")
	ex.SendEvent(m, rt, "finish.c", "")
	wantActive(t, rt, "b_done", "c_done", "d_work")
	ex.SendEvent(m, rt, "finish.d", "")
	wantActive(t, rt, "all_done")

	if counter.pDone != 1 {
		t.Fatalf("done.state.P fired %d times, want 1", counter.pDone)
	}
	if !rt.IsRunning() {
		t.Fatal("machine should still be running")
	}
}

// doneCounter counts done.state.P transitions by watching the
// transition that consumes it.
type doneCounter struct {
	pDone int
}

func (c *doneCounter) OnStateEntered(rt *core.Runtime, s *core.State) {}
func (c *doneCounter) OnStateExited(rt *core.Runtime, s *core.State)  {}
func (c *doneCounter) OnTransitionFollowed(rt *core.Runtime, tr *core.Transition) {
	if len(tr.Events) == 1 && tr.Events[0] == "done.state.P" {
		c.pDone++
	}
}
func (c *doneCounter) OnSendEvent(rt *core.Runtime, event, target, typ, id, data string) {}

// A chart whose eventless self-loop never settles.
const divergentChart = `
name: divergent
states:
  - id: spin
    transitions:
      - cond: "true"
        target: [spin]
`

func TestMicrostepLimit(t *testing.T) {
	m, rt, _ := newSession(t, divergentChart)
	ex := &core.Executor{MaxMicrosteps: 50}

	r := &recorder{}
	rt.EventDispatcher().AddListener(r)
	ex.Start(m, rt)

	follows := 0
	for _, step := range r.trace {
		if step == "follow:spin" {
			follows++
		}
	}
	// Start enters spin, then the self-loop runs up to the bound.
	if follows != 50 {
		t.Fatalf("got %d microsteps, want 50", follows)
	}
	wantActive(t, rt, "spin")
	if !rt.IsRunning() {
		t.Fatal("machine should remain running in its last configuration")
	}
}

// A failing eventless condition enqueues error.execution; with no
// handler the macrostep halts instead of spinning.
const errorHaltChart = `
name: errorhalt
states:
  - id: sick
    transitions:
      - cond: "no_such_variable > 0"
        target: [healthy]
      - event: [nudge]
        target: [healthy]
  - id: healthy
`

func TestUnhandledErrorHaltsMacrostep(t *testing.T) {
	m, rt, ex := newSession(t, errorHaltChart)
	ex.Start(m, rt)
	wantActive(t, rt, "sick")
	if !rt.IsRunning() {
		t.Fatal("machine should still be running")
	}
	// The next external event makes progress as usual.
	ex.SendEvent(m, rt, "nudge", "")
	wantActive(t, rt, "healthy")
}

const errorHandlerChart = `
name: errorhandled
datamodel:
  - id: seen
    expr: '""'
states:
  - id: risky
    onentry:
      - assign: {location: oops, expr: "1"}
    transitions:
      - event: [error.execution]
        target: [recovered]
        exec:
          - assign: {location: seen, expr: "_event.data.error"}
  - id: recovered
`

func TestErrorExecutionEventIsHandleable(t *testing.T) {
	m, rt, ex := newSession(t, errorHandlerChart)
	ex.Start(m, rt)
	wantActive(t, rt, "recovered")

	// The payload carried the error text.
	seen, ok := rt.Datamodel().EvaluateStringExpression("seen")
	if !ok || seen == "" {
		t.Fatalf("error payload not captured: %q", seen)
	}
	if !strings.Contains(seen, "oops") {
		t.Fatalf("error text should mention the location, got %q", seen)
	}
}

// Ordering: all exits, then transition bodies, then entries.
const orderingChart = `
name: ordering
states:
  - id: outer
    states:
      - id: inner
        onexit:
          - log: {expr: '"leaving"'}
        transitions:
          - event: [go]
            target: [other]
    onexit:
      - log: {expr: '"leaving"'}
  - id: other
`

func TestMicrostepOrdering(t *testing.T) {
	m, rt, ex := newSession(t, orderingChart)
	r := &recorder{}
	rt.EventDispatcher().AddListener(r)

	ex.Start(m, rt)
	r.trace = nil
	ex.SendEvent(m, rt, "go", "")

	want := []string{"exit:inner", "exit:outer", "follow:inner", "enter:other"}
	if JS(r.trace) != JS(want) {
		t.Fatalf("got %v, want %v", r.trace, want)
	}
}

// A targetless transition runs its body without exiting the source;
// an explicit self-transition exits and re-enters.
const selfLoopChart = `
name: selfloop
datamodel:
  - id: n
    expr: "0"
states:
  - id: s
    onentry:
      - assign: {location: n, expr: "n + 100"}
    transitions:
      - event: [bump]
        exec:
          - assign: {location: n, expr: "n + 1"}
      - event: [restart]
        target: [s]
`

func TestTargetlessAndSelfTransitions(t *testing.T) {
	m, rt, ex := newSession(t, selfLoopChart)
	r := &recorder{}
	rt.EventDispatcher().AddListener(r)
	ex.Start(m, rt)

	r.trace = nil
	ex.SendEvent(m, rt, "bump", "")
	for _, step := range r.trace {
		if strings.HasPrefix(step, "exit:") || strings.HasPrefix(step, "enter:") {
			t.Fatalf("targetless transition should not exit or enter: %v", r.trace)
		}
	}
	n, _ := rt.Datamodel().EvaluateExpression("n")
	if n != "101" {
		t.Fatalf("n = %s, want 101", n)
	}

	r.trace = nil
	ex.SendEvent(m, rt, "restart", "")
	want := []string{"exit:s", "follow:s", "enter:s"}
	if JS(r.trace) != JS(want) {
		t.Fatalf("got %v, want %v", r.trace, want)
	}
	n, _ = rt.Datamodel().EvaluateExpression("n")
	if n != "201" {
		t.Fatalf("n = %s, want 201", n)
	}
}

// Entering a top-level final stops the machine and runs shutdown.
const finalChart = `
name: final
states:
  - id: working
    onexit:
      - log: {expr: '"bye"'}
    transitions:
      - event: [quit]
        target: [finis]
  - id: finis
    type: final
`

func TestTopLevelFinalStopsMachine(t *testing.T) {
	m, rt, ex := newSession(t, finalChart)
	ex.Start(m, rt)
	if !rt.IsRunning() {
		t.Fatal("should be running")
	}
	ex.SendEvent(m, rt, "quit", "")
	if rt.IsRunning() {
		t.Fatal("should have stopped")
	}
	if len(rt.ActiveStates()) != 0 {
		t.Fatalf("shutdown should clear the active set, got %v", activeAtomic(rt))
	}
	// Events after shutdown are ignored.
	ex.SendEvent(m, rt, "quit", "")
	if rt.IsRunning() {
		t.Fatal("still stopped")
	}
}

// _event.name always overwrites; _event.data persists across
// payloadless events.
const eventDataChart = `
name: eventdata
datamodel:
  - id: seen_name
    expr: '""'
  - id: seen_data
    expr: "null"
states:
  - id: s
    transitions:
      - event: [observe]
        exec:
          - assign: {location: seen_name, expr: "_event.name"}
          - assign: {location: seen_data, expr: "_event.data"}
`

func TestEventDataRetention(t *testing.T) {
	m, rt, ex := newSession(t, eventDataChart)
	ex.Start(m, rt)

	ex.SendEvent(m, rt, "observe", `{"k": 7}`)
	data, _ := rt.Datamodel().EvaluateExpression("seen_data")
	if data != `{"k":7}` {
		t.Fatalf("got %q", data)
	}

	// No payload: the old data value survives.
	ex.SendEvent(m, rt, "observe", "")
	data, _ = rt.Datamodel().EvaluateExpression("seen_data")
	if data != `{"k":7}` {
		t.Fatalf("retained data lost, got %q", data)
	}
	name, _ := rt.Datamodel().EvaluateExpression("seen_name")
	if name != `"observe"` {
		t.Fatalf("got %q", name)
	}
}

// Raise, if/else, foreach, and send work through executable content.
const contentChart = `
name: content
datamodel:
  - id: nums
    expr: "[1,2,3]"
  - id: sum
    expr: "0"
  - id: grade
    expr: '""'
states:
  - id: s
    transitions:
      - event: [compute]
        exec:
          - foreach:
              array: nums
              item: x
              index: i
              exec:
                - assign: {location: sum, expr: "sum + x"}
          - if:
              clauses:
                - cond: "sum > 5"
                  exec:
                    - assign: {location: grade, expr: '"big"'}
                - exec:
                    - assign: {location: grade, expr: '"small"'}
          - raise: {event: computed}
      - event: [computed]
        target: [done_state]
  - id: done_state
    onentry:
      - send:
          event: report
          target: host
          params:
            total: sum
`

func TestExecutableContent(t *testing.T) {
	m, rt, ex := newSession(t, contentChart)
	r := &recorder{}
	rt.EventDispatcher().AddListener(r)
	ex.Start(m, rt)

	ex.SendEvent(m, rt, "compute", "")
	wantActive(t, rt, "done_state")

	sum, _ := rt.Datamodel().EvaluateExpression("sum")
	if sum != "6" {
		t.Fatalf("sum = %s, want 6", sum)
	}
	grade, _ := rt.Datamodel().EvaluateExpression("grade")
	if grade != `"big"` {
		t.Fatalf("grade = %s", grade)
	}

	found := false
	for _, step := range r.trace {
		if step == `send:report:{"total":6}` {
			found = true
		}
	}
	if !found {
		t.Fatalf("send not observed: %v", r.trace)
	}
}

// Foreach over an empty array runs zero times and touches nothing
// beyond declaring its variables.
const emptyForeachChart = `
name: emptyforeach
datamodel:
  - id: empty
    expr: "[]"
  - id: count
    expr: "0"
states:
  - id: s
    transitions:
      - event: [go]
        exec:
          - foreach:
              array: empty
              item: x
              exec:
                - assign: {location: count, expr: "count + 1"}
`

func TestForeachEmptyArray(t *testing.T) {
	m, rt, ex := newSession(t, emptyForeachChart)
	ex.Start(m, rt)
	ex.SendEvent(m, rt, "go", "")
	count, _ := rt.Datamodel().EvaluateExpression("count")
	if count != "0" {
		t.Fatalf("count = %s, want 0", count)
	}
	// x gets declared, nothing else changes.
	after := rt.Datamodel().SerializeAsString()
	if !strings.Contains(after, `"x":null`) {
		t.Fatalf("item variable not declared: %s", after)
	}
}

func TestStartTwiceIsNoOp(t *testing.T) {
	m, rt, ex := newSession(t, descriptorChart)
	ex.Start(m, rt)
	ex.SendEvent(m, rt, "event1", "")
	wantActive(t, rt, "B")
	ex.Start(m, rt) // no-op; would reset to A otherwise
	wantActive(t, rt, "B")
}
