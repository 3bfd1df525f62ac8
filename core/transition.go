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

import "strings"

// Transition is an edge of the chart graph.
type Transition struct {
	// Source is the state holding the transition.  It is nil only for
	// the chart's top-level initial transition.
	Source *State

	// Targets in document order.  An empty target list makes the
	// transition an internal effect-only transition that never exits
	// its source.
	Targets []*State

	// Events holds the event descriptors.  Empty means eventless.
	Events []string

	// Cond is an optional boolean guard expression.
	Cond string

	// Internal distinguishes internal from external transitions for
	// the transition-domain computation.
	Internal bool

	// Executable is the transition body, if any.
	Executable ExecutableContent
}

// EvaluateCondition evaluates the guard.  An absent guard is true.  A
// guard that fails to evaluate disables the transition and enqueues
// error.execution.
func (t *Transition) EvaluateCondition(rt *Runtime) bool {
	if t.Cond == "" {
		return true
	}
	result, ok := rt.Datamodel().EvaluateBooleanExpression(t.Cond)
	if !ok {
		rt.EnqueueExecutionError("'Transition' condition evaluation failed: " + t.Cond)
		return false
	}
	return result
}

// DebugString renders the transition for diagnostics.
func (t *Transition) DebugString() string {
	targets := make([]string, len(t.Targets))
	for i, s := range t.Targets {
		targets[i] = s.Id
	}
	source := "<root>"
	if t.Source != nil {
		source = t.Source.Id
	}
	return source + " --> [" + strings.Join(targets, ",") + "] : events = [" +
		strings.Join(t.Events, " ") + "], cond = <" + t.Cond + ">"
}

// EventMatches reports whether an event name matches any descriptor:
// "*" matches everything, otherwise the descriptor must equal the name
// or be a dot-delimited prefix of it.
func EventMatches(eventName string, descriptors []string) bool {
	for _, d := range descriptors {
		if d == "*" {
			return true
		}
		if strings.HasPrefix(eventName, d) &&
			(len(eventName) == len(d) || eventName[len(d)] == '.') {
			return true
		}
	}
	return false
}
