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
	"sort"
)

// Binding is the datamodel binding mode.  Only early binding is
// implemented.
type Binding int

const (
	BindingEarly Binding = iota
	BindingLate
)

// Model is an immutable chart: it owns all states and transitions and
// answers the structural questions the Executor asks.  A Model may be
// shared across sessions.
type Model struct {
	// Name of the chart, bound to _name at session start.
	Name string

	// Initial is the top-level initial transition.  Its source is nil.
	Initial *Transition

	// TopLevel holds the top-level states in document order.
	TopLevel []*State

	// Binding is the datamodel binding mode.
	Binding Binding

	// Datamodel is the chart-level datamodel block, if any.
	Datamodel ExecutableContent
}

// StateDocumentOrderLessThan is the total document-order comparison:
// an ancestor precedes its descendants, and siblings compare by child
// index under their lowest common ancestor.
func (m *Model) StateDocumentOrderLessThan(s1, s2 *State) bool {
	if s1 == s2 {
		return false
	}
	path1 := properAncestors(s1, nil)
	for _, a := range path1 {
		if a == s2 {
			return false
		}
	}
	path2 := properAncestors(s2, nil)
	for _, a := range path2 {
		if a == s1 {
			return true
		}
	}

	// Reverse to root-first and append the states themselves.
	reverseStates(path1)
	path1 = append(path1, s1)
	reverseStates(path2)
	path2 = append(path2, s2)

	// Walk to the first divergence; compare child indices under the
	// common ancestor (the chart root for i == 0).
	i := 0
	for path1[i] == path2[i] {
		i++
	}
	if i == 0 {
		return stateIndex(m.TopLevel, path1[0]) < stateIndex(m.TopLevel, path2[0])
	}
	siblings := path1[i-1].Children
	return stateIndex(siblings, path1[i]) < stateIndex(siblings, path2[i])
}

func reverseStates(states []*State) {
	for i, j := 0, len(states)-1; i < j; i, j = i+1, j-1 {
		states[i], states[j] = states[j], states[i]
	}
}

func stateIndex(states []*State, state *State) int {
	for i, s := range states {
		if s == state {
			return i
		}
	}
	return -1
}

// SortStatesByDocumentOrder sorts states in place, ascending for entry
// order and descending (reverse) for exit order.
func (m *Model) SortStatesByDocumentOrder(reverse bool, states []*State) {
	sort.SliceStable(states, func(i, j int) bool {
		if reverse {
			return m.StateDocumentOrderLessThan(states[j], states[i])
		}
		return m.StateDocumentOrderLessThan(states[i], states[j])
	})
}

// findLeastCommonCompoundAncestor returns the closest compound proper
// ancestor of all the states, or nil for the chart root.
func findLeastCommonCompoundAncestor(states []*State) *State {
	if len(states) == 0 {
		return nil
	}
	for _, ancestor := range properAncestors(states[0], nil) {
		if !ancestor.IsCompound() {
			continue
		}
		all := true
		for _, s := range states[1:] {
			if !isDescendant(s, ancestor) {
				all = false
				break
			}
		}
		if all {
			return ancestor
		}
	}
	return nil
}

// transitionDomain returns the state within which the transition
// operates: the source for a targetless transition; the source for an
// internal transition from a compound state to its own descendants;
// the least common compound ancestor of source and targets otherwise.
// nil stands for the chart root.
func transitionDomain(t *Transition) *State {
	if len(t.Targets) == 0 {
		return t.Source
	}
	if t.Source == nil {
		// The chart's top-level initial transition.
		return nil
	}
	if t.Internal && t.Source.IsCompound() {
		all := true
		for _, target := range t.Targets {
			if !isDescendant(target, t.Source) {
				all = false
				break
			}
		}
		if all {
			return t.Source
		}
	}
	states := append([]*State{t.Source}, t.Targets...)
	return findLeastCommonCompoundAncestor(states)
}

// findEnabledTransition scans the states' transition lists in order
// for the first transition matching the event (nil selects eventless
// transitions) whose condition holds.
func findEnabledTransition(rt *Runtime, states []*State, event *string) *Transition {
	for _, state := range states {
		for _, t := range state.Transitions {
			if event == nil && len(t.Events) != 0 {
				continue
			}
			if event != nil && !EventMatches(*event, t.Events) {
				continue
			}
			if t.EvaluateCondition(rt) {
				return t
			}
		}
	}
	return nil
}

// EventlessTransitions selects the enabled eventless transitions.
func (m *Model) EventlessTransitions(rt *Runtime) []*Transition {
	return m.selectTransitions(rt, nil)
}

// TransitionsForEvent selects the enabled transitions for an event.
func (m *Model) TransitionsForEvent(rt *Runtime, event string) []*Transition {
	return m.selectTransitions(rt, &event)
}

func (m *Model) selectTransitions(rt *Runtime, event *string) []*Transition {
	var atomic []*State
	for _, s := range rt.ActiveStates() {
		if s.IsAtomic() {
			atomic = append(atomic, s)
		}
	}
	m.SortStatesByDocumentOrder(false, atomic)

	var enabled []*Transition
	for _, state := range atomic {
		walk := append([]*State{state}, properAncestors(state, nil)...)
		if t := findEnabledTransition(rt, walk, event); t != nil {
			enabled = append(enabled, t)
		}
	}
	return m.removeConflictingTransitions(rt, enabled)
}

// removeConflictingTransitions resolves transitions whose exit sets
// intersect: an inner (descendant-source) transition preempts an
// already-accepted outer one; otherwise the later candidate loses.
func (m *Model) removeConflictingTransitions(rt *Runtime, transitions []*Transition) []*Transition {
	var filtered []*Transition
	for _, t1 := range transitions {
		preempted := false
		remove := make(map[*Transition]bool)
		for _, t2 := range filtered {
			if !statesIntersect(m.ComputeExitSet(rt, []*Transition{t1}),
				m.ComputeExitSet(rt, []*Transition{t2})) {
				continue
			}
			if isDescendant(t1.Source, t2.Source) {
				remove[t2] = true
			} else {
				preempted = true
				break
			}
		}
		if preempted {
			continue
		}
		if len(remove) > 0 {
			kept := filtered[:0]
			for _, t2 := range filtered {
				if !remove[t2] {
					kept = append(kept, t2)
				}
			}
			filtered = kept
		}
		filtered = append(filtered, t1)
	}
	return filtered
}

func statesIntersect(a, b []*State) bool {
	for _, s1 := range a {
		for _, s2 := range b {
			if s1 == s2 {
				return true
			}
		}
	}
	return false
}

// addDescendantStatesToEnter includes state and, recursively, the
// descendants that its entry implies: the initial-transition targets
// of a compound state (which is then marked for default entry), and
// every child of a parallel state not already represented.
func addDescendantStatesToEnter(state *State, toEnter map[*State]bool, defaultEntry map[*State]bool) bool {
	if state == nil {
		return false
	}
	toEnter[state] = true
	if state.IsCompound() {
		defaultEntry[state] = true
		if state.Initial == nil {
			log.Printf("compound state has no initial transition: %s", state.Id)
			return false
		}
		for _, target := range state.Initial.Targets {
			if !addDescendantStatesToEnter(target, toEnter, defaultEntry) {
				return false
			}
			if !addAncestorStatesToEnter(target, state, toEnter, defaultEntry) {
				return false
			}
		}
	} else if state.IsParallel() {
		for _, child := range state.Children {
			if !hasDescendantIn(toEnter, child) {
				if !addDescendantStatesToEnter(child, toEnter, defaultEntry) {
					return false
				}
			}
		}
	}
	return true
}

// addAncestorStatesToEnter includes every proper ancestor of state up
// to (excluding) ancestor, descending into the unrepresented children
// of any parallel ancestor met on the way.
func addAncestorStatesToEnter(state, ancestor *State, toEnter map[*State]bool, defaultEntry map[*State]bool) bool {
	for _, anc := range properAncestors(state, ancestor) {
		toEnter[anc] = true
		if anc.IsParallel() {
			for _, child := range anc.Children {
				if !hasDescendantIn(toEnter, child) {
					if !addDescendantStatesToEnter(child, toEnter, defaultEntry) {
						return false
					}
				}
			}
		}
	}
	return true
}

func hasDescendantIn(set map[*State]bool, state *State) bool {
	for s := range set {
		if isDescendant(s, state) {
			return true
		}
	}
	return false
}

// ComputeEntrySet computes the states entered by the transitions, in
// entry (document) order, together with the set of compound states
// entered by way of their initial transition.
func (m *Model) ComputeEntrySet(rt *Runtime, transitions []*Transition) ([]*State, map[*State]bool, bool) {
	if rt == nil {
		return nil, nil, false
	}
	toEnter := make(map[*State]bool)
	defaultEntry := make(map[*State]bool)

	var seeds []*State
	for _, t := range transitions {
		for _, target := range t.Targets {
			if !toEnter[target] {
				toEnter[target] = true
				seeds = append(seeds, target)
			}
		}
	}
	for _, state := range seeds {
		if !addDescendantStatesToEnter(state, toEnter, defaultEntry) {
			return nil, nil, false
		}
	}
	for _, t := range transitions {
		domain := transitionDomain(t)
		for _, target := range t.Targets {
			if !addAncestorStatesToEnter(target, domain, toEnter, defaultEntry) {
				return nil, nil, false
			}
		}
	}

	states := make([]*State, 0, len(toEnter))
	for s := range toEnter {
		states = append(states, s)
	}
	m.SortStatesByDocumentOrder(false, states)
	return states, defaultEntry, true
}

// ComputeExitSet returns the active states exited by the transitions,
// in exit (reverse document) order.  A targetless transition's domain
// is its source, so an implicit self-loop exits nothing; an explicit
// self-transition exits and re-enters its source.
func (m *Model) ComputeExitSet(rt *Runtime, transitions []*Transition) []*State {
	if rt == nil {
		return nil
	}
	toExit := make(map[*State]bool)
	active := rt.ActiveStates()
	for _, t := range transitions {
		domain := transitionDomain(t)
		for _, state := range active {
			if isDescendant(state, domain) {
				toExit[state] = true
			}
		}
	}
	states := make([]*State, 0, len(toExit))
	for s := range toExit {
		states = append(states, s)
	}
	m.SortStatesByDocumentOrder(true, states)
	return states
}

// IsInFinalState reports whether state is in a final configuration: a
// compound state with an active final child, or a parallel state all
// of whose children are in final configurations.
func (m *Model) IsInFinalState(rt *Runtime, state *State) bool {
	if state.IsCompound() {
		for _, child := range state.Children {
			if child.IsFinal() && rt.IsActive(child) {
				return true
			}
		}
		return false
	}
	if state.IsParallel() {
		for _, child := range state.Children {
			if !m.IsInFinalState(rt, child) {
				return false
			}
		}
		return true
	}
	return false
}

// ActiveStates translates a serialized active-state tree back into
// state references, top-down and breadth-first.  Unknown ids are
// skipped with a warning.
func (m *Model) ActiveStates(elements []*ActiveStateElement) []*State {
	type pair struct {
		element *ActiveStateElement
		state   *State
	}
	match := func(states []*State, elements []*ActiveStateElement) []pair {
		var acc []pair
		for _, e := range elements {
			found := false
			for _, s := range states {
				if s.Id == e.Id {
					acc = append(acc, pair{e, s})
					found = true
					break
				}
			}
			if !found {
				log.Printf("state [%s] was not found", e.Id)
			}
		}
		return acc
	}

	var states []*State
	queue := match(m.TopLevel, elements)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		states = append(states, p.state)
		if len(p.element.ActiveChild) > 0 {
			queue = append(queue, match(p.state.Children, p.element.ActiveChild)...)
		}
	}
	return states
}
