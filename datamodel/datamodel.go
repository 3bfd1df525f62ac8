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

// Package datamodel implements the ECMAScript-like expression language
// and value store used by statechart conditions, assignments, and
// executable content.
//
// The store is a JSON-shaped document.  Expressions are evaluated by
// tokenizing, preprocessing, and then running substitution passes over
// the token list until a single value remains.  Every operation
// reports success with a boolean; failures never panic and never
// partially mutate the store.
package datamodel

import (
	"encoding/json"
	"log"
	"strings"
)

// StateChecker answers the built-in In(id) function.  The owning
// runtime implements it.  The checker must outlive the datamodel; a
// cloned datamodel must not be used after the original runtime dies.
type StateChecker interface {
	IsActiveState(id string) bool
}

// Datamodel is a mutable JSON-like value store bound to a function
// dispatcher and, optionally, a runtime for In().
type Datamodel struct {
	store      map[string]interface{}
	dispatcher *FunctionDispatcher
	runtime    StateChecker
}

// New creates an empty Datamodel.  The dispatcher is required.
func New(dispatcher *FunctionDispatcher) *Datamodel {
	if dispatcher == nil {
		return nil
	}
	return &Datamodel{
		store:      make(map[string]interface{}),
		dispatcher: dispatcher,
	}
}

// NewFromString creates a Datamodel from a serialized store.
// Restoration is only permitted at construction time, which guarantees
// no ambient runtime has bound to stale references.
func NewFromString(serialized string, dispatcher *FunctionDispatcher) *Datamodel {
	dm := New(dispatcher)
	if dm == nil || !dm.parseFromString(serialized) {
		return nil
	}
	return dm
}

// SetRuntime binds the runtime consulted by In().
func (dm *Datamodel) SetRuntime(runtime StateChecker) { dm.runtime = runtime }

func (dm *Datamodel) evaluator() *evaluator {
	return &evaluator{store: dm.store, runtime: dm.runtime, dispatcher: dm.dispatcher}
}

// IsDefined reports whether location resolves to an existing store
// slot.
func (dm *Datamodel) IsDefined(location string) bool {
	return dm.evaluator().isDefined(location)
}

// Declare creates the location initialized to null.  It fails if the
// location already exists or collides with a registered function name.
func (dm *Datamodel) Declare(location string) bool {
	if dm.IsDefined(location) || dm.dispatcher.HasFunction(location) {
		return false
	}
	return dm.DeclareAndAssignJSON(location, nil)
}

// AssignExpression evaluates expr and stores the result at location.
// The location's root variable must already be declared; missing
// object fields and array slots below it are created.  An empty expr
// assigns null.
func (dm *Datamodel) AssignExpression(location, expr string) bool {
	var value interface{}
	if expr != "" {
		var ok bool
		if value, ok = dm.EvaluateJSON(expr); !ok {
			log.Printf("AssignExpression: error evaluating expression: %s", expr)
			return false
		}
	}
	return dm.assignJSON(location, value)
}

// AssignString stores the literal string at location.
func (dm *Datamodel) AssignString(location, str string) bool {
	return dm.AssignExpression(location, Quote(str))
}

// EvaluateBooleanExpression evaluates expr and coerces the result by
// the truthiness rule.
func (dm *Datamodel) EvaluateBooleanExpression(expr string) (bool, bool) {
	t, ok := dm.evaluator().processExpression(expr)
	if !ok {
		return false, false
	}
	return t.toBool(), true
}

// EvaluateStringExpression evaluates expr and renders the result
// without quoting string values.
func (dm *Datamodel) EvaluateStringExpression(expr string) (string, bool) {
	t, ok := dm.evaluator().processExpression(expr)
	if !ok {
		return "", false
	}
	return valueToString(t.value(), false), true
}

// EvaluateExpression evaluates expr and renders the result as a value
// expression (string results are quoted).
func (dm *Datamodel) EvaluateExpression(expr string) (string, bool) {
	t, ok := dm.evaluator().processExpression(expr)
	if !ok {
		return "", false
	}
	return valueToString(t.value(), true), true
}

// EvaluateJSON evaluates expr to a value.  The result is the caller's
// own copy, so assigning it back into the store cannot alias.
func (dm *Datamodel) EvaluateJSON(expr string) (interface{}, bool) {
	t, ok := dm.evaluator().processExpression(expr)
	if !ok {
		return nil, false
	}
	return copyValue(t.value()), true
}

// EvaluateIterator evaluates location to an array and returns a cursor
// over it.  The iterator shares the store's array when the location is
// a store slot and owns a copy otherwise.
func (dm *Datamodel) EvaluateIterator(location string) Iterator {
	t, ok := dm.evaluator().processExpression(location)
	if !ok || !t.isValue() {
		return nil
	}
	arr, is := t.value().([]interface{})
	if !is {
		return nil
	}
	if t.isRef() {
		return &arrayIterator{array: arr}
	}
	return &arrayIterator{array: copyValue(arr).([]interface{})}
}

// EncodeParameters builds a JSON object expression from a map of names
// to value expressions.  The values are inserted verbatim.
func (dm *Datamodel) EncodeParameters(parameters map[string]string) string {
	return MakeJSONFromStringMap(parameters)
}

// IsAssignable reports whether location names an existing slot or a
// well-typed element access one past an existing container.
func (dm *Datamodel) IsAssignable(location string) bool {
	return dm.evaluator().isAssignable(location)
}

// assignJSON stores value at location.  Assignment requires the
// location's root variable to be declared; interior slots below it are
// created destructively, so obj.a.b[0] is reachable once obj exists.
func (dm *Datamodel) assignJSON(location string, value interface{}) bool {
	if !dm.rootDefined(location) {
		log.Printf("assign: location root is not declared: %s", location)
		return false
	}
	return dm.DeclareAndAssignJSON(location, value)
}

// rootDefined reports whether the root variable of a location path
// exists in the store.
func (dm *Datamodel) rootDefined(location string) bool {
	strs := tokenizeExpression(strings.TrimSpace(location))
	if len(strs) == 0 {
		return false
	}
	root := strs[0]
	if i := strings.IndexByte(root, '.'); i >= 0 {
		root = root[:i]
	}
	_, have := dm.store[root]
	return have
}

// DeclareAndAssignJSON destructively evaluates the location, creating
// missing intermediate containers, and stores value there.  This is
// the only operation that mutates the store.
func (dm *Datamodel) DeclareAndAssignJSON(location string, value interface{}) bool {
	loc, ok := dm.evaluator().processLocationExpression(location)
	if !ok {
		log.Printf("DeclareAndAssignJSON: error evaluating location: %s", location)
		return false
	}
	loc.set(value)
	return true
}

// SerializeAsString writes the store as compact JSON.
func (dm *Datamodel) SerializeAsString() string {
	js, err := json.Marshal(dm.store)
	if err != nil {
		return "{}"
	}
	return string(js)
}

// parseFromString restores the store from compact JSON.
func (dm *Datamodel) parseFromString(data string) bool {
	v, ok := ParseJSONValue(data)
	if !ok {
		log.Printf("datamodel: failed to parse serialized store: %s", data)
		return false
	}
	obj, is := v.(map[string]interface{})
	if !is {
		return false
	}
	dm.store = obj
	return true
}

// Clear empties the store.
func (dm *Datamodel) Clear() {
	dm.store = make(map[string]interface{})
}

// Clone makes a deep copy of the store.  The runtime back-reference is
// shared, not copied.
func (dm *Datamodel) Clone() *Datamodel {
	return &Datamodel{
		store:      copyValue(dm.store).(map[string]interface{}),
		dispatcher: dm.dispatcher,
		runtime:    dm.runtime,
	}
}

// DebugString renders the store as indented JSON.
func (dm *Datamodel) DebugString() string {
	js, err := json.MarshalIndent(dm.store, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(js)
}
