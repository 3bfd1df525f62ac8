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

package datamodel

import "strings"

// Location expressions name store slots for assignment.  The first
// token must be a dot-separated path, none of whose prefixes is a
// registered function name; any further tokens must form a chain of
// [ value ] groups.  Destructive evaluation walks the store, creating
// a missing intermediate object for a string access and a missing
// intermediate array for a non-negative integer access.

// isDotSeparatedPath validates a path token.  Any string between dots
// is a valid field name unless a subpath from the start is a function
// name.
func isDotSeparatedPath(dispatcher *FunctionDispatcher, path string) bool {
	if path == "" {
		return false
	}
	if path == "." {
		return true
	}
	segs := strings.Split(path, ".")
	fromRoot := segs[0]
	if dispatcher.HasFunction(fromRoot) {
		return false
	}
	for _, seg := range segs[1:] {
		if seg == "" {
			return false
		}
		fromRoot += "." + seg
		if dispatcher.HasFunction(fromRoot) {
			return false
		}
	}
	return true
}

// expandPathTokens rewrites the leading dotted path token into a root
// name followed by [ "segment" ] groups so every step can be validated
// against the store's types.
func expandPathTokens(strs []string) []string {
	segs := strings.Split(strs[0], ".")
	out := []string{segs[0]}
	for _, seg := range segs[1:] {
		if seg == "" {
			continue
		}
		out = append(out, "[", Quote(seg), "]")
	}
	return append(out, strs[1:]...)
}

// processLocationExpression evaluates a location expression,
// destructively creating missing slots along the way.  Returns the
// resolved slot.
func (e *evaluator) processLocationExpression(expression string) (*ref, bool) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, false
	}

	strs := presubstituteStringTokens(e.store, tokenizeExpression(expression))
	if len(strs) == 0 || !isDotSeparatedPath(e.dispatcher, strs[0]) {
		return nil, false
	}
	strs = expandPathTokens(strs)

	rootName := strs[0]
	_, have := e.store[rootName]
	isNew := !have
	if isNew {
		e.store[rootName] = nil
	}
	loc := &ref{container: e.store, key: rootName}

	toks, ok := convertTokens(e.store, e.dispatcher, strs)
	if !ok {
		return nil, false
	}
	// Evaluate subscript subexpressions; the remainder must be the
	// root followed by [ key ] groups.
	if _, isErr := substituteParentheses(e, &toks); isErr {
		return nil, false
	}
	if (len(toks)-1)%3 != 0 {
		return nil, false
	}

	for i := 1; i < len(toks); i += 3 {
		if !toks[i].isOp("[") || !toks[i+1].isValue() ||
			!toks[i+2].isOp("]") {
			return nil, false
		}
		field := toks[i+1].value()
		switch key := field.(type) {
		case string:
			if isNew {
				loc.set(map[string]interface{}{})
			}
			obj, is := loc.get().(map[string]interface{})
			if !is {
				return nil, false
			}
			_, have := obj[key]
			isNew = !have
			if isNew {
				obj[key] = nil
			}
			loc = &ref{container: obj, key: key}
		case int64:
			if key < 0 {
				return nil, false
			}
			if isNew {
				loc.set([]interface{}{})
			}
			arr, is := loc.get().([]interface{})
			if !is {
				return nil, false
			}
			isNew = key >= int64(len(arr))
			for key >= int64(len(arr)) {
				arr = append(arr, nil)
			}
			loc.set(arr)
			loc = &ref{container: arr, key: int(key)}
		default:
			return nil, false
		}
	}
	return loc, true
}

// isAssignable reports whether a location resolves to an existing slot
// or ends in an element access whose parent has the right kind: string
// access on an object, integral access on an array.
func (e *evaluator) isAssignable(location string) bool {
	if e.isDefined(location) {
		return true
	}
	strs := presubstituteStringTokens(e.store, tokenizeExpression(location))
	if len(strs) == 0 {
		return false
	}
	if len(strs) == 1 {
		// An undefined path: assignable iff the parent path is an
		// existing object.
		parent := strs[0]
		if i := strings.LastIndexByte(parent, '.'); i >= 0 {
			parent = parent[:i]
		}
		t, ok := createToken(e.store, e.dispatcher, parent)
		return ok && t.isRef() && isObject(t.value())
	}
	toks, ok := convertTokens(e.store, e.dispatcher, strs)
	if !ok {
		return false
	}
	if _, isErr := substituteParentheses(e, &toks); isErr {
		return false
	}
	if (len(toks)-1)%3 != 0 || len(toks) < 4 {
		return false
	}
	// The expression without its last [ key ] group must evaluate to a
	// reference to an array or object of the matching kind.
	parentToks := append([]token(nil), toks[:len(toks)-3]...)
	keyTok := toks[len(toks)-2]
	if !substituteUntilValue(e, &parentToks) || len(parentToks) == 0 {
		return false
	}
	parent := &parentToks[0]
	if !parent.isRef() || !keyTok.isValue() {
		return false
	}
	switch parent.value().(type) {
	case []interface{}:
		return isIntegral(keyTok.value())
	case map[string]interface{}:
		_, is := keyTok.value().(string)
		return is
	}
	return false
}

func (e *evaluator) isDefined(location string) bool {
	t, ok := e.processExpression(location)
	return ok && t.isRef()
}

func isObject(x interface{}) bool {
	_, is := x.(map[string]interface{})
	return is
}
