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

import (
	"strconv"
	"strings"
)

// ref is a pointer into the store: a container (object map or array
// slice) plus the key of the slot within it.  Reading through a ref
// dereferences the live store; writing through one mutates it.
type ref struct {
	container interface{} // map[string]interface{} or []interface{}
	key       interface{} // string or int
}

func (r *ref) get() interface{} {
	switch c := r.container.(type) {
	case map[string]interface{}:
		return c[r.key.(string)]
	case []interface{}:
		return c[r.key.(int)]
	}
	return nil
}

func (r *ref) set(v interface{}) {
	switch c := r.container.(type) {
	case map[string]interface{}:
		c[r.key.(string)] = v
	case []interface{}:
		c[r.key.(int)] = v
	}
}

// findValueInStore resolves a dot-separated path against the store.
// Every segment but the last must name an object member.
func findValueInStore(store map[string]interface{}, location string) (*ref, bool) {
	segs := strings.Split(location, ".")
	container := store
	for i := 0; i < len(segs)-1; i++ {
		child, have := container[segs[i]]
		if !have {
			return nil, false
		}
		obj, is := child.(map[string]interface{})
		if !is {
			return nil, false
		}
		container = obj
	}
	last := segs[len(segs)-1]
	if _, have := container[last]; !have {
		return nil, false
	}
	return &ref{container: container, key: last}, true
}

type tokenKind int

const (
	tokenEmpty tokenKind = iota
	tokenValue
	tokenRef
	tokenOp
	tokenFunc
)

// token is the omni type of the expression language: a literal value,
// a reference into the store, an operator, or a system function name.
type token struct {
	kind tokenKind
	val  interface{}
	ref  *ref
	op   string
	fn   string
}

func valueToken(v interface{}) token { return token{kind: tokenValue, val: v} }
func refToken(r *ref) token          { return token{kind: tokenRef, ref: r} }
func opToken(op string) token        { return token{kind: tokenOp, op: op} }
func funcToken(name string) token    { return token{kind: tokenFunc, fn: name} }

// isValue reports whether value() may be called.
func (t *token) isValue() bool { return t.kind == tokenValue || t.kind == tokenRef }

func (t *token) isRef() bool { return t.kind == tokenRef }

func (t *token) isOp(ops ...string) bool {
	if t.kind != tokenOp {
		return false
	}
	if len(ops) == 0 {
		return true
	}
	for _, op := range ops {
		if t.op == op {
			return true
		}
	}
	return false
}

// value returns the token's value, transparently dereferencing the
// store for references.
func (t *token) value() interface{} {
	if t.kind == tokenRef {
		return t.ref.get()
	}
	return t.val
}

// isInteger reports whether the value is internally integral.
func (t *token) isInteger() bool {
	return t.isValue() && isIntegral(t.value())
}

func (t *token) toBool() bool {
	if !t.isValue() {
		return false
	}
	return truthy(t.value())
}

func (t *token) debugString() string {
	switch t.kind {
	case tokenOp:
		return "OP:" + t.op
	case tokenRef:
		return "REF:" + valueToString(t.value(), false)
	case tokenValue:
		return valueToString(t.val, true)
	case tokenFunc:
		return "SYS:" + t.fn
	}
	return "<EMPTY>"
}

// createToken classifies a string token.  Priority order: null literal,
// boolean literal, operator, integer, real, quoted string, JSON
// object/array literal, the built-in In, a dispatcher function name, a
// store path.  Anything else is a lexical error.
func createToken(store map[string]interface{}, dispatcher *FunctionDispatcher, expr string) (token, bool) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "" || expr == "null":
		return valueToken(nil), true
	case expr == "true":
		return valueToken(true), true
	case expr == "false":
		return valueToken(false), true
	case isOperatorString(expr):
		return opToken(expr), true
	}
	if i, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return valueToken(i), true
	}
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return valueToken(f), true
	}
	if IsQuotedString(expr, '"') {
		return valueToken(Unquote(expr, '"')), true
	}
	if MaybeJSON(expr) || MaybeJSONArray(expr) {
		if v, ok := ParseJSONValue(expr); ok {
			return valueToken(v), true
		}
	}
	// A system function name takes precedence over a location name, so
	// declaring or assigning to a function name always fails.
	if expr == "In" {
		return funcToken(expr), true
	}
	if dispatcher != nil && dispatcher.HasFunction(expr) {
		return funcToken(expr), true
	}
	if r, ok := findValueInStore(store, expr); ok {
		return refToken(r), true
	}
	return token{}, false
}

// convertTokens classifies a list of string tokens.
func convertTokens(store map[string]interface{}, dispatcher *FunctionDispatcher, strs []string) ([]token, bool) {
	tokens := make([]token, 0, len(strs))
	for _, s := range strs {
		t, ok := createToken(store, dispatcher, s)
		if !ok {
			return nil, false
		}
		tokens = append(tokens, t)
	}
	return tokens, true
}
