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
	"errors"
	"log"
	"reflect"
)

var (
	// ErrDuplicateFunction occurs when registering a name twice.  The
	// registered set is monotonic over the life of a dispatcher.
	ErrDuplicateFunction = errors.New("function name already registered")

	// ErrNotAFunction occurs when registering something that is not a
	// callable with a supported signature.
	ErrNotAFunction = errors.New("not a function with a supported signature")
)

// FunctionDispatcher holds host-language functions callable from
// expressions.  Arguments and results cross the boundary through the
// JSON value codec; see Register for the supported signatures.
type FunctionDispatcher struct {
	functions map[string]*hostFunction
}

type hostFunction struct {
	fn        reflect.Value
	in        []reflect.Type
	hasErrOut bool
}

// NewFunctionDispatcher creates a dispatcher with the built-in
// functions registered.
func NewFunctionDispatcher() *FunctionDispatcher {
	d := &FunctionDispatcher{functions: make(map[string]*hostFunction)}
	if err := d.Register("ContainsKey", builtinContainsKey); err != nil {
		log.Printf("builtin registration failed: %v", err)
	}
	if err := d.Register("FindFirstWithKeyValue", builtinFindFirstWithKeyValue); err != nil {
		log.Printf("builtin registration failed: %v", err)
	}
	return d
}

// HasFunction reports whether name is registered.
func (d *FunctionDispatcher) HasFunction(name string) bool {
	_, have := d.functions[name]
	return have
}

// Register adds a host function under name.  The function's parameters
// must be codec-convertible types: bool, int, int32, int64, float32,
// float64, string, slices of those, or interface{} for a raw datamodel
// value.  It must return one convertible value, optionally followed by
// an error.  Duplicate names are rejected.
func (d *FunctionDispatcher) Register(name string, fn interface{}) error {
	if d.HasFunction(name) {
		return ErrDuplicateFunction
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.IsVariadic() {
		return ErrNotAFunction
	}
	switch t.NumOut() {
	case 1:
		if !encodableType(t.Out(0)) {
			return ErrNotAFunction
		}
	case 2:
		if !encodableType(t.Out(0)) || t.Out(1) != errorType {
			return ErrNotAFunction
		}
	default:
		return ErrNotAFunction
	}
	in := make([]reflect.Type, t.NumIn())
	for i := range in {
		if !decodableType(t.In(i)) {
			return ErrNotAFunction
		}
		in[i] = t.In(i)
	}
	d.functions[name] = &hostFunction{fn: v, in: in, hasErrOut: t.NumOut() == 2}
	return nil
}

// Execute calls the named function with datamodel values as arguments.
// Returns the result value and whether the call succeeded.
func (d *FunctionDispatcher) Execute(name string, args []interface{}) (interface{}, bool) {
	hf, have := d.functions[name]
	if !have {
		log.Printf("function not found: %s", name)
		return nil, false
	}
	if len(args) != len(hf.in) {
		log.Printf("function %s: want %d arguments, got %d", name, len(hf.in), len(args))
		return nil, false
	}
	callArgs := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, ok := decodeValue(arg, hf.in[i])
		if !ok {
			log.Printf("function %s: argument %d not convertible", name, i)
			return nil, false
		}
		callArgs[i] = v
	}
	out := hf.fn.Call(callArgs)
	if hf.hasErrOut && !out[1].IsNil() {
		log.Printf("function %s: %v", name, out[1].Interface())
		return nil, false
	}
	result, ok := encodeValue(out[0])
	if !ok {
		log.Printf("function %s: result not convertible", name)
		return nil, false
	}
	return result, true
}
