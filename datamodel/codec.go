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

import "reflect"

// The value codec converts between datamodel values and native host
// types at the function-dispatch boundary.  A slice decodes iff every
// element decodes.

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	anyType   = reflect.TypeOf((*interface{})(nil)).Elem()
)

// decodableType reports whether a parameter type can receive a
// datamodel value.
func decodableType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	case reflect.Interface:
		return t == anyType
	case reflect.Slice:
		return decodableType(t.Elem())
	}
	return false
}

// encodableType reports whether a result type can become a datamodel
// value.
func encodableType(t reflect.Type) bool { return decodableType(t) }

// decodeValue converts a datamodel value to the native type t.
func decodeValue(x interface{}, t reflect.Type) (reflect.Value, bool) {
	if t == anyType {
		v := reflect.New(anyType).Elem()
		if x != nil {
			v.Set(reflect.ValueOf(x))
		}
		return v, true
	}
	switch t.Kind() {
	case reflect.Bool:
		b, is := x.(bool)
		if !is {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(b), true
	case reflect.Int, reflect.Int32, reflect.Int64:
		if !isIntegral(x) {
			return reflect.Value{}, false
		}
		v := reflect.New(t).Elem()
		v.SetInt(x.(int64))
		return v, true
	case reflect.Float32, reflect.Float64:
		if !isNumeric(x) {
			return reflect.Value{}, false
		}
		v := reflect.New(t).Elem()
		v.SetFloat(asFloat(x))
		return v, true
	case reflect.String:
		s, is := x.(string)
		if !is {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(s), true
	case reflect.Slice:
		arr, is := x.([]interface{})
		if !is {
			return reflect.Value{}, false
		}
		out := reflect.MakeSlice(t, len(arr), len(arr))
		for i, elem := range arr {
			ev, ok := decodeValue(elem, t.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(ev)
		}
		return out, true
	}
	return reflect.Value{}, false
}

// encodeValue converts a native result to a datamodel value.
func encodeValue(v reflect.Value) (interface{}, bool) {
	if v.Type() == anyType {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.String:
		return v.String(), true
	case reflect.Slice:
		arr := make([]interface{}, v.Len())
		for i := range arr {
			ev, ok := encodeValue(v.Index(i))
			if !ok {
				return nil, false
			}
			arr[i] = ev
		}
		return arr, true
	case reflect.Map:
		// Raw values passed through interface{} results.
		if m, is := v.Interface().(map[string]interface{}); is {
			return m, true
		}
	}
	return nil, false
}
