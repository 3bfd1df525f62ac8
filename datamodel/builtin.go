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

// Built-in functions available in every dispatcher.  In(id) is not
// here; the evaluator recognizes it directly because it needs the
// runtime.

// builtinContainsKey reports whether value is an object containing the
// given field.
func builtinContainsKey(value interface{}, field string) bool {
	obj, is := value.(map[string]interface{})
	if !is {
		return false
	}
	_, have := obj[field]
	return have
}

// builtinFindFirstWithKeyValue returns the index of the first object
// in array whose key equals value, or -1.
func builtinFindFirstWithKeyValue(array interface{}, key string, value interface{}) int {
	arr, is := array.([]interface{})
	if !is {
		return -1
	}
	for i, elem := range arr {
		if obj, is := elem.(map[string]interface{}); is {
			if v, have := obj[key]; have && valuesEqual(v, value) {
				return i
			}
		}
	}
	return -1
}
