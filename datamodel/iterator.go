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

import "strconv"

// Iterator is a read-only cursor over an array value.  It yields
// (index string, value expression) pairs so the results can be fed
// straight back into assignment.  An iterator is invalidated by any
// mutation of the underlying value.
type Iterator interface {
	// AtEnd reports whether the cursor is past the last element.
	AtEnd() bool

	// Next advances the cursor.
	Next()

	// Value returns the current element as a value expression.
	Value() string

	// Index returns the current index as a decimal string.
	Index() string
}

// arrayIterator iterates over an array.  For a store location the
// slice is shared (a reference iterator); for a computed value it is
// the iterator's own copy.
type arrayIterator struct {
	array []interface{}
	pos   int
}

func (it *arrayIterator) AtEnd() bool { return it.pos >= len(it.array) }

func (it *arrayIterator) Next() { it.pos++ }

func (it *arrayIterator) Value() string {
	if it.AtEnd() {
		return ""
	}
	return valueToString(it.array[it.pos], true)
}

func (it *arrayIterator) Index() string { return strconv.Itoa(it.pos) }
