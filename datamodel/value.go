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
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Values in the store are plain Go data following the encoding/json
// conventions with one refinement: numbers are either int64 (integral)
// or float64 (real).  The concrete types are
//
//	nil, bool, int64, float64, string,
//	[]interface{}, map[string]interface{}
//
// Anything else is not a value.

// ParseJSONValue parses JSON into value form.  Numbers without a
// fraction or exponent become int64; everything else follows
// encoding/json.
func ParseJSONValue(data string) (interface{}, bool) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var x interface{}
	if err := dec.Decode(&x); err != nil {
		return nil, false
	}
	// Reject trailing garbage such as "{}{}".
	if dec.More() {
		return nil, false
	}
	return normalizeValue(x), true
}

// normalizeValue rewrites json.Number nodes into int64 or float64.
func normalizeValue(x interface{}) interface{} {
	switch v := x.(type) {
	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i
			}
		}
		f, _ := v.Float64()
		return f
	case []interface{}:
		for i := range v {
			v[i] = normalizeValue(v[i])
		}
		return v
	case map[string]interface{}:
		for k := range v {
			v[k] = normalizeValue(v[k])
		}
		return v
	default:
		return x
	}
}

// copyValue makes a deep copy of a value.
func copyValue(x interface{}) interface{} {
	switch v := x.(type) {
	case []interface{}:
		acc := make([]interface{}, len(v))
		for i := range v {
			acc[i] = copyValue(v[i])
		}
		return acc
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(v))
		for k := range v {
			acc[k] = copyValue(v[k])
		}
		return acc
	default:
		return x
	}
}

// isIntegral reports whether a value is an integral number (int64 here;
// booleans do not count).
func isIntegral(x interface{}) bool {
	_, is := x.(int64)
	return is
}

// isNumeric reports whether a value is a number of either kind.
func isNumeric(x interface{}) bool {
	switch x.(type) {
	case int64, float64:
		return true
	}
	return false
}

// asInt converts an integral or boolean value to int64.
func asInt(x interface{}) int64 {
	switch v := x.(type) {
	case int64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case float64:
		return int64(v)
	}
	return 0
}

// asFloat converts a numeric or boolean value to float64.
func asFloat(x interface{}) float64 {
	switch v := x.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	}
	return 0
}

// truthy implements the truthiness rule: null is false, booleans are
// themselves, numbers are non-zero, strings are non-empty, arrays and
// objects are true.
func truthy(x interface{}) bool {
	switch v := x.(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return len(v) > 0
	case []interface{}, map[string]interface{}:
		return true
	}
	return false
}

// valueToString renders a value as a compact string.  Objects and
// arrays render as compact JSON.  When quote is true, string values are
// quoted (so the result is itself a value expression).
func valueToString(x interface{}, quote bool) string {
	switch v := x.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		if quote {
			return Quote(v)
		}
		return v
	default:
		js, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(js)
	}
}

// valuesEqual is deep equality over values.  Numbers compare by
// promotion.
func valuesEqual(a, b interface{}) bool {
	if isNumeric(a) && isNumeric(b) {
		if isIntegral(a) && isIntegral(b) {
			return a.(int64) == b.(int64)
		}
		return asFloat(a) == asFloat(b)
	}
	switch va := a.(type) {
	case nil:
		return b == nil
	case bool:
		vb, is := b.(bool)
		return is && va == vb
	case string:
		vb, is := b.(string)
		return is && va == vb
	case []interface{}:
		vb, is := b.([]interface{})
		if !is || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !valuesEqual(va[i], vb[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		vb, is := b.(map[string]interface{})
		if !is || len(va) != len(vb) {
			return false
		}
		for k := range va {
			wb, have := vb[k]
			if !have || !valuesEqual(va[k], wb) {
				return false
			}
		}
		return true
	}
	return false
}

// IsQuotedString reports whether str is a string enclosed in the given
// quote mark with no unescaped quote marks inside.
func IsQuotedString(str string, quote byte) bool {
	if len(str) < 2 || str[0] != quote || str[len(str)-1] != quote {
		return false
	}
	for i := 1; i < len(str)-1; i++ {
		if str[i] == quote && str[i-1] != '\\' {
			return false
		}
	}
	return true
}

// Unquote strips the given quote mark from str and unescapes nested
// quote marks and backslashes.  Returns str unchanged if it is not a
// quoted string.
func Unquote(str string, quote byte) string {
	if !IsQuotedString(str, quote) {
		return str
	}
	var buf bytes.Buffer
	inner := str[1 : len(str)-1]
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) &&
			(inner[i+1] == '\\' || inner[i+1] == quote) {
			i++
		}
		buf.WriteByte(inner[i])
	}
	return buf.String()
}

// EscapeQuotes backslash-escapes double quotes and backslashes.
func EscapeQuotes(str string) string {
	var buf bytes.Buffer
	for i := 0; i < len(str); i++ {
		if str[i] == '\\' || str[i] == '"' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(str[i])
	}
	return buf.String()
}

// Quote wraps str in double quotes, escaping as needed.  A string that
// is already double-quoted is returned as is.
func Quote(str string) string {
	if IsQuotedString(str, '"') {
		return str
	}
	return `"` + EscapeQuotes(str) + `"`
}

var (
	maybeJSONPattern      = regexp.MustCompile(`(?s)^\s*\{.*\}\s*$`)
	maybeJSONArrayPattern = regexp.MustCompile(`(?s)^\s*\[.*\]\s*$`)
)

// MaybeJSON reports whether str could be a JSON object literal.
func MaybeJSON(str string) bool { return maybeJSONPattern.MatchString(str) }

// MaybeJSONArray reports whether str could be a JSON array literal.
func MaybeJSONArray(str string) bool { return maybeJSONArrayPattern.MatchString(str) }

// MakeJSONError renders an error message as a JSON object expression
// with a single "error" field.
func MakeJSONError(msg string) string {
	return `{"error": "` + EscapeQuotes(msg) + `"}`
}

// MakeJSONFromStringMap builds a JSON object expression from a map of
// names to value expressions.  The values are inserted verbatim.
func MakeJSONFromStringMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, `"`+EscapeQuotes(k)+`":`+m[k])
	}
	return "{" + strings.Join(pairs, ",") + "}"
}
