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
	"strings"
	"testing"
)

func newTestDatamodel(t *testing.T) *Datamodel {
	t.Helper()
	dm := New(NewFunctionDispatcher())
	if dm == nil {
		t.Fatal("failed to create datamodel")
	}
	return dm
}

func declareAndAssign(t *testing.T, dm *Datamodel, location, expr string) {
	t.Helper()
	if !dm.Declare(location) {
		t.Fatalf("declare %s failed", location)
	}
	if !dm.AssignExpression(location, expr) {
		t.Fatalf("assign %s = %s failed", location, expr)
	}
}

func eval(t *testing.T, dm *Datamodel, expr string) string {
	t.Helper()
	result, ok := dm.EvaluateExpression(expr)
	if !ok {
		t.Fatalf("evaluation failed for %s", expr)
	}
	return result
}

func TestEvaluatePrimitives(t *testing.T) {
	dm := newTestDatamodel(t)
	for _, tc := range []struct {
		expr, want string
	}{
		{"1", "1"},
		{" 42 ", "42"},
		{"-5", "-5"},
		{"1.5", "1.5"},
		{"true", "true"},
		{"false", "false"},
		{"null", "null"},
		{`"hello"`, `"hello"`},
		{`'hello'`, `"hello"`},
		{`'don\'t'`, `"don't"`},
		{"{}", "{}"},
		{"[1,2]", "[1,2]"},
	} {
		if got := eval(t, dm, tc.expr); got != tc.want {
			t.Errorf("evaluate %q: got %q, want %q", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateOperators(t *testing.T) {
	dm := newTestDatamodel(t)
	for _, tc := range []struct {
		expr, want string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"7 / 2", "3"},
		{"7.0 / 2", "3.5"},
		{"10 - 4 - 3", "3"},
		{"-3 + 4", "1"},
		{"- - 5", "5"},
		{"1 - -5", "6"},
		{"!true", "false"},
		{"!0", "true"},
		{`"foo" + "bar"`, `"foobar"`},
		{`"n=" + 5`, `"n=5"`},
		{"1 + true", "2"},
		{"1 < 2", "true"},
		{"2 <= 2", "true"},
		{"2 > 3", "false"},
		{"1 == 1.0", "true"},
		{"1 != 2", "true"},
		{`"abc" == "abc"`, "true"},
		{`"abc" < "abd"`, "true"},
		{"true == true", "true"},
		{"true != false", "true"},
		{"null == null", "true"},
		{"null != 1", "true"},
		{"true && false", "false"},
		{"true || false", "true"},
		{`"" || "x"`, "true"},
	} {
		if got := eval(t, dm, tc.expr); got != tc.want {
			t.Errorf("evaluate %q: got %q, want %q", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "arr", "[0, 1, 3]")
	declareAndAssign(t, dm, "obj", `{"foo":6}`)
	for _, expr := range []string{
		"",
		"   ",
		"1 / 0",
		"1 / 0.0",
		"undeclared_variable",
		"1 +",
		"(1",
		"arr[]",
		"arr[-1]",
		"arr[5]",
		"arr[0.5]",
		`arr["foo"]`,
		`obj["missing"]`,
		"obj[0]",
		`1 < "2"`,      // no numeric-string promotion
		"true < false", // bools support only equality
		"null < 1",
	} {
		if _, ok := dm.EvaluateExpression(expr); ok {
			t.Errorf("evaluation of %q should fail", expr)
		}
	}
}

func TestDeclare(t *testing.T) {
	dm := newTestDatamodel(t)
	if !dm.Declare("foo") {
		t.Fatal("declare foo failed")
	}
	if dm.Declare("foo") {
		t.Fatal("second declare foo should fail")
	}
	if !dm.IsDefined("foo") {
		t.Fatal("foo should be defined")
	}
	if got := eval(t, dm, "foo"); got != "null" {
		t.Fatalf("declared foo should be null, got %q", got)
	}
	// A registered function name cannot be declared.
	if dm.Declare("ContainsKey") {
		t.Fatal("declare of a function name should fail")
	}
	// Declaration creates missing ancestors.
	if !dm.Declare("other.cow.meow") {
		t.Fatal("nested declare failed")
	}
	if !dm.AssignString("other.cow.meow", "no") {
		t.Fatal("assign to nested declare failed")
	}
	if got := eval(t, dm, "other.cow"); got != `{"meow":"no"}` {
		t.Fatalf("got %q", got)
	}
}

func TestAssignCreatesNestedLocations(t *testing.T) {
	dm := newTestDatamodel(t)

	// Assignment to an undeclared root fails.
	if dm.AssignExpression("newvar", "1") {
		t.Fatal("assign to undeclared root should fail")
	}

	declareAndAssign(t, dm, "obj", "{}")
	if !dm.AssignExpression("obj.a.b[0]", "5") {
		t.Fatal("assign obj.a.b[0] failed")
	}
	if got := eval(t, dm, "obj"); got != `{"a":{"b":[5]}}` {
		t.Fatalf("got %q", got)
	}

	// Arrays auto-expand and pad with null.
	declareAndAssign(t, dm, "array1", "[]")
	for _, step := range []struct {
		location, expr, want string
	}{
		{"array1[0]", "0", "[0]"},
		{"array1[2]", "1", "[0,null,1]"},
		{"array1[1]", "2", "[0,2,1]"},
		{"array1[1]", "[0]", "[0,[0],1]"},
		{"array1[1][2]", "0", "[0,[0,null,0],1]"},
		{"array1[10-8]", "2", "[0,[0,null,0],2]"},
	} {
		if !dm.AssignExpression(step.location, step.expr) {
			t.Fatalf("assign %s = %s failed", step.location, step.expr)
		}
		if got := eval(t, dm, "array1"); got != step.want {
			t.Fatalf("after %s = %s: got %q, want %q",
				step.location, step.expr, got, step.want)
		}
	}
}

func TestAssignTypeMismatches(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "err_array", "[0, 1, 3]")
	declareAndAssign(t, dm, "err_obj", `{"foo":6}`)
	declareAndAssign(t, dm, "err_null", "null")

	for _, location := range []string{
		"err_array[1][0]",    // index access below a scalar
		"err_obj[0]",         // index access on an object
		`err_array["foo"]`,   // key access on an array
		"err_null[1]",        // element access on null
		`err_null["foo"]`,    //
	} {
		if dm.AssignExpression(location, "1") {
			t.Errorf("assign to %s should fail", location)
		}
	}
}

func TestArrayLengthProperty(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "myarray", "[]")

	if got := eval(t, dm, "myarray.length"); got != "0" {
		t.Fatalf("got %q", got)
	}
	if !dm.AssignExpression("myarray[7]", "") {
		t.Fatal("assign myarray[7] failed")
	}
	if got := eval(t, dm, "myarray.length"); got != "8" {
		t.Fatalf("got %q", got)
	}
	if got := eval(t, dm, `myarray["length"]`); got != "8" {
		t.Fatalf("got %q", got)
	}

	// Nested arrays.
	if !dm.AssignExpression("myarray[0]", "[1,2]") {
		t.Fatal("assign failed")
	}
	if got := eval(t, dm, "myarray[0].length"); got != "2" {
		t.Fatalf("got %q", got)
	}

	// length reads an integer literal, so it is not assignable.
	if dm.AssignExpression("myarray.length", "5") {
		t.Fatal("assign to array length should fail")
	}
	if dm.AssignExpression(`myarray["length"]`, "5") {
		t.Fatal("assign to array length should fail")
	}

	// An object's length field is an ordinary member.
	declareAndAssign(t, dm, "myobj", `{"foo":[1,2,3]}`)
	if got := eval(t, dm, "myobj.foo.length"); got != "3" {
		t.Fatalf("got %q", got)
	}
	if !dm.AssignExpression("myobj.length", "2") {
		t.Fatal("assign to object length member failed")
	}
	if got := eval(t, dm, "myobj.length"); got != "2" {
		t.Fatalf("got %q", got)
	}
}

func TestIsAssignable(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "arr", "[1,2,3]")
	declareAndAssign(t, dm, "obj", `{"a":1}`)

	for _, tc := range []struct {
		location string
		want     bool
	}{
		{"arr", true},
		{"arr[0]", true},
		{"arr[10]", true}, // append territory
		{`obj["a"]`, true},
		{`obj["new"]`, true},
		{"obj.new", true},
		{"newvar", false},
		{`arr["foo"]`, false},
		{"obj[0]", false},
	} {
		if got := dm.IsAssignable(tc.location); got != tc.want {
			t.Errorf("IsAssignable(%q) = %v, want %v", tc.location, got, tc.want)
		}
	}
}

type fakeChecker struct {
	active map[string]bool
}

func (c *fakeChecker) IsActiveState(id string) bool { return c.active[id] }

func TestIn(t *testing.T) {
	dm := newTestDatamodel(t)
	dm.SetRuntime(&fakeChecker{active: map[string]bool{"cooking": true}})

	if got := eval(t, dm, "In('cooking')"); got != "true" {
		t.Fatalf("got %q", got)
	}
	if got := eval(t, dm, "In('idle')"); got != "false" {
		t.Fatalf("got %q", got)
	}
	if got := eval(t, dm, "In('cooking') && !In('idle')"); got != "true" {
		t.Fatalf("got %q", got)
	}
	// In needs one string argument.
	if _, ok := dm.EvaluateExpression("In(5)"); ok {
		t.Fatal("In(5) should fail")
	}
	if _, ok := dm.EvaluateExpression("In()"); ok {
		t.Fatal("In() should fail")
	}
}

func TestBuiltinFunctions(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "obj", `{"foo":6}`)
	declareAndAssign(t, dm, "people", `[{"name":"ann"},{"name":"bob"}]`)

	if got := eval(t, dm, `ContainsKey(obj, "foo")`); got != "true" {
		t.Fatalf("got %q", got)
	}
	if got := eval(t, dm, `ContainsKey(obj, "bar")`); got != "false" {
		t.Fatalf("got %q", got)
	}
	if got := eval(t, dm, `FindFirstWithKeyValue(people, "name", "bob")`); got != "1" {
		t.Fatalf("got %q", got)
	}
	if got := eval(t, dm, `FindFirstWithKeyValue(people, "name", "eve")`); got != "-1" {
		t.Fatalf("got %q", got)
	}
}

func TestRegisterFunction(t *testing.T) {
	d := NewFunctionDispatcher()
	if err := d.Register("Twice", func(n int64) int64 { return 2 * n }); err != nil {
		t.Fatal(err)
	}
	if err := d.Register("Twice", func(n int64) int64 { return n }); err != ErrDuplicateFunction {
		t.Fatalf("got %v, want ErrDuplicateFunction", err)
	}
	if err := d.Register("Sum", func(xs []int64) int64 {
		var acc int64
		for _, x := range xs {
			acc += x
		}
		return acc
	}); err != nil {
		t.Fatal(err)
	}

	dm := New(d)
	declareAndAssign(t, dm, "nums", "[1,2,3]")
	declareAndAssign(t, dm, "mixed", `[1,"2"]`)
	if got := eval(t, dm, "Twice(21)"); got != "42" {
		t.Fatalf("got %q", got)
	}
	if got := eval(t, dm, "Sum(nums)"); got != "6" {
		t.Fatalf("got %q", got)
	}
	// Zero-argument calls are allowed.
	if err := d.Register("One", func() int64 { return 1 }); err != nil {
		t.Fatal(err)
	}
	if got := eval(t, dm, "One()"); got != "1" {
		t.Fatalf("got %q", got)
	}
	// An array of mixed element types does not decode.
	if _, ok := dm.EvaluateExpression("Sum(mixed)"); ok {
		t.Fatal("mixed-type array argument should fail")
	}
	// A variable may not shadow a function.
	if dm.Declare("Twice") {
		t.Fatal("declare of function name should fail")
	}
}

func TestEncodeParameters(t *testing.T) {
	dm := newTestDatamodel(t)
	if got := dm.EncodeParameters(nil); got != "{}" {
		t.Fatalf("got %q", got)
	}
	got := dm.EncodeParameters(map[string]string{"b": "2", "a": `"x"`})
	if got != `{"a":"x","b":2}` {
		t.Fatalf("got %q", got)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "obj", `{"a":{"b":[5]},"s":"str"}`)
	declareAndAssign(t, dm, "n", "1.5")

	serialized := dm.SerializeAsString()
	restored := NewFromString(serialized, NewFunctionDispatcher())
	if restored == nil {
		t.Fatal("restore failed")
	}
	if again := restored.SerializeAsString(); again != serialized {
		t.Fatalf("serialize/parse/serialize mismatch:\n%s\n%s", serialized, again)
	}
	if got := eval(t, restored, "obj.a.b[0]"); got != "5" {
		t.Fatalf("got %q", got)
	}

	if NewFromString("not json", NewFunctionDispatcher()) != nil {
		t.Fatal("restore of garbage should fail")
	}
}

func TestIterator(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "arr", "[10, 20]")

	it := dm.EvaluateIterator("arr")
	if it == nil {
		t.Fatal("no iterator")
	}
	var values, indexes []string
	for ; !it.AtEnd(); it.Next() {
		values = append(values, it.Value())
		indexes = append(indexes, it.Index())
	}
	if strings.Join(values, ",") != "10,20" || strings.Join(indexes, ",") != "0,1" {
		t.Fatalf("got values %v indexes %v", values, indexes)
	}

	// Strings come back quoted so they can be reassigned.
	declareAndAssign(t, dm, "strs", `["a"]`)
	it = dm.EvaluateIterator("strs")
	if got := it.Value(); got != `"a"` {
		t.Fatalf("got %q", got)
	}

	// Non-arrays do not iterate.
	declareAndAssign(t, dm, "obj", "{}")
	if dm.EvaluateIterator("obj") != nil {
		t.Fatal("object should not iterate")
	}
	if dm.EvaluateIterator("missing") != nil {
		t.Fatal("missing location should not iterate")
	}
}

func TestMathRandom(t *testing.T) {
	dm := newTestDatamodel(t)
	for i := 0; i < 10; i++ {
		v, ok := dm.EvaluateJSON("Math.random()")
		if !ok {
			t.Fatal("Math.random() failed")
		}
		f := asFloat(v)
		if f < 0 || f >= 1 {
			t.Fatalf("Math.random() out of range: %v", v)
		}
	}
}

func TestQuoteUnquote(t *testing.T) {
	for _, s := range []string{
		"plain",
		"",
		`with "quotes"`,
		`back\slash`,
		"don't",
	} {
		quoted := Quote(s)
		if !IsQuotedString(quoted, '"') {
			t.Fatalf("Quote(%q) = %q is not quoted", s, quoted)
		}
		if got := Unquote(quoted, '"'); got != s {
			t.Fatalf("Unquote(Quote(%q)) = %q", s, got)
		}
		// Quote of an already-quoted string is stable.
		if again := Quote(quoted); again != quoted {
			t.Fatalf("Quote(Quote(%q)) = %q, want %q", s, again, quoted)
		}
	}
}

func TestClone(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "obj", `{"a":1}`)

	clone := dm.Clone()
	if !clone.AssignExpression("obj.a", "2") {
		t.Fatal("assign on clone failed")
	}
	if got := eval(t, dm, "obj.a"); got != "1" {
		t.Fatalf("original mutated through clone: %q", got)
	}
	if got := eval(t, clone, "obj.a"); got != "2" {
		t.Fatalf("got %q", got)
	}
}

func TestEventDataStyleAccess(t *testing.T) {
	dm := newTestDatamodel(t)
	declareAndAssign(t, dm, "_event", "{}")
	if !dm.AssignString("_event.name", "event.StartCooking") {
		t.Fatal("assign _event.name failed")
	}
	if !dm.AssignExpression("_event.data", `{"duration_sec": 10}`) {
		t.Fatal("assign _event.data failed")
	}
	if got := eval(t, dm, "_event.data.duration_sec"); got != "10" {
		t.Fatalf("got %q", got)
	}
	if got := eval(t, dm, "_event.data.duration_sec - 1"); got != "9" {
		t.Fatalf("got %q", got)
	}
}
