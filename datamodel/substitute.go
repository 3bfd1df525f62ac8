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
	"sync"
)

// Expression evaluation is iterated substitution: a fixed sequence of
// passes runs over the token list, each pass looping internally until
// it can make no more progress, until the list is a single value (or a
// value sequence inside retained parentheses).  Any pass may flag an
// error, which aborts evaluation.

// evaluator carries the context a substitution pass needs.
type evaluator struct {
	store      map[string]interface{}
	runtime    StateChecker
	dispatcher *FunctionDispatcher
}

// substitutePass performs substitutions on the token list.  The first
// result reports whether anything was substituted, the second flags an
// error.
type substitutePass func(e *evaluator, expr *[]token) (bool, bool)

// isValueSequence reports whether tokens form values separated by
// commas (or is empty).
func isValueSequence(tokens []token) bool {
	if len(tokens) == 0 {
		return true
	}
	if !tokens[0].isValue() || len(tokens)%2 == 0 {
		return false
	}
	for i := 1; i < len(tokens); i += 2 {
		if !tokens[i].isOp(",") || !tokens[i+1].isValue() {
			return false
		}
	}
	return true
}

// findParens locates the first parenthesis group at or after from.
// The group type ("(" or "[") is auto-detected from the first opener;
// nesting of the same type is accounted for.  Returns start and end
// indices of the opener and closer, or -1 if there is no complete
// group.
func findParens(toks []token, from int) (start, end int, ptype string) {
	start = -1
	for i := from; i < len(toks); i++ {
		if toks[i].isOp("(", "[") {
			start = i
			ptype = toks[i].op
			break
		}
	}
	if start < 0 {
		return -1, -1, ""
	}
	closer := ")"
	if ptype == "[" {
		closer = "]"
	}
	depth := 0
	for i := start; i < len(toks); i++ {
		switch {
		case toks[i].isOp(ptype):
			depth++
		case toks[i].isOp(closer):
			depth--
			if depth == 0 {
				return start, i, ptype
			}
		}
	}
	return -1, -1, ""
}

// substituteParentheses recursively evaluates the subexpressions in
// parentheses.  Parentheses that form an array subscript, or a
// function-call argument list whose content is already a value
// sequence, are left in place for the later passes.  Empty "[]" is an
// error; empty "()" is a zero-argument call.
func substituteParentheses(e *evaluator, expr *[]token) (bool, bool) {
	substituted := false
	i := 0
	for {
		toks := *expr
		start, end, ptype := findParens(toks, i)
		if start < 0 {
			return substituted, false
		}
		isCall := start > 0 && toks[start-1].kind == tokenFunc
		inner := toks[start+1 : end]
		if len(inner) == 0 && ptype == "[" {
			return substituted, true
		}
		if isValueSequence(inner) && (ptype == "[" || (ptype == "(" && isCall)) {
			i = end + 1
			continue
		}
		sub := append([]token(nil), inner...)
		if len(sub) > 0 && !substituteUntilValue(e, &sub) {
			return substituted, true
		}
		substituted = true
		if ptype == "(" && !isCall {
			out := make([]token, 0, start+len(sub)+len(toks)-end-1)
			out = append(out, toks[:start]...)
			out = append(out, sub...)
			out = append(out, toks[end+1:]...)
			*expr = out
			i = start + len(sub)
		} else {
			out := make([]token, 0, start+1+len(sub)+len(toks)-end)
			out = append(out, toks[:start+1]...)
			out = append(out, sub...)
			out = append(out, toks[end:]...)
			*expr = out
			i = start + 1 + len(sub) + 1
		}
	}
}

// substituteSystemFunctionCalls evaluates system-function calls over
// already-evaluated argument lists.  The built-in In consults the
// runtime's active states; everything else dispatches.
func substituteSystemFunctionCalls(e *evaluator, expr *[]token) (bool, bool) {
	substituted := false
	i := 0
	for {
		toks := *expr
		pos := -1
		for j := i; j+1 < len(toks); j++ {
			if toks[j].kind == tokenFunc && toks[j+1].isOp("(") {
				pos = j
				break
			}
		}
		if pos < 0 {
			return substituted, false
		}
		_, end, _ := findParens(toks, pos+1)
		if end < 0 {
			return substituted, true
		}
		args := toks[pos+2 : end]
		if !isValueSequence(args) {
			return substituted, true
		}
		var argValues []interface{}
		for j := 0; j < len(args); j += 2 {
			argValues = append(argValues, args[j].value())
		}
		var result interface{}
		if toks[pos].fn == "In" {
			id, isString := "", false
			if len(argValues) == 1 {
				id, isString = argValues[0].(string)
			}
			if e.runtime == nil || !isString {
				return substituted, true
			}
			result = e.runtime.IsActiveState(id)
		} else {
			var ok bool
			result, ok = e.dispatcher.Execute(toks[pos].fn, argValues)
			if !ok {
				return substituted, true
			}
		}
		out := make([]token, 0, len(toks)-(end-pos))
		out = append(out, toks[:pos]...)
		out = append(out, valueToken(result))
		out = append(out, toks[end+1:]...)
		*expr = out
		substituted = true
		i = pos + 1
	}
}

// substituteElementAccess resolves value [ value ] triples.  Access
// through a reference yields a reference to the slot; access through a
// literal yields a copy.  The read array["length"] yields an integer
// literal, so length is not assignable.
func substituteElementAccess(e *evaluator, expr *[]token) (bool, bool) {
	substituted := false
	toks := *expr
	i := 0
	for i+3 < len(toks) {
		base := &toks[i]
		if !base.isValue() || !toks[i+1].isOp("[") || !toks[i+2].isValue() || !toks[i+3].isOp("]") {
			i++
			continue
		}
		var result token
		switch bv := base.value().(type) {
		case []interface{}:
			keyToken := &toks[i+2]
			if valueToString(keyToken.value(), false) == "length" {
				result = valueToken(int64(len(bv)))
			} else if !keyToken.isInteger() || asInt(keyToken.value()) < 0 ||
				asInt(keyToken.value()) >= int64(len(bv)) {
				*expr = toks
				return substituted, true
			} else if base.isRef() {
				result = refToken(&ref{container: bv, key: int(asInt(keyToken.value()))})
			} else {
				result = valueToken(copyValue(bv[asInt(keyToken.value())]))
			}
		case map[string]interface{}:
			key := valueToString(toks[i+2].value(), false)
			if _, have := bv[key]; !have {
				*expr = toks
				return substituted, true
			}
			if base.isRef() {
				result = refToken(&ref{container: bv, key: key})
			} else {
				result = valueToken(copyValue(bv[key]))
			}
		default:
			i++
			continue
		}
		toks[i] = result
		toks = append(toks[:i+1], toks[i+4:]...)
		substituted = true
		// Restart at the result so foo[1][2] resolves.
	}
	*expr = toks
	return substituted, false
}

// unaryOperation applies an operator to one value token.
type unaryOperation func(v *token) (token, bool)

// substituteUnary applies a right-associative prefix operator.  A
// preceding value token disambiguates the binary form of the operator.
func substituteUnary(opName string, apply unaryOperation) substitutePass {
	return func(e *evaluator, expr *[]token) (bool, bool) {
		toks := *expr
		substituted := false
		for i := len(toks) - 2; i >= 0; i-- {
			if !toks[i].isOp(opName) || !toks[i+1].isValue() {
				continue
			}
			if i > 0 && toks[i-1].isValue() {
				continue
			}
			result, ok := apply(&toks[i+1])
			if !ok {
				*expr = toks
				return substituted, true
			}
			toks[i] = result
			toks = append(toks[:i+1], toks[i+2:]...)
			substituted = true
		}
		*expr = toks
		return substituted, false
	}
}

// binaryOperation applies an infix operator to two value tokens.
type binaryOperation func(op, a, b *token) (token, bool)

// substituteBinary applies a left-associative infix operator class.
func substituteBinary(match func(t *token) bool, apply binaryOperation) substitutePass {
	return func(e *evaluator, expr *[]token) (bool, bool) {
		toks := *expr
		substituted := false
		i := 0
		for i+2 < len(toks) {
			if !toks[i].isValue() || toks[i+1].kind != tokenOp ||
				!match(&toks[i+1]) || !toks[i+2].isValue() {
				i++
				continue
			}
			result, ok := apply(&toks[i+1], &toks[i], &toks[i+2])
			if !ok {
				*expr = toks
				return substituted, true
			}
			toks[i] = result
			toks = append(toks[:i+1], toks[i+3:]...)
			substituted = true
			// Stay on the result for left associativity.
		}
		*expr = toks
		return substituted, false
	}
}

// numericOperation runs an arithmetic operator with the promotion rule:
// integer arithmetic iff both operands are integral (booleans count as
// 0/1), real arithmetic otherwise.
func numericOperation(intOp func(a, b int64) int64, floatOp func(a, b float64) float64, a, b *token) (token, bool) {
	va, vb := a.value(), b.value()
	_, aBool := va.(bool)
	_, bBool := vb.(bool)
	switch {
	case (isIntegral(va) || aBool) && (isIntegral(vb) || bBool):
		return valueToken(intOp(asInt(va), asInt(vb))), true
	case (isNumeric(va) || aBool) && (isNumeric(vb) || bBool):
		return valueToken(floatOp(asFloat(va), asFloat(vb))), true
	}
	return token{}, false
}

func additiveOperation(op, a, b *token) (token, bool) {
	if op.op == "+" {
		va, vb := a.value(), b.value()
		_, aStr := va.(string)
		_, bStr := vb.(string)
		if aStr || bStr {
			return valueToken(valueToString(va, false) + valueToString(vb, false)), true
		}
		return numericOperation(
			func(x, y int64) int64 { return x + y },
			func(x, y float64) float64 { return x + y }, a, b)
	}
	return numericOperation(
		func(x, y int64) int64 { return x - y },
		func(x, y float64) float64 { return x - y }, a, b)
}

func multiplicativeOperation(op, a, b *token) (token, bool) {
	if op.op == "*" {
		return numericOperation(
			func(x, y int64) int64 { return x * y },
			func(x, y float64) float64 { return x * y }, a, b)
	}
	// Booleans divide as 0/1, so false is a zero divisor too.
	if _, bBool := b.value().(bool); (isNumeric(b.value()) || bBool) && asFloat(b.value()) == 0 {
		return token{}, false
	}
	return numericOperation(
		func(x, y int64) int64 { return x / y },
		func(x, y float64) float64 { return x / y }, a, b)
}

// comparisonOperation handles relational and equality operators.
// Numbers promote; strings compare only with strings; booleans and
// null support only equality.
func comparisonOperation(op, a, b *token) (token, bool) {
	va, vb := a.value(), b.value()
	_, aBool := va.(bool)
	_, bBool := vb.(bool)
	equality := op.op == "==" || op.op == "!="
	switch {
	case aBool && bBool:
		if !equality {
			return token{}, false
		}
		eq := a.toBool() == b.toBool()
		return valueToken(eq == (op.op == "==")), true
	case va == nil || vb == nil:
		if !equality {
			return token{}, false
		}
		if (op.op == "==" && va == nil && vb == nil) ||
			(op.op == "!=" && (va != nil || vb != nil)) {
			return valueToken(true), true
		}
		return valueToken(false), true
	case isNumeric(va) && isNumeric(vb):
		return numericComparison(op.op, va, vb)
	}
	sa, aStr := va.(string)
	sb, bStr := vb.(string)
	if aStr && bStr {
		return valueToken(compareOrdered(op.op, strings.Compare(sa, sb))), true
	}
	return token{}, false
}

func numericComparison(op string, va, vb interface{}) (token, bool) {
	var c int
	if isIntegral(va) && isIntegral(vb) {
		x, y := va.(int64), vb.(int64)
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	} else {
		x, y := asFloat(va), asFloat(vb)
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	}
	return valueToken(compareOrdered(op, c)), true
}

func compareOrdered(op string, c int) bool {
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

// substitutePasses is the substitution order. It is built lazily (rather
// than as a package-level slice literal) because substituteParentheses
// calls substituteUntilValue, which in turn needs this list: a literal
// var initializer would create an initialization cycle.
var (
	substitutePassesOnce  sync.Once
	substitutePassesCache []substitutePass
)

func substitutePasses() []substitutePass {
	substitutePassesOnce.Do(func() {
		substitutePassesCache = []substitutePass{
			substituteParentheses,
			substituteSystemFunctionCalls,
			substituteElementAccess,
			// Unary minus binds tightest among the arithmetic operators.
			substituteUnary("-", func(v *token) (token, bool) {
				switch n := v.value().(type) {
				case int64:
					return valueToken(-n), true
				case float64:
					return valueToken(-n), true
				}
				return token{}, false
			}),
			substituteUnary("!", func(v *token) (token, bool) {
				return valueToken(!v.toBool()), true
			}),
			substituteBinary(func(t *token) bool { return t.isOp("*", "/") }, multiplicativeOperation),
			substituteBinary(func(t *token) bool { return t.isOp("+", "-") }, additiveOperation),
			substituteBinary(func(t *token) bool { return t.isOp("<", "<=", ">", ">=") }, comparisonOperation),
			substituteBinary(func(t *token) bool { return t.isOp("==", "!=") }, comparisonOperation),
			substituteBinary(func(t *token) bool { return t.isOp("&&") }, func(op, a, b *token) (token, bool) {
				return valueToken(a.toBool() && b.toBool()), true
			}),
			substituteBinary(func(t *token) bool { return t.isOp("||") }, func(op, a, b *token) (token, bool) {
				return valueToken(a.toBool() || b.toBool()), true
			}),
		}
	})
	return substitutePassesCache
}

// substituteUntilValue runs the passes in order until the expression is
// a value sequence.  Each pass loops internally, so one sweep through
// the pass list reaches the fixed point.  Returns false on error or if
// tokens remain unresolved.
func substituteUntilValue(e *evaluator, expr *[]token) bool {
	for _, pass := range substitutePasses() {
		if _, isErr := pass(e, expr); isErr {
			return false
		}
	}
	return isValueSequence(*expr)
}

// processExpression evaluates a string expression to a single token.
func (e *evaluator) processExpression(expression string) (token, bool) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return token{}, false
	}
	if t, ok := createToken(e.store, e.dispatcher, expression); ok && t.isValue() {
		return t, true
	}
	strs := presubstituteStringTokens(e.store, tokenizeExpression(expression))
	toks, ok := convertTokens(e.store, e.dispatcher, strs)
	if !ok {
		return token{}, false
	}
	if !substituteUntilValue(e, &toks) {
		return token{}, false
	}
	if len(toks) != 1 {
		return token{}, false
	}
	return toks[0], true
}
