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

package core

import "log"

// ExecutableContent is a node of the executable-content tree: the body
// of a transition, an onentry/onexit handler, or a datamodel block.
//
// Execute returns false when the content failed.  Failures enqueue
// error.execution on the runtime and never abort the session; a Block
// stops at the first failing child.
type ExecutableContent interface {
	Execute(rt *Runtime) bool
}

// execute runs content, tolerating nil.
func execute(rt *Runtime, content ExecutableContent) bool {
	if content == nil {
		return true
	}
	return content.Execute(rt)
}

// Block executes its children in order and stops on the first child
// that signals failure.
type Block struct {
	Children []ExecutableContent
}

func (b *Block) Execute(rt *Runtime) bool {
	for _, child := range b.Children {
		if !execute(rt, child) {
			return false
		}
	}
	return true
}

// Assign stores the value of Expr at Location.
type Assign struct {
	Location string
	Expr     string
}

func (a *Assign) Execute(rt *Runtime) bool {
	if !rt.Datamodel().AssignExpression(a.Location, a.Expr) {
		rt.EnqueueExecutionError("'Assign' failure for: " + a.Location + " = " + a.Expr)
		return false
	}
	return true
}

// Data declares Location and, if Expr is non-empty, assigns its value.
// Used by datamodel blocks at session start.
type Data struct {
	Location string
	Expr     string
}

func (d *Data) Execute(rt *Runtime) bool {
	dm := rt.Datamodel()
	if !dm.Declare(d.Location) {
		rt.EnqueueExecutionError("'Data' declare failed: " + d.Location)
		return false
	}
	if d.Expr == "" {
		return true
	}
	if !dm.AssignExpression(d.Location, d.Expr) {
		rt.EnqueueExecutionError("'Data' failure for: " + d.Location + " = " + d.Expr)
		return false
	}
	return true
}

// Raise enqueues an internal event.
type Raise struct {
	Event string
}

func (r *Raise) Execute(rt *Runtime) bool {
	rt.EnqueueInternalEvent(r.Event, "")
	return true
}

// Log evaluates Expr to a string and prints it with an optional label.
type Log struct {
	Label string
	Expr  string
}

func (l *Log) Execute(rt *Runtime) bool {
	s, ok := rt.Datamodel().EvaluateStringExpression(l.Expr)
	if !ok {
		rt.EnqueueExecutionError("'Log' expression failed to evaluate to string: " + l.Expr)
		return false
	}
	if l.Label == "" {
		log.Print(s)
	} else {
		log.Print(l.Label + ": " + s)
	}
	return true
}

// StrOrExpr is an attribute that is either a literal string or an
// expression evaluated against the datamodel.
type StrOrExpr struct {
	Str  string
	Expr string
}

// IsEmpty reports whether neither form is present.
func (s *StrOrExpr) IsEmpty() bool { return s.Str == "" && s.Expr == "" }

// Value returns whichever form is present, for diagnostics.
func (s *StrOrExpr) Value() string {
	if s.Expr != "" {
		return s.Expr
	}
	return s.Str
}

// Evaluate resolves the attribute to a string.
func (s *StrOrExpr) Evaluate(rt *Runtime) (string, bool) {
	if s.Expr == "" {
		return s.Str, true
	}
	return rt.Datamodel().EvaluateStringExpression(s.Expr)
}

// Send evaluates its attributes and parameters and notifies listeners.
// The interpreter does not deliver the event anywhere; the client may
// observe it and act externally.
type Send struct {
	Event  StrOrExpr
	Target StrOrExpr
	Id     StrOrExpr
	Type   StrOrExpr

	// Params maps parameter names to value expressions.
	Params map[string]string

	// Namelist names datamodel locations sent under their own names.
	Namelist []string
}

func (s *Send) Execute(rt *Runtime) bool {
	attrs := []struct {
		name string
		attr *StrOrExpr
	}{
		{"event", &s.Event},
		{"target", &s.Target},
		{"type", &s.Type},
		{"id", &s.Id},
	}
	values := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.attr.IsEmpty() {
			continue
		}
		v, ok := a.attr.Evaluate(rt)
		if !ok {
			rt.EnqueueExecutionError("'Send' attribute '" + a.name +
				"' failed to evaluate value: " + a.attr.Value())
			return false
		}
		values[a.name] = v
	}

	dm := rt.Datamodel()
	evaluated := make(map[string]string, len(s.Params)+len(s.Namelist))
	noError := true
	for name, expr := range s.Params {
		result, ok := dm.EvaluateExpression(expr)
		if !ok {
			rt.EnqueueExecutionError("'Send' parameter '" + name +
				"' failed to evaluate value: " + expr)
			noError = false
			continue
		}
		evaluated[name] = result
	}
	for _, name := range s.Namelist {
		result, ok := dm.EvaluateExpression(name)
		if !ok {
			rt.EnqueueExecutionError("'Send' namelist location '" + name +
				"' failed to evaluate: " + name)
			noError = false
			continue
		}
		evaluated[name] = result
	}

	rt.EventDispatcher().NotifySendEvent(rt, values["event"], values["target"],
		values["type"], values["id"], dm.EncodeParameters(evaluated))
	return noError
}

// IfClause pairs a condition with a body.  The last clause of an If
// may have an empty condition, meaning else.
type IfClause struct {
	Cond string
	Body ExecutableContent
}

// If executes the body of the first clause whose condition holds.
type If struct {
	Clauses []IfClause
}

func (f *If) Execute(rt *Runtime) bool {
	sawEmpty := false
	noError := true
	for _, clause := range f.Clauses {
		if sawEmpty {
			log.Print("empty conditions in 'If' executable must come last")
			return false
		}
		result := clause.Cond == ""
		if !result {
			var ok bool
			result, ok = rt.Datamodel().EvaluateBooleanExpression(clause.Cond)
			if !ok {
				rt.EnqueueExecutionError("'If' condition failed to evaluate: " + clause.Cond)
				noError = false
				continue
			}
		}
		if result {
			execute(rt, clause.Body)
			return noError
		}
		sawEmpty = sawEmpty || clause.Cond == ""
	}
	return noError
}

// ForEach iterates Body over the array at Array, assigning each
// element to Item and, when set, each index to Index.
type ForEach struct {
	Array string
	Item  string
	Index string
	Body  ExecutableContent
}

func (f *ForEach) Execute(rt *Runtime) bool {
	dm := rt.Datamodel()
	it := dm.EvaluateIterator(f.Array)
	if it == nil {
		rt.EnqueueExecutionError("'ForEach' unable to get iterator for collection: " + f.Array)
		return false
	}
	if !dm.IsDefined(f.Item) && !dm.Declare(f.Item) {
		rt.EnqueueExecutionError("'ForEach' unable to declare item variable at: " + f.Item)
		return false
	}
	if f.Index != "" && !dm.IsDefined(f.Index) && !dm.Declare(f.Index) {
		rt.EnqueueExecutionError("'ForEach' unable to declare index variable at: " + f.Index)
		return false
	}
	for ; !it.AtEnd(); it.Next() {
		value := it.Value()
		if !dm.AssignExpression(f.Item, value) {
			rt.EnqueueExecutionError("'ForEach' unable to assign item variable '" +
				f.Item + "' with value: " + value)
			return false
		}
		if f.Index != "" {
			if !dm.AssignExpression(f.Index, it.Index()) {
				rt.EnqueueExecutionError("'ForEach' unable to assign index variable '" +
					f.Index + "' with value: " + it.Index())
				return false
			}
		}
		if !execute(rt, f.Body) {
			return false
		}
	}
	return true
}
