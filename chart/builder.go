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

package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/statechart/core"
)

// Build translates a chart description into a core.Model.  A bad
// description yields an error; the model never sees one.
func Build(c *Chart) (*core.Model, error) {
	if c.Name == "" {
		return nil, errors.New("chart has no name")
	}
	switch c.Binding {
	case "", "early":
	case "late":
		return nil, errors.New("late binding is not supported")
	default:
		return nil, fmt.Errorf("unknown binding %q", c.Binding)
	}
	switch c.DatamodelType {
	case "", "ecmascript":
	default:
		return nil, fmt.Errorf("unknown datamodel type %q", c.DatamodelType)
	}

	b := &builder{byId: make(map[string]*core.State)}

	top := make([]*core.State, 0, len(c.States))
	for _, node := range c.States {
		state, err := b.buildState(node, nil)
		if err != nil {
			return nil, err
		}
		top = append(top, state)
	}
	if len(top) == 0 {
		return nil, errors.New("chart has no states")
	}

	// Second pass, now that every id resolves: transitions and
	// initial transitions.
	for _, node := range c.States {
		if err := b.wireState(node); err != nil {
			return nil, err
		}
	}

	initial, err := b.chartInitialTransition(c, top)
	if err != nil {
		return nil, err
	}

	dmBlock, err := buildDatamodelBlock(c.Datamodel)
	if err != nil {
		return nil, err
	}

	return &core.Model{
		Name:      c.Name,
		Initial:   initial,
		TopLevel:  top,
		Binding:   core.BindingEarly,
		Datamodel: dmBlock,
	}, nil
}

type builder struct {
	byId map[string]*core.State
}

// buildState creates the state tree and checks the structural
// invariants that do not need id resolution.
func (b *builder) buildState(node *StateNode, parent *core.State) (*core.State, error) {
	if node.Id == "" {
		return nil, errors.New("state has no id")
	}
	if _, have := b.byId[node.Id]; have {
		return nil, fmt.Errorf("duplicate state id %q", node.Id)
	}

	var parallel, final bool
	switch node.Type {
	case "", "state":
	case "parallel":
		parallel = true
	case "final":
		final = true
	default:
		return nil, fmt.Errorf("state %q has unknown type %q", node.Id, node.Type)
	}

	if final {
		if len(node.States) > 0 {
			return nil, fmt.Errorf("final state %q has children", node.Id)
		}
		if len(node.Transitions) > 0 {
			return nil, fmt.Errorf("final state %q has transitions", node.Id)
		}
	}
	if parallel && len(node.States) == 0 {
		return nil, fmt.Errorf("parallel state %q has no children", node.Id)
	}

	state := &core.State{
		Id:       node.Id,
		Parallel: parallel,
		Final:    final,
		Parent:   parent,
	}
	b.byId[node.Id] = state

	for _, child := range node.States {
		cs, err := b.buildState(child, state)
		if err != nil {
			return nil, err
		}
		state.Children = append(state.Children, cs)
	}

	if parallel {
		for _, child := range state.Children {
			if child.IsAtomic() {
				return nil, fmt.Errorf("parallel state %q has atomic child %q",
					state.Id, child.Id)
			}
		}
	}

	var err error
	if state.Datamodel, err = buildDatamodelBlock(node.Datamodel); err != nil {
		return nil, fmt.Errorf("state %q: %v", node.Id, err)
	}
	if state.OnEntry, err = buildBlock(node.OnEntry); err != nil {
		return nil, fmt.Errorf("state %q onentry: %v", node.Id, err)
	}
	if state.OnExit, err = buildBlock(node.OnExit); err != nil {
		return nil, fmt.Errorf("state %q onexit: %v", node.Id, err)
	}
	return state, nil
}

// wireState resolves targets and initial transitions once all states
// exist.
func (b *builder) wireState(node *StateNode) error {
	state := b.byId[node.Id]

	for _, tn := range node.Transitions {
		t, err := b.buildTransition(tn, state)
		if err != nil {
			return fmt.Errorf("state %q: %v", node.Id, err)
		}
		state.Transitions = append(state.Transitions, t)
	}

	if state.IsCompound() {
		initial, err := b.initialTransition(node, state)
		if err != nil {
			return err
		}
		state.Initial = initial
	} else if len(node.Initial) > 0 || node.InitialTransition != nil {
		return fmt.Errorf("state %q is not compound but has an initial transition", node.Id)
	}

	for _, child := range node.States {
		if err := b.wireState(child); err != nil {
			return err
		}
	}
	return nil
}

// initialTransition builds a compound state's initial transition: the
// explicit transition node, the initial id list, or the first child by
// default.  Every target must be a proper descendant.
func (b *builder) initialTransition(node *StateNode, state *core.State) (*core.Transition, error) {
	if len(node.Initial) > 0 && node.InitialTransition != nil {
		return nil, fmt.Errorf("state %q has both initial and initialTransition", node.Id)
	}

	var t *core.Transition
	switch {
	case node.InitialTransition != nil:
		tn := node.InitialTransition
		if len(tn.Event) > 0 || tn.Cond != "" {
			return nil, fmt.Errorf("state %q: initial transition cannot have events or a condition", node.Id)
		}
		built, err := b.buildTransition(tn, state)
		if err != nil {
			return nil, fmt.Errorf("state %q: %v", node.Id, err)
		}
		t = built
	case len(node.Initial) > 0:
		targets, err := b.resolveTargets(node.Initial)
		if err != nil {
			return nil, fmt.Errorf("state %q: %v", node.Id, err)
		}
		t = &core.Transition{Source: state, Targets: targets}
	default:
		t = &core.Transition{Source: state, Targets: []*core.State{state.Children[0]}}
	}

	if len(t.Targets) == 0 {
		return nil, fmt.Errorf("state %q: initial transition has no targets", node.Id)
	}
	for _, target := range t.Targets {
		if !stateIsDescendant(target, state) {
			return nil, fmt.Errorf("state %q: initial target %q is not a descendant",
				node.Id, target.Id)
		}
	}
	return t, nil
}

func (b *builder) buildTransition(tn *TransitionNode, source *core.State) (*core.Transition, error) {
	var internal bool
	switch tn.Type {
	case "", "external":
	case "internal":
		internal = true
	default:
		return nil, fmt.Errorf("transition has unknown type %q", tn.Type)
	}

	events := make([]string, 0, len(tn.Event))
	for _, d := range tn.Event {
		d = strings.TrimSuffix(d, ".*")
		d = strings.TrimSuffix(d, ".")
		if d == "" {
			return nil, errors.New("transition has an empty event descriptor")
		}
		events = append(events, d)
	}

	targets, err := b.resolveTargets(tn.Target)
	if err != nil {
		return nil, err
	}

	body, err := buildBlock(tn.Exec)
	if err != nil {
		return nil, err
	}

	return &core.Transition{
		Source:     source,
		Targets:    targets,
		Events:     events,
		Cond:       tn.Cond,
		Internal:   internal,
		Executable: body,
	}, nil
}

func (b *builder) resolveTargets(ids []string) ([]*core.State, error) {
	targets := make([]*core.State, 0, len(ids))
	for _, id := range ids {
		state, have := b.byId[id]
		if !have {
			return nil, fmt.Errorf("unknown target state %q", id)
		}
		targets = append(targets, state)
	}
	return targets, nil
}

// chartInitialTransition builds the top-level initial transition.
func (b *builder) chartInitialTransition(c *Chart, top []*core.State) (*core.Transition, error) {
	if len(c.Initial) == 0 {
		return &core.Transition{Targets: []*core.State{top[0]}}, nil
	}
	targets, err := b.resolveTargets(c.Initial)
	if err != nil {
		return nil, fmt.Errorf("chart initial: %v", err)
	}
	return &core.Transition{Targets: targets}, nil
}

func buildDatamodelBlock(entries []Data) (core.ExecutableContent, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	block := &core.Block{}
	for _, d := range entries {
		if d.Id == "" {
			return nil, errors.New("data entry has no id")
		}
		if d.Src != "" {
			return nil, fmt.Errorf("data entry %q: src is not supported", d.Id)
		}
		block.Children = append(block.Children, &core.Data{Location: d.Id, Expr: d.Expr})
	}
	return block, nil
}

// buildBlock turns a list of action nodes into executable content.
// An empty list yields nil.
func buildBlock(nodes []ActionNode) (core.ExecutableContent, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	block := &core.Block{}
	for i := range nodes {
		content, err := buildAction(&nodes[i])
		if err != nil {
			return nil, err
		}
		block.Children = append(block.Children, content)
	}
	if len(block.Children) == 1 {
		return block.Children[0], nil
	}
	return block, nil
}

func buildAction(node *ActionNode) (core.ExecutableContent, error) {
	count := 0
	var content core.ExecutableContent
	var err error

	if node.Assign != nil {
		count++
		if node.Assign.Location == "" {
			return nil, errors.New("assign has no location")
		}
		content = &core.Assign{Location: node.Assign.Location, Expr: node.Assign.Expr}
	}
	if node.Data != nil {
		count++
		if node.Data.Id == "" {
			return nil, errors.New("data has no id")
		}
		if node.Data.Src != "" {
			return nil, fmt.Errorf("data entry %q: src is not supported", node.Data.Id)
		}
		content = &core.Data{Location: node.Data.Id, Expr: node.Data.Expr}
	}
	if node.Raise != nil {
		count++
		if node.Raise.Event == "" {
			return nil, errors.New("raise has no event")
		}
		content = &core.Raise{Event: node.Raise.Event}
	}
	if node.Log != nil {
		count++
		content = &core.Log{Label: node.Log.Label, Expr: node.Log.Expr}
	}
	if node.Send != nil {
		count++
		content, err = buildSend(node.Send)
		if err != nil {
			return nil, err
		}
	}
	if node.If != nil {
		count++
		content, err = buildIf(node.If)
		if err != nil {
			return nil, err
		}
	}
	if node.Foreach != nil {
		count++
		content, err = buildForeach(node.Foreach)
		if err != nil {
			return nil, err
		}
	}

	if count != 1 {
		return nil, fmt.Errorf("executable element must set exactly one action, got %d", count)
	}
	return content, nil
}

func buildSend(node *SendNode) (core.ExecutableContent, error) {
	attr := func(name, str, expr string) (core.StrOrExpr, error) {
		if str != "" && expr != "" {
			return core.StrOrExpr{}, fmt.Errorf("send %s has both a literal and an expression", name)
		}
		return core.StrOrExpr{Str: str, Expr: expr}, nil
	}
	event, err := attr("event", node.Event, node.EventExpr)
	if err != nil {
		return nil, err
	}
	target, err := attr("target", node.Target, node.TargetExpr)
	if err != nil {
		return nil, err
	}
	id, err := attr("id", node.Id, node.IdExpr)
	if err != nil {
		return nil, err
	}
	typ, err := attr("type", node.Type, node.TypeExpr)
	if err != nil {
		return nil, err
	}
	if event.IsEmpty() {
		return nil, errors.New("send has no event")
	}
	for name, expr := range node.Params {
		if expr == "" {
			return nil, fmt.Errorf("send param %q has no expression", name)
		}
	}
	return &core.Send{
		Event:    event,
		Target:   target,
		Id:       id,
		Type:     typ,
		Params:   node.Params,
		Namelist: node.Namelist,
	}, nil
}

func buildIf(node *IfNode) (core.ExecutableContent, error) {
	if len(node.Clauses) == 0 {
		return nil, errors.New("if has no clauses")
	}
	f := &core.If{}
	for i, clause := range node.Clauses {
		if clause.Cond == "" && i != len(node.Clauses)-1 {
			return nil, errors.New("only the last if clause may omit its condition")
		}
		body, err := buildBlock(clause.Exec)
		if err != nil {
			return nil, err
		}
		f.Clauses = append(f.Clauses, core.IfClause{Cond: clause.Cond, Body: body})
	}
	return f, nil
}

func buildForeach(node *ForeachNode) (core.ExecutableContent, error) {
	if node.Array == "" || node.Item == "" {
		return nil, errors.New("foreach needs array and item")
	}
	body, err := buildBlock(node.Exec)
	if err != nil {
		return nil, err
	}
	return &core.ForEach{
		Array: node.Array,
		Item:  node.Item,
		Index: node.Index,
		Body:  body,
	}, nil
}

// stateIsDescendant reports whether s is a proper descendant of
// ancestor.
func stateIsDescendant(s, ancestor *core.State) bool {
	for p := s.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
