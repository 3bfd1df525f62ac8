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

// Package chart defines the on-disk chart description and the builder
// that turns a description into a core.Model.
//
// Descriptions are YAML (or JSON) documents.  Decoding is strict:
// unknown fields are rejected, so a typo in a chart fails at build
// time rather than silently changing behavior.
package chart

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v2"
)

// Chart is the top-level chart description.
type Chart struct {
	// Name is the chart name, bound to _name at session start.
	Name string `json:"name" yaml:"name"`

	// Initial optionally lists the ids of the initial states.  When
	// absent, the first top-level state is initial.
	Initial []string `json:"initial,omitempty" yaml:"initial,omitempty"`

	// DatamodelType selects the expression language.  Only the
	// default ECMAScript-like datamodel is supported.
	DatamodelType string `json:"datamodelType,omitempty" yaml:"datamodelType,omitempty"`

	// Binding is "early" or "late".  Only early binding is supported.
	Binding string `json:"binding,omitempty" yaml:"binding,omitempty"`

	// Datamodel declares chart-level data entries.
	Datamodel []Data `json:"datamodel,omitempty" yaml:"datamodel,omitempty"`

	// States holds the top-level states in document order.
	States []*StateNode `json:"states,omitempty" yaml:"states,omitempty"`
}

// Data is one datamodel entry.
type Data struct {
	Id string `json:"id" yaml:"id"`

	// Expr initializes the location.  Empty leaves it null.
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`

	// Src is accepted by the schema but rejected by the builder;
	// external data sources are not implemented.
	Src string `json:"src,omitempty" yaml:"src,omitempty"`
}

// StateNode describes a state, parallel, or final node.
type StateNode struct {
	Id string `json:"id" yaml:"id"`

	// Type is "state" (default), "parallel", or "final".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Initial optionally lists the ids of the initial children of a
	// compound state.
	Initial []string `json:"initial,omitempty" yaml:"initial,omitempty"`

	// InitialTransition optionally gives the full initial transition,
	// including an executable body.  Mutually exclusive with Initial.
	InitialTransition *TransitionNode `json:"initialTransition,omitempty" yaml:"initialTransition,omitempty"`

	Datamodel []Data `json:"datamodel,omitempty" yaml:"datamodel,omitempty"`

	OnEntry []ActionNode `json:"onentry,omitempty" yaml:"onentry,omitempty"`
	OnExit  []ActionNode `json:"onexit,omitempty" yaml:"onexit,omitempty"`

	States []*StateNode `json:"states,omitempty" yaml:"states,omitempty"`

	Transitions []*TransitionNode `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// TransitionNode describes one transition.
type TransitionNode struct {
	// Event holds event descriptors.  A descriptor may be written
	// with a trailing ".*" or "."; the suffix is stripped on load.
	Event []string `json:"event,omitempty" yaml:"event,omitempty"`

	Target []string `json:"target,omitempty" yaml:"target,omitempty"`

	Cond string `json:"cond,omitempty" yaml:"cond,omitempty"`

	// Type is "external" (default) or "internal".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Exec []ActionNode `json:"exec,omitempty" yaml:"exec,omitempty"`
}

// ActionNode is one executable-content element.  Exactly one field
// must be set.
type ActionNode struct {
	Assign  *AssignNode  `json:"assign,omitempty" yaml:"assign,omitempty"`
	Data    *Data        `json:"data,omitempty" yaml:"data,omitempty"`
	Raise   *RaiseNode   `json:"raise,omitempty" yaml:"raise,omitempty"`
	Log     *LogNode     `json:"log,omitempty" yaml:"log,omitempty"`
	Send    *SendNode    `json:"send,omitempty" yaml:"send,omitempty"`
	If      *IfNode      `json:"if,omitempty" yaml:"if,omitempty"`
	Foreach *ForeachNode `json:"foreach,omitempty" yaml:"foreach,omitempty"`
}

type AssignNode struct {
	Location string `json:"location" yaml:"location"`
	Expr     string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

type RaiseNode struct {
	Event string `json:"event" yaml:"event"`
}

type LogNode struct {
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Expr  string `json:"expr" yaml:"expr"`
}

// SendNode carries each attribute either as a literal or as an
// expression.
type SendNode struct {
	Event      string `json:"event,omitempty" yaml:"event,omitempty"`
	EventExpr  string `json:"eventExpr,omitempty" yaml:"eventExpr,omitempty"`
	Target     string `json:"target,omitempty" yaml:"target,omitempty"`
	TargetExpr string `json:"targetExpr,omitempty" yaml:"targetExpr,omitempty"`
	Id         string `json:"id,omitempty" yaml:"id,omitempty"`
	IdExpr     string `json:"idExpr,omitempty" yaml:"idExpr,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	TypeExpr   string `json:"typeExpr,omitempty" yaml:"typeExpr,omitempty"`

	// Params maps parameter names to value expressions.
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`

	// Namelist names datamodel locations sent under their own names.
	Namelist []string `json:"namelist,omitempty" yaml:"namelist,omitempty"`
}

type IfNode struct {
	// Clauses in order.  Only the last clause may have an empty
	// condition (else).
	Clauses []IfClauseNode `json:"clauses" yaml:"clauses"`
}

type IfClauseNode struct {
	Cond string       `json:"cond,omitempty" yaml:"cond,omitempty"`
	Exec []ActionNode `json:"exec,omitempty" yaml:"exec,omitempty"`
}

type ForeachNode struct {
	Array string       `json:"array" yaml:"array"`
	Item  string       `json:"item" yaml:"item"`
	Index string       `json:"index,omitempty" yaml:"index,omitempty"`
	Exec  []ActionNode `json:"exec,omitempty" yaml:"exec,omitempty"`
}

// ParseYAML decodes a YAML chart description, rejecting unknown
// fields.
func ParseYAML(data []byte) (*Chart, error) {
	var c Chart
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseJSON decodes a JSON chart description, rejecting unknown
// fields.
func ParseJSON(data []byte) (*Chart, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var c Chart
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
