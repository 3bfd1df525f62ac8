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

// Package tools renders models for humans.
package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/statechart/core"
)

// Dot writes a Graphviz dot rendering of the model: compound and
// parallel states as clusters, transitions as edges labeled with their
// event descriptors and conditions.
func Dot(m *core.Model, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "digraph %q {\n", m.Name); err != nil {
		return err
	}
	fmt.Fprintf(w, "  graph [rankdir=TB,nodesep=0.3,ranksep=0.6]\n")
	fmt.Fprintf(w, "  node [shape=\"box\" style=\"rounded,filled\" fillcolor=\"#99ddc8\"]\n")
	fmt.Fprintf(w, "  edge [fontsize=\"10\"]\n")

	var transitions []*core.Transition
	var walk func(indent string, states []*core.State)
	walk = func(indent string, states []*core.State) {
		for _, s := range states {
			transitions = append(transitions, s.Transitions...)
			if len(s.Children) == 0 {
				fill := "#99ddc8"
				if s.IsFinal() {
					fill = "#2d93ad"
				}
				fmt.Fprintf(w, "%s%q [fillcolor=%q]\n", indent, s.Id, fill)
				continue
			}
			label := s.Id
			if s.IsParallel() {
				label += " (parallel)"
			}
			fmt.Fprintf(w, "%ssubgraph \"cluster_%s\" {\n", indent, s.Id)
			fmt.Fprintf(w, "%s  label=%q\n", indent, label)
			// An anchor so edges can point at the cluster.
			fmt.Fprintf(w, "%s  %q [shape=point style=invis]\n", indent, s.Id)
			walk(indent+"  ", s.Children)
			fmt.Fprintf(w, "%s}\n", indent)
		}
	}
	walk("  ", m.TopLevel)

	for _, t := range transitions {
		label := strings.Join(t.Events, ",")
		if t.Cond != "" {
			if label != "" {
				label += " "
			}
			label += "[" + t.Cond + "]"
		}
		if len(t.Targets) == 0 {
			fmt.Fprintf(w, "  %q -> %q [label=%q style=dashed]\n",
				t.Source.Id, t.Source.Id, label)
			continue
		}
		for _, target := range t.Targets {
			fmt.Fprintf(w, "  %q -> %q [label=%q]\n", t.Source.Id, target.Id, label)
		}
	}

	_, err := fmt.Fprintf(w, "}\n")
	return err
}
