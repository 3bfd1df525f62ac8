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

// The classic microwave chart, driven through a canned scenario.
//
//	go run github.com/google/statechart/cmd/microwave
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	statechart "github.com/google/statechart"
	"github.com/google/statechart/datamodel"
)

var microwaveChart = `
name: microwave
datamodel:
  - id: state
    expr: '{}'
  - id: state.light
    expr: '"OFF"'
  - id: state.cooking_duration_sec
    expr: "0"
states:
  - id: microwave
    type: parallel
    states:
      - id: door
        states:
          - id: door_is_closed
            transitions:
              - event: [event.OpenDoor]
                target: [door_is_open]
          - id: door_is_open
            transitions:
              - event: [event.CloseDoor]
                target: [door_is_closed]
      - id: light
        states:
          - id: light_off
            onentry:
              - assign: {location: state.light, expr: '"OFF"'}
            transitions:
              - cond: "In('power_on') && (In('door_is_open') || In('cooking'))"
                target: [light_on]
          - id: light_on
            onentry:
              - assign: {location: state.light, expr: '"ON"'}
            transitions:
              - cond: "!(In('power_on') && (In('door_is_open') || In('cooking')))"
                target: [light_off]
      - id: power
        states:
          - id: power_off
            transitions:
              - event: [event.PowerOn]
                target: [power_on]
          - id: power_on
            onentry:
              - assign: {location: state.cooking_duration_sec, expr: "0"}
            transitions:
              - event: [event.PowerOff]
                target: [power_off]
      - id: cook
        states:
          - id: idle
            transitions:
              - event: [event.StartCooking]
                cond: "In('door_is_closed') && In('power_on')"
                target: [cooking]
                exec:
                  - assign: {location: state.cooking_duration_sec, expr: "_event.data.duration_sec"}
          - id: cooking
            transitions:
              - cond: "state.cooking_duration_sec <= 0"
                target: [idle]
              - event: [event.TimeTick]
                exec:
                  - assign: {location: state.cooking_duration_sec, expr: "state.cooking_duration_sec - 1"}
`

func main() {
	duration := flag.Int("duration", 5, "cooking duration in seconds")
	verbose := flag.Bool("v", false, "log every listener callback")
	flag.Parse()

	var factory *statechart.StateMachineFactory
	if *verbose {
		factory = statechart.NewStateMachineFactory()
	} else {
		factory = statechart.NewStateMachineFactoryWithListener(nil)
	}
	if err := factory.AddChartYAML([]byte(microwaveChart)); err != nil {
		log.Fatal(err)
	}

	m, err := factory.NewStateMachine("microwave", datamodel.NewFunctionDispatcher())
	if err != nil {
		log.Fatal(err)
	}

	report := func(step string) {
		var light string
		if err := m.ExtractFromDatamodel("state.light", &light); err != nil {
			log.Fatal(err)
		}
		var remaining int
		if err := m.ExtractFromDatamodel("state.cooking_duration_sec", &remaining); err != nil {
			log.Fatal(err)
		}
		var active []string
		for _, s := range m.Runtime().ActiveStates() {
			if s.IsAtomic() {
				active = append(active, s.Id)
			}
		}
		fmt.Printf("%-30s light=%-3s remaining=%-2d active=[%s]\n",
			step, light, remaining, strings.Join(active, " "))
	}

	m.Start()
	report("start")

	m.SendEvent("event.PowerOn", "")
	report("event.PowerOn")

	m.SendEvent("event.OpenDoor", "")
	report("event.OpenDoor")

	m.SendEvent("event.CloseDoor", "")
	report("event.CloseDoor")

	if err := m.SendEventJSON("event.StartCooking",
		map[string]interface{}{"duration_sec": *duration}); err != nil {
		log.Fatal(err)
	}
	report("event.StartCooking")

	for i := 0; i < *duration; i++ {
		m.SendEvent("event.TimeTick", "")
		report("event.TimeTick")
	}
}
