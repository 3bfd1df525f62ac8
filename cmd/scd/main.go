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

// scd is a little statechart daemon.
//
// It loads chart descriptions from a directory, runs one session per
// (chart, session id) pair, persists a snapshot after every operation,
// and resumes sessions from their snapshots across restarts.
//
// Sessions are driven over a WebSocket (or stdin with -stdin) with
// JSON messages:
//
//	{"op":"start"}
//	{"op":"event","name":"event.PowerOn"}
//	{"op":"event","name":"event.StartCooking","payload":"{\"duration_sec\":5}"}
//	{"op":"snapshot"}
//
// Listener callbacks stream back as {"notify":...} messages.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"

	statechart "github.com/google/statechart"
	"github.com/google/statechart/core"
	"github.com/google/statechart/datamodel"
	"github.com/google/statechart/store"
)

func main() {
	chartsDir := flag.String("charts", "charts", "directory of *.yaml chart descriptions")
	dbFile := flag.String("db", "scd.db", "bolt database for session snapshots")
	addr := flag.String("addr", ":8765", "WebSocket listen address")
	stdin := flag.Bool("stdin", false, "serve one session over stdin instead of listening")
	chartName := flag.String("chart", "", "chart name for -stdin mode")
	sessionId := flag.String("session", "default", "session id for -stdin mode")
	flag.Parse()

	s, err := newService(*chartsDir, *dbFile)
	if err != nil {
		log.Fatal(err)
	}
	defer s.storage.Close(context.Background())

	if *stdin {
		if err := s.serveStdin(*chartName, *sessionId); err != nil {
			log.Fatal(err)
		}
		return
	}

	http.HandleFunc("/ws", s.serveWS)
	log.Printf("scd listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

type service struct {
	factory *statechart.StateMachineFactory
	storage *store.Storage
}

func newService(chartsDir, dbFile string) (*service, error) {
	factory := statechart.NewStateMachineFactoryWithListener(nil)

	paths, err := filepath.Glob(filepath.Join(chartsDir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no charts found in %s", chartsDir)
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := factory.AddChartYAML(data); err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		log.Printf("loaded chart %s", path)
	}

	storage, err := store.NewStorage(dbFile)
	if err != nil {
		return nil, err
	}
	if err := storage.Open(context.Background()); err != nil {
		return nil, err
	}

	return &service{factory: factory, storage: storage}, nil
}

// Request is one client operation.
type Request struct {
	Op      string `json:"op"`
	Name    string `json:"name,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// Response answers one Request or streams a notification.
type Response struct {
	Op     string              `json:"op,omitempty"`
	Error  string              `json:"error,omitempty"`
	Active []string            `json:"active,omitempty"`
	Notify map[string]string   `json:"notify,omitempty"`
	Ctx    *statechart.Context `json:"ctx,omitempty"`
}

// emitter forwards listener callbacks as notifications.
type emitter struct {
	emit func(*Response)
}

func (e *emitter) OnStateEntered(rt *core.Runtime, state *core.State) {
	e.emit(&Response{Notify: map[string]string{"entered": state.Id}})
}

func (e *emitter) OnStateExited(rt *core.Runtime, state *core.State) {
	e.emit(&Response{Notify: map[string]string{"exited": state.Id}})
}

func (e *emitter) OnTransitionFollowed(rt *core.Runtime, t *core.Transition) {
	e.emit(&Response{Notify: map[string]string{"transition": t.DebugString()}})
}

func (e *emitter) OnSendEvent(rt *core.Runtime, event, target, typ, id, data string) {
	e.emit(&Response{Notify: map[string]string{
		"send": event, "target": target, "type": typ, "id": id, "data": data,
	}})
}

// session resumes or creates the machine for (chart, session id).
func (s *service) session(chartName, sessionId string, emit func(*Response)) (*statechart.StateMachine, error) {
	if !s.factory.HasModel(chartName) {
		return nil, fmt.Errorf("no chart named %q", chartName)
	}
	dispatcher := datamodel.NewFunctionDispatcher()

	var m *statechart.StateMachine
	snapshot, err := s.storage.ReadSnapshot(context.Background(), chartName, sessionId)
	switch err {
	case nil:
		m, err = s.factory.NewStateMachineFromContext(chartName, snapshot, dispatcher)
	case store.NotFound:
		m, err = s.factory.NewStateMachine(chartName, dispatcher)
	}
	if err != nil {
		return nil, err
	}
	m.AddListener(&emitter{emit: emit})
	return m, nil
}

// step runs one request against the machine and persists the result.
func (s *service) step(m *statechart.StateMachine, chartName, sessionId string, req *Request) *Response {
	switch req.Op {
	case "start":
		m.Start()
	case "event":
		if req.Name == "" {
			return &Response{Op: req.Op, Error: "event has no name"}
		}
		m.SendEvent(req.Name, req.Payload)
	case "snapshot":
		ctx, err := m.SerializeToContext()
		if err != nil {
			return &Response{Op: req.Op, Error: err.Error()}
		}
		return &Response{Op: req.Op, Ctx: ctx}
	default:
		return &Response{Op: req.Op, Error: "unknown op"}
	}

	resp := &Response{Op: req.Op}
	for _, state := range m.Runtime().ActiveStates() {
		if state.IsAtomic() {
			resp.Active = append(resp.Active, state.Id)
		}
	}

	ctx, err := m.SerializeToContext()
	if err != nil {
		// Not quiescent; should not happen after Start/SendEvent.
		resp.Error = err.Error()
		return resp
	}
	if err := s.storage.WriteSnapshot(context.Background(), chartName, sessionId, ctx); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

var upgrader = websocket.Upgrader{
	// The daemon is an internal tool; trust the peer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *service) serveWS(w http.ResponseWriter, r *http.Request) {
	chartName := r.URL.Query().Get("chart")
	sessionId := r.URL.Query().Get("session")
	if sessionId == "" {
		sessionId = "default"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	emit := func(resp *Response) {
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("write: %v", err)
		}
	}

	m, err := s.session(chartName, sessionId, emit)
	if err != nil {
		emit(&Response{Error: err.Error()})
		return
	}

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			log.Printf("read: %v", err)
			return
		}
		emit(s.step(m, chartName, sessionId, &req))
	}
}

func (s *service) serveStdin(chartName, sessionId string) error {
	out := json.NewEncoder(os.Stdout)
	emit := func(resp *Response) {
		if err := out.Encode(resp); err != nil {
			log.Printf("write: %v", err)
		}
	}

	m, err := s.session(chartName, sessionId, emit)
	if err != nil {
		return err
	}

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := in.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			emit(&Response{Error: err.Error()})
			continue
		}
		emit(s.step(m, chartName, sessionId, &req))
	}
	return in.Err()
}
