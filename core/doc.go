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

// Package core implements the statechart interpretation algorithm.
//
// A Model is an immutable chart graph.  A Runtime is one live
// session: the active-state configuration, the internal event queue,
// and the datamodel.  The Executor advances a Runtime against a
// Model: Start enters the initial configuration and SendEvent
// processes one external event; both run one full macrostep
// (eventless transitions and internal events interleaved until
// quiescence) before returning.
//
// The algorithm follows the W3C SCXML semantics: transition selection
// with conflict removal, entry- and exit-set computation over
// compound and parallel states, done-event propagation, and a bounded
// microstep loop.
//
// A Model and an Executor may be shared across sessions; a Runtime
// belongs to exactly one session and is never safe for concurrent
// use.
package core
