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

// Package store persists session snapshots in a bolt database: one
// bucket per chart, one key per session id, the value a JSON-encoded
// statechart.Context.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	bolt "go.etcd.io/bbolt"

	statechart "github.com/google/statechart"
)

// NotFound occurs when a session has no stored snapshot.
var NotFound = errors.New("snapshot not found")

// Storage is snapshot persistence over a bolt file.
type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

// NewStorage makes a Storage for the given filename.  Call Open before
// use.
func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

// Open opens the underlying database file.
func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Storage) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s == nil {
		return
	}
	if s.Debug {
		log.Printf("BoltDB "+format, args...)
	}
}

// EnsureChart creates the bucket for a chart's sessions.
func (s *Storage) EnsureChart(ctx context.Context, chartName string) error {
	if s == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(chartName))
		return err
	})
}

// RemChart removes a chart's bucket and every snapshot in it.
func (s *Storage) RemChart(ctx context.Context, chartName string) error {
	if s == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.DeleteBucket([]byte(chartName))
	})
}

// WriteSnapshot stores a session snapshot.  A nil snapshot deletes the
// session's entry.
func (s *Storage) WriteSnapshot(ctx context.Context, chartName, sessionId string, snapshot *statechart.Context) error {
	if s == nil {
		return nil
	}
	var js []byte
	if snapshot != nil {
		var err error
		if js, err = json.Marshal(snapshot); err != nil {
			return err
		}
	}
	s.logf("WriteSnapshot %s/%s %s", chartName, sessionId, js)
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(chartName))
		if err != nil {
			return err
		}
		if js == nil {
			return b.Delete([]byte(sessionId))
		}
		return b.Put([]byte(sessionId), js)
	})
}

// ReadSnapshot loads a session snapshot.  Returns NotFound if the
// session has none.
func (s *Storage) ReadSnapshot(ctx context.Context, chartName, sessionId string) (*statechart.Context, error) {
	if s == nil {
		return nil, NotFound
	}
	var snapshot *statechart.Context
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(chartName))
		if b == nil {
			return nil
		}
		js := b.Get([]byte(sessionId))
		if js == nil {
			return nil
		}
		snapshot = &statechart.Context{}
		return json.Unmarshal(js, snapshot)
	})
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, NotFound
	}
	s.logf("ReadSnapshot %s/%s", chartName, sessionId)
	return snapshot, nil
}

// ListSessions returns the session ids stored for a chart.
func (s *Storage) ListSessions(ctx context.Context, chartName string) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(chartName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
