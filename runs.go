/**
 * Copyright 2026 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */
package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"huffpack/huffman"
)

const (
	OP_COMPRESS   = "compress"
	OP_DECOMPRESS = "decompress"
)

var ErrNotFound = errors.New("not found")

type Run struct {
	ID        string          `json:"id"`
	Op        string          `json:"op"`
	Filename  string          `json:"filename"`
	CreatedAt time.Time       `json:"created_at"`
	Metrics   huffman.Metrics `json:"metrics"`
}

func NewRun(op, filename string, m huffman.Metrics) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Op:        op,
		Filename:  filename,
		CreatedAt: time.Now(),
		Metrics:   m,
	}
}

type RunStore interface {
	Save(r *Run) error
	FindByID(id string) (*Run, error)
	List() ([]*Run, error)
}

// runStoreInMemory keeps the last limit runs; the oldest one is dropped
// first.
type runStoreInMemory struct {
	mu    sync.RWMutex
	order []string
	store map[string]*Run
	limit int
}

func NewRunStoreInMemory(limit int) RunStore {
	if limit <= 0 {
		limit = 1
	}
	return &runStoreInMemory{
		store: make(map[string]*Run),
		limit: limit,
	}
}

func (s *runStoreInMemory) Save(r *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.store[r.ID] = r

	for len(s.order) > s.limit {
		delete(s.store, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *runStoreInMemory) FindByID(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// List returns runs newest first.
func (s *runStoreInMemory) List() ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.store[s.order[i]])
	}
	return out, nil
}

type RunEvent struct {
	Type string `json:"type"`
	Run  *Run   `json:"run,omitempty"`
}

// Feed fans run events out to websocket subscribers. A subscriber that
// is not keeping up loses events instead of stalling the request that
// produced them.
type Feed struct {
	subscribers map[chan RunEvent]struct{}
	mu          sync.Mutex
}

func NewFeed() *Feed {
	return &Feed{
		subscribers: make(map[chan RunEvent]struct{}),
	}
}

func (f *Feed) Broadcast(event RunEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			// slow reader
		}
	}
}

// Subscribe registers a new listener. The returned function removes it
// and closes the channel.
func (f *Feed) Subscribe() (<-chan RunEvent, func()) {
	ch := make(chan RunEvent, 16)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subscribers)
}

// vim: ai:ts=8:sw=8:noet:syntax=go
