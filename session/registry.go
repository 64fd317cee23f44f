// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/termnorm/core"
)

const (
	// DefaultMaxSessions bounds how many sessions the registry holds before
	// evicting the least recently used one.
	DefaultMaxSessions = 1024

	// DefaultIdleTTL is how long a session may sit untouched before the
	// next registry access sweeps it out.
	DefaultIdleTTL = 30 * time.Minute
)

// Registry keys sessions by caller-supplied ID and evicts on capacity (LRU)
// and idleness (TTL, swept on access). Safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*list.Element
	order       *list.List // front = most recently used
	maxSessions int
	idleTTL     time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*Registry)

// WithMaxSessions overrides the session capacity.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxSessions = n
		}
	}
}

// WithIdleTTL overrides the idle eviction window.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.idleTTL = ttl
		}
	}
}

// WithClock overrides the time source. Tests use this to drive TTL sweeps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a session registry with default capacity and TTL.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions:    make(map[string]*list.Element),
		order:       list.New(),
		maxSessions: DefaultMaxSessions,
		idleTTL:     DefaultIdleTTL,
		now:         time.Now,
		logger:      slog.Default().With("component", "session-registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the session for the ID, or core.ErrNoSession when it does not
// exist or has been evicted.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	elem, ok := r.sessions[id]
	if !ok {
		return nil, core.ErrNoSession
	}
	sess := elem.Value.(*Session)
	sess.touch(now)
	r.order.MoveToFront(elem)
	return sess, nil
}

// GetOrCreate returns the session for the ID, creating it when absent.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	if elem, ok := r.sessions[id]; ok {
		sess := elem.Value.(*Session)
		sess.touch(now)
		r.order.MoveToFront(elem)
		return sess
	}

	if r.order.Len() >= r.maxSessions {
		r.evictOldestLocked()
	}

	sess := newSession(id)
	sess.touch(now)
	r.sessions[id] = r.order.PushFront(sess)
	r.logger.Debug("created session", "session", id, "active", r.order.Len())
	return sess
}

// Reset discards the vocabulary of an existing session, creating the session
// when absent. The session stays registered either way.
func (r *Registry) Reset(id string) *Session {
	sess := r.GetOrCreate(id)
	sess.reset()
	return sess
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// sweepLocked drops sessions idle past the TTL, oldest first.
func (r *Registry) sweepLocked(now time.Time) {
	for {
		back := r.order.Back()
		if back == nil {
			return
		}
		sess := back.Value.(*Session)
		if now.Sub(sess.lastAccess) < r.idleTTL {
			return
		}
		r.order.Remove(back)
		delete(r.sessions, sess.id)
		r.logger.Debug("evicted idle session", "session", sess.id)
	}
}

func (r *Registry) evictOldestLocked() {
	back := r.order.Back()
	if back == nil {
		return
	}
	sess := back.Value.(*Session)
	r.order.Remove(back)
	delete(r.sessions, sess.id)
	r.logger.Debug("evicted session at capacity", "session", sess.id)
}
