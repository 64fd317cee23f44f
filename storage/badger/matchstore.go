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

package badger

import (
	"context"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/poiesic/termnorm/core"
	"github.com/poiesic/termnorm/storage"
)

// MatchStore implements storage.MatchStore on a BadgerDB backend.
type MatchStore struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MatchStore = (*MatchStore)(nil)

// NewMatchStore creates a MatchStore on the given backend.
func NewMatchStore(backend *Backend) (*MatchStore, error) {
	idSeq, err := backend.GetSequence(traceIDSeq)
	if err != nil {
		return nil, err
	}

	return &MatchStore{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the trace ID sequence. The backend is closed separately by
// its owner.
func (s *MatchStore) Close() error {
	return s.idSeq.Release()
}

// RecordMatch folds one completed match into the target's entry within a
// single transaction. Reassigning a source to a new target keeps the old
// alias entry and points its CurrentTarget forward.
func (s *MatchStore) RecordMatch(ctx context.Context, record *core.MatchRecord) error {
	if err := core.ValidateMatchRecord(record); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		prevTarget, err := s.readAliasTarget(tx, record.Source)
		if err != nil {
			return err
		}

		if prevTarget != "" && !strings.EqualFold(prevTarget, record.Target) {
			if err := s.redirectAlias(tx, prevTarget, record.Source, record.Target); err != nil {
				return err
			}
		}

		entry, err := s.readTarget(tx, record.Target)
		if err != nil && err != storage.ErrNotFound {
			return err
		}
		if entry == nil {
			entry = &core.TargetEntry{
				Target:  record.Target,
				Aliases: make(map[string]core.AliasEntry),
			}
		}

		entry.Aliases[record.Source] = core.AliasEntry{
			Timestamp:  record.Timestamp,
			Method:     record.Method,
			Confidence: record.Confidence,
		}
		if len(record.EntityProfile) > 0 {
			entry.EntityProfile = record.EntityProfile
		}
		if len(record.WebSources) > 0 {
			entry.WebSources = record.WebSources
		}
		entry.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalTargetEntry(entry)
		if err != nil {
			return err
		}
		if err := tx.Set(makeTargetKey(record.Target), value); err != nil {
			return err
		}
		if err := tx.Set(makeAliasKey(record.Source), []byte(record.Target)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// redirectAlias marks the alias entry on the old target as superseded.
func (s *MatchStore) redirectAlias(tx *badger.Txn, oldTarget, source, newTarget string) error {
	entry, err := s.readTarget(tx, oldTarget)
	if err != nil {
		if err == storage.ErrNotFound {
			// Index points at a target that was never written; nothing to
			// redirect.
			return nil
		}
		return err
	}

	alias, ok := entry.Aliases[source]
	if !ok {
		return nil
	}
	alias.CurrentTarget = newTarget
	entry.Aliases[source] = alias

	value, err := storage.MarshalTargetEntry(entry)
	if err != nil {
		return err
	}
	return tx.Set(makeTargetKey(oldTarget), value)
}

// GetTarget retrieves the aggregate entry for a target term.
func (s *MatchStore) GetTarget(ctx context.Context, target string) (*core.TargetEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *core.TargetEntry
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		entry, err = s.readTarget(tx, target)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListTargets retrieves every target entry, ordered by target term.
func (s *MatchStore) ListTargets(ctx context.Context) ([]*core.TargetEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []*core.TargetEntry
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(targetRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalTargetEntry(val)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PutTrace appends a pipeline trace, assigning a sequence ID when the trace
// has none.
func (s *MatchStore) PutTrace(ctx context.Context, trace *core.PipelineTrace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if trace.Day == "" {
		trace.Day = core.UTCDay(trace.StartedAt)
	}

	seq, err := s.nextTraceID()
	if err != nil {
		return err
	}
	if trace.TraceID == 0 {
		trace.TraceID = core.ID(seq)
	}

	value, err := storage.MarshalTrace(trace)
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeTraceKey(trace.Day, seq), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListTraces retrieves all traces ordered by day, then insertion order.
func (s *MatchStore) ListTraces(ctx context.Context) ([]*core.PipelineTrace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var traces []*core.PipelineTrace
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(tracePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				trace, err := storage.UnmarshalTrace(val)
				if err != nil {
					return err
				}
				traces = append(traces, trace)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return traces, nil
}

func (s *MatchStore) readTarget(tx *badger.Txn, target string) (*core.TargetEntry, error) {
	item, err := tx.Get(makeTargetKey(target))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var entry *core.TargetEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalTargetEntry(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *MatchStore) readAliasTarget(tx *badger.Txn, source string) (string, error) {
	item, err := tx.Get(makeAliasKey(source))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", nil
		}
		return "", err
	}

	var target string
	err = item.Value(func(val []byte) error {
		target = string(val)
		return nil
	})
	return target, err
}

// nextTraceID skips the zero value so trace IDs are always positive.
func (s *MatchStore) nextTraceID() (uint64, error) {
	seq, err := s.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if seq == 0 {
		seq, err = s.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return seq, nil
}
