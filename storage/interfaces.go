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

package storage

import (
	"context"

	"github.com/poiesic/termnorm/core"
)

// MatchStore persists normalization outcomes keyed by target term, plus the
// per-run trace stream.
type MatchStore interface {
	// RecordMatch folds a completed match into the target's entry. The
	// source becomes (or updates) an alias of the target; when the source
	// was previously aliased to a different target, the old entry is kept
	// and its CurrentTarget is pointed at the new target. Alias history is
	// never deleted.
	RecordMatch(ctx context.Context, record *core.MatchRecord) error

	// GetTarget retrieves the aggregate entry for a target term.
	// Returns ErrNotFound if the target has never been matched.
	GetTarget(ctx context.Context, target string) (*core.TargetEntry, error)

	// ListTargets retrieves every target entry, ordered by target term.
	ListTargets(ctx context.Context) ([]*core.TargetEntry, error)

	// PutTrace appends a pipeline trace. Traces are written for every run,
	// aborted ones included, and are never mutated afterwards.
	PutTrace(ctx context.Context, trace *core.PipelineTrace) error

	// ListTraces retrieves all traces ordered by day bucket, then by
	// insertion order within the day.
	ListTraces(ctx context.Context) ([]*core.PipelineTrace, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
