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
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poiesic/termnorm/core"
)

// ExportFileName is the canonical snapshot file name.
const ExportFileName = "match_database.json"

// Snapshot is the exported shape of the target database.
type Snapshot struct {
	BuiltAt time.Time                    `json:"built_at"`
	Targets map[string]*core.TargetEntry `json:"targets"`
}

// ExportMetadata is the provenance sidecar written next to the snapshot.
type ExportMetadata struct {
	BuiltAt     time.Time `json:"built_at"`
	TargetCount int       `json:"target_count"`
	AliasCount  int       `json:"alias_count"`
	Rebuilt     bool      `json:"rebuilt"`
}

// BuildSnapshot assembles a snapshot from the live target entries.
func BuildSnapshot(ctx context.Context, store MatchStore) (*Snapshot, error) {
	entries, err := store.ListTargets(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		BuiltAt: time.Now().UTC(),
		Targets: make(map[string]*core.TargetEntry, len(entries)),
	}
	for _, entry := range entries {
		snap.Targets[entry.Target] = entry
	}
	return snap, nil
}

// BuildSnapshotFromTraces reconstructs a snapshot by replaying the trace
// stream in order. Aborted runs and no-match outcomes are skipped; alias
// reassignment is replayed the same way the live store applies it.
func BuildSnapshotFromTraces(ctx context.Context, store MatchStore) (*Snapshot, error) {
	traces, err := store.ListTraces(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		BuiltAt: time.Now().UTC(),
		Targets: make(map[string]*core.TargetEntry),
	}
	aliasTarget := make(map[string]string)

	for _, trace := range traces {
		if trace.Status != "done" || trace.Target == "" || trace.Target == core.NoMatchTarget {
			continue
		}

		source := strings.ToLower(trace.Query)
		if prev, ok := aliasTarget[source]; ok && !strings.EqualFold(prev, trace.Target) {
			if entry, ok := snap.Targets[prev]; ok {
				if alias, ok := entry.Aliases[trace.Query]; ok {
					alias.CurrentTarget = trace.Target
					entry.Aliases[trace.Query] = alias
				}
			}
		}

		entry, ok := snap.Targets[trace.Target]
		if !ok {
			entry = &core.TargetEntry{
				Target:  trace.Target,
				Aliases: make(map[string]core.AliasEntry),
			}
			snap.Targets[trace.Target] = entry
		}
		entry.Aliases[trace.Query] = core.AliasEntry{
			Timestamp:  trace.StartedAt,
			Method:     trace.Method,
			Confidence: trace.Confidence,
		}
		if len(trace.Profile) > 0 {
			entry.EntityProfile = trace.Profile
		}
		if len(trace.WebSources) > 0 {
			entry.WebSources = trace.WebSources
		}
		entry.UpdatedAt = trace.StartedAt
		aliasTarget[source] = trace.Target
	}

	return snap, nil
}

// WriteSnapshot writes the snapshot and its metadata sidecar
// (<path>.meta.json). Targets are emitted in sorted order for stable diffs.
func WriteSnapshot(snap *Snapshot, path string, rebuilt bool) error {
	// encoding/json sorts map keys, so output is already stable
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: snapshot: %s", ErrSerializationFailed, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	aliases := 0
	for _, entry := range snap.Targets {
		aliases += len(entry.Aliases)
	}
	meta := ExportMetadata{
		BuiltAt:     snap.BuiltAt,
		TargetCount: len(snap.Targets),
		AliasCount:  aliases,
		Rebuilt:     rebuilt,
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: export metadata: %s", ErrSerializationFailed, err)
	}
	return os.WriteFile(MetadataPath(path), metaData, 0644)
}

// MetadataPath returns the sidecar path for a snapshot path.
func MetadataPath(path string) string {
	return path + ".meta.json"
}

// SnapshotStale reports whether the snapshot at path needs rebuilding:
// either the file is missing or the store changed after it was written.
func SnapshotStale(path string, lastStoreUpdate time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return lastStoreUpdate.After(info.ModTime())
}
