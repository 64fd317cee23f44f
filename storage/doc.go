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

// Package storage defines the persistence contracts for match outcomes.
//
// The MatchStore interface keeps two kinds of state: target entries, an
// aggregate per vocabulary term with an append-only alias history, and
// pipeline traces, one immutable record per run. Values are stored as JSON
// because entity profiles are schemaless documents.
//
// The export facilities snapshot the target database to a JSON file with a
// provenance sidecar, and can rebuild that snapshot from the trace stream
// when the live export is missing or stale.
//
// Backend implementations live in subpackages; storage/badger provides the
// BadgerDB implementation used in production and an in-memory constructor
// for tests.
package storage
