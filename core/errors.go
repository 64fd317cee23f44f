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


package core

import "errors"

// Domain errors. Pipeline-fatal conditions carry one of these sentinels so
// the boundary can map them to stable error codes.
var (
	// ErrEmptyQuery indicates a match request with no query text.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTerms indicates a term list that is missing or empty.
	ErrInvalidTerms = errors.New("terms cannot be empty")

	// ErrNoSession indicates that no matcher session exists for the caller.
	// The caller must initialize a session before matching.
	ErrNoSession = errors.New("no matcher session: initialize terms first")

	// ErrPipelineAborted indicates the caller went away mid-pipeline.
	// Partial results are preserved alongside this error.
	ErrPipelineAborted = errors.New("pipeline aborted by caller")

	// ErrProviderUnavailable indicates the LLM provider failed after
	// exhausting retries. Maps to a 503-equivalent at the boundary.
	ErrProviderUnavailable = errors.New("LLM provider unavailable")

	// ErrInvalidRecord indicates a MatchRecord failed validation.
	ErrInvalidRecord = errors.New("invalid match record")
)
