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

// Package pipeline orchestrates term normalization end-to-end.
//
// A full run moves through a fixed sequence of stages: web research,
// profiling plus lexical matching, LLM ranking, string correction, and
// persistence. The caller's context is checked before each stage, so a
// disconnected client aborts the run before the next expensive call; an
// aborted run still returns its partial results and leaves a trace.
//
// A query with no lexical candidates completes successfully with the
// no-match target and zero confidence. Research failures degrade to
// model-knowledge-only profiling rather than failing the run; only
// exhausted LLM retries and persistence failures abort it.
//
// Besides the full ResearchAndMatch operation, the orchestrator exposes a
// lexical-only QuickMatch, a lightweight BatchItem variant, and the
// vocabulary management operations UpdateMatcher and InitSession.
package pipeline
