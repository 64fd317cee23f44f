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


// Package ai provides abstractions for the AI services used in Termnorm.
//
// This package defines interfaces for entity-profile extraction and
// candidate ranking. It follows the dependency inversion principle, allowing
// the pipeline and business logic to depend on abstractions rather than
// concrete implementations.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Profiler: converts research text into structured entity profiles
//   - Ranker: orders matched candidates by relevance to a profile
//   - Provider: aggregates AI services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewProfiler, ...) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewMockProfiler, mock.NewMockRanker)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields (CallCount, XFunc, Reset).
//
// # Failure Semantics
//
// Provider calls are wrapped in the configured retry.Policy: transient
// transport errors and unparseable model output are both retried on the same
// schedule, and only an exhausted policy surfaces an error (wrapped in
// core.ErrProviderUnavailable). Search and scrape degradation never reaches
// this package; an empty page list simply produces an ungrounded profile.
package ai
