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

// Package mock provides test doubles for the ai package interfaces.
//
// The mocks allow deterministic pipeline testing without a model server.
// Each mock supports custom behavior injection via function fields:
//
//	profiler := mock.NewMockProfiler()
//	profiler.ExtractProfileFunc = func(ctx context.Context, query string, pages []core.ScrapedPage) (core.EntityProfile, error) {
//	    return core.EntityProfile{"core_concept": "cutting"}, nil
//	}
//
//	// Check call counts
//	count := profiler.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockProfiler: Builds a profile from the query words
//   - MockRanker: Ranks candidates in the order given
//   - MockProvider: Aggregates mock profiler and ranker
package mock
