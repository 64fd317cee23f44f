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

package mock

import "github.com/poiesic/termnorm/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock profiler and ranker instances.
type MockProvider struct {
	profiler *MockProfiler
	ranker   *MockRanker
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockProfiler()/GetMockRanker() to access concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		profiler: NewMockProfiler(),
		ranker:   NewMockRanker(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(profiler *MockProfiler, ranker *MockRanker) ai.Provider {
	return &MockProvider{
		profiler: profiler,
		ranker:   ranker,
	}
}

// Profiler returns the mock profiler.
func (p *MockProvider) Profiler() ai.Profiler {
	return p.profiler
}

// Ranker returns the mock ranker.
func (p *MockProvider) Ranker() ai.Ranker {
	return p.ranker
}

// Name identifies the mock provider.
func (p *MockProvider) Name() string {
	return "mock"
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockProfiler returns the underlying mock profiler for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockProfiler() *MockProfiler {
	return p.profiler
}

// GetMockRanker returns the underlying mock ranker for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockRanker() *MockRanker {
	return p.ranker
}
