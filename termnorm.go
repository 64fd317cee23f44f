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

// Package termnorm normalizes free-text terms against controlled
// vocabularies by researching each query on the web, profiling it with an
// LLM, and ranking the vocabulary candidates a token matcher surfaces.
package termnorm

import (
	"log/slog"

	"github.com/poiesic/termnorm/ai"
	"github.com/poiesic/termnorm/ai/openai"
	"github.com/poiesic/termnorm/pipeline"
	"github.com/poiesic/termnorm/research"
	"github.com/poiesic/termnorm/session"
	"github.com/poiesic/termnorm/storage"
	"github.com/poiesic/termnorm/storage/badger"
)

// Service bundles the storage backend, AI provider, researcher, session
// registry, and pipeline behind one lifecycle.
type Service struct {
	backend    *badger.Backend
	store      storage.MatchStore
	provider   ai.Provider
	researcher *research.Researcher
	sessions   *session.Registry
	pipeline   *pipeline.Orchestrator
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig     *ai.Config
	provider     ai.Provider
	researchOpts []research.Option
	pipelineOpts []pipeline.Option
	sessionOpts  []session.RegistryOption
	inMemory     bool
}

// WithAIConfig sets the OpenAI-compatible provider configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider instead of constructing the
// OpenAI one. Tests use this with ai/mock.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithResearchOptions forwards options to the web researcher.
func WithResearchOptions(opts ...research.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.researchOpts = append(o.researchOpts, opts...)
	}
}

// WithPipelineOptions forwards options to the pipeline orchestrator.
func WithPipelineOptions(opts ...pipeline.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithSessionOptions forwards options to the session registry.
func WithSessionOptions(opts ...session.RegistryOption) ServiceOption {
	return func(o *serviceOptions) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}

// WithInMemoryStore keeps all persisted state in memory. For tests and
// one-off runs.
func WithInMemoryStore() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// NewService opens the match database at dbPath and wires the full pipeline
// on top of it.
func NewService(dbPath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dbPath, options.inMemory)
	if err != nil {
		return nil, err
	}

	store, err := badger.NewMatchStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			backend.Close()
			return nil, err
		}
	}

	researcher, err := research.NewResearcher(options.researchOpts...)
	if err != nil {
		provider.Close()
		store.Close()
		backend.Close()
		return nil, err
	}

	sessions := session.NewRegistry(options.sessionOpts...)

	return &Service{
		backend:    backend,
		store:      store,
		provider:   provider,
		researcher: researcher,
		sessions:   sessions,
		pipeline:   pipeline.NewOrchestrator(sessions, researcher, provider, store, options.pipelineOpts...),
		logger:     slog.Default(),
	}, nil
}

// Close releases every resource the service owns.
func (s *Service) Close() error {
	s.researcher.Close()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing match store", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Pipeline returns the orchestrator carrying all operations.
func (s *Service) Pipeline() *pipeline.Orchestrator {
	return s.pipeline
}

// Store returns the match store for export and inspection.
func (s *Service) Store() storage.MatchStore {
	return s.store
}

// Sessions returns the session registry.
func (s *Service) Sessions() *session.Registry {
	return s.sessions
}
