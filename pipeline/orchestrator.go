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

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/termnorm/ai"
	"github.com/poiesic/termnorm/core"
	"github.com/poiesic/termnorm/match"
	"github.com/poiesic/termnorm/research"
	"github.com/poiesic/termnorm/session"
	"github.com/poiesic/termnorm/storage"
)

// Match methods recorded in responses and persisted records.
const (
	MethodLLMRanking  = "llm_ranking"
	MethodLexicalOnly = "lexical_only"
)

const (
	defaultMaxSites = 5
	batchMaxSites   = 2
	batchTopN       = 3
)

// Researcher is the slice of the research package the orchestrator needs.
// Satisfied by *research.Researcher; tests substitute their own.
type Researcher interface {
	SearchAndScrape(ctx context.Context, query string, maxSites int) (*core.ResearchResult, error)
}

var _ Researcher = (*research.Researcher)(nil)

// Orchestrator drives queries through the pipeline state machine. Stages run
// strictly in order; the context is checked at every stage boundary so a
// disconnected caller never pays for an LLM call.
type Orchestrator struct {
	sessions   *session.Registry
	researcher Researcher
	provider   ai.Provider
	store      storage.MatchStore
	maxSites   int
	logger     *slog.Logger
}

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator)

// WithMaxSites overrides how many pages a full pipeline run scrapes.
func WithMaxSites(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSites = n
		}
	}
}

// NewOrchestrator wires the pipeline's collaborators together.
func NewOrchestrator(sessions *session.Registry, researcher Researcher, provider ai.Provider, store storage.MatchStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions:   sessions,
		researcher: researcher,
		provider:   provider,
		store:      store,
		maxSites:   defaultMaxSites,
		logger:     slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UpdateMatcher creates or extends the session's vocabulary. ForceReset
// discards the existing vocabulary first; a missing session is created
// either way.
func (o *Orchestrator) UpdateMatcher(ctx context.Context, sessionID string, req UpdateMatcherRequest) (*UpdateMatcherResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var sess *session.Session
	created := req.ForceReset
	if req.ForceReset {
		sess = o.sessions.Reset(sessionID)
	} else {
		var err error
		sess, err = o.sessions.Get(sessionID)
		if err != nil {
			sess = o.sessions.GetOrCreate(sessionID)
			created = true
		}
	}

	sess.AddTerms(req.Terms)

	resp := &UpdateMatcherResponse{
		Created: created,
		Elapsed: time.Since(start),
	}
	if created {
		resp.TotalTerms = len(req.Terms)
		resp.UniqueTerms = sess.UniqueTerms()
		resp.DuplicatesRemoved = len(req.Terms) - sess.UniqueTerms()
	} else {
		resp.TotalUniqueTerms = sess.UniqueTerms()
	}

	o.logger.Debug("updated matcher",
		"session", sessionID,
		"created", created,
		"terms", len(req.Terms),
		"unique", sess.UniqueTerms())
	return resp, nil
}

// InitSession initializes a session's vocabulary. It shares the creation
// path with UpdateMatcher: initializing always starts from an empty matcher.
func (o *Orchestrator) InitSession(ctx context.Context, sessionID string, req InitSessionRequest) (*UpdateMatcherResponse, error) {
	return o.UpdateMatcher(ctx, sessionID, UpdateMatcherRequest{Terms: req.Terms, ForceReset: true})
}

// QuickMatch runs the lexical matcher only, no research or LLM stages.
func (o *Orchestrator) QuickMatch(ctx context.Context, sessionID string, req QuickMatchRequest) (*QuickMatchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	sess, err := o.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	candidates := sess.Matcher().Match(req.Query)
	return &QuickMatchResponse{
		Query:      req.Query,
		Candidates: candidates,
		Elapsed:    time.Since(start),
	}, nil
}

// ResearchAndMatch runs the full pipeline for one query.
func (o *Orchestrator) ResearchAndMatch(ctx context.Context, sessionID string, req MatchRequest) (*MatchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return o.run(ctx, sessionID, req.Query, req.Query, runOptions{
		maxSites:    o.maxSites,
		skipRanking: req.SkipLLMRanking,
	})
}

// BatchItem runs the lightweight batch variant: fewer scrape sites and only
// the top candidates in the response. Context text, when present, sharpens
// the research query.
func (o *Orchestrator) BatchItem(ctx context.Context, sessionID, batchID string, req BatchItemRequest) (*MatchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	researchQuery := req.Query
	if strings.TrimSpace(req.Context) != "" {
		researchQuery = req.Query + " " + strings.TrimSpace(req.Context)
	}

	resp, err := o.run(ctx, sessionID, req.Query, researchQuery, runOptions{
		maxSites:    batchMaxSites,
		topN:        batchTopN,
		skipRanking: false,
	})
	if resp != nil {
		o.logger.Debug("batch item processed", "batch", batchID, "session", sessionID, "status", resp.Status)
	}
	return resp, err
}

type runOptions struct {
	maxSites    int
	topN        int // 0 means all
	skipRanking bool
}

// run executes the state machine. On abort it returns the partial response
// alongside the error; the trace is persisted either way.
func (o *Orchestrator) run(ctx context.Context, sessionID, query, researchQuery string, opt runOptions) (*MatchResponse, error) {
	start := time.Now()
	state := StateInit

	sess, err := o.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &MatchResponse{
		Query:       query,
		Method:      MethodLLMRanking,
		LLMProvider: o.provider.Name(),
		Status:      StatusDone,
	}
	if opt.skipRanking {
		resp.Method = MethodLexicalOnly
	}
	trace := &core.PipelineTrace{
		TraceID:   core.IDFromContent(sessionID + "|" + query + "|" + start.UTC().Format(time.RFC3339Nano)),
		SessionID: sessionID,
		Query:     query,
		Method:    resp.Method,
		StartedAt: start.UTC(),
		Day:       core.UTCDay(start),
	}

	logger := o.logger.With("session", sessionID, "query", query)

	// RESEARCHING
	if err := o.advance(ctx, &state, StateResearching); err != nil {
		return o.abort(ctx, resp, trace, state, start, err)
	}
	researchResult, err := o.researcher.SearchAndScrape(ctx, researchQuery, opt.maxSites)
	if err != nil {
		return o.abort(ctx, resp, trace, state, start, err)
	}
	o.attachSources(resp, trace, researchResult)

	// MATCHING: profile the query, then derive search terms for the matcher
	if err := o.advance(ctx, &state, StateMatching); err != nil {
		return o.abort(ctx, resp, trace, state, start, err)
	}
	profile, err := o.provider.Profiler().ExtractProfile(ctx, researchQuery, researchResult.Pages)
	if err != nil {
		return o.abort(ctx, resp, trace, state, start, err)
	}
	trace.Profile = profile

	searchTerms := deriveSearchTerms(query, profile)
	candidates := sess.Matcher().Match(searchTerms...)
	logger.Debug("matched candidates", "searchTerms", len(searchTerms), "candidates", len(candidates))

	if len(candidates) == 0 {
		// Not an error: the run completes with the no-match target
		return o.finish(ctx, resp, trace, profile, researchResult, nil, start, logger)
	}

	// RANKING
	if err := o.advance(ctx, &state, StateRanking); err != nil {
		return o.abort(ctx, resp, trace, state, start, err)
	}
	var ranking *core.RankingResult
	if opt.skipRanking {
		ranking = lexicalRanking(candidates)
	} else {
		ranking, err = o.provider.Ranker().RankCandidates(ctx, query, profile, candidates)
		if err != nil {
			return o.abort(ctx, resp, trace, state, start, err)
		}
	}

	// CORRECTING
	if err := o.advance(ctx, &state, StateCorrecting); err != nil {
		return o.abort(ctx, resp, trace, state, start, err)
	}
	match.Correct(ranking, candidates)

	ranked := ranking.RankedCandidates
	if opt.topN > 0 && len(ranked) > opt.topN {
		ranked = ranked[:opt.topN]
	}
	return o.finish(ctx, resp, trace, profile, researchResult, ranked, start, logger)
}

// advance moves the state machine forward, aborting when the caller is gone.
func (o *Orchestrator) advance(ctx context.Context, state *State, next State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w before %s: %s", core.ErrPipelineAborted, next, err)
	}
	*state = next
	return nil
}

// finish runs the PERSISTED stage and closes out the response.
func (o *Orchestrator) finish(ctx context.Context, resp *MatchResponse, trace *core.PipelineTrace, profile core.EntityProfile, researchResult *core.ResearchResult, ranked []core.RankedCandidate, start time.Time, logger *slog.Logger) (*MatchResponse, error) {
	resp.RankedCandidates = ranked
	resp.Target = core.NoMatchTarget
	resp.Confidence = 0
	if len(ranked) > 0 {
		resp.Target = ranked[0].Candidate
		resp.Confidence = ranked[0].RelevanceScore
	}
	resp.TotalTime = time.Since(start)

	trace.Target = resp.Target
	trace.Confidence = resp.Confidence
	trace.Status = StatusDone
	trace.Elapsed = resp.TotalTime
	trace.WebSources = researchResult.SourceURLs()

	record := &core.MatchRecord{
		Source:        resp.Query,
		Target:        resp.Target,
		Method:        resp.Method,
		Confidence:    resp.Confidence,
		Timestamp:     start.UTC(),
		SessionID:     trace.SessionID,
		WebSources:    researchResult.SourceURLs(),
		EntityProfile: profile,
	}

	// Persistence failures abort the run; the caller must not see DONE for
	// a match that was never recorded.
	if err := o.store.RecordMatch(ctx, record); err != nil {
		return o.abort(ctx, resp, trace, StatePersisted, start, err)
	}
	if err := o.store.PutTrace(ctx, trace); err != nil {
		logger.Error("failed to persist trace", "err", err)
	}

	logger.Info("pipeline done",
		"target", resp.Target,
		"confidence", resp.Confidence,
		"elapsed", resp.TotalTime)
	return resp, nil
}

// abort closes out a run that cannot proceed. Partial results accumulated so
// far stay on the response, and the trace is still persisted for experiment
// tracking. The trace write uses a fresh context since the caller's may
// already be canceled.
func (o *Orchestrator) abort(ctx context.Context, resp *MatchResponse, trace *core.PipelineTrace, state State, start time.Time, cause error) (*MatchResponse, error) {
	resp.Status = StatusAborted
	resp.Target = core.NoMatchTarget
	resp.Confidence = 0
	resp.TotalTime = time.Since(start)

	trace.Status = StatusAborted
	trace.Target = ""
	trace.Elapsed = resp.TotalTime

	traceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.store.PutTrace(traceCtx, trace); err != nil {
		o.logger.Error("failed to persist abort trace", "err", err)
	}

	o.logger.Warn("pipeline aborted",
		"session", trace.SessionID,
		"query", trace.Query,
		"state", state,
		"err", cause)

	if ctx.Err() != nil && !isAbortError(cause) {
		cause = fmt.Errorf("%w in %s: %s", core.ErrPipelineAborted, state, cause)
	}
	return resp, cause
}

func isAbortError(err error) bool {
	return errors.Is(err, core.ErrPipelineAborted)
}

// attachSources fills the response's provenance block and the trace's search
// log from the research result.
func (o *Orchestrator) attachSources(resp *MatchResponse, trace *core.PipelineTrace, result *core.ResearchResult) {
	trace.SearchLog = result.SearchLog

	sources := &SourcesDebug{SearchMethod: result.SearchMethod}
	if result.Fallback {
		resp.WebSearchStatus = "failed"
		resp.WebSearchError = "all search engines returned no results"
		sources.SearchLog = result.SearchLog
		sources.FailedCount = len(result.FailedURLs)
		sources.Fallback = research.FallbackMethod
	} else {
		resp.WebSearchStatus = "success"
		sources.URLs = result.SourceURLs()
	}
	resp.Sources = sources
}

// deriveSearchTerms aggregates the query with the flattened profile,
// whitespace-split and deduplicated, preserving first-seen order.
func deriveSearchTerms(query string, profile core.EntityProfile) []string {
	raw := append([]string{query}, core.FlattenProfile(profile)...)

	seen := make(map[string]struct{})
	terms := make([]string, 0, len(raw))
	for _, value := range raw {
		for _, word := range strings.Fields(value) {
			key := strings.ToLower(word)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			terms = append(terms, word)
		}
	}
	return terms
}

// lexicalRanking builds a ranking straight from token-match scores for the
// skip-ranking fast path.
func lexicalRanking(candidates []core.CandidateScore) *core.RankingResult {
	ranked := make([]core.RankedCandidate, 0, len(candidates))
	for i, c := range candidates {
		ranked = append(ranked, core.RankedCandidate{
			Rank:             i + 1,
			Candidate:        c.Term,
			CoreConceptScore: c.Score,
			SpecScore:        0,
			RelevanceScore:   core.BlendRelevance(c.Score, 0),
		})
	}
	return &core.RankingResult{
		RankedCandidates:   ranked,
		RankingExplanation: "lexical token-match order, LLM ranking skipped",
		Skipped:            true,
	}
}
