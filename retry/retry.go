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


// Package retry provides a reusable retry policy with exponential backoff.
// The same policy object serves the LLM-call and search-call boundaries.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when MaxAttempts is <= 0.
var ErrInvalidMaxAttempts = errors.New("MaxAttempts must be greater than 0")

// Policy describes how an operation is retried: how many attempts, the
// backoff schedule, an optional per-attempt timeout, and which errors are
// worth retrying.
type Policy struct {
	// MaxAttempts is the total number of attempts (must be > 0).
	MaxAttempts int

	// BaseDelay is the delay after the first failed attempt; it doubles on
	// each subsequent failure (BaseDelay, 2*BaseDelay, 4*BaseDelay, ...).
	BaseDelay time.Duration

	// AttemptTimeout bounds each individual attempt. Zero means no
	// per-attempt bound beyond the caller's context.
	AttemptTimeout time.Duration

	// Retryable reports whether an error should trigger another attempt.
	// Nil means every error is retryable.
	Retryable func(error) bool
}

// DefaultPolicy is the provider-call policy: 3 attempts with 1s, 2s, 4s
// backoff and a 60 second per-attempt timeout.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		AttemptTimeout: 60 * time.Second,
	}
}

// Do runs the operation under the policy. The context is checked before each
// attempt and while sleeping between attempts, so cancellation is never
// delayed by backoff. Returns the error from the last attempt when all
// attempts fail, or the context error on cancellation.
func (p Policy) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = p.runAttempt(ctx, operation)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			slog.Debug("operation failed with non-retryable error", "attempt", attempt, "error", lastErr)
			return lastErr
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt, "maxAttempts", p.MaxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == p.MaxAttempts {
			break
		}

		// Exponential backoff: BaseDelay * 2^(attempt-1)
		delay := p.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func (p Policy) runAttempt(ctx context.Context, operation func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return operation(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return operation(attemptCtx)
}
