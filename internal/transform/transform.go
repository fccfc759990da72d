// Package transform implements the L2 extraction stage from spec.md §4.3:
// a bounded-retry finite state machine that turns one fetcher payload into
// a set of CandidateTrade records via an LLM, with a deterministic JSON
// recovery chain and schema validation gating each retry decision.
//
// The FSM is written as an explicit state variable driving a switch, not
// recursive retry calls, mirroring the teacher's orchestration pattern in
// internal/application/pipeline (explicit phase enums over recursion).
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/errs"
	"github.com/sawpanic/capitolflow/internal/fetch"
)

// state is the Transformer FSM's current position (spec.md §4.3: S0
// EXTRACT -> S1 PARSE -> S2 VALIDATE -> S3 RETRY -> S4 DONE / S5 FAILED).
type state int

const (
	stateExtract state = iota
	stateParse
	stateValidate
	stateRetry
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateExtract:
		return "EXTRACT"
	case stateParse:
		return "PARSE"
	case stateValidate:
		return "VALIDATE"
	case stateRetry:
		return "RETRY"
	case stateDone:
		return "DONE"
	case stateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Transformer runs the EXTRACT/PARSE/VALIDATE/RETRY state machine against
// one fetcher result at a time.
type Transformer struct {
	llm        LLMClient
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

// New constructs a Transformer. maxRetries is N from spec.md §4.3 (default 3,
// config.PipelineConfig.MaxLLMRetries).
func New(llm LLMClient, cfg config.PipelineConfig, log zerolog.Logger) *Transformer {
	return &Transformer{llm: llm, maxRetries: cfg.MaxLLMRetries, backoff: 750 * time.Millisecond, log: log}
}

// Run drives one fetch result through the FSM and returns the surviving
// candidates plus an overall confidence, or a TransformError once the
// retry budget is exhausted (§4.3, §7).
func (t *Transformer) Run(ctx context.Context, result fetch.FetchResult) (domain.ExtractionResult, error) {
	variant, err := variantFor(result.ContentType, result.Metadata["source_site"])
	if err != nil {
		return domain.ExtractionResult{}, &errs.TransformError{Kind: errs.TransformSchemaValidation, Err: err}
	}

	var (
		cur         = stateExtract
		attempt     = 0
		llmCalls    = 0
		rawResponse string
		candidates  []domain.CandidateTrade
		lastErr     error
	)

	for {
		switch cur {
		case stateExtract:
			llmCalls++
			resp, err := t.llm.Extract(ctx, variant, result.Payload)
			if err != nil {
				lastErr = &errs.TransformError{SourceFormat: string(variant.SourceFormat), Kind: errs.TransformLLMTimeout, Attempt: attempt, Err: err}
				cur = stateRetry
				continue
			}
			rawResponse = resp
			cur = stateParse

		case stateParse:
			parsed, err := recoverJSON(rawResponse)
			if err != nil {
				lastErr = &errs.TransformError{SourceFormat: string(variant.SourceFormat), Kind: errs.TransformJSONParse, Attempt: attempt, Err: err}
				cur = stateRetry
				continue
			}
			candidates, err = decodeCandidates(parsed, variant.SourceFormat)
			if err != nil {
				lastErr = &errs.TransformError{SourceFormat: string(variant.SourceFormat), Kind: errs.TransformJSONParse, Attempt: attempt, Err: err}
				cur = stateRetry
				continue
			}
			cur = stateValidate

		case stateValidate:
			valid, err := validateCandidates(candidates)
			if err != nil {
				lastErr = &errs.TransformError{SourceFormat: string(variant.SourceFormat), Kind: errs.TransformSchemaValidation, Attempt: attempt, Err: err}
				cur = stateRetry
				continue
			}
			candidates = valid
			cur = stateDone

		case stateRetry:
			attempt++
			if attempt > t.maxRetries {
				cur = stateFailed
				continue
			}
			t.log.Warn().Int("attempt", attempt).Str("source_format", string(variant.SourceFormat)).Err(lastErr).Msg("transform: retrying after failure")
			select {
			case <-time.After(t.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return domain.ExtractionResult{}, &errs.TransformError{SourceFormat: string(variant.SourceFormat), Kind: errs.TransformLLMTimeout, Attempt: attempt, Err: ctx.Err()}
			}
			cur = stateExtract

		case stateDone:
			return domain.ExtractionResult{
				Candidates:        candidates,
				OverallConfidence: overallConfidence(candidates),
				SourceFormat:      variant.SourceFormat,
				SourceIdentifier:  result.SourceURL,
				LLMCallCount:      llmCalls,
			}, nil

		case stateFailed:
			return domain.ExtractionResult{}, &errs.TransformError{
				SourceFormat: string(variant.SourceFormat),
				Kind:         errs.TransformRetryExhausted,
				Attempt:      attempt,
				Err:          fmt.Errorf("exhausted %d retries: %w", t.maxRetries, lastErr),
			}
		}
	}
}

// overallConfidence is the mean of surviving candidates' extraction
// confidence, or 0 for an empty set.
func overallConfidence(candidates []domain.CandidateTrade) float64 {
	if len(candidates) == 0 {
		return 0
	}
	var sum float64
	for _, c := range candidates {
		sum += c.ExtractionConfidence
	}
	return sum / float64(len(candidates))
}
