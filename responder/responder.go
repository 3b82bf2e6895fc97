// Package responder is the organism that coordinates reply generation,
// length adjustment, and sentiment analysis. It composes the sanitize,
// tokens, ratelimit, llm, analysis, and store molecules into the three
// operations the web surface exposes.
package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"replydesk/analysis"
	"replydesk/core"
	"replydesk/llm"
	"replydesk/logging"
	"replydesk/ratelimit"
	"replydesk/sanitize"
	"replydesk/store"
	"replydesk/tokens"
)

// Direction selects a length rewrite.
type Direction string

const (
	Shorten  Direction = "shorten"
	Lengthen Direction = "lengthen"
)

// ParseDirection validates a user-supplied direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Shorten:
		return Shorten, nil
	case Lengthen:
		return Lengthen, nil
	default:
		return "", llm.NewError(llm.KindInvalidInput, 400,
			fmt.Sprintf("invalid adjustment direction %q, expected shorten or lengthen", s), nil)
	}
}

// GenerateRequest carries the inputs for reply generation. APIKey and Model
// override the configured defaults when non-empty.
type GenerateRequest struct {
	Thread     string
	Suggestion string
	Tone       string
	APIKey     string
	Model      string
}

// AdjustRequest carries the inputs for a length rewrite.
type AdjustRequest struct {
	Response  string
	Direction Direction
	APIKey    string
	Model     string
}

// AnalyzeRequest carries the inputs for sentiment analysis.
type AnalyzeRequest struct {
	Thread string
	APIKey string
	Model  string
}

// Result is the outcome of an operation. Degraded marks a generation that
// fell back to a canned response after a provider failure. Cached marks an
// analysis served without a provider call.
type Result struct {
	Text          string
	Degraded      bool
	Cached        bool
	CorrelationID string
}

// Responder coordinates the three operations against a completion provider,
// one shared rate window, and the analysis cache.
type Responder struct {
	completer llm.Completer
	window    *ratelimit.Window
	cache     *store.AnalysisCache
	catalog   *ToneCatalog
	logger    *logging.Logger
	config    *core.Config
}

// New builds a Responder. All collaborators are required except cache, which
// may be nil to disable analysis caching.
func New(completer llm.Completer, window *ratelimit.Window, cache *store.AnalysisCache, catalog *ToneCatalog, config *core.Config, logger *logging.Logger) *Responder {
	return &Responder{
		completer: completer,
		window:    window,
		cache:     cache,
		catalog:   catalog,
		logger:    logger,
		config:    config,
	}
}

// Generate produces an email reply for the thread in the requested tone.
// A previously cached sentiment analysis of the thread, when present, is
// embedded in the prompt. On provider failure other than rate limiting or
// a missing key it falls back to a canned response and marks the result
// degraded. Rate limit errors always surface so the caller can honor the
// wait.
func (r *Responder) Generate(ctx context.Context, req GenerateRequest) (Result, error) {
	correlationID := uuid.New().String()
	result := Result{CorrelationID: correlationID}

	thread := sanitize.Strip(req.Thread, r.config.ThreadMaxChars)
	suggestion := sanitize.Strip(req.Suggestion, r.config.SuggestionMaxChars)
	tone := strings.ToLower(strings.TrimSpace(sanitize.Strip(req.Tone, r.config.ToneMaxChars)))

	if thread == "" {
		return result, llm.NewError(llm.KindInvalidInput, 400, "email thread is required", nil)
	}
	if tone == "" {
		tone = "professional"
	}
	if !r.catalog.Contains(tone) {
		return result, llm.NewError(llm.KindInvalidTone, 400,
			fmt.Sprintf("unsupported tone %q", tone), nil)
	}
	if err := r.requireKey(req.APIKey); err != nil {
		return result, err
	}

	// A prior analysis of this thread enriches the prompt; its tokens are
	// part of the budget because it travels inside the prompt.
	sentiment := sentimentSkipped
	if r.cache != nil {
		if raw, ok := r.cache.Get(thread); ok {
			sentiment = raw
		}
	}

	prompt := buildGeneratePrompt(tone, suggestion, thread, sentiment)
	budget := tokens.Budget(
		[]string{generationSystemMessage, prompt},
		tokens.SystemMessageBuffer, tokens.ResponseBuffer, tokens.SafetyMarginBuffer,
	)
	if err := r.admit(budget); err != nil {
		return result, err
	}

	r.logger.Infow("generating reply",
		"correlation_id", correlationID,
		"tone", tone,
		"thread_chars", len(thread),
		"estimated_tokens", budget,
	)

	text, err := r.complete(ctx, generationSystemMessage, prompt, req, llm.KindGeneration)
	if err != nil {
		if llm.IsKind(err, llm.KindRateLimit) || llm.IsKind(err, llm.KindMissingAPIKey) {
			return result, err
		}
		r.logger.Warnw("provider failed, serving fallback reply",
			"correlation_id", correlationID,
			"error", err.Error(),
		)
		result.Text = mockResponse(tone, suggestion)
		result.Degraded = true
		return result, nil
	}

	result.Text = sanitize.Display(text, r.config.ResponseMaxChars)
	return result, nil
}

// AdjustLength rewrites a previously generated response to be shorter or
// longer. There is no fallback: a provider failure surfaces to the caller.
func (r *Responder) AdjustLength(ctx context.Context, req AdjustRequest) (Result, error) {
	correlationID := uuid.New().String()
	result := Result{CorrelationID: correlationID}

	if req.Direction != Shorten && req.Direction != Lengthen {
		return result, llm.NewError(llm.KindInvalidInput, 400,
			fmt.Sprintf("invalid adjustment direction %q", req.Direction), nil)
	}
	response := sanitize.Strip(req.Response, r.config.ResponseMaxChars)
	if response == "" {
		return result, llm.NewError(llm.KindInvalidInput, 400, "response text is required", nil)
	}
	if err := r.requireKey(req.APIKey); err != nil {
		return result, err
	}

	prompt := buildAdjustPrompt(req.Direction, response)
	budget := tokens.Budget(
		[]string{adjustSystemMessage, prompt},
		tokens.SystemMessageBuffer, tokens.ResponseBuffer, tokens.SafetyMarginBuffer,
	)
	if err := r.admit(budget); err != nil {
		return result, err
	}

	r.logger.Infow("adjusting reply length",
		"correlation_id", correlationID,
		"direction", string(req.Direction),
		"response_chars", len(response),
	)

	text, err := r.complete(ctx, adjustSystemMessage, prompt, GenerateRequest{APIKey: req.APIKey, Model: req.Model}, llm.KindLengthAdjustment)
	if err != nil {
		if llm.IsKind(err, llm.KindRateLimit) || llm.IsKind(err, llm.KindEmptyResponse) {
			return result, err
		}
		return result, llm.AsAPIError(err, llm.KindLengthAdjustment)
	}

	result.Text = sanitize.Display(text, r.config.ResponseMaxChars)
	return result, nil
}

// AnalyzeSentiment returns a formatted sentiment analysis of the thread.
// Equivalent threads, up to whitespace and letter case, hit the cache and
// skip the provider entirely.
func (r *Responder) AnalyzeSentiment(ctx context.Context, req AnalyzeRequest) (Result, error) {
	correlationID := uuid.New().String()
	result := Result{CorrelationID: correlationID}

	thread := sanitize.Strip(req.Thread, r.config.ThreadMaxChars)
	if thread == "" {
		return result, llm.NewError(llm.KindInvalidInput, 400, "email thread is required", nil)
	}
	if err := r.requireKey(req.APIKey); err != nil {
		return result, err
	}

	if r.cache != nil {
		if raw, ok := r.cache.Get(thread); ok {
			r.logger.Infow("sentiment cache hit", "correlation_id", correlationID)
			result.Text = analysis.Format(raw)
			result.Cached = true
			return result, nil
		}
	}

	// Analysis budgets carry no safety margin; only the generation path
	// adds one.
	prompt := analysis.Prompt(thread)
	budget := tokens.Budget(
		[]string{analysis.SystemMessage, prompt},
		tokens.SystemMessageBuffer, tokens.ResponseBuffer,
	)
	if err := r.admit(budget); err != nil {
		return result, err
	}

	r.logger.Infow("analyzing sentiment",
		"correlation_id", correlationID,
		"thread_chars", len(thread),
		"estimated_tokens", budget,
	)

	raw, err := r.complete(ctx, analysis.SystemMessage, prompt, GenerateRequest{APIKey: req.APIKey, Model: req.Model}, llm.KindSentimentAnalysis)
	if err != nil {
		if llm.IsKind(err, llm.KindRateLimit) || llm.IsKind(err, llm.KindEmptyResponse) {
			return result, err
		}
		return result, llm.AsAPIError(err, llm.KindSentimentAnalysis)
	}

	if r.cache != nil {
		if err := r.cache.Put(thread, raw); err != nil {
			r.logger.Warnw("failed to cache analysis",
				"correlation_id", correlationID,
				"error", err.Error(),
			)
		}
	}

	result.Text = analysis.Format(raw)
	return result, nil
}

// requireKey rejects an operation up front when neither the request nor the
// configuration carries a credential. A degraded mock must never stand in
// for a missing key; the caller has to supply one.
func (r *Responder) requireKey(requestKey string) error {
	if r.effectiveKey(requestKey) == "" {
		return llm.NewError(llm.KindMissingAPIKey, 401, "no API key available", nil)
	}
	return nil
}

// effectiveKey resolves the per-request key over the configured default.
func (r *Responder) effectiveKey(requestKey string) string {
	if key := strings.TrimSpace(requestKey); key != "" {
		return key
	}
	return strings.TrimSpace(r.config.GroqAPIKey)
}

// admit reserves tokens in the shared window, translating a window
// rejection into the rate limit error kind with the reported wait.
func (r *Responder) admit(estimated int) error {
	if r.window == nil {
		return nil
	}
	if err := r.window.Admit(estimated); err != nil {
		if limit, ok := err.(*ratelimit.LimitError); ok {
			return llm.NewRateLimitError(limit.Error(), limit.Wait, limit)
		}
		return err
	}
	return nil
}

// complete issues one chat completion with per-request key and model
// overrides applied over the configured defaults.
func (r *Responder) complete(ctx context.Context, system, prompt string, req GenerateRequest, failKind llm.Kind) (string, error) {
	model := req.Model
	if model == "" {
		model = r.config.DefaultModel
	}

	return r.completer.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: prompt},
		},
		Model:     model,
		MaxTokens: r.config.MaxCompletionTokens,
		APIKey:    r.effectiveKey(req.APIKey),
	}, failKind)
}
