package responder

import (
	"context"
	"strings"
	"testing"
	"time"

	"replydesk/analysis"
	"replydesk/core"
	"replydesk/llm"
	"replydesk/logging"
	"replydesk/ratelimit"
	"replydesk/store"
	"replydesk/tokens"
)

// fakeCompleter scripts the transport so no network is involved.
type fakeCompleter struct {
	response string
	err      error
	calls    int
	lastReq  llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request, failKind llm.Kind) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testConfig() *core.Config {
	return &core.Config{
		GroqAPIKey:           "gsk_testkey_0123456789abcdef",
		DefaultModel:         core.DefaultModel,
		MaxCompletionTokens:  core.DefaultMaxTokens,
		ThreadMaxChars:       core.DefaultThreadMax,
		SuggestionMaxChars:   core.DefaultSuggestMax,
		ToneMaxChars:         core.DefaultToneMax,
		ResponseMaxChars:     core.DefaultResponseMax,
		RateCeilingTokens:    core.DefaultRateCeiling,
		RateWindow:           core.DefaultRateWindow,
		AnalysisCacheEntries: 16,
	}
}

func newTestResponder(completer llm.Completer, window *ratelimit.Window) *Responder {
	cache, _ := store.NewAnalysisCache(store.NewMemoryStore(), 16, 0)
	return New(completer, window, cache, NewToneCatalog(), testConfig(), logging.NewNopLogger())
}

// TestGenerate_Success tests the happy path through sanitize, budget, and
// the completer.
func TestGenerate_Success(t *testing.T) {
	fake := &fakeCompleter{response: "Dear sender, thank you."}
	r := newTestResponder(fake, nil)

	result, err := r.Generate(context.Background(), GenerateRequest{
		Thread: "Can we move the meeting?",
		Tone:   "professional",
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if result.Text != "Dear sender, thank you." {
		t.Errorf("Generate() = %q", result.Text)
	}
	if result.Degraded {
		t.Error("Generate() degraded on success")
	}
	if result.CorrelationID == "" {
		t.Error("Generate() missing correlation ID")
	}
	if fake.lastReq.Model != core.DefaultModel {
		t.Errorf("model = %q, want default", fake.lastReq.Model)
	}
}

// TestGenerate_InvalidToneBeforeNetwork tests catalog rejection without a
// completer call.
func TestGenerate_InvalidToneBeforeNetwork(t *testing.T) {
	fake := &fakeCompleter{response: "unused"}
	r := newTestResponder(fake, nil)

	_, err := r.Generate(context.Background(), GenerateRequest{
		Thread: "Hello",
		Tone:   "sarcastic-robot",
	})
	if !llm.IsKind(err, llm.KindInvalidTone) {
		t.Fatalf("Generate() error = %v, want %s", err, llm.KindInvalidTone)
	}
	if fake.calls != 0 {
		t.Errorf("completer called %d times, want 0", fake.calls)
	}
}

// TestGenerate_EmptyThread tests required-input validation.
func TestGenerate_EmptyThread(t *testing.T) {
	fake := &fakeCompleter{}
	r := newTestResponder(fake, nil)

	_, err := r.Generate(context.Background(), GenerateRequest{Thread: "   "})
	if !llm.IsKind(err, llm.KindInvalidInput) {
		t.Fatalf("Generate() error = %v, want %s", err, llm.KindInvalidInput)
	}
	if fake.calls != 0 {
		t.Errorf("completer called %d times, want 0", fake.calls)
	}
}

// TestGenerate_FallbackOnProviderFailure tests the degraded canned reply.
func TestGenerate_FallbackOnProviderFailure(t *testing.T) {
	fake := &fakeCompleter{err: llm.NewError(llm.KindGeneration, 500, "provider down", nil)}
	r := newTestResponder(fake, nil)

	result, err := r.Generate(context.Background(), GenerateRequest{
		Thread:     "The invoice is overdue.",
		Suggestion: "mention the new due date",
		Tone:       "friendly",
	})
	if err != nil {
		t.Fatalf("Generate() failed instead of falling back: %v", err)
	}
	if !result.Degraded {
		t.Error("Generate() not marked degraded")
	}
	if !strings.Contains(result.Text, "mention the new due date") {
		t.Errorf("fallback = %q, want suggestion echoed", result.Text)
	}
}

// TestGenerate_RateLimitSurfaces tests that rate limit errors bypass the
// fallback.
func TestGenerate_RateLimitSurfaces(t *testing.T) {
	fake := &fakeCompleter{err: llm.NewRateLimitError("limited", 10*time.Second, nil)}
	r := newTestResponder(fake, nil)

	_, err := r.Generate(context.Background(), GenerateRequest{Thread: "Hello"})
	if !llm.IsKind(err, llm.KindRateLimit) {
		t.Fatalf("Generate() error = %v, want %s", err, llm.KindRateLimit)
	}
}

// TestGenerate_WindowRejection tests local budget rejection before any call.
func TestGenerate_WindowRejection(t *testing.T) {
	window := ratelimit.NewWindow(ratelimit.Config{Ceiling: 10, Span: time.Minute})
	fake := &fakeCompleter{response: "unused"}
	r := newTestResponder(fake, window)

	_, err := r.Generate(context.Background(), GenerateRequest{Thread: "Hello there"})
	if !llm.IsKind(err, llm.KindRateLimit) {
		t.Fatalf("Generate() error = %v, want %s", err, llm.KindRateLimit)
	}
	if fake.calls != 0 {
		t.Errorf("completer called %d times, want 0", fake.calls)
	}

	apiErr := llm.AsAPIError(err, llm.KindGeneration)
	if apiErr.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want positive wait", apiErr.RetryAfter)
	}
}

// TestGenerate_SanitizesThread tests markup never reaches the completer.
func TestGenerate_SanitizesThread(t *testing.T) {
	fake := &fakeCompleter{response: "ok"}
	r := newTestResponder(fake, nil)

	_, err := r.Generate(context.Background(), GenerateRequest{
		Thread: `<script>alert(1)</script>Quarterly numbers attached.`,
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	for _, m := range fake.lastReq.Messages {
		if strings.Contains(m.Content, "<script>") {
			t.Errorf("prompt contains markup: %q", m.Content)
		}
	}
}

// TestAdjustLength_Directions tests direction validation and pass-through.
func TestAdjustLength_Directions(t *testing.T) {
	fake := &fakeCompleter{response: "Shorter reply."}
	r := newTestResponder(fake, nil)

	result, err := r.AdjustLength(context.Background(), AdjustRequest{
		Response:  "A long reply that should be shortened considerably.",
		Direction: Shorten,
	})
	if err != nil {
		t.Fatalf("AdjustLength() failed: %v", err)
	}
	if result.Text != "Shorter reply." {
		t.Errorf("AdjustLength() = %q", result.Text)
	}
}

// TestAdjustLength_NoFallback tests failures surface instead of degrading.
func TestAdjustLength_NoFallback(t *testing.T) {
	fake := &fakeCompleter{err: llm.NewError(llm.KindLengthAdjustment, 500, "provider down", nil)}
	r := newTestResponder(fake, nil)

	_, err := r.AdjustLength(context.Background(), AdjustRequest{
		Response:  "Some reply.",
		Direction: Lengthen,
	})
	if !llm.IsKind(err, llm.KindLengthAdjustment) {
		t.Fatalf("AdjustLength() error = %v, want %s", err, llm.KindLengthAdjustment)
	}
}

// TestAdjustLength_InvalidDirection tests rejection of unknown directions.
func TestAdjustLength_InvalidDirection(t *testing.T) {
	fake := &fakeCompleter{}
	r := newTestResponder(fake, nil)

	_, err := r.AdjustLength(context.Background(), AdjustRequest{
		Response:  "Some reply.",
		Direction: Direction("expand"),
	})
	if !llm.IsKind(err, llm.KindInvalidInput) {
		t.Fatalf("AdjustLength() error = %v, want %s", err, llm.KindInvalidInput)
	}
	if fake.calls != 0 {
		t.Errorf("completer called %d times, want 0", fake.calls)
	}
}

// TestParseDirection tests the string form accepted at the API boundary.
func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"shorten", Shorten, false},
		{"LENGTHEN", Lengthen, false},
		{" shorten ", Shorten, false},
		{"expand", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// TestAnalyzeSentiment_CacheShortCircuit tests that an equivalent thread is
// served from cache without a second completer call.
func TestAnalyzeSentiment_CacheShortCircuit(t *testing.T) {
	fake := &fakeCompleter{response: "sentiment score: +10\nThe predominant tone is calm."}
	r := newTestResponder(fake, nil)

	first, err := r.AnalyzeSentiment(context.Background(), AnalyzeRequest{Thread: "Please review the draft."})
	if err != nil {
		t.Fatalf("AnalyzeSentiment() failed: %v", err)
	}
	if first.Cached {
		t.Error("first call marked cached")
	}
	if fake.calls != 1 {
		t.Fatalf("completer called %d times, want 1", fake.calls)
	}

	second, err := r.AnalyzeSentiment(context.Background(), AnalyzeRequest{Thread: "please   REVIEW the draft."})
	if err != nil {
		t.Fatalf("second AnalyzeSentiment() failed: %v", err)
	}
	if !second.Cached {
		t.Error("second call not marked cached")
	}
	if fake.calls != 1 {
		t.Errorf("completer called %d times after cache hit, want 1", fake.calls)
	}
	if first.Text != second.Text {
		t.Error("cached analysis differs from the original")
	}
}

// TestAnalyzeSentiment_FormatsOutput tests the display block layout.
func TestAnalyzeSentiment_FormatsOutput(t *testing.T) {
	fake := &fakeCompleter{response: "sentiment score: -20\nurgency level low"}
	r := newTestResponder(fake, nil)

	result, err := r.AnalyzeSentiment(context.Background(), AnalyzeRequest{Thread: "thread text"})
	if err != nil {
		t.Fatalf("AnalyzeSentiment() failed: %v", err)
	}
	for _, want := range []string{"Sentiment Overview", "• Score: -20", "• Urgency: LOW"} {
		if !strings.Contains(result.Text, want) {
			t.Errorf("analysis missing %q:\n%s", want, result.Text)
		}
	}
}

// TestGenerate_SanitizesModelOutput tests the formatting allow-list on the
// returned reply.
func TestGenerate_SanitizesModelOutput(t *testing.T) {
	fake := &fakeCompleter{response: `<script>alert(1)</script>Hi <b>there</b>`}
	r := newTestResponder(fake, nil)

	result, err := r.Generate(context.Background(), GenerateRequest{Thread: "Hello"})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if strings.Contains(result.Text, "<script>") || strings.Contains(result.Text, "alert(1)") {
		t.Errorf("script markup survived: %q", result.Text)
	}
	if !strings.Contains(result.Text, "<b>there</b>") {
		t.Errorf("allowed formatting stripped: %q", result.Text)
	}
}

// TestAdjustLength_SanitizesModelOutput tests the same allow-list on the
// rewritten reply.
func TestAdjustLength_SanitizesModelOutput(t *testing.T) {
	fake := &fakeCompleter{response: `Short.<img src=x onerror=alert(1)>`}
	r := newTestResponder(fake, nil)

	result, err := r.AdjustLength(context.Background(), AdjustRequest{
		Response:  "A long reply.",
		Direction: Shorten,
	})
	if err != nil {
		t.Fatalf("AdjustLength() failed: %v", err)
	}
	if strings.Contains(result.Text, "<img") || strings.Contains(result.Text, "onerror") {
		t.Errorf("markup survived: %q", result.Text)
	}
	if !strings.Contains(result.Text, "Short.") {
		t.Errorf("text content lost: %q", result.Text)
	}
}

// TestGenerate_UsesCachedAnalysis tests that a prior analysis of the thread
// replaces the skipped placeholder in the outbound prompt.
func TestGenerate_UsesCachedAnalysis(t *testing.T) {
	const thread = "The shipment is three weeks late and the client is upset."
	const cachedAnalysis = "Sentiment Score: -45\nUrgency Level: HIGH"

	fake := &fakeCompleter{response: "Dear client, my apologies."}
	cache, err := store.NewAnalysisCache(store.NewMemoryStore(), 16, 0)
	if err != nil {
		t.Fatalf("NewAnalysisCache() failed: %v", err)
	}
	if err := cache.Put(thread, cachedAnalysis); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	r := New(fake, nil, cache, NewToneCatalog(), testConfig(), logging.NewNopLogger())

	if _, err := r.Generate(context.Background(), GenerateRequest{Thread: thread}); err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	prompt := fake.lastReq.Messages[1].Content
	if !strings.Contains(prompt, cachedAnalysis) {
		t.Errorf("prompt missing cached analysis:\n%s", prompt)
	}
	if strings.Contains(prompt, sentimentSkipped) {
		t.Errorf("prompt still carries the skipped placeholder:\n%s", prompt)
	}
}

// TestGenerate_PlaceholderOnCacheMiss tests the skipped placeholder is used
// when no analysis exists for the thread.
func TestGenerate_PlaceholderOnCacheMiss(t *testing.T) {
	fake := &fakeCompleter{response: "ok"}
	r := newTestResponder(fake, nil)

	if _, err := r.Generate(context.Background(), GenerateRequest{Thread: "Hello"}); err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if !strings.Contains(fake.lastReq.Messages[1].Content, sentimentSkipped) {
		t.Error("prompt missing the skipped placeholder on cache miss")
	}
}

// TestGenerate_MissingAPIKeyBeforePipeline tests that a missing key is
// raised before any tokens are spent, never masked by the mock fallback.
func TestGenerate_MissingAPIKeyBeforePipeline(t *testing.T) {
	config := testConfig()
	config.GroqAPIKey = ""
	window := ratelimit.NewWindow(ratelimit.Config{Ceiling: 100000, Span: time.Minute})
	fake := &fakeCompleter{response: "unused"}
	r := New(fake, window, nil, NewToneCatalog(), config, logging.NewNopLogger())

	result, err := r.Generate(context.Background(), GenerateRequest{Thread: "Hello"})
	if !llm.IsKind(err, llm.KindMissingAPIKey) {
		t.Fatalf("Generate() error = %v, want %s", err, llm.KindMissingAPIKey)
	}
	if result.Degraded {
		t.Error("missing key masked by the degraded fallback")
	}
	if fake.calls != 0 {
		t.Errorf("completer called %d times, want 0", fake.calls)
	}
	if window.Usage() != 0 {
		t.Errorf("window usage = %d, want 0 tokens consumed", window.Usage())
	}

	// A per-request key unblocks the same responder.
	if _, err := r.Generate(context.Background(), GenerateRequest{
		Thread: "Hello",
		APIKey: "gsk_requestkey_0123456789abcdef",
	}); err != nil {
		t.Fatalf("Generate() with request key failed: %v", err)
	}
}

// TestAdjustAndAnalyze_MissingAPIKey tests the up-front key check on the
// other two operations.
func TestAdjustAndAnalyze_MissingAPIKey(t *testing.T) {
	config := testConfig()
	config.GroqAPIKey = ""
	fake := &fakeCompleter{response: "unused"}
	r := New(fake, nil, nil, NewToneCatalog(), config, logging.NewNopLogger())

	_, err := r.AdjustLength(context.Background(), AdjustRequest{
		Response:  "Some reply.",
		Direction: Shorten,
	})
	if !llm.IsKind(err, llm.KindMissingAPIKey) {
		t.Errorf("AdjustLength() error = %v, want %s", err, llm.KindMissingAPIKey)
	}

	_, err = r.AnalyzeSentiment(context.Background(), AnalyzeRequest{Thread: "Hello"})
	if !llm.IsKind(err, llm.KindMissingAPIKey) {
		t.Errorf("AnalyzeSentiment() error = %v, want %s", err, llm.KindMissingAPIKey)
	}

	if fake.calls != 0 {
		t.Errorf("completer called %d times, want 0", fake.calls)
	}
}

// TestAnalyzeSentiment_BudgetExcludesSafetyMargin tests the analyze budget
// is system + prompt + response buffers only. A ceiling sized exactly to
// that sum admits the request; any extra margin would push it over.
func TestAnalyzeSentiment_BudgetExcludesSafetyMargin(t *testing.T) {
	const thread = "Could you send the updated figures before Friday?"
	ceiling := tokens.Budget(
		[]string{analysis.SystemMessage, analysis.Prompt(thread)},
		tokens.SystemMessageBuffer, tokens.ResponseBuffer,
	)
	window := ratelimit.NewWindow(ratelimit.Config{Ceiling: ceiling, Span: time.Minute})
	fake := &fakeCompleter{response: "sentiment score: +5"}
	r := New(fake, window, nil, NewToneCatalog(), testConfig(), logging.NewNopLogger())

	if _, err := r.AnalyzeSentiment(context.Background(), AnalyzeRequest{Thread: thread}); err != nil {
		t.Fatalf("AnalyzeSentiment() rejected at an exact-fit ceiling: %v", err)
	}
	if window.Usage() != ceiling {
		t.Errorf("window usage = %d, want %d", window.Usage(), ceiling)
	}
}

// TestGenerate_EmptyToneDefaults tests that an omitted tone falls back to
// professional instead of failing.
func TestGenerate_EmptyToneDefaults(t *testing.T) {
	fake := &fakeCompleter{response: "ok"}
	r := newTestResponder(fake, nil)

	if _, err := r.Generate(context.Background(), GenerateRequest{Thread: "Hello"}); err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if !strings.Contains(fake.lastReq.Messages[1].Content, "in a professional tone") {
		t.Errorf("prompt missing the default tone:\n%s", fake.lastReq.Messages[1].Content)
	}
}

// TestAnalyzeSentiment_NilCache tests operation without caching configured.
func TestAnalyzeSentiment_NilCache(t *testing.T) {
	fake := &fakeCompleter{response: "sentiment score: 0"}
	r := New(fake, nil, nil, NewToneCatalog(), testConfig(), logging.NewNopLogger())

	for i := 0; i < 2; i++ {
		if _, err := r.AnalyzeSentiment(context.Background(), AnalyzeRequest{Thread: "thread"}); err != nil {
			t.Fatalf("AnalyzeSentiment() #%d failed: %v", i+1, err)
		}
	}
	if fake.calls != 2 {
		t.Errorf("completer called %d times, want 2 without cache", fake.calls)
	}
}
