package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// lockedBuffer is a WriteSyncer over a bytes.Buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Sync() error { return nil }

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ zapcore.WriteSyncer = (*lockedBuffer)(nil)

// TestLogger_RedactsSensitiveFields tests that credential fields never reach
// the sink in the clear.
func TestLogger_RedactsSensitiveFields(t *testing.T) {
	sink := &lockedBuffer{}
	logger := NewTestLogger(sink)

	logger.Info("request received",
		zap.String("api_key", "gsk_realkey_0123456789abcdef"),
		zap.String("model", "llama-3.3-70b-versatile"),
	)

	out := sink.String()
	if strings.Contains(out, "gsk_realkey_0123456789abcdef") {
		t.Errorf("sink contains the raw key:\n%s", out)
	}
	if !strings.Contains(out, RedactedPlaceholder) {
		t.Errorf("sink missing redaction placeholder:\n%s", out)
	}
	if !strings.Contains(out, "llama-3.3-70b-versatile") {
		t.Errorf("sink missing the clean field:\n%s", out)
	}
}

// TestLogger_RedactsEmbeddedCredentials tests scrubbing keys inside
// ordinary field values.
func TestLogger_RedactsEmbeddedCredentials(t *testing.T) {
	sink := &lockedBuffer{}
	logger := NewTestLogger(sink)

	logger.Warn("provider error",
		zap.String("detail", "request with gsk_leakedkey_0123456789abc failed"),
	)

	out := sink.String()
	if strings.Contains(out, "gsk_leakedkey_0123456789abc") {
		t.Errorf("sink contains an embedded key:\n%s", out)
	}
}

// TestLogger_SugaredRedaction tests the loosely-typed logging path.
func TestLogger_SugaredRedaction(t *testing.T) {
	sink := &lockedBuffer{}
	logger := NewTestLogger(sink)

	logger.Infow("credential saved",
		"api_key", "gsk_sugared_0123456789abcdef",
		"tone", "professional",
	)

	out := sink.String()
	if strings.Contains(out, "gsk_sugared_0123456789abcdef") {
		t.Errorf("sink contains the raw key:\n%s", out)
	}
	if !strings.Contains(out, "professional") {
		t.Errorf("sink missing the clean pair:\n%s", out)
	}
}

// TestNopLogger_Safe tests the nop logger accepts calls without panicking.
func TestNopLogger_Safe(t *testing.T) {
	logger := NewNopLogger()
	logger.Debug("a")
	logger.Info("b", zap.Int("n", 1))
	logger.Warnw("c", "k", "v")
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() = %v", err)
	}
}
