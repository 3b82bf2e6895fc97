// Package logging provides structured logging for replydesk with automatic
// credential redaction.
//
// The Logger organism composes:
//   - FileWriter molecule (log file rotation via lumberjack)
//   - tee core (console + file output)
//   - redaction atoms (API key scrubbing, see redact.go)
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger and scrubs forwarded credentials from every field
// before they reach an encoder. The service handles a user-supplied API key
// on every request, so redaction is not optional here.
//
// Example:
//
//	logger, err := logging.NewLogger(true, "replydesk.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("generate finished", zap.String("operation", "generate"))
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
}

// NewLogger creates a Logger for the given environment.
//
// Parameters:
//   - isDevelopment: true selects colored console output at debug level;
//     false selects JSON output at info level.
//   - logFilePath: path of the rotated log file. Rotation is configured via
//     DefaultFileWriterConfig (20MB, 5 backups, 14 days, compressed).
//
// Output is teed to both console and file; the file side is always JSON.
func NewLogger(isDevelopment bool, logFilePath string) (*Logger, error) {
	level := zapcore.InfoLevel
	if isDevelopment {
		level = zapcore.DebugLevel
	}
	return NewLoggerWithConfig(isDevelopment, logFilePath, level, DefaultFileWriterConfig())
}

// NewLoggerWithConfig creates a Logger with an explicit level and file
// rotation configuration.
func NewLoggerWithConfig(isDevelopment bool, logFilePath string, level zapcore.Level, fileConfig FileWriterConfig) (*Logger, error) {
	core, err := newTeeCore(level, logFilePath, isDevelopment, fileConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create log core: %w", err)
	}

	zapLogger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1), // skip this wrapper layer
	)

	return &Logger{
		zap:   zapLogger,
		sugar: zapLogger.Sugar(),
	}, nil
}

// NewTestLogger returns a Logger that writes human-readable output to the
// provided sink. Intended for tests; no file is created.
func NewTestLogger(sink zapcore.WriteSyncer) *Logger {
	encoder := zapcore.NewConsoleEncoder(newConsoleEncoderConfig())
	core := zapcore.NewCore(encoder, sink, zapcore.DebugLevel)
	zapLogger := zap.New(core, zap.AddCallerSkip(1))
	return &Logger{zap: zapLogger, sugar: zapLogger.Sugar()}
}

// NewNopLogger returns a Logger that discards everything. Useful as a default
// when a component accepts an optional logger.
func NewNopLogger() *Logger {
	zapLogger := zap.NewNop()
	return &Logger{zap: zapLogger, sugar: zapLogger.Sugar()}
}

// Zap exposes the underlying zap.Logger for components that take one
// directly (the web server middleware does). Fields passed to the raw logger
// bypass redaction, so callers must not log credentials through it.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Sync flushes buffered entries. Call before process exit.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

// Debug logs at DebugLevel with structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, redactFields(fields)...)
}

// Info logs at InfoLevel with structured fields.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, redactFields(fields)...)
}

// Warn logs at WarnLevel with structured fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, redactFields(fields)...)
}

// Error logs at ErrorLevel with structured fields.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, redactFields(fields)...)
}

// Fatal logs at FatalLevel then exits.
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, redactFields(fields)...)
}

// Infow logs at InfoLevel with loosely-typed key-value pairs.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, redactPairs(keysAndValues)...)
}

// Warnw logs at WarnLevel with loosely-typed key-value pairs.
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, redactPairs(keysAndValues)...)
}

// Errorw logs at ErrorLevel with loosely-typed key-value pairs.
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, redactPairs(keysAndValues)...)
}

// redactFields applies credential redaction to string-valued zap fields.
func redactFields(fields []zap.Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		if f.Type == zapcore.StringType {
			out[i] = zap.String(f.Key, RedactField(f.Key, f.String))
			continue
		}
		out[i] = f
	}
	return out
}

// redactPairs applies credential redaction to sugared key-value pairs.
func redactPairs(pairs []interface{}) []interface{} {
	out := make([]interface{}, len(pairs))
	copy(out, pairs)
	for i := 0; i+1 < len(out); i += 2 {
		key, keyOK := out[i].(string)
		value, valueOK := out[i+1].(string)
		if keyOK && valueOK {
			out[i+1] = RedactField(key, value)
		}
	}
	return out
}
