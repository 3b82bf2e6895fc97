package shutdown

import (
	"context"
	"io"

	"replydesk/core"

	"go.uber.org/zap"
)

// FlushLogs returns a hook that flushes buffered log entries.
//
// Priority recommendation: highest number registered, so logs from the
// other hooks are flushed too. Sync errors on stderr sinks are ignored
// since consoles do not support fsync.
func FlushLogs(logger *zap.Logger) core.ShutdownFunc {
	return func(ctx context.Context) error {
		_ = logger.Sync()
		return nil
	}
}

// CloseResource returns a hook that closes a resource such as the SQLite
// store, logging the outcome.
//
// Priority recommendation: 30-39 (after workers have stopped writing).
func CloseResource(logger *zap.Logger, name string, closer io.Closer) core.ShutdownFunc {
	return func(ctx context.Context) error {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close resource",
				zap.String("resource", name),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("Closed resource", zap.String("resource", name))
		return nil
	}
}
