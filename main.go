package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"replydesk/core"
	"replydesk/core/validation"
	"replydesk/llm"
	"replydesk/logging"
	"replydesk/ratelimit"
	"replydesk/responder"
	"replydesk/shutdown"
	"replydesk/store"
	"replydesk/threadimport"
	"replydesk/webui"
)

func main() {
	// Handle service management commands (install/uninstall/start/stop)
	if HandleServiceCommand(os.Args) {
		return
	}

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, core.GetEnvOrDefault("LOG_FILE", "replydesk.log"))
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	defer func() {
		_ = logger.Sync()
	}()

	os.Exit(run(logger, isDevelopment))
}

// run wires the application together and blocks until shutdown. Split from
// main so deferred cleanup runs before os.Exit.
func run(logger *logging.Logger, isDevelopment bool) int {
	if code := runStartupValidation(logger); code != core.ExitCodeSuccess {
		return code
	}

	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return core.ExitCodeError
	}

	logger.Info("Configuration loaded",
		zap.String("base_url", config.LLMBaseURL),
		zap.String("model", config.DefaultModel),
		zap.Int("max_retries", config.MaxRetries),
		zap.Duration("retry_delay", config.RetryDelay),
		zap.Duration("ai_timeout", config.AITimeout),
		zap.Int("rate_ceiling_tokens", config.RateCeilingTokens),
		zap.Duration("rate_window", config.RateWindow),
		zap.Duration("analysis_cache_ttl", config.AnalysisCacheTTL),
		zap.Bool("dev_mode", isDevelopment),
	)

	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		logger.Error("Failed to create data directory", zap.Error(err))
		return core.ExitCodeError
	}

	// Shutdown coordination
	manager := shutdown.NewManager(logger.Zap(), shutdown.WithTimeout(config.AITimeout+30*time.Second))
	manager.Start()

	// Persistent key-value store backing the analysis cache
	kv, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:           config.DatabasePath,
		MigrationsPath: config.MigrationsPath,
	})
	if err != nil {
		logger.Error("Failed to open store", zap.Error(err))
		return core.ExitCodeError
	}
	manager.Register("store", 30, shutdown.CloseResource(logger.Zap(), "sqlite", kv))

	cache, err := store.NewAnalysisCache(kv, config.AnalysisCacheEntries, config.AnalysisCacheTTL)
	if err != nil {
		logger.Error("Failed to build analysis cache", zap.Error(err))
		return core.ExitCodeError
	}

	// Shared token window across all operations
	window := ratelimit.NewWindow(ratelimit.Config{
		Ceiling: config.RateCeilingTokens,
		Span:    config.RateWindow,
	})
	window.StartCleanupTicker(manager.Context(), config.RateWindow)

	// Tone catalog, optionally extended from presets
	catalog, err := responder.LoadToneCatalog(config.TonesPath)
	if err != nil {
		logger.Error("Failed to load tone presets", zap.Error(err))
		return core.ExitCodeError
	}

	client := llm.NewClient(llm.ClientConfig{
		BaseURL:    config.LLMBaseURL,
		HTTPClient: config.NewHTTPClient(),
		MaxRetries: config.MaxRetries,
		RetryDelay: config.RetryDelay,
		Logger:     logger,
	})

	rsp := responder.New(client, window, cache, catalog, config, logger)
	importer := threadimport.NewImporter(threadimport.ImporterConfig{
		MaxThreadChars: config.ThreadMaxChars,
	})

	serverConfig := webui.DefaultServerConfig()
	serverConfig.Host = config.Host
	serverConfig.Port = config.Port
	server := webui.NewServer(serverConfig, rsp, importer, catalog, manager, logger.Zap())

	manager.Register("http", 10, func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})
	manager.Register("logs", 90, shutdown.FlushLogs(logger.Zap()))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			_ = manager.Shutdown()
			return core.ExitCodeError
		}
	case <-manager.Context().Done():
	}

	if err := manager.Shutdown(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		return core.ExitCodeError
	}
	logger.Info("Goodbye!")
	return core.ExitCodeSuccess
}

// runStartupValidation checks the environment before anything heavy runs.
//
// Returns the appropriate exit code:
//   - ExitCodeSuccess (0) if all validations pass
//   - ExitCodeError (1) if any validation fails
func runStartupValidation(logger *logging.Logger) int {
	logger.Info("Starting startup validation...")

	suite := validation.NewSuite(
		core.GetEnvOrDefault("LLM_BASE_URL", core.DefaultLLMBaseURL),
		os.Getenv("GROQ_API_KEY"),
	).WithShowProgress(true)

	result := suite.Validate()
	if !result.Success {
		logger.Error("Configuration validation failed",
			zap.Int("passed", result.PassedSteps),
			zap.Int("failed", result.FailedSteps),
			zap.Duration("duration", result.Duration),
		)
		for _, step := range result.Steps {
			if step.Status == validation.StepFailed {
				logger.Error("Validation step failed",
					zap.String("step", step.Name),
					zap.String("message", step.Message),
					zap.Error(step.Error),
				)
			}
		}
		return core.ExitCodeError
	}

	logger.Info("Startup validation complete",
		zap.Int("checks_passed", result.PassedSteps),
		zap.Duration("duration", result.Duration),
	)
	return core.ExitCodeSuccess
}
