package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"leadwatch/internal/config"
	"leadwatch/internal/extract"
	"leadwatch/internal/infra/adapter/persistence/csvledger"
	pgRepo "leadwatch/internal/infra/adapter/persistence/postgres"
	"leadwatch/internal/infra/db"
	"leadwatch/internal/infra/notifier"
	"leadwatch/internal/infra/source"
	workerPkg "leadwatch/internal/infra/worker"
	"leadwatch/internal/observability/logging"
	"leadwatch/internal/repository"
	"leadwatch/internal/resilience/circuitbreaker"
	"leadwatch/internal/usecase/ingest"
	leadUC "leadwatch/internal/usecase/lead"
	"leadwatch/internal/usecase/notify"
)

func main() {
	logger := initLogger()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.Duration("poll_interval", workerConfig.PollInterval),
		slog.Duration("cycle_timeout", workerConfig.CycleTimeout),
		slog.Duration("source_timeout", workerConfig.SourceTimeout),
		slog.Int("notify_max_concurrent", workerConfig.NotifyMaxConcurrent),
		slog.Int("health_port", workerConfig.HealthPort))

	// Load monitor configuration (subreddits and extraction vocabulary)
	monitorConfig, err := config.LoadMonitorConfig()
	if err != nil {
		logger.Error("failed to load monitor configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize Telegram notification channel
	telegramConfig := loadTelegramConfig(logger)
	var telegramChannel notify.Channel
	if telegramConfig.Enabled {
		telegramChannel = notify.NewTelegramChannel(telegramConfig)
		logger.Info("Telegram channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Telegram channel disabled")
	}

	// Initialize Slack notification channel
	slackConfig := loadSlackConfig(logger)
	var slackChannel notify.Channel
	if slackConfig.Enabled {
		slackChannel = notify.NewSlackChannel(slackConfig)
		logger.Info("Slack channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Slack channel disabled")
	}

	// Initialize notification service (use workerConfig)
	var channels []notify.Channel
	if telegramChannel != nil {
		channels = append(channels, telegramChannel)
	}
	if slackChannel != nil {
		channels = append(channels, slackChannel)
	}

	notifyService := notify.NewService(channels, workerConfig.NotifyMaxConcurrent)
	logger.Info("Notification service initialized",
		slog.Int("channels", len(channels)),
		slog.Int("max_concurrent", workerConfig.NotifyMaxConcurrent))

	// Start metrics HTTP server
	startMetricsServer(ctx, logger, notifyService)

	// Start health check server
	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	// Open the lead ledger (CSV file or Postgres, per LEDGER_BACKEND)
	leadRepo, ledgerCleanup := setupLedger(ctx, logger)
	defer ledgerCleanup()

	svc := setupIngestService(logger, monitorConfig, leadRepo, notifyService, workerConfig)

	startPollWorker(logger, svc, workerConfig, workerMetrics, healthServer)
}

// initLogger initializes the structured JSON logger and installs it as the
// process default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// setupLedger opens the configured ledger backend and returns the lead
// repository plus a cleanup function for graceful shutdown.
//
// Environment variables:
//   - LEDGER_BACKEND: "csv" (default) or "postgres"
//   - LEDGER_PATH: CSV file path (default: "leads.csv", csv backend only)
//   - DATABASE_URL: Postgres connection string (postgres backend only)
func setupLedger(ctx context.Context, logger *slog.Logger) (repository.LeadRepository, func()) {
	backend := os.Getenv("LEDGER_BACKEND")
	if backend == "" {
		backend = "csv"
	}

	switch backend {
	case "csv":
		path := os.Getenv("LEDGER_PATH")
		if path == "" {
			path = "leads.csv"
		}
		ledger, err := csvledger.Open(path)
		if err != nil {
			logger.Error("failed to open CSV ledger", slog.String("path", path), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("CSV ledger opened", slog.String("path", path))
		cleanup := func() {
			if err := ledger.Close(); err != nil {
				logger.Error("failed to close CSV ledger", slog.Any("error", err))
			}
		}
		return ledger, cleanup

	case "postgres":
		database := db.Open()
		if err := db.MigrateUp(database); err != nil {
			logger.Error("failed to run ledger migration", slog.Any("error", err))
			os.Exit(1)
		}
		go db.ReportPoolStats(ctx, database, 0)

		// All queries go through the circuit breaker so a dead database
		// degrades into skipped cycles instead of piled-up connections.
		breaker := circuitbreaker.NewDBCircuitBreaker(database)
		logger.Info("Postgres ledger opened")
		cleanup := func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}
		return pgRepo.NewLeadRepo(breaker), cleanup

	default:
		logger.Error("invalid LEDGER_BACKEND",
			slog.String("backend", backend),
			slog.String("expected", "csv or postgres"))
		os.Exit(1)
		return nil, nil
	}
}

// setupIngestService wires the sources, extractors and ledger into the
// ingest service.
func setupIngestService(
	logger *slog.Logger,
	monitorConfig *config.MonitorConfig,
	leadRepo repository.LeadRepository,
	notifyService notify.Service,
	workerConfig *workerPkg.WorkerConfig,
) *ingest.Service {
	sources := setupSources(logger, monitorConfig)
	if len(sources) == 0 {
		logger.Error("no sources enabled, nothing to poll")
		os.Exit(1)
	}

	relevance := extract.NewRelevanceClassifier(monitorConfig.EffectiveIntentPhrases())
	localities := extract.NewLocalityExtractor(monitorConfig.EffectiveLocalities())
	builder := leadUC.NewBuilder(relevance, localities, nil)

	return ingest.NewService(sources, builder, leadRepo, notifyService, workerConfig.SourceTimeout)
}

// setupSources builds the enabled post sources.
//
// Environment variables:
//   - SEARCH_API_ENABLED: Boolean flag for the bulk search API source (default: true)
//   - SEARCH_API_URL: Search API root (default: "https://api.pushshift.io")
//   - RSS_ENABLED: Boolean flag for the per-subreddit RSS source (default: true)
//   - RSS_BASE_URL: RSS host override, useful for tests (default: "https://www.reddit.com")
func setupSources(logger *slog.Logger, monitorConfig *config.MonitorConfig) []ingest.Source {
	var sources []ingest.Source

	if envBoolDefaultTrue("SEARCH_API_ENABLED") {
		baseURL := os.Getenv("SEARCH_API_URL")
		if baseURL == "" {
			baseURL = "https://api.pushshift.io"
		}
		searchSource := source.NewSearchAPISource(source.SearchAPIConfig{
			Enabled:     true,
			BaseURL:     baseURL,
			Communities: monitorConfig.Subreddits,
		})
		sources = append(sources, searchSource)
		logger.Info("search API source enabled", slog.String("base_url", baseURL))
	} else {
		logger.Info("search API source disabled")
	}

	if envBoolDefaultTrue("RSS_ENABLED") {
		rssSource := source.NewRSSSource(source.RSSConfig{
			Enabled:     true,
			BaseURL:     os.Getenv("RSS_BASE_URL"),
			Communities: monitorConfig.Subreddits,
		})
		sources = append(sources, rssSource)
		logger.Info("RSS source enabled")
	} else {
		logger.Info("RSS source disabled")
	}

	return sources
}

// envBoolDefaultTrue reads a boolean environment variable that defaults to
// enabled. Only an explicit "false" turns the feature off.
func envBoolDefaultTrue(key string) bool {
	return os.Getenv(key) != "false"
}

// loadTelegramConfig loads Telegram configuration from environment variables.
//
// Environment variables:
//   - TELEGRAM_ENABLED: Boolean flag to enable Telegram notifications (default: false)
//   - TELEGRAM_BOT_TOKEN: Bot API token (required if enabled)
//   - TELEGRAM_CHAT_ID: Target chat or channel id (required if enabled)
//
// Returns:
//   - notifier.TelegramConfig: Configuration with validation applied
func loadTelegramConfig(logger *slog.Logger) notifier.TelegramConfig {
	enabled := os.Getenv("TELEGRAM_ENABLED") == "true"
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatID := os.Getenv("TELEGRAM_CHAT_ID")

	if !enabled {
		return notifier.TelegramConfig{Enabled: false}
	}

	if botToken == "" {
		logger.Warn("Telegram bot token is empty, disabling notifications")
		return notifier.TelegramConfig{Enabled: false}
	}

	// Tokens look like "123456789:AAEhBOweik6ad..."; reject anything that
	// obviously is not one before it ends up in request URLs.
	if !strings.Contains(botToken, ":") {
		logger.Warn("Telegram bot token has invalid format, disabling notifications")
		return notifier.TelegramConfig{Enabled: false}
	}

	if chatID == "" {
		logger.Warn("Telegram chat id is empty, disabling notifications")
		return notifier.TelegramConfig{Enabled: false}
	}

	return notifier.TelegramConfig{
		Enabled:  true,
		BotToken: botToken,
		ChatID:   chatID,
		Timeout:  30 * time.Second,
	}
}

// loadSlackConfig loads Slack configuration from environment variables.
//
// Environment variables:
//   - SLACK_ENABLED: Boolean flag to enable Slack notifications (default: false)
//   - SLACK_WEBHOOK_URL: Slack webhook URL (required if enabled)
//
// Returns:
//   - notifier.SlackConfig: Configuration with validation applied
func loadSlackConfig(logger *slog.Logger) notifier.SlackConfig {
	enabled := os.Getenv("SLACK_ENABLED") == "true"
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")

	if !enabled {
		return notifier.SlackConfig{Enabled: false}
	}

	// Validate webhook URL format
	if webhookURL == "" {
		logger.Warn("Slack webhook URL is empty, disabling notifications")
		return notifier.SlackConfig{Enabled: false}
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		logger.Warn("Invalid Slack webhook URL format, disabling notifications", slog.Any("error", err))
		return notifier.SlackConfig{Enabled: false}
	}

	if u.Scheme != "https" {
		logger.Warn("Slack webhook URL must use HTTPS, disabling notifications")
		return notifier.SlackConfig{Enabled: false}
	}

	if u.Host != "hooks.slack.com" {
		logger.Warn("Invalid Slack webhook host, disabling notifications", slog.String("host", u.Host))
		return notifier.SlackConfig{Enabled: false}
	}

	if !strings.HasPrefix(u.Path, "/services/") {
		logger.Warn("Invalid Slack webhook path, disabling notifications", slog.String("path", u.Path))
		return notifier.SlackConfig{Enabled: false}
	}

	return notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: webhookURL,
		Timeout:    30 * time.Second,
	}
}

// startPollWorker starts the poll scheduler and blocks forever.
func startPollWorker(
	logger *slog.Logger,
	svc *ingest.Service,
	cfg *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
	healthServer *workerPkg.HealthServer,
) {
	scheduler := ingest.NewScheduler(cron.New(), svc, cfg.PollInterval, cfg.CycleTimeout)
	scheduler.OnCycleEnd = func(stats *ingest.CycleStats, err error) {
		if err != nil {
			metrics.RecordJobRun("failure")
			if stats != nil {
				metrics.RecordJobDuration(stats.Duration.Seconds())
			}
			return
		}
		metrics.RecordJobRun("success")
		metrics.RecordJobDuration(stats.Duration.Seconds())
		metrics.RecordLeadsCommitted(stats.Committed)
		metrics.RecordLastSuccess()
	}

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	// Mark as ready after the scheduler is running
	healthServer.SetReady(true)
	logger.Info("worker marked as ready")

	// The cron runner waits a full interval before the first tick, so run
	// one cycle immediately to pick up the backlog.
	go runInitialCycle(logger, svc, cfg, metrics)

	logger.Info("worker started", slog.Duration("poll_interval", cfg.PollInterval))
	select {}
}

// runInitialCycle executes the first poll cycle right after startup.
func runInitialCycle(logger *slog.Logger, svc *ingest.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.CycleTimeout)
	defer cancel()

	stats, err := svc.RunCycle(ctx)
	if err != nil {
		logger.Error("initial poll cycle failed", slog.Any("error", err))
		metrics.RecordJobRun("failure")
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(stats.Duration.Seconds())
	metrics.RecordLeadsCommitted(stats.Committed)
	metrics.RecordLastSuccess()

	logger.Info("initial poll cycle completed",
		slog.Int("sources", stats.Sources),
		slog.Int64("items", stats.Items),
		slog.Int64("committed", stats.Committed),
		slog.Int64("duplicated", stats.Duplicated),
		slog.Duration("duration", stats.Duration),
	)
}
