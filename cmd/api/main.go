// Package main is the entrypoint for the hostelreview API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/hostelreview/hostelreview/internal/auth"
	"github.com/hostelreview/hostelreview/internal/config"
	"github.com/hostelreview/hostelreview/internal/handler"
	"github.com/hostelreview/hostelreview/internal/metrics"
	"github.com/hostelreview/hostelreview/internal/probe"
	"github.com/hostelreview/hostelreview/internal/repository"
	"github.com/hostelreview/hostelreview/internal/server"
	"github.com/hostelreview/hostelreview/internal/service"
	"github.com/hostelreview/hostelreview/internal/telemetry"
	"github.com/hostelreview/hostelreview/internal/upload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize view telemetry. Connection happens in the background;
	// the server starts serving whether or not Redis is reachable.
	tracker, closeTelemetry := initTelemetry(cfg, logger, recorder)

	// Initialize image storage
	bucket, err := upload.OpenBucket(ctx, cfg.UploadBucketURL)
	if err != nil {
		logger.Error("failed to open upload bucket", slog.String("error", sanitizeError(err, cfg.UploadBucketURL)))
		os.Exit(1)
	}

	// Initialize sessions and sign-in
	sessions, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	if err != nil {
		logger.Error("failed to initialize sessions", "error", err)
		os.Exit(1)
	}
	var provider handler.IdentityProvider
	if cfg.OAuthEnabled() {
		provider = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
		})
	} else {
		logger.Warn("google sign-in disabled: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	// Initialize services
	catalogService := service.NewCatalogService(repo)
	reviewService := service.NewReviewService(repo, recorder)
	userService := service.NewUserService(repo)
	uploadService := upload.NewService(bucket, repo, cfg.MaxUploadSize, logger, recorder)
	prober := probe.New(probe.Config{
		BaseURL:       cfg.ProbeBaseURL,
		DownloadBytes: cfg.ProbeDownloadBytes,
		UploadBytes:   cfg.ProbeUploadBytes,
		Timeout:       cfg.ProbeTimeout,
		Parallel:      cfg.ProbeParallel,
	}, probe.NewHTTPClient(), logger, recorder)

	// Setup router
	r := setupRouter(routerDeps{
		cfg:       cfg,
		logger:    logger,
		sessions:  sessions,
		tracker:   tracker,
		base:      handler.New(),
		health:    handler.NewHealthHandler(repo, tracker),
		metrics:   handler.NewMetricsHandler(registry),
		pages:     handler.NewPageHandler(catalogService, tracker, logger),
		reviews:   handler.NewReviewHandler(reviewService, logger),
		speedtest: handler.NewSpeedTestHandler(prober, logger),
		auth:      handler.NewAuthHandler(sessions, provider, userService, logger),
		images:    handler.NewImageHandler(uploadService, logger),
		limiter:   rate.NewLimiter(rate.Limit(cfg.SpeedTestRPS), cfg.SpeedTestBurst),
	})

	// Create and run server
	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Closed in reverse order of registration.
	srv.OnShutdown("database", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("telemetry", closeTelemetry)
	srv.OnShutdown("upload bucket", func(ctx context.Context) error {
		return bucket.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"telemetry", cfg.TelemetryEnabled(),
		"oauth", cfg.OAuthEnabled(),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initTelemetry builds the tracker for the configured backend and returns
// the function that releases it.
func initTelemetry(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*telemetry.Tracker, server.ShutdownFunc) {
	noop := func(ctx context.Context) error { return nil }

	if !cfg.TelemetryEnabled() {
		logger.Info("view telemetry disabled: REDIS_HOST not set")
		return telemetry.NewTracker(nil, logger, recorder, cfg.TelemetryOpTimeout), noop
	}

	if cfg.TelemetryBackend == "memory" {
		logger.Info("view telemetry using in-process store")
		return telemetry.NewTracker(telemetry.NewMemoryBackend(), logger, recorder, cfg.TelemetryOpTimeout), noop
	}

	client := telemetry.NewClient(telemetry.ClientOptions{
		Addr:          cfg.RedisAddr(),
		Password:      cfg.RedisPassword,
		TLS:           cfg.RedisTLS,
		TLSSkipVerify: cfg.RedisTLSSkipVerify,
		MaxReconnects: cfg.TelemetryMaxReconnects,
	}, logger, recorder)
	tracker := telemetry.NewTracker(telemetry.NewRedisBackend(client), logger, recorder, cfg.TelemetryOpTimeout)

	client.OnReady(func(ctx context.Context) {
		tracker.RebuildEntityIndex(ctx)
	})
	client.Start()

	return tracker, func(ctx context.Context) error {
		return client.Close()
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "hostelreview")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL drops the password from a connection URL for logging.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError replaces any secret URL in err's message with its redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
