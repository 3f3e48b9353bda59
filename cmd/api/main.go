// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"civicpulse/internal/adapter/storage"
	"civicpulse/internal/config"
	"civicpulse/internal/metrics"
	"civicpulse/internal/server"
	"civicpulse/internal/service/classify"
	"civicpulse/internal/service/feedback"
	"civicpulse/internal/service/pipeline"
	"civicpulse/internal/service/scoring"
)

func main() {
	// .env is optional; real deployments set the environment directly
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := newLogger(cfg.Environment)
	log.Logger = logger

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer natsConn.Close()

	// Initialize storage adapters
	trendStore := storage.NewTrendStore(db)
	orgStore := storage.NewOrgStore(db)
	affinityStore := storage.NewAffinityStore(db)
	relevanceStore := storage.NewRelevanceStore(db)
	filterLogStore := storage.NewFilterLogStore(db)
	campaignStore := storage.NewCampaignStore(db)

	// Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engineMetrics := metrics.New(registry)

	// Initialize the scoring engine
	classifier := classify.NewClassifier(
		classify.DefaultReference(),
		nil,
		classify.Config{
			FallbackTimeout:  cfg.Classifier.FallbackTimeout,
			DefaultGeography: cfg.Classifier.DefaultGeography,
		},
		logger,
	)
	scorer := scoring.NewScorer(scoring.DefaultWeights(), logger)
	selector := scoring.NewSelector()

	// Initialize the batch refresh pipeline
	batch := pipeline.NewBatch(
		trendStore,
		orgStore,
		affinityStore,
		relevanceStore,
		filterLogStore,
		classifier,
		scorer,
		selector,
		natsConn,
		pipeline.BatchConfig{
			Workers:     cfg.Pipeline.Workers,
			MinScore:    cfg.Scoring.MinScore,
			SlateSize:   cfg.Scoring.SlateSize,
			EventsTopic: cfg.Pipeline.EventsTopic,
		},
		engineMetrics,
		logger,
	)

	// Initialize the feedback loop
	loopConfig := feedback.DefaultLoopConfig()
	loopConfig.Alpha = cfg.Feedback.Alpha
	loopConfig.Lookback = cfg.Feedback.Lookback
	loopConfig.MinCorrelation = cfg.Feedback.MinCorrelation
	loopConfig.BatchLimit = cfg.Feedback.BatchLimit
	loop := feedback.NewLoop(campaignStore, trendStore, affinityStore, loopConfig, logger)

	// Initialize the decay scheduler
	decayer := feedback.NewDecayer(
		affinityStore,
		feedback.DecayConfig{
			Staleness: cfg.Decay.Staleness,
			Factor:    cfg.Decay.Factor,
			Floor:     cfg.Decay.Floor,
		},
		logger,
	)

	// Start the periodic jobs
	scheduler := pipeline.NewScheduler(
		batch,
		loop,
		decayer,
		pipeline.SchedulerConfig{
			RefreshInterval:  cfg.Pipeline.RefreshInterval,
			FeedbackInterval: cfg.Pipeline.FeedbackInterval,
			DecayInterval:    cfg.Pipeline.DecayInterval,
		},
		logger,
	)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, cfg.Scoring, cfg.Pipeline.EventsTopic, server.Dependencies{
		Trends:   trendStore,
		Profiles: orgStore,
		Results:  relevanceStore,
		Selector: selector,
		Refresh:  batch,
		Feedback: loop,
		Decay:    decayer,
		NATS:     natsConn,
		Registry: registry,
	})

	// Start HTTP server
	go func() {
		logger.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info().Msg("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Scheduler shutdown error")
	}

	logger.Info().Msg("Shutdown complete")
}

// newLogger builds the process logger. Development gets console output,
// everything else structured JSON.
func newLogger(environment string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger zerolog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
