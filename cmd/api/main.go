package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/feedbackhq/feedbackd/api/controllers"
	"github.com/feedbackhq/feedbackd/api/routes"
	"github.com/feedbackhq/feedbackd/internal/feedback"
	"github.com/feedbackhq/feedbackd/internal/occurrences"
	"github.com/feedbackhq/feedbackd/internal/outcomes"
	"github.com/feedbackhq/feedbackd/internal/projects"
	"github.com/feedbackhq/feedbackd/internal/signals"
	"github.com/feedbackhq/feedbackd/internal/spam"
	"github.com/feedbackhq/feedbackd/pkg/config"
	"github.com/feedbackhq/feedbackd/pkg/db"
	"github.com/feedbackhq/feedbackd/pkg/logger"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
	"github.com/feedbackhq/feedbackd/pkg/pubsub"
	"github.com/feedbackhq/feedbackd/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if cfg.FeatureFlags.AutoMigrate {
		if err := dbClient.DB().WithContext(ctx).AutoMigrate(projects.Models()...); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := psClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	store, err := projects.NewStore(dbClient.DB())
	if err != nil {
		logg.Error(ctx, "failed to create project store", err)
		os.Exit(1)
	}

	pipeline := buildPipeline(cfg, logg, pipelineMetrics, store, psClient)

	router := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		Ingest:   pipeline,
		Registry: registry,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"pubsub":   psClient,
		},
	})

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sctx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(sctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
		logg.Info(sctx, "api server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(sctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

func buildPipeline(
	cfg *config.Config,
	logg *logger.Logger,
	pipelineMetrics *metrics.PipelineMetrics,
	store projects.Store,
	psClient *pubsub.Client,
) *feedback.Pipeline {
	var classifier spam.Classifier
	if httpClassifier := spam.NewHTTPClassifier(cfg.Classifier); httpClassifier != nil {
		classifier = httpClassifier
	}

	dispatcher := signals.NewDispatcher(pipelineMetrics, logg)
	dispatcher.Connect(signals.SignalFirstFeedbackReceived, logSignal(logg, "project received its first feedback"))
	dispatcher.Connect(signals.SignalFirstNewFeedbackReceived, logSignal(logg, "project received its first new feedback"))

	occurrencesPub := psClient.OccurrencesPublisher()
	outcomesPub := psClient.OutcomesPublisher()

	producer := occurrences.NewProducer(func(ctx context.Context, payload any, attrs map[string]string) error {
		return pubsub.PublishJSON(ctx, occurrencesPub, payload, attrs)
	})
	recorder := outcomes.NewStreamRecorder(func(ctx context.Context, payload any, attrs map[string]string) error {
		return pubsub.PublishJSON(ctx, outcomesPub, payload, attrs)
	}, pipelineMetrics)

	return feedback.NewPipeline(feedback.PipelineParams{
		Spam:       spam.NewAdapter(classifier, pipelineMetrics, logg),
		Store:      store,
		Dispatcher: dispatcher,
		Producer:   producer,
		Recorder:   recorder,
		Metrics:    pipelineMetrics,
		Logger:     logg,
	})
}

func logSignal(logg *logger.Logger, message string) signals.Subscriber {
	return func(ctx context.Context, project *projects.Project) error {
		ctx = logg.WithProjectID(ctx, project.ID)
		logg.Info(ctx, message)
		return nil
	}
}
