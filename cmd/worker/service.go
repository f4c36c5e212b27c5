package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/feedbackhq/feedbackd/internal/dedupe"
	"github.com/feedbackhq/feedbackd/internal/feedback"
	"github.com/feedbackhq/feedbackd/internal/intake"
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

type ServiceParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	PubSub  *pubsub.Client
	Metrics *metrics.PipelineMetrics
}

// Service owns the intake consumer and its dependencies.
type Service struct {
	cfg      *config.Config
	logg     *logger.Logger
	db       *db.Client
	redis    *redis.Client
	pubsub   *pubsub.Client
	consumer *intake.Consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Metrics == nil {
		return nil, errors.New("pipeline metrics are required")
	}

	store, err := projects.NewStore(params.DB.DB())
	if err != nil {
		return nil, fmt.Errorf("creating project store: %w", err)
	}

	var classifier spam.Classifier
	if httpClassifier := spam.NewHTTPClassifier(params.Config.Classifier); httpClassifier != nil {
		classifier = httpClassifier
	}

	dispatcher := signals.NewDispatcher(params.Metrics, params.Logger)
	dispatcher.Connect(signals.SignalFirstFeedbackReceived, logSignal(params.Logger, "project received its first feedback"))
	dispatcher.Connect(signals.SignalFirstNewFeedbackReceived, logSignal(params.Logger, "project received its first new feedback"))

	occurrencesPub := params.PubSub.OccurrencesPublisher()
	outcomesPub := params.PubSub.OutcomesPublisher()

	producer := occurrences.NewProducer(func(ctx context.Context, payload any, attrs map[string]string) error {
		return pubsub.PublishJSON(ctx, occurrencesPub, payload, attrs)
	})
	recorder := outcomes.NewStreamRecorder(func(ctx context.Context, payload any, attrs map[string]string) error {
		return pubsub.PublishJSON(ctx, outcomesPub, payload, attrs)
	}, params.Metrics)

	pipeline := feedback.NewPipeline(feedback.PipelineParams{
		Spam:       spam.NewAdapter(classifier, params.Metrics, params.Logger),
		Store:      store,
		Dispatcher: dispatcher,
		Producer:   producer,
		Recorder:   recorder,
		Metrics:    params.Metrics,
		Logger:     params.Logger,
	})

	guard := dedupe.NewGuard(params.Redis, params.Config.Redis.DedupeTTL, params.Logger)

	consumer, err := intake.NewConsumer(pipeline, guard, params.PubSub.IntakeSubscription(), params.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating intake consumer: %w", err)
	}

	return &Service{
		cfg:      params.Config,
		logg:     params.Logger,
		db:       params.DB,
		redis:    params.Redis,
		pubsub:   params.PubSub,
		consumer: consumer,
	}, nil
}

func logSignal(logg *logger.Logger, message string) signals.Subscriber {
	return func(ctx context.Context, project *projects.Project) error {
		ctx = logg.WithProjectID(ctx, project.ID)
		logg.Info(ctx, message)
		return nil
	}
}

type dependencyPing struct {
	name string
	fn   func(context.Context) error
}

// ensureReadiness pings every dependency so a misconfigured worker reports
// all unreachable backends in one pass instead of failing on the first.
func (s *Service) ensureReadiness(ctx context.Context) error {
	err := pingAll(ctx, s.logg, []dependencyPing{
		{"database", s.db.Ping},
		{"redis", s.redis.Ping},
		{"pubsub", s.pubsub.Ping},
	})
	if err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingAll(ctx context.Context, logg *logger.Logger, pings []dependencyPing) error {
	var errs []error
	for _, ping := range pings {
		errs = append(errs, pingDependency(ctx, logg, ping.name, ping.fn))
	}
	return multierr.Combine(errs...)
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run blocks on the intake subscription until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	return s.consumer.Run(ctx)
}
