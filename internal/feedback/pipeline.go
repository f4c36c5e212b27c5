package feedback

import (
	"context"
	"time"

	"github.com/feedbackhq/feedbackd/internal/outcomes"
	"github.com/feedbackhq/feedbackd/internal/projects"
	"github.com/feedbackhq/feedbackd/internal/signals"
	"github.com/feedbackhq/feedbackd/internal/spam"
	"github.com/feedbackhq/feedbackd/pkg/enums"
	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
	"github.com/feedbackhq/feedbackd/pkg/logger"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
)

// StatusChange asks the triage system to move the new group into a given
// state. It rides the same stream as occurrences.
type StatusChange struct {
	Fingerprint  []string             `json:"fingerprint"`
	ProjectID    int64                `json:"project_id"`
	NewStatus    enums.GroupStatus    `json:"new_status"`
	NewSubStatus enums.GroupSubStatus `json:"new_substatus"`
}

// OccurrenceProducer publishes occurrences and status changes on the
// durable stream consumed by the issue platform.
type OccurrenceProducer interface {
	ProduceOccurrence(ctx context.Context, occurrence *Occurrence, event *IssuePlatformEvent) error
	ProduceStatusChange(ctx context.Context, change *StatusChange) error
}

// Result reports what the pipeline did with one submission.
type Result struct {
	// Occurrence is nil when the submission was filtered.
	Occurrence     *Occurrence
	FilteredReason FilterReason
	IsSpam         *bool
}

// Pipeline runs a normalized submission through filtering, spam
// classification, occurrence building, schema validation and publication.
type Pipeline struct {
	normalizer *Normalizer
	builder    *Builder
	validator  *SchemaValidator
	spam       *spam.Adapter
	store      projects.Store
	dispatcher *signals.Dispatcher
	producer   OccurrenceProducer
	recorder   outcomes.Recorder
	metrics    *metrics.PipelineMetrics
	logg       *logger.Logger
	now        func() time.Time
}

type PipelineParams struct {
	Spam       *spam.Adapter
	Store      projects.Store
	Dispatcher *signals.Dispatcher
	Producer   OccurrenceProducer
	Recorder   outcomes.Recorder
	Metrics    *metrics.PipelineMetrics
	Logger     *logger.Logger
}

func NewPipeline(p PipelineParams) *Pipeline {
	return &Pipeline{
		normalizer: NewNormalizer(p.Metrics, p.Logger),
		builder:    NewBuilder(),
		validator:  NewSchemaValidator(p.Metrics),
		spam:       p.Spam,
		store:      p.Store,
		dispatcher: p.Dispatcher,
		producer:   p.Producer,
		recorder:   p.Recorder,
		metrics:    p.Metrics,
		logg:       p.Logger,
		now:        time.Now,
	}
}

// Process ingests one raw submission end to end. Filtered submissions
// return a Result with FilteredReason set and no error; they are a
// successful no-op. A publish failure is returned as a retryable error
// and records no outcome.
func (p *Pipeline) Process(ctx context.Context, sub RawSubmission) (*Result, error) {
	p.metrics.IncEntered()

	event, err := p.normalizer.Normalize(ctx, sub)
	if err != nil {
		return nil, err
	}

	ctx = p.logContext(ctx, event, sub)

	if reason := ShouldFilter(event); reason != "" {
		p.metrics.IncFiltered(string(reason))
		if p.logg != nil {
			fctx := p.logg.WithField(ctx, "reason", string(reason))
			p.logg.Info(fctx, "feedback filtered")
		}
		return &Result{FilteredReason: reason}, nil
	}

	project, err := p.store.GetProject(ctx, sub.ProjectID)
	if err != nil {
		return nil, err
	}

	isSpam := p.classify(ctx, event, project)

	occurrence, platformEvent, err := p.builder.Build(event, project.ID, sub.Source, isSpam)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building occurrence")
	}

	if err := p.validator.Validate(platformEvent); err != nil {
		return nil, err
	}

	// First-seen latches fire before the publish so subscribers observe
	// project state that already reflects this feedback.
	p.fireFirstSeenSignals(ctx, project, sub.Source)

	start := p.now()
	if err := p.producer.ProduceOccurrence(ctx, occurrence, platformEvent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePublish, err, "publishing occurrence")
	}
	p.metrics.ObservePublishDuration(p.now().Sub(start))

	if isSpam != nil && *isSpam {
		p.autoIgnoreSpam(ctx, project, occurrence)
	}

	p.metrics.IncProduced(string(sub.Source), event.ClientSource())

	record := outcomes.Accepted(project.OrganizationID, project.ID, occurrence.EventID, event.DetectionTime())
	if err := p.recorder.TrackOutcome(ctx, record); err != nil {
		// Accounting failures never fail an already-published occurrence.
		if p.logg != nil {
			p.logg.Error(ctx, "recording outcome failed", err)
		}
	}

	if p.logg != nil {
		p.logg.Info(ctx, "feedback occurrence produced")
	}
	return &Result{Occurrence: occurrence, IsSpam: isSpam}, nil
}

func (p *Pipeline) logContext(ctx context.Context, event *Event, sub RawSubmission) context.Context {
	if p.logg == nil {
		return ctx
	}
	ctx = p.logg.WithProjectID(ctx, sub.ProjectID)
	ctx = p.logg.WithSource(ctx, string(sub.Source))
	if event.EventID != "" {
		ctx = p.logg.WithEventID(ctx, event.EventID)
	}
	return ctx
}

// classify runs the spam classifier when both the organization flag and the
// project option allow it. Any failure inside the adapter yields nil.
func (p *Pipeline) classify(ctx context.Context, event *Event, project *projects.Project) *bool {
	if !project.SpamDetectionEnabled {
		return nil
	}
	enabled, err := p.store.HasFeature(ctx, project.OrganizationID, projects.FeatureSpamFilterIngest)
	if err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "checking spam ingest feature failed", err)
		}
		return nil
	}
	if !enabled {
		return nil
	}
	return p.spam.Verdict(ctx, event.Message())
}

func (p *Pipeline) fireFirstSeenSignals(ctx context.Context, project *projects.Project, source enums.FeedbackSource) {
	fired, err := p.store.MarkHasFeedbacks(ctx, project.ID)
	if err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "marking first feedback failed", err)
		}
	} else if fired {
		p.dispatcher.Send(ctx, signals.SignalFirstFeedbackReceived, project)
	}

	if !source.IsNewFeedback() {
		return
	}
	fired, err = p.store.MarkHasNewFeedbacks(ctx, project.ID)
	if err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "marking first new feedback failed", err)
		}
	} else if fired {
		p.dispatcher.Send(ctx, signals.SignalFirstNewFeedbackReceived, project)
	}
}

// autoIgnoreSpam moves the spam group straight to the ignored state when the
// organization opted into spam triage actions. Failures are logged only.
func (p *Pipeline) autoIgnoreSpam(ctx context.Context, project *projects.Project, occurrence *Occurrence) {
	enabled, err := p.store.HasFeature(ctx, project.OrganizationID, projects.FeatureSpamFilterActions)
	if err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "checking spam actions feature failed", err)
		}
		return
	}
	if !enabled {
		return
	}

	change := &StatusChange{
		Fingerprint:  occurrence.Fingerprint,
		ProjectID:    project.ID,
		NewStatus:    enums.GroupStatusIgnored,
		NewSubStatus: enums.GroupSubStatusForever,
	}
	if err := p.producer.ProduceStatusChange(ctx, change); err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "publishing spam status change failed", err)
		}
		return
	}
	p.metrics.IncSpamIgnored()
}
