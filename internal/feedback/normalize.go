package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/feedbackhq/feedbackd/pkg/enums"
	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
	"github.com/feedbackhq/feedbackd/pkg/logger"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
	"github.com/google/uuid"
)

// SubmissionKind tags the raw submission shape. The set is closed: every
// inbound path maps to exactly one of these.
type SubmissionKind int

const (
	// KindEnvelope is the native feedback envelope.
	KindEnvelope SubmissionKind = iota
	// KindLegacyReport is the legacy user-report form payload.
	KindLegacyReport
	// KindReplayShim is a legacy report whose replay linkage comes from the
	// correlated original event.
	KindReplayShim
)

// UserReport is the legacy user-report form payload.
type UserReport struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Comments string `json:"comments"`
	EventID  string `json:"event_id,omitempty"`
	Level    string `json:"level,omitempty"`
}

// AssociatedEvent is the correlated original error event a legacy report
// points at. It may be absent when the event has expired or never arrived.
type AssociatedEvent struct {
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	Level       string    `json:"level,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	Environment string    `json:"environment,omitempty"`
	Tags        []TagPair `json:"tags,omitempty"`
	ReplayID    string    `json:"replay_id,omitempty"`
}

// RawSubmission is the union of the three accepted input shapes.
type RawSubmission struct {
	Kind      SubmissionKind
	Source    enums.FeedbackSource
	ProjectID int64

	// Envelope is set for KindEnvelope.
	Envelope *Event
	// Report is set for KindLegacyReport and KindReplayShim.
	Report *UserReport
	// Associated is the correlated original event, optional for
	// KindLegacyReport and required for KindReplayShim.
	Associated *AssociatedEvent
}

// Normalizer converts raw submissions into canonical events. It raises
// monitoring counters but performs no other side effects.
type Normalizer struct {
	metrics *metrics.PipelineMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewNormalizer(m *metrics.PipelineMetrics, logg *logger.Logger) *Normalizer {
	return &Normalizer{metrics: m, logg: logg, now: time.Now}
}

// Normalize produces a canonical event from any accepted submission shape.
func (n *Normalizer) Normalize(ctx context.Context, sub RawSubmission) (*Event, error) {
	switch sub.Kind {
	case KindEnvelope:
		return n.normalizeEnvelope(sub)
	case KindLegacyReport:
		return n.normalizeReport(ctx, sub)
	case KindReplayShim:
		if sub.Associated == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNormalization, "replay shim requires an associated event")
		}
		return n.normalizeReport(ctx, sub)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNormalization, "unknown submission kind")
	}
}

func (n *Normalizer) normalizeEnvelope(sub RawSubmission) (*Event, error) {
	if sub.Envelope == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNormalization, "envelope payload missing")
	}

	event := *sub.Envelope
	applyDefaults(&event)
	return &event, nil
}

func (n *Normalizer) normalizeReport(ctx context.Context, sub RawSubmission) (*Event, error) {
	report := sub.Report
	if report == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNormalization, "user report payload missing")
	}

	comments := report.Comments
	event := &Event{
		Contexts: Contexts{
			Feedback: &FeedbackContext{
				Name:         report.Name,
				ContactEmail: report.Email,
				Message:      &comments,
			},
		},
	}

	if assoc := sub.Associated; assoc != nil {
		event.Contexts.Feedback.AssociatedEventID = assoc.EventID
		if assoc.ReplayID != "" {
			event.Contexts.Replay = &ReplayContext{ReplayID: assoc.ReplayID}
			event.Contexts.Feedback.ReplayID = assoc.ReplayID
		}
		event.Timestamp = float64(assoc.Timestamp.UnixNano()) / float64(time.Second)
		event.Level = assoc.Level
		event.Platform = assoc.Platform
		event.Environment = assoc.Environment
		event.Tags = append([]TagPair(nil), assoc.Tags...)
	} else {
		// Degraded mode: the original event is gone but the user report is
		// still worth keeping. Counted so operators can see the gap.
		n.metrics.IncMissingAssociatedEvent()
		if n.logg != nil {
			n.logg.Warn(ctx, "user report arrived without its associated event")
		}

		event.Timestamp = float64(n.now().UTC().UnixNano()) / float64(time.Second)
		event.Platform = "other"
		event.Level = report.Level
		if event.Level == "" {
			event.Level = "info"
		}

		if report.EventID != "" {
			event.Contexts.Feedback.AssociatedEventID = report.EventID
		}
	}

	applyDefaults(event)
	return event, nil
}

func applyDefaults(event *Event) {
	if strings.TrimSpace(event.EventID) == "" {
		event.EventID = newHexID()
	}
	if event.Platform == "" {
		event.Platform = "other"
	}
	if event.Level == "" {
		event.Level = "info"
	}
	if event.Environment == "" {
		event.Environment = "production"
	}
	if event.User == nil {
		event.User = map[string]any{}
	}
	if event.Request == nil {
		event.Request = map[string]any{}
	}
}

// newHexID returns a fresh random identifier in the 32-char hex form the
// downstream platform expects.
func newHexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
