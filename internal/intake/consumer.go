package intake

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/feedbackhq/feedbackd/internal/dedupe"
	"github.com/feedbackhq/feedbackd/internal/feedback"
	"github.com/feedbackhq/feedbackd/pkg/enums"
	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
	"github.com/feedbackhq/feedbackd/pkg/logger"
)

// Message kinds accepted on the intake subscription.
const (
	KindEnvelope   = "envelope"
	KindUserReport = "user_report"
	KindReplayShim = "replay_shim"
)

// Message is the wire shape of one queued submission.
type Message struct {
	Kind      string               `json:"kind"`
	Source    enums.FeedbackSource `json:"source"`
	ProjectID int64                `json:"project_id"`

	Envelope   *feedback.Event           `json:"envelope,omitempty"`
	Report     *feedback.UserReport      `json:"report,omitempty"`
	Associated *feedback.AssociatedEvent `json:"associated_event,omitempty"`
}

type ingestService interface {
	Process(ctx context.Context, sub feedback.RawSubmission) (*feedback.Result, error)
}

// Consumer drains the intake subscription and feeds the pipeline. Poison
// messages are acked after logging; retryable failures are nacked for
// redelivery.
type Consumer struct {
	pipeline     ingestService
	guard        *dedupe.Guard
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

func NewConsumer(pipeline ingestService, guard *dedupe.Guard, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if subscription == nil {
		return nil, errors.New("intake subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		pipeline:     pipeline,
		guard:        guard,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msgID string, data []byte) processResult {
	logCtx := ctx
	if c.logg != nil {
		logCtx = c.logg.WithField(ctx, "message_id", msgID)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal intake message", err)
		return processResult{ack: true}
	}

	sub, err := message.toSubmission()
	if err != nil {
		c.logg.Error(logCtx, "rejected malformed intake message", err)
		return processResult{ack: true}
	}

	eventID := submissionEventID(&message)
	if c.guard.Seen(logCtx, message.ProjectID, eventID) {
		c.logg.Info(logCtx, "skipping redelivered submission")
		return processResult{ack: true}
	}

	if _, err := c.pipeline.Process(logCtx, sub); err != nil {
		if isRetryable(err) {
			// Clear the dedupe marker so the redelivery is not dropped.
			c.guard.Forget(logCtx, message.ProjectID, eventID)
			c.logg.Error(logCtx, "submission failed, nacking for redelivery", err)
			return processResult{nack: true}
		}
		c.logg.Error(logCtx, "submission rejected", err)
		return processResult{ack: true}
	}

	return processResult{ack: true}
}

func (m *Message) toSubmission() (feedback.RawSubmission, error) {
	sub := feedback.RawSubmission{
		Source:     m.Source,
		ProjectID:  m.ProjectID,
		Envelope:   m.Envelope,
		Report:     m.Report,
		Associated: m.Associated,
	}
	if m.ProjectID <= 0 {
		return sub, errors.New("project id must be positive")
	}
	switch m.Kind {
	case KindEnvelope:
		sub.Kind = feedback.KindEnvelope
	case KindUserReport:
		sub.Kind = feedback.KindLegacyReport
	case KindReplayShim:
		sub.Kind = feedback.KindReplayShim
	default:
		return sub, errors.New("unknown submission kind " + m.Kind)
	}
	return sub, nil
}

// submissionEventID picks the identifier the dedupe guard keys on. Messages
// without one are processed every delivery.
func submissionEventID(m *Message) string {
	if m.Envelope != nil && m.Envelope.EventID != "" {
		return m.Envelope.EventID
	}
	if m.Report != nil && m.Report.EventID != "" {
		return m.Report.EventID
	}
	return ""
}

func isRetryable(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		// Unclassified errors get a retry; the dedupe guard caps the damage.
		return true
	}
	return pkgerrors.MetadataFor(typed.Code()).Retryable
}
