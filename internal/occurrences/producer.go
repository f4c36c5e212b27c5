package occurrences

import (
	"context"
	"strconv"

	"github.com/feedbackhq/feedbackd/internal/feedback"
)

// Envelope pairs an occurrence with its issue-platform event on the wire.
type Envelope struct {
	Occurrence *feedback.Occurrence         `json:"occurrence"`
	Event      *feedback.IssuePlatformEvent `json:"event"`
}

type publishFunc func(ctx context.Context, payload any, attrs map[string]string) error

// Producer publishes occurrences and status changes on the occurrence stream.
// It satisfies feedback.OccurrenceProducer.
type Producer struct {
	publish publishFunc
}

func NewProducer(publish publishFunc) *Producer {
	return &Producer{publish: publish}
}

func (p *Producer) ProduceOccurrence(ctx context.Context, occurrence *feedback.Occurrence, event *feedback.IssuePlatformEvent) error {
	attrs := map[string]string{
		"payload_type": "occurrence",
		"project_id":   strconv.FormatInt(occurrence.ProjectID, 10),
	}
	return p.publish(ctx, Envelope{Occurrence: occurrence, Event: event}, attrs)
}

func (p *Producer) ProduceStatusChange(ctx context.Context, change *feedback.StatusChange) error {
	attrs := map[string]string{
		"payload_type": "status_change",
		"project_id":   strconv.FormatInt(change.ProjectID, 10),
	}
	return p.publish(ctx, change, attrs)
}
