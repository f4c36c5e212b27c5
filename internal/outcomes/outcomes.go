package outcomes

import (
	"context"
	"time"

	"github.com/feedbackhq/feedbackd/pkg/enums"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
)

// Record is a single accounting entry for a processed feedback.
type Record struct {
	OrgID     int64              `json:"org_id"`
	ProjectID int64              `json:"project_id"`
	KeyID     *int64             `json:"key_id"`
	Outcome   enums.Outcome      `json:"outcome"`
	Reason    *string            `json:"reason"`
	Timestamp time.Time          `json:"timestamp"`
	EventID   string             `json:"event_id"`
	Category  enums.DataCategory `json:"category"`
	Quantity  int                `json:"quantity"`
}

// Recorder writes outcome records to the accounting stream.
type Recorder interface {
	TrackOutcome(ctx context.Context, record Record) error
}

// Accepted builds the standard record for a feedback that produced an occurrence.
func Accepted(orgID, projectID int64, eventID string, at time.Time) Record {
	return Record{
		OrgID:     orgID,
		ProjectID: projectID,
		Outcome:   enums.OutcomeAccepted,
		Timestamp: at.UTC(),
		EventID:   eventID,
		Category:  enums.CategoryUserReportV2,
		Quantity:  1,
	}
}

type publishFunc func(ctx context.Context, payload any, attrs map[string]string) error

// StreamRecorder publishes outcome records on the outcomes topic.
type StreamRecorder struct {
	publish publishFunc
	metrics *metrics.PipelineMetrics
}

func NewStreamRecorder(publish publishFunc, m *metrics.PipelineMetrics) *StreamRecorder {
	return &StreamRecorder{publish: publish, metrics: m}
}

func (r *StreamRecorder) TrackOutcome(ctx context.Context, record Record) error {
	attrs := map[string]string{
		"payload_type": "outcome",
		"outcome":      string(record.Outcome),
		"category":     string(record.Category),
	}
	if err := r.publish(ctx, record, attrs); err != nil {
		return err
	}
	r.metrics.IncOutcomeRecorded()
	return nil
}
