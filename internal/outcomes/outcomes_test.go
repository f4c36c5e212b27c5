package outcomes

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/feedbackhq/feedbackd/pkg/enums"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
)

func TestAcceptedRecordShape(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	record := Accepted(10, 20, "deadbeefdeadbeefdeadbeefdeadbeef", at)

	if record.Outcome != enums.OutcomeAccepted {
		t.Fatalf("expected accepted outcome, got %q", record.Outcome)
	}
	if record.Category != enums.CategoryUserReportV2 {
		t.Fatalf("expected user_report_v2 category, got %q", record.Category)
	}
	if record.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", record.Quantity)
	}
	if record.KeyID != nil || record.Reason != nil {
		t.Fatal("expected key_id and reason to be null")
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if decoded["key_id"] != nil {
		t.Fatalf("expected key_id null in JSON, got %v", decoded["key_id"])
	}
	if decoded["outcome"] != "accepted" {
		t.Fatalf("expected outcome accepted in JSON, got %v", decoded["outcome"])
	}
}

func TestStreamRecorderPublishesWithAttributes(t *testing.T) {
	var gotAttrs map[string]string
	var gotPayload any
	recorder := NewStreamRecorder(func(ctx context.Context, payload any, attrs map[string]string) error {
		gotPayload = payload
		gotAttrs = attrs
		return nil
	}, metrics.NewPipelineMetrics(nil))

	record := Accepted(1, 2, "abc", time.Now())
	if err := recorder.TrackOutcome(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAttrs["payload_type"] != "outcome" {
		t.Fatalf("expected payload_type outcome, got %q", gotAttrs["payload_type"])
	}
	if gotAttrs["outcome"] != "accepted" || gotAttrs["category"] != "user_report_v2" {
		t.Fatalf("unexpected attributes %v", gotAttrs)
	}
	if gotPayload.(Record).EventID != "abc" {
		t.Fatal("expected the record to be published as payload")
	}
}

func TestStreamRecorderSurfacesPublishError(t *testing.T) {
	wantErr := errors.New("stream unavailable")
	recorder := NewStreamRecorder(func(context.Context, any, map[string]string) error {
		return wantErr
	}, metrics.NewPipelineMetrics(nil))

	err := recorder.TrackOutcome(context.Background(), Accepted(1, 2, "abc", time.Now()))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected publish error, got %v", err)
	}
}
