package occurrences

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/feedbackhq/feedbackd/internal/feedback"
	"github.com/feedbackhq/feedbackd/pkg/enums"
)

func TestProduceOccurrenceEnvelope(t *testing.T) {
	var gotPayload any
	var gotAttrs map[string]string
	producer := NewProducer(func(ctx context.Context, payload any, attrs map[string]string) error {
		gotPayload = payload
		gotAttrs = attrs
		return nil
	})

	occ := &feedback.Occurrence{
		ID:          "a1b2",
		EventID:     "e1",
		ProjectID:   42,
		Fingerprint: []string{"a1b2"},
		IssueTitle:  "User Feedback",
		Type:        feedback.OccurrenceTypeFeedback,
	}
	evt := &feedback.IssuePlatformEvent{
		ProjectID: 42,
		EventID:   "e1",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := producer.ProduceOccurrence(context.Background(), occ, evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAttrs["payload_type"] != "occurrence" || gotAttrs["project_id"] != "42" {
		t.Fatalf("unexpected attributes %v", gotAttrs)
	}

	data, err := json.Marshal(gotPayload)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	var decoded struct {
		Occurrence struct {
			ID          string   `json:"id"`
			Fingerprint []string `json:"fingerprint"`
		} `json:"occurrence"`
		Event struct {
			EventID string `json:"event_id"`
		} `json:"event"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if decoded.Occurrence.ID != "a1b2" || decoded.Event.EventID != "e1" {
		t.Fatalf("unexpected envelope contents %s", data)
	}
	if len(decoded.Occurrence.Fingerprint) != 1 {
		t.Fatalf("expected single-element fingerprint, got %v", decoded.Occurrence.Fingerprint)
	}
}

func TestProduceStatusChange(t *testing.T) {
	var gotAttrs map[string]string
	var gotPayload any
	producer := NewProducer(func(ctx context.Context, payload any, attrs map[string]string) error {
		gotPayload = payload
		gotAttrs = attrs
		return nil
	})

	change := &feedback.StatusChange{
		Fingerprint:  []string{"a1b2"},
		ProjectID:    7,
		NewStatus:    enums.GroupStatusIgnored,
		NewSubStatus: enums.GroupSubStatusForever,
	}
	if err := producer.ProduceStatusChange(context.Background(), change); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAttrs["payload_type"] != "status_change" || gotAttrs["project_id"] != "7" {
		t.Fatalf("unexpected attributes %v", gotAttrs)
	}
	if gotPayload.(*feedback.StatusChange).NewStatus != enums.GroupStatusIgnored {
		t.Fatal("expected ignored status on the published change")
	}

	// Consumers of the shared stream decode the fingerprint as a list, the
	// same shape the occurrence record carries.
	data, err := json.Marshal(gotPayload)
	if err != nil {
		t.Fatalf("marshal status change: %v", err)
	}
	var decoded struct {
		Fingerprint []string `json:"fingerprint"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal status change: %v", err)
	}
	if len(decoded.Fingerprint) != 1 || decoded.Fingerprint[0] != "a1b2" {
		t.Fatalf("expected fingerprint list on the wire, got %s", data)
	}
}
