package feedback

import (
	"testing"

	"github.com/feedbackhq/feedbackd/pkg/enums"
	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func validPlatformEvent() *IssuePlatformEvent {
	return &IssuePlatformEvent{
		Timestamp:   "2024-05-01T12:00:00Z",
		Received:    "2024-05-01T12:00:05Z",
		ProjectID:   42,
		EventID:     "deadbeefdeadbeefdeadbeefdeadbeef",
		Platform:    "javascript",
		Level:       "info",
		Environment: "production",
		LogEntry:    LogEntry{Message: "Great app!"},
	}
}

func testSchemaValidator() *SchemaValidator {
	return NewSchemaValidator(metrics.NewPipelineMetrics(nil))
}

func TestValidateCurrentSchemaPasses(t *testing.T) {
	if err := testSchemaValidator().Validate(validPlatformEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFallsBackToLegacySchema(t *testing.T) {
	event := validPlatformEvent()
	// Current schema requires received and environment and a strict hex
	// event id; legacy accepts their absence.
	event.Received = ""
	event.Environment = ""
	event.EventID = "legacy-style-id"

	if err := testSchemaValidator().Validate(event); err != nil {
		t.Fatalf("expected legacy fallback to accept, got %v", err)
	}
}

func TestValidateRejectsWhenBothSchemasFail(t *testing.T) {
	event := validPlatformEvent()
	event.ProjectID = 0
	reg := prometheus.NewRegistry()
	validator := NewSchemaValidator(metrics.NewPipelineMetrics(reg))

	err := validator.Validate(event)
	if !pkgerrors.IsCode(err, pkgerrors.CodeSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	coded := pkgerrors.As(err)
	details, ok := coded.Details().(map[string]any)
	if !ok || details["legacy_error"] == nil {
		t.Fatal("expected the legacy rejection to be attached as details")
	}
	if got := counterValue(t, reg, "feedback_invalid_schema_total", "", ""); got != 1 {
		t.Fatalf("expected invalid schema counter=1, got %f", got)
	}
}

func TestValidateRejectsMissingMessage(t *testing.T) {
	event := validPlatformEvent()
	event.LogEntry.Message = ""

	if err := testSchemaValidator().Validate(event); !pkgerrors.IsCode(err, pkgerrors.CodeSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestValidateRejectsBadTimestamp(t *testing.T) {
	event := validPlatformEvent()
	event.Timestamp = "yesterday"

	if err := testSchemaValidator().Validate(event); !pkgerrors.IsCode(err, pkgerrors.CodeSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestBuiltEventAlwaysPassesCurrentSchema(t *testing.T) {
	event := &Event{
		Timestamp: 1700000000,
		Contexts: Contexts{Feedback: &FeedbackContext{
			Message:      strPtr("Great app!"),
			ContactEmail: "a@b.com",
		}},
	}
	applyDefaults(event)

	_, platformEvent, err := NewBuilder().Build(event, 7, enums.SourceNewFeedbackEnvelope, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := testSchemaValidator().Validate(platformEvent); err != nil {
		t.Fatalf("built event must satisfy the current schema: %v", err)
	}
}

func TestValidateNilEvent(t *testing.T) {
	if err := testSchemaValidator().Validate(nil); !pkgerrors.IsCode(err, pkgerrors.CodeSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}
