package feedback

import (
	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
	"github.com/go-playground/validator/v10"
)

// currentSchemaPayload mirrors the strict field requirements of the current
// issue-platform event schema.
type currentSchemaPayload struct {
	Timestamp   string `validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Received    string `validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ProjectID   int64  `validate:"required,gt=0"`
	EventID     string `validate:"required,len=32,hexadecimal"`
	Platform    string `validate:"required"`
	Level       string `validate:"required"`
	Environment string `validate:"required"`
	Message     string `validate:"required"`
}

// legacySchemaPayload is the fallback: older SDK payloads may omit the
// received timestamp and environment, and carry loose event ids.
type legacySchemaPayload struct {
	Timestamp string `validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ProjectID int64  `validate:"required,gt=0"`
	EventID   string `validate:"required"`
	Message   string `validate:"required"`
}

// SchemaValidator checks an issue-platform event against the current schema
// and falls back to the legacy schema before rejecting.
type SchemaValidator struct {
	validate *validator.Validate
	metrics  *metrics.PipelineMetrics
}

func NewSchemaValidator(m *metrics.PipelineMetrics) *SchemaValidator {
	return &SchemaValidator{
		validate: validator.New(),
		metrics:  m,
	}
}

// Validate returns nil when the event conforms to either accepted schema
// version. When both reject it, the invalid-schema counter is incremented
// and a SchemaValidationError is returned; this is fatal for the single
// submission, never for the process.
func (v *SchemaValidator) Validate(event *IssuePlatformEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeSchemaValidation, "issue platform event is nil")
	}

	current := currentSchemaPayload{
		Timestamp:   event.Timestamp,
		Received:    event.Received,
		ProjectID:   event.ProjectID,
		EventID:     event.EventID,
		Platform:    event.Platform,
		Level:       event.Level,
		Environment: event.Environment,
		Message:     event.LogEntry.Message,
	}
	currentErr := v.validate.Struct(current)
	if currentErr == nil {
		return nil
	}

	legacy := legacySchemaPayload{
		Timestamp: event.Timestamp,
		ProjectID: event.ProjectID,
		EventID:   event.EventID,
		Message:   event.LogEntry.Message,
	}
	if legacyErr := v.validate.Struct(legacy); legacyErr != nil {
		v.metrics.IncInvalidSchema()
		return pkgerrors.Wrap(pkgerrors.CodeSchemaValidation, currentErr, "event rejected by current and legacy schemas").
			WithDetails(map[string]any{"legacy_error": legacyErr.Error()})
	}

	return nil
}
