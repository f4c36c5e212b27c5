package enums

import "fmt"

// FeedbackSource identifies which ingestion path a feedback submission
// arrived through.
type FeedbackSource string

const (
	// SourceNewFeedbackEnvelope is the native feedback envelope path.
	SourceNewFeedbackEnvelope FeedbackSource = "new_feedback_envelope"
	// SourceNewFeedbackEndpoint is the direct ingest API for new feedback.
	SourceNewFeedbackEndpoint FeedbackSource = "new_feedback_ingest_endpoint"
	// SourceUserReportEndpoint is the legacy user-report form endpoint.
	SourceUserReportEndpoint FeedbackSource = "user_report_endpoint"
	// SourceUserReportEnvelope is the legacy user report arriving via envelope ingestion.
	SourceUserReportEnvelope FeedbackSource = "user_report_envelope"
	// SourceCrashReportEmbedForm is the crash-report embedded widget.
	SourceCrashReportEmbedForm FeedbackSource = "crash_report_embed_form"
	// SourceUpdateUserReportsTask is the background task that backfills user reports.
	SourceUpdateUserReportsTask FeedbackSource = "update_user_reports_task"
)

var validFeedbackSources = []FeedbackSource{
	SourceNewFeedbackEnvelope,
	SourceNewFeedbackEndpoint,
	SourceUserReportEndpoint,
	SourceUserReportEnvelope,
	SourceCrashReportEmbedForm,
	SourceUpdateUserReportsTask,
}

// IsValid reports whether the value is a known feedback source.
func (s FeedbackSource) IsValid() bool {
	for _, candidate := range validFeedbackSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsNewFeedback reports whether the source belongs to the "new feedback"
// broad category used for the first-seen project latch.
func (s FeedbackSource) IsNewFeedback() bool {
	return s == SourceNewFeedbackEnvelope || s == SourceNewFeedbackEndpoint
}

// IsOldFeedback reports whether the source is one of the legacy user-report paths.
func (s FeedbackSource) IsOldFeedback() bool {
	switch s {
	case SourceUserReportEndpoint, SourceUserReportEnvelope,
		SourceCrashReportEmbedForm, SourceUpdateUserReportsTask:
		return true
	}
	return false
}

// ParseFeedbackSource converts raw input into FeedbackSource.
func ParseFeedbackSource(value string) (FeedbackSource, error) {
	for _, candidate := range validFeedbackSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feedback source %q", value)
}
