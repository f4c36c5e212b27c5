package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// IngestAccepted is the response body for a published feedback submission.
type IngestAccepted struct {
	EventID      string `json:"event_id"`
	OccurrenceID string `json:"occurrence_id"`
}

// IngestFiltered reports a submission the filter stage dropped. Filtering
// is a recognized no-op, so it rides the success envelope.
type IngestFiltered struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}
