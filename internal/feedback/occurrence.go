package feedback

import (
	"fmt"
	"time"

	"github.com/feedbackhq/feedbackd/pkg/enums"
)

const (
	// OccurrenceTypeFeedback is the issue category tag for user feedback.
	OccurrenceTypeFeedback = "feedback"

	issueTitle      = "User Feedback"
	feedbackCulprit = "user"
)

// Occurrence is the canonical unit published to the durable stream. It is
// immutable once built and consumed exactly once by the producer.
type Occurrence struct {
	ID              string         `json:"id"`
	EventID         string         `json:"event_id"`
	ProjectID       int64          `json:"project_id"`
	Fingerprint     []string       `json:"fingerprint"`
	IssueTitle      string         `json:"issue_title"`
	Subtitle        string         `json:"subtitle"`
	ResourceID      *string        `json:"resource_id"`
	EvidenceData    map[string]any `json:"evidence_data"`
	EvidenceDisplay []Evidence     `json:"evidence_display"`
	Type            string         `json:"type"`
	DetectionTime   time.Time      `json:"detection_time"`
	Culprit         string         `json:"culprit"`
	Level           string         `json:"level"`
}

// IssuePlatformEvent is the event representation the issue platform consumes
// alongside the occurrence. Its field set is fixed by the downstream schema.
type IssuePlatformEvent struct {
	Timestamp   string         `json:"timestamp"`
	Received    string         `json:"received"`
	ProjectID   int64          `json:"project_id"`
	Contexts    Contexts       `json:"contexts"`
	EventID     string         `json:"event_id"`
	Tags        []TagPair      `json:"tags"`
	Platform    string         `json:"platform"`
	Level       string         `json:"level"`
	Environment string         `json:"environment"`
	SDK         map[string]any `json:"sdk,omitempty"`
	Request     map[string]any `json:"request"`
	User        map[string]any `json:"user"`
	LogEntry    LogEntry       `json:"logentry"`
}

// Builder assembles occurrences and their issue-platform events from
// canonical feedback events. The only non-determinism is the two fresh
// identifiers and the wall-clock received timestamp.
type Builder struct {
	now   func() time.Time
	newID func() string
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now, newID: newHexID}
}

// Build produces the occurrence and the issue-platform event for one
// canonical feedback event. The event must have passed the filter stage,
// so the feedback context and message are known to be present. The same
// event id is used for both representations, generated here if the caller
// supplied none.
func (b *Builder) Build(event *Event, projectID int64, source enums.FeedbackSource, isSpam *bool) (*Occurrence, *IssuePlatformEvent, error) {
	if event == nil || event.Contexts.Feedback == nil {
		return nil, nil, fmt.Errorf("feedback context required to build occurrence")
	}

	if event.EventID == "" {
		event.EventID = b.newID()
	}
	detectionTime := event.DetectionTime()

	evidenceData, evidenceDisplay := MakeEvidence(event.Contexts.Feedback, source, isSpam)

	// A fresh single-element fingerprint per submission: feedbacks are never
	// grouped with one another.
	fingerprint := []string{b.newID()}

	occurrence := &Occurrence{
		ID:              b.newID(),
		EventID:         event.EventID,
		ProjectID:       projectID,
		Fingerprint:     fingerprint,
		IssueTitle:      issueTitle,
		Subtitle:        event.Message(),
		ResourceID:      nil,
		EvidenceData:    evidenceData,
		EvidenceDisplay: evidenceDisplay,
		Type:            OccurrenceTypeFeedback,
		DetectionTime:   detectionTime,
		Culprit:         feedbackCulprit,
		Level:           event.Level,
	}
	if occurrence.Level == "" {
		occurrence.Level = "info"
	}

	platformEvent := b.fixForIssuePlatform(event, projectID)

	return occurrence, platformEvent, nil
}

// fixForIssuePlatform massages the canonical event into the slightly
// different shape the issue platform requires.
func (b *Builder) fixForIssuePlatform(event *Event, projectID int64) *IssuePlatformEvent {
	received := b.now().UTC()
	if event.Received != nil {
		received = event.Received.UTC()
	}

	ret := &IssuePlatformEvent{
		Timestamp:   event.DetectionTime().Format(time.RFC3339Nano),
		Received:    received.Format(time.RFC3339Nano),
		ProjectID:   projectID,
		EventID:     event.EventID,
		Platform:    event.Platform,
		Level:       event.Level,
		Environment: event.Environment,
		SDK:         event.SDK,
	}
	if ret.Platform == "" {
		ret.Platform = "other"
	}
	if ret.Level == "" {
		ret.Level = "info"
	}
	if ret.Environment == "" {
		ret.Environment = "production"
	}

	ret.Tags = append([]TagPair{}, event.Tags...)

	fb := event.Contexts.Feedback
	ret.Contexts = Contexts{Feedback: fb, Replay: event.Contexts.Replay}
	// Bridge for the legacy ingestion path: synthesize the replay context
	// from the feedback's replay id when no replay block was sent.
	if ret.Contexts.Replay == nil && fb != nil && fb.ReplayID != "" {
		ret.Contexts.Replay = &ReplayContext{ReplayID: fb.ReplayID}
	}

	ret.Request = event.Request
	if ret.Request == nil {
		ret.Request = map[string]any{}
	}

	// Copy the user block rather than mutating the source event; disallowed
	// sub-fields are dropped, the id is stringified, and the email falls back
	// to the feedback contact email.
	user := map[string]any{}
	for k, v := range event.User {
		switch k {
		case "name", "isStaff", "dist":
			continue
		case "id":
			user["id"] = fmt.Sprint(v)
		default:
			user[k] = v
		}
	}
	if email, _ := user["email"].(string); email == "" {
		if fb != nil && fb.ContactEmail != "" {
			user["email"] = fb.ContactEmail
		}
	}
	ret.User = user

	ret.LogEntry = LogEntry{Message: event.Message()}

	return ret
}
