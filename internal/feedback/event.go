package feedback

import (
	"encoding/json"
	"fmt"
	"time"
)

// FeedbackContext is the feedback sub-object inside the canonical event's
// contexts. Message is the only field the pipeline requires.
// Message is a pointer so a submission that omitted the field entirely can
// be told apart from one that sent an empty string; the filter stage tags
// them with different reasons.
type FeedbackContext struct {
	Message           *string `json:"message,omitempty"`
	ContactEmail      string  `json:"contact_email,omitempty"`
	Name              string  `json:"name,omitempty"`
	AssociatedEventID string  `json:"associated_event_id,omitempty"`
	ReplayID          string  `json:"replay_id,omitempty"`
	Source            string  `json:"source,omitempty"`
}

// ReplayContext links a feedback to a session replay.
type ReplayContext struct {
	ReplayID string `json:"replay_id"`
}

// Contexts carries the structured context blocks of a canonical event.
type Contexts struct {
	Feedback *FeedbackContext `json:"feedback,omitempty"`
	Replay   *ReplayContext   `json:"replay,omitempty"`
}

// TagPair is one ordered key/value tag. It serializes as a two-element
// array to match the downstream event wire format.
type TagPair struct {
	Key   string
	Value string
}

func (t TagPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Key, t.Value})
}

func (t *TagPair) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("tag pair must have exactly 2 elements, got %d", len(pair))
	}
	t.Key = pair[0]
	t.Value = pair[1]
	return nil
}

// LogEntry carries the display message for the issue platform.
type LogEntry struct {
	Message string `json:"message"`
}

// Event is the canonical feedback event every submission shape normalizes
// into. It is constructed once per submission and treated as immutable after
// the filter stage passes it.
type Event struct {
	EventID     string         `json:"event_id,omitempty"`
	Timestamp   float64        `json:"timestamp"`
	Received    *time.Time     `json:"received,omitempty"`
	Platform    string         `json:"platform,omitempty"`
	Level       string         `json:"level,omitempty"`
	Environment string         `json:"environment,omitempty"`
	Contexts    Contexts       `json:"contexts"`
	Tags        []TagPair      `json:"tags,omitempty"`
	User        map[string]any `json:"user,omitempty"`
	SDK         map[string]any `json:"sdk,omitempty"`
	Request     map[string]any `json:"request,omitempty"`
	Dist        string         `json:"dist,omitempty"`
}

// Message returns the feedback message or "" when it is absent.
func (e *Event) Message() string {
	if e == nil || e.Contexts.Feedback == nil || e.Contexts.Feedback.Message == nil {
		return ""
	}
	return *e.Contexts.Feedback.Message
}

// ClientSource returns the client-reported widget source, if any.
func (e *Event) ClientSource() string {
	if e == nil || e.Contexts.Feedback == nil {
		return ""
	}
	return e.Contexts.Feedback.Source
}

// DetectionTime converts the epoch-seconds timestamp to a UTC instant.
func (e *Event) DetectionTime() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
