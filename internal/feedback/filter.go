package feedback

import "strings"

// UnrealFeedbackUnattendedMessage is the sentinel message the Unreal crash
// reporter sends when a crash had no user feedback attached. Those events
// carry no signal and are dropped before any work happens.
const UnrealFeedbackUnattendedMessage = "Sent in the unattended mode"

// FilterReason tags why a submission was rejected by the filter stage.
type FilterReason string

const (
	FilterReasonNone           FilterReason = ""
	FilterReasonMissingContext FilterReason = "missing_context"
	FilterReasonUnattended     FilterReason = "unreal.unattended"
	FilterReasonEmpty          FilterReason = "empty"
)

// ShouldFilter applies the cheap rejection rules in order and returns the
// first matching reason, or FilterReasonNone when the event is acceptable.
// It must run before any external call so filtered input never reaches the
// classifier or the durable stream.
func ShouldFilter(event *Event) FilterReason {
	if event == nil || event.Contexts.Feedback == nil || event.Contexts.Feedback.Message == nil {
		return FilterReasonMissingContext
	}

	message := *event.Contexts.Feedback.Message
	if message == UnrealFeedbackUnattendedMessage {
		return FilterReasonUnattended
	}

	if strings.TrimSpace(message) == "" {
		return FilterReasonEmpty
	}

	return FilterReasonNone
}
