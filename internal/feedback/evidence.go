package feedback

import (
	"strconv"

	"github.com/feedbackhq/feedbackd/pkg/enums"
)

// Evidence is one structured key/value attached to an occurrence for
// display and search downstream.
type Evidence struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Important bool   `json:"important"`
}

// MakeEvidence derives the occurrence evidence from the feedback context,
// the ingestion source and the spam verdict. The display order is fixed:
// associated_event_id, contact_email, message, name, source, is_spam.
// Entries whose value is absent are omitted. A nil verdict (classification
// skipped or failed) contributes nothing.
func MakeEvidence(fb *FeedbackContext, source enums.FeedbackSource, isSpam *bool) (map[string]any, []Evidence) {
	data := map[string]any{}
	display := []Evidence{}

	if fb != nil {
		if fb.AssociatedEventID != "" {
			data["associated_event_id"] = fb.AssociatedEventID
			display = append(display, Evidence{Name: "associated_event_id", Value: fb.AssociatedEventID})
		}
		if fb.ContactEmail != "" {
			data["contact_email"] = fb.ContactEmail
			display = append(display, Evidence{Name: "contact_email", Value: fb.ContactEmail})
		}
		if fb.Message != nil && *fb.Message != "" {
			data["message"] = *fb.Message
			display = append(display, Evidence{Name: "message", Value: *fb.Message, Important: true})
		}
		if fb.Name != "" {
			data["name"] = fb.Name
			display = append(display, Evidence{Name: "name", Value: fb.Name})
		}
	}

	data["source"] = string(source)
	display = append(display, Evidence{Name: "source", Value: string(source)})

	if isSpam != nil && *isSpam {
		data["is_spam"] = true
		display = append(display, Evidence{Name: "is_spam", Value: strconv.FormatBool(true)})
	}

	return data, display
}
