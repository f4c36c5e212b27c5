package enums

import "fmt"

// Outcome is the accounting classification of a processed submission.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeFiltered Outcome = "filtered"
	OutcomeInvalid  Outcome = "invalid"
)

var validOutcomes = []Outcome{
	OutcomeAccepted,
	OutcomeFiltered,
	OutcomeInvalid,
}

// IsValid reports whether the value is a known outcome.
func (o Outcome) IsValid() bool {
	for _, candidate := range validOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutcome converts raw input into Outcome.
func ParseOutcome(value string) (Outcome, error) {
	for _, candidate := range validOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outcome %q", value)
}

// DataCategory is the billing category attached to an outcome record.
type DataCategory string

const (
	// CategoryUserReportV2 is the billing category for feedback occurrences.
	CategoryUserReportV2 DataCategory = "user_report_v2"
)

// IsValid reports whether the value is a known data category.
func (c DataCategory) IsValid() bool {
	return c == CategoryUserReportV2
}
