package enums

import "fmt"

// GroupStatus is the downstream triage state requested by a status change.
type GroupStatus string

const (
	GroupStatusUnresolved GroupStatus = "unresolved"
	GroupStatusResolved   GroupStatus = "resolved"
	// GroupStatusIgnored is used by the spam tab in the triage UI.
	GroupStatusIgnored GroupStatus = "ignored"
)

var validGroupStatuses = []GroupStatus{
	GroupStatusUnresolved,
	GroupStatusResolved,
	GroupStatusIgnored,
}

// IsValid reports whether the value is a known group status.
func (g GroupStatus) IsValid() bool {
	for _, candidate := range validGroupStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGroupStatus converts raw input into GroupStatus.
func ParseGroupStatus(value string) (GroupStatus, error) {
	for _, candidate := range validGroupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group status %q", value)
}

// GroupSubStatus refines GroupStatus for downstream consumers.
type GroupSubStatus string

const (
	GroupSubStatusOngoing GroupSubStatus = "ongoing"
	// GroupSubStatusForever marks an ignore with no snooze window.
	GroupSubStatusForever GroupSubStatus = "forever"
)

// IsValid reports whether the value is a known group substatus.
func (g GroupSubStatus) IsValid() bool {
	return g == GroupSubStatusOngoing || g == GroupSubStatusForever
}
