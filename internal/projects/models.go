package projects

import "time"

// Feature flags gating the optional spam pipeline stages. Flags live on the
// organization; options live on the project.
const (
	FeatureSpamFilterIngest  = "user-feedback-spam-filter-ingest"
	FeatureSpamFilterActions = "user-feedback-spam-filter-actions"
)

// Project is the owning project of a feedback submission. HasFeedbacks and
// HasNewFeedbacks are the persisted first-seen latches for the two broad
// feedback categories.
type Project struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	OrganizationID int64  `gorm:"index;not null" json:"organization_id"`
	Slug           string `gorm:"size:64;not null" json:"slug"`

	HasFeedbacks    bool `gorm:"not null;default:false" json:"has_feedbacks"`
	HasNewFeedbacks bool `gorm:"not null;default:false" json:"has_new_feedbacks"`

	// SpamDetectionEnabled is the project-level option; the organization
	// feature flag must also be on for classification to run.
	SpamDetectionEnabled bool `gorm:"not null;default:false" json:"spam_detection_enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Organization owns projects and carries org-level feature flags.
type Organization struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:64;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationFeature is one enabled feature flag on an organization.
type OrganizationFeature struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	OrganizationID int64  `gorm:"uniqueIndex:ux_org_feature;not null" json:"organization_id"`
	Feature        string `gorm:"uniqueIndex:ux_org_feature;size:128;not null" json:"feature"`
}

// Models returns the gorm models for automigration.
func Models() []any {
	return []any{&Organization{}, &OrganizationFeature{}, &Project{}}
}
