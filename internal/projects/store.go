package projects

import (
	"context"
	"errors"

	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
	"gorm.io/gorm"
)

// Store exposes the project/organization lookups and first-seen latches the
// pipeline needs. Implementations must be safe for concurrent use.
type Store interface {
	GetProject(ctx context.Context, id int64) (*Project, error)
	HasFeature(ctx context.Context, organizationID int64, feature string) (bool, error)
	// MarkHasFeedbacks flips the first-feedback latch and reports whether
	// this call fired it. It never fires twice for the same project.
	MarkHasFeedbacks(ctx context.Context, projectID int64) (bool, error)
	// MarkHasNewFeedbacks is the latch for the "new feedback" category.
	MarkHasNewFeedbacks(ctx context.Context, projectID int64) (bool, error)
}

type store struct {
	db *gorm.DB
}

// NewStore wires a gorm-backed project store.
func NewStore(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "projects database handle required")
	}
	return &store{db: db}, nil
}

func (s *store) GetProject(ctx context.Context, id int64) (*Project, error) {
	var project Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading project")
	}
	return &project, nil
}

func (s *store) HasFeature(ctx context.Context, organizationID int64, feature string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&OrganizationFeature{}).
		Where("organization_id = ? AND feature = ?", organizationID, feature).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking organization feature")
	}
	return count > 0, nil
}

func (s *store) MarkHasFeedbacks(ctx context.Context, projectID int64) (bool, error) {
	return s.latch(ctx, projectID, "has_feedbacks")
}

func (s *store) MarkHasNewFeedbacks(ctx context.Context, projectID int64) (bool, error) {
	return s.latch(ctx, projectID, "has_new_feedbacks")
}

// latch flips a boolean flag only when it is currently false; the rows
// affected count tells us whether this call performed the transition.
func (s *store) latch(ctx context.Context, projectID int64, column string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&Project{}).
		Where("id = ? AND "+column+" = ?", projectID, false).
		Update(column, true)
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "updating project flag")
	}
	return result.RowsAffected > 0, nil
}
