package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/feedbackhq/feedbackd/api/responses"
	"github.com/feedbackhq/feedbackd/api/validators"
	"github.com/feedbackhq/feedbackd/internal/feedback"
	"github.com/feedbackhq/feedbackd/pkg/enums"
	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
	"github.com/feedbackhq/feedbackd/pkg/logger"
	"github.com/feedbackhq/feedbackd/pkg/types"
)

// IngestService runs one submission through the full pipeline.
type IngestService interface {
	Process(ctx context.Context, sub feedback.RawSubmission) (*feedback.Result, error)
}

// SubmitFeedback handles the native feedback envelope. The body is the event
// itself; unknown SDK fields are tolerated.
func SubmitFeedback(svc IngestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projectID, err := projectIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var event feedback.Event
		if err := validators.DecodeLooseJSONBody(r, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Process(ctx, feedback.RawSubmission{
			Kind:      feedback.KindEnvelope,
			Source:    enums.SourceNewFeedbackEndpoint,
			ProjectID: projectID,
			Envelope:  &event,
		})
		writeIngestResult(ctx, logg, w, result, err)
	}
}

type associatedEventRequest struct {
	EventID     string    `json:"event_id" validate:"required"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	Level       string    `json:"level,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	Environment string    `json:"environment,omitempty"`
	ReplayID    string    `json:"replay_id,omitempty"`
}

type userReportRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Comments string `json:"comments"`
	EventID  string `json:"event_id,omitempty"`
	Level    string `json:"level,omitempty"`

	// AssociatedEvent restores the original error event's attributes when
	// the submitter still has them.
	AssociatedEvent *associatedEventRequest `json:"associated_event,omitempty"`
}

// SubmitUserReport handles the legacy user-report form payload.
func SubmitUserReport(svc IngestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projectID, err := projectIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req userReportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub := feedback.RawSubmission{
			Kind:      feedback.KindLegacyReport,
			Source:    enums.SourceUserReportEndpoint,
			ProjectID: projectID,
			Report: &feedback.UserReport{
				Name:     req.Name,
				Email:    req.Email,
				Comments: req.Comments,
				EventID:  req.EventID,
				Level:    req.Level,
			},
		}
		if assoc := req.AssociatedEvent; assoc != nil {
			sub.Associated = &feedback.AssociatedEvent{
				EventID:     assoc.EventID,
				Timestamp:   assoc.Timestamp,
				Level:       assoc.Level,
				Platform:    assoc.Platform,
				Environment: assoc.Environment,
				ReplayID:    assoc.ReplayID,
			}
		}

		result, err := svc.Process(ctx, sub)
		writeIngestResult(ctx, logg, w, result, err)
	}
}

func projectIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "projectID")
	projectID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || projectID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "project id must be a positive integer")
	}
	return projectID, nil
}

func writeIngestResult(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, result *feedback.Result, err error) {
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	if result.FilteredReason != feedback.FilterReasonNone {
		responses.WriteFiltered(w, result.FilteredReason)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, types.IngestAccepted{
		EventID:      result.Occurrence.EventID,
		OccurrenceID: result.Occurrence.ID,
	})
}
