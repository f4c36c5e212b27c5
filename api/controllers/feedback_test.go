package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/feedbackhq/feedbackd/internal/feedback"
	"github.com/feedbackhq/feedbackd/pkg/enums"
	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
)

type fakeIngest struct {
	processFn func(ctx context.Context, sub feedback.RawSubmission) (*feedback.Result, error)
	last      *feedback.RawSubmission
}

func (f *fakeIngest) Process(ctx context.Context, sub feedback.RawSubmission) (*feedback.Result, error) {
	f.last = &sub
	return f.processFn(ctx, sub)
}

func producedResult() *feedback.Result {
	return &feedback.Result{Occurrence: &feedback.Occurrence{
		ID:      "occ-1",
		EventID: "deadbeefdeadbeefdeadbeefdeadbeef",
	}}
}

func testRouter(svc IngestService) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/projects/{projectID}", func(r chi.Router) {
		r.Post("/feedback", SubmitFeedback(svc, nil))
		r.Post("/user-reports", SubmitUserReport(svc, nil))
	})
	return r
}

func TestSubmitFeedbackEnvelope(t *testing.T) {
	svc := &fakeIngest{processFn: func(ctx context.Context, sub feedback.RawSubmission) (*feedback.Result, error) {
		return producedResult(), nil
	}}
	body := `{"event_id":"deadbeefdeadbeefdeadbeefdeadbeef","timestamp":1714564800,"contexts":{"feedback":{"message":"Great app!","contact_email":"a@b.com"}},"unknown_sdk_field":true}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/42/feedback", strings.NewReader(body))
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if svc.last.Kind != feedback.KindEnvelope || svc.last.ProjectID != 42 {
		t.Fatalf("submission %+v", svc.last)
	}
	if svc.last.Source != enums.SourceNewFeedbackEndpoint {
		t.Fatalf("source %q", svc.last.Source)
	}
	if got := svc.last.Envelope.Message(); got != "Great app!" {
		t.Fatalf("message %q", got)
	}

	var resp struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data["event_id"] != "deadbeefdeadbeefdeadbeefdeadbeef" || resp.Data["occurrence_id"] != "occ-1" {
		t.Fatalf("response %v", resp.Data)
	}
}

func TestSubmitFeedbackFilteredRespondsOK(t *testing.T) {
	svc := &fakeIngest{processFn: func(context.Context, feedback.RawSubmission) (*feedback.Result, error) {
		return &feedback.Result{FilteredReason: feedback.FilterReasonEmpty}, nil
	}}
	body := `{"contexts":{"feedback":{"message":"  "}}}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/42/feedback", strings.NewReader(body))
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("filtered must be 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"filtered"`) {
		t.Fatalf("body %s", rec.Body.String())
	}
}

func TestSubmitFeedbackBadProjectID(t *testing.T) {
	svc := &fakeIngest{processFn: func(context.Context, feedback.RawSubmission) (*feedback.Result, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/abc/feedback", strings.NewReader(`{}`))
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestSubmitFeedbackPublishFailure(t *testing.T) {
	svc := &fakeIngest{processFn: func(context.Context, feedback.RawSubmission) (*feedback.Result, error) {
		return nil, pkgerrors.New(pkgerrors.CodePublish, "stream unavailable")
	}}
	body := `{"contexts":{"feedback":{"message":"hello"}}}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/42/feedback", strings.NewReader(body))
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestSubmitUserReport(t *testing.T) {
	svc := &fakeIngest{processFn: func(context.Context, feedback.RawSubmission) (*feedback.Result, error) {
		return producedResult(), nil
	}}
	body := `{"name":"Jane","email":"jane@example.com","comments":"it crashed","event_id":"deadbeefdeadbeefdeadbeefdeadbeef"}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/7/user-reports", strings.NewReader(body))
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if svc.last.Kind != feedback.KindLegacyReport || svc.last.Source != enums.SourceUserReportEndpoint {
		t.Fatalf("submission %+v", svc.last)
	}
	if svc.last.Report.Comments != "it crashed" || svc.last.Report.Email != "jane@example.com" {
		t.Fatalf("report %+v", svc.last.Report)
	}
	if svc.last.Associated != nil {
		t.Fatal("no associated event was supplied")
	}
}

func TestSubmitUserReportWithAssociatedEvent(t *testing.T) {
	svc := &fakeIngest{processFn: func(context.Context, feedback.RawSubmission) (*feedback.Result, error) {
		return producedResult(), nil
	}}
	body := `{"comments":"it crashed","associated_event":{"event_id":"abc123abc123abc123abc123abc123ab","timestamp":"2024-05-01T12:00:00Z","level":"error","platform":"python","replay_id":"replay-1"}}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/7/user-reports", strings.NewReader(body))
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	assoc := svc.last.Associated
	if assoc == nil || assoc.EventID != "abc123abc123abc123abc123abc123ab" || assoc.ReplayID != "replay-1" {
		t.Fatalf("associated %+v", assoc)
	}
}

func TestSubmitUserReportRejectsBadEmail(t *testing.T) {
	svc := &fakeIngest{processFn: func(context.Context, feedback.RawSubmission) (*feedback.Result, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	body := `{"comments":"hi","email":"not-an-email"}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/7/user-reports", strings.NewReader(body))
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitUserReportRejectsUnknownFields(t *testing.T) {
	svc := &fakeIngest{processFn: func(context.Context, feedback.RawSubmission) (*feedback.Result, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	body := `{"comments":"hi","surprise":"field"}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/7/user-reports", strings.NewReader(body))
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}
