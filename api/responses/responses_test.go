package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/feedbackhq/feedbackd/internal/feedback"
	pkgerrors "github.com/feedbackhq/feedbackd/pkg/errors"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"event_id": "abc"})

	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	if data["event_id"] != "abc" {
		t.Fatalf("body %v", body)
	}
}

func TestWriteFilteredIsSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFiltered(rec, feedback.FilterReasonEmpty)

	if rec.Code != 200 {
		t.Fatalf("filtered must be 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	if data["status"] != "filtered" || data["reason"] != "empty" {
		t.Fatalf("body %v", body)
	}
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeValidation, 400},
		{pkgerrors.CodeNormalization, 400},
		{pkgerrors.CodeNotFound, 404},
		{pkgerrors.CodeSchemaValidation, 500},
		{pkgerrors.CodePublish, 503},
		{pkgerrors.CodeInternal, 500},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, pkgerrors.New(tc.code, "boom"))
		if rec.Code != tc.status {
			t.Fatalf("%s: status %d want %d", tc.code, rec.Code, tc.status)
		}
		body := decodeBody(t, rec)
		errBody := body["error"].(map[string]any)
		if errBody["code"] != string(tc.code) {
			t.Fatalf("%s: body %v", tc.code, body)
		}
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "db password wrong"))

	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]any)
	if errBody["message"] == "db password wrong" {
		t.Fatal("internal error details must not leak to clients")
	}
}

func TestWriteErrorWrapsUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("plain error"))

	if rec.Code != 500 {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]any)
	if errBody["code"] != string(pkgerrors.CodeInternal) {
		t.Fatalf("body %v", body)
	}
}
