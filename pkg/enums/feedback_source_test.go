package enums

import "testing"

func TestFeedbackSourceCategories(t *testing.T) {
	newSources := []FeedbackSource{SourceNewFeedbackEnvelope, SourceNewFeedbackEndpoint}
	for _, s := range newSources {
		if !s.IsNewFeedback() {
			t.Fatalf("%s should be a new-feedback source", s)
		}
		if s.IsOldFeedback() {
			t.Fatalf("%s should not be an old-feedback source", s)
		}
	}

	oldSources := []FeedbackSource{
		SourceUserReportEndpoint,
		SourceUserReportEnvelope,
		SourceCrashReportEmbedForm,
		SourceUpdateUserReportsTask,
	}
	for _, s := range oldSources {
		if !s.IsOldFeedback() {
			t.Fatalf("%s should be an old-feedback source", s)
		}
		if s.IsNewFeedback() {
			t.Fatalf("%s should not be a new-feedback source", s)
		}
	}
}

func TestParseFeedbackSource(t *testing.T) {
	src, err := ParseFeedbackSource("new_feedback_envelope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src != SourceNewFeedbackEnvelope {
		t.Fatalf("unexpected source %s", src)
	}

	if _, err := ParseFeedbackSource("bogus"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestOutcomeAndStatusValidity(t *testing.T) {
	if !OutcomeAccepted.IsValid() {
		t.Fatal("accepted should be valid")
	}
	if Outcome("dropped").IsValid() {
		t.Fatal("unknown outcome should be invalid")
	}
	if !CategoryUserReportV2.IsValid() {
		t.Fatal("user_report_v2 should be valid")
	}
	if !GroupStatusIgnored.IsValid() {
		t.Fatal("ignored should be valid")
	}
	if !GroupSubStatusForever.IsValid() {
		t.Fatal("forever should be valid")
	}
}
