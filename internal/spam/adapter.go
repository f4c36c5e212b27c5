package spam

import (
	"context"

	"github.com/feedbackhq/feedbackd/pkg/logger"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
)

// Adapter wraps a Classifier with the fail-open policy: any classifier
// failure yields a nil verdict so ingestion continues without a spam label.
type Adapter struct {
	classifier Classifier
	metrics    *metrics.PipelineMetrics
	logg       *logger.Logger
}

func NewAdapter(classifier Classifier, m *metrics.PipelineMetrics, logg *logger.Logger) *Adapter {
	return &Adapter{classifier: classifier, metrics: m, logg: logg}
}

// Verdict returns a spam verdict for the message, or nil when no classifier
// is configured or the classifier failed. Failures are counted by reason and
// logged, never surfaced to the caller.
func (a *Adapter) Verdict(ctx context.Context, message string) *bool {
	if a == nil || a.classifier == nil {
		return nil
	}
	isSpam, err := a.classifier.Classify(ctx, message)
	if err != nil {
		reason := failureReason(err)
		a.metrics.IncClassifierFailure(reason)
		if a.logg != nil {
			ctx = a.logg.WithFields(ctx, map[string]any{
				"reason": reason,
				"error":  err.Error(),
			})
			a.logg.Warn(ctx, "spam classification failed, continuing without verdict")
		}
		return nil
	}
	return &isSpam
}
