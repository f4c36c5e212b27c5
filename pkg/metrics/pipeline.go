package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records counters for the feedback ingestion pipeline.
// All methods are nil-safe so callers can run without a registry in tests.
type PipelineMetrics struct {
	entered           prometheus.Counter
	filtered          *prometheus.CounterVec
	produced          *prometheus.CounterVec
	invalidSchema     prometheus.Counter
	missingEvent      prometheus.Counter
	spamIgnored       prometheus.Counter
	classifierFailure *prometheus.CounterVec
	outcomeRecorded   prometheus.Counter
	signalFailure     *prometheus.CounterVec
	publishDuration   prometheus.Histogram
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	entered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedback_submissions_entered_total",
		Help: "Feedback submissions entering the pipeline.",
	})
	filtered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_submissions_filtered_total",
		Help: "Feedback submissions rejected by the filter stage.",
	}, []string{"reason"})
	produced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_occurrences_produced_total",
		Help: "Occurrences published to the durable stream.",
	}, []string{"referrer", "client_source"})
	invalidSchema := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedback_invalid_schema_total",
		Help: "Issue-platform events rejected by both schema versions.",
	})
	missingEvent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedback_user_report_missing_event_total",
		Help: "Legacy user reports arriving without their associated event.",
	})
	spamIgnored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedback_spam_set_ignored_total",
		Help: "Spam feedbacks auto-moved to the ignored triage state.",
	})
	classifierFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_classifier_failure_total",
		Help: "Spam classifier calls that failed open.",
	}, []string{"reason"})
	outcomeRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedback_outcomes_recorded_total",
		Help: "Accepted outcomes recorded for published occurrences.",
	})
	signalFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_signal_subscriber_failure_total",
		Help: "First-feedback signal subscribers that panicked or errored.",
	}, []string{"signal"})
	publishDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedback_publish_duration_seconds",
		Help:    "Duration of occurrence publish calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(
		entered, filtered, produced, invalidSchema, missingEvent,
		spamIgnored, classifierFailure, outcomeRecorded, signalFailure,
		publishDuration,
	)
	return &PipelineMetrics{
		entered:           entered,
		filtered:          filtered,
		produced:          produced,
		invalidSchema:     invalidSchema,
		missingEvent:      missingEvent,
		spamIgnored:       spamIgnored,
		classifierFailure: classifierFailure,
		outcomeRecorded:   outcomeRecorded,
		signalFailure:     signalFailure,
		publishDuration:   publishDuration,
	}
}

// IncEntered counts a submission entering the pipeline.
func (p *PipelineMetrics) IncEntered() {
	if p == nil || p.entered == nil {
		return
	}
	p.entered.Inc()
}

// IncFiltered counts a filter-stage rejection with its reason tag.
func (p *PipelineMetrics) IncFiltered(reason string) {
	if p == nil || p.filtered == nil {
		return
	}
	p.filtered.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncProduced counts a published occurrence by referrer and client source.
func (p *PipelineMetrics) IncProduced(referrer, clientSource string) {
	if p == nil || p.produced == nil {
		return
	}
	p.produced.WithLabelValues(normalizeLabel(referrer), normalizeLabel(clientSource)).Inc()
}

// IncInvalidSchema counts an event rejected by both schema versions.
func (p *PipelineMetrics) IncInvalidSchema() {
	if p == nil || p.invalidSchema == nil {
		return
	}
	p.invalidSchema.Inc()
}

// IncMissingAssociatedEvent counts a legacy report without its original event.
func (p *PipelineMetrics) IncMissingAssociatedEvent() {
	if p == nil || p.missingEvent == nil {
		return
	}
	p.missingEvent.Inc()
}

// IncSpamIgnored counts a spam feedback auto-moved to ignored.
func (p *PipelineMetrics) IncSpamIgnored() {
	if p == nil || p.spamIgnored == nil {
		return
	}
	p.spamIgnored.Inc()
}

// IncClassifierFailure counts a fail-open classifier error by reason.
func (p *PipelineMetrics) IncClassifierFailure(reason string) {
	if p == nil || p.classifierFailure == nil {
		return
	}
	p.classifierFailure.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncOutcomeRecorded counts a recorded accounting outcome.
func (p *PipelineMetrics) IncOutcomeRecorded() {
	if p == nil || p.outcomeRecorded == nil {
		return
	}
	p.outcomeRecorded.Inc()
}

// IncSignalFailure counts a failed signal subscriber by signal name.
func (p *PipelineMetrics) IncSignalFailure(signal string) {
	if p == nil || p.signalFailure == nil {
		return
	}
	p.signalFailure.WithLabelValues(normalizeLabel(signal)).Inc()
}

// ObservePublishDuration records how long the stream publish took.
func (p *PipelineMetrics) ObservePublishDuration(duration time.Duration) {
	if p == nil || p.publishDuration == nil {
		return
	}
	p.publishDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
