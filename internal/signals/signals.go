package signals

import (
	"context"
	"fmt"
	"sync"

	"github.com/feedbackhq/feedbackd/internal/projects"
	"github.com/feedbackhq/feedbackd/pkg/logger"
	"github.com/feedbackhq/feedbackd/pkg/metrics"
)

// Signal names dispatched when a project sees feedback for the first time.
const (
	SignalFirstFeedbackReceived    = "first_feedback_received"
	SignalFirstNewFeedbackReceived = "first_new_feedback_received"
)

// Subscriber handles a first-seen signal for a project.
type Subscriber func(ctx context.Context, project *projects.Project) error

// Dispatcher fans a signal out to its subscribers. A failing subscriber is
// logged and counted but never blocks the others or the caller.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[string][]Subscriber
	metrics     *metrics.PipelineMetrics
	logg        *logger.Logger
}

func NewDispatcher(m *metrics.PipelineMetrics, logg *logger.Logger) *Dispatcher {
	return &Dispatcher{
		subscribers: make(map[string][]Subscriber),
		metrics:     m,
		logg:        logg,
	}
}

// Connect registers a subscriber for the named signal.
func (d *Dispatcher) Connect(signal string, sub Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[signal] = append(d.subscribers[signal], sub)
}

// Send delivers the signal to every subscriber, isolating failures.
func (d *Dispatcher) Send(ctx context.Context, signal string, project *projects.Project) {
	d.mu.RLock()
	subs := d.subscribers[signal]
	d.mu.RUnlock()

	for _, sub := range subs {
		if err := d.dispatch(ctx, sub, project); err != nil {
			d.metrics.IncSignalFailure(signal)
			if d.logg != nil {
				fctx := d.logg.WithFields(ctx, map[string]any{
					"signal":     signal,
					"project_id": project.ID,
				})
				d.logg.Error(fctx, "signal subscriber failed", err)
			}
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, sub Subscriber, project *projects.Project) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	return sub(ctx, project)
}
