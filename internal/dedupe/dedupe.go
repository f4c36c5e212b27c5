package dedupe

import (
	"context"
	"strconv"
	"time"

	"github.com/feedbackhq/feedbackd/pkg/logger"
	"github.com/feedbackhq/feedbackd/pkg/redis"
)

// Guard suppresses redelivered submissions. The intake subscription delivers
// at least once, so the guard keeps a short-lived marker per event id.
type Guard struct {
	store redis.OnceStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewGuard(store redis.OnceStore, ttl time.Duration, logg *logger.Logger) *Guard {
	return &Guard{store: store, ttl: ttl, logg: logg}
}

// Seen marks the event as processed and reports whether it was already
// marked. A store failure is treated as unseen so delivery degrades to
// at-least-once rather than dropping feedback.
func (g *Guard) Seen(ctx context.Context, projectID int64, eventID string) bool {
	if g == nil || g.store == nil || eventID == "" {
		return false
	}
	key := g.store.DedupeKey(strconv.FormatInt(projectID, 10), eventID)
	fresh, err := g.store.SetNX(ctx, key, 1, g.ttl)
	if err != nil {
		if g.logg != nil {
			g.logg.Error(ctx, "dedupe check failed, treating as unseen", err)
		}
		return false
	}
	return !fresh
}

// Forget clears the marker so a failed submission can be retried.
func (g *Guard) Forget(ctx context.Context, projectID int64, eventID string) {
	if g == nil || g.store == nil || eventID == "" {
		return
	}
	key := g.store.DedupeKey(strconv.FormatInt(projectID, 10), eventID)
	if err := g.store.Del(ctx, key); err != nil && g.logg != nil {
		g.logg.Error(ctx, "clearing dedupe marker failed", err)
	}
}
