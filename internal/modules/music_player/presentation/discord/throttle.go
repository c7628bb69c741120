package discord

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"
)

// maxTrackedRequesters is the number of limiters kept before full ones are evicted.
const maxTrackedRequesters = 1024

// Throttle limits how often a single requester may issue play commands.
type Throttle struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[snowflake.ID]*rate.Limiter
}

// NewThrottle creates a Throttle that refills one request every interval up to burst.
// A non-positive interval disables throttling.
func NewThrottle(interval time.Duration, burst int) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		limit:    limit,
		burst:    burst,
		limiters: make(map[snowflake.ID]*rate.Limiter),
	}
}

// Allow reports whether the requester may issue another request now.
func (t *Throttle) Allow(requesterID snowflake.ID) bool {
	return t.AllowAt(requesterID, time.Now())
}

// AllowAt is Allow evaluated at now.
func (t *Throttle) AllowAt(requesterID snowflake.ID, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	limiter, ok := t.limiters[requesterID]
	if !ok {
		if len(t.limiters) >= maxTrackedRequesters {
			t.evict(now)
		}
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters[requesterID] = limiter
	}
	return limiter.AllowN(now, 1)
}

// evict drops limiters that have refilled completely; they behave like new ones.
func (t *Throttle) evict(now time.Time) {
	for id, limiter := range t.limiters {
		if limiter.TokensAt(now) >= float64(t.burst) {
			delete(t.limiters, id)
		}
	}
}
