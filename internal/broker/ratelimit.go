package broker

import (
	"sync"
	"time"

	"rotation_bot/pkg/logger"
)

// Published per-endpoint quotas, expressed as the minimum spacing between
// calls. orders_market and orders_cancel are 50/minute.
var DefaultLimits = map[string]time.Duration{
	"account_summary": 5 * time.Second,
	"exchanges":       30 * time.Second,
	"instruments":     50 * time.Second,
	"orders_get":      5 * time.Second,
	"orders_limit":    2 * time.Second,
	"orders_market":   1200 * time.Millisecond,
	"orders_cancel":   1200 * time.Millisecond,
	"order_by_id":     1 * time.Second,
	"portfolio":       5 * time.Second,
}

// Limiter spaces outbound calls per logical endpoint. An unknown key passes
// through with a warning: a missing quota entry must never deadlock trading.
type Limiter struct {
	mu       sync.Mutex
	limits   map[string]time.Duration
	lastCall map[string]time.Time
}

func NewLimiter(limits map[string]time.Duration) *Limiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &Limiter{
		limits:   limits,
		lastCall: make(map[string]time.Time),
	}
}

// Wait blocks until at least the endpoint's min interval has elapsed since
// its last recorded call.
func (l *Limiter) Wait(endpoint string) {
	l.mu.Lock()
	limit, ok := l.limits[endpoint]
	if !ok {
		l.mu.Unlock()
		logger.Warn("unknown endpoint for rate limiting: %s", endpoint)
		return
	}

	last := l.lastCall[endpoint]
	wait := limit - time.Since(last)
	if wait > 0 {
		l.mu.Unlock()
		time.Sleep(wait)
		l.mu.Lock()
	}
	l.lastCall[endpoint] = time.Now()
	l.mu.Unlock()
}
