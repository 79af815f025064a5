package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// clientLimiter keeps a token bucket per client address plus a global budget.
type clientLimiter struct {
	mu     sync.Mutex
	m      map[string]*rate.Limiter
	rate   rate.Limit
	burst  int
	global *rate.Limiter
}

func newClientLimiter(perMinute int) *clientLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	globalPerMinute := perMinute * 10
	return &clientLimiter{
		m:      make(map[string]*rate.Limiter),
		rate:   rate.Limit(float64(perMinute) / 60.0),
		burst:  perMinute,
		global: rate.NewLimiter(rate.Limit(float64(globalPerMinute)/60.0), globalPerMinute),
	}
}

func (c *clientLimiter) allow(key string) bool {
	if !c.global.Allow() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.m[key]
	if !ok {
		lim = rate.NewLimiter(c.rate, c.burst)
		c.m[key] = lim
	}
	return lim.Allow()
}
