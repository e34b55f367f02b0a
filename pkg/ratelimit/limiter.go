// Package ratelimit implements sliding-window admission control for
// exchange calls, keyed by (exchange, endpoint class). Polymarket and
// Kalshi both publish limits as requests per fixed window, so admission
// counts timestamps inside the trailing window rather than refilling a
// bucket.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// Priority classifies a request for refusal handling.
type Priority int

const (
	// Critical requests (order placement) never drop; they block until a
	// slot opens.
	Critical Priority = iota
	// Normal requests (market fetches) retry with jittered exponential
	// backoff.
	Normal
	// Background requests (metadata) are dropped on refusal.
	Background
)

func (p Priority) String() string {
	switch p {
	case Critical:
		return "critical"
	case Normal:
		return "normal"
	default:
		return "background"
	}
}

// Config holds limiter configuration.
type Config struct {
	Requests       int           // admitted per window per key
	Window         time.Duration // sliding window width
	BackoffInitial time.Duration // first normal-priority retry delay
	BackoffMax     time.Duration // backoff cap
	Logger         *zap.Logger
}

// Limiter admits at most Requests calls per Window for each key.
type Limiter struct {
	cfg Config

	mu   sync.Mutex
	hits map[string][]time.Time

	nowFn func() time.Time
}

// New creates a limiter.
func New(cfg Config) *Limiter {
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = 5 * time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 60 * time.Second
	}

	return &Limiter{
		cfg:   cfg,
		hits:  make(map[string][]time.Time),
		nowFn: time.Now,
	}
}

// Acquire admits one request for key, applying the refusal policy for the
// given priority. It returns types.ErrRateLimited only for Background
// requests; Critical and Normal requests block until admitted or the
// context is cancelled.
func (l *Limiter) Acquire(ctx context.Context, key string, prio Priority) error {
	admitted, retryAfter := l.tryAdmit(key)
	if admitted {
		AdmittedTotal.WithLabelValues(key, prio.String()).Inc()
		return nil
	}

	RefusedTotal.WithLabelValues(key, prio.String()).Inc()

	switch prio {
	case Background:
		return types.ErrRateLimited
	case Critical:
		return l.blockUntilAdmitted(ctx, key, prio, retryAfter)
	default:
		return l.backoffUntilAdmitted(ctx, key, prio)
	}
}

// tryAdmit records the request if the trailing window has room.
func (l *Limiter) tryAdmit(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	cutoff := now.Add(-l.cfg.Window)

	window := l.hits[key]
	for len(window) > 0 && !window[0].After(cutoff) {
		window = window[1:]
	}

	if len(window) >= l.cfg.Requests {
		l.hits[key] = window
		// Time until the oldest hit leaves the window.
		return false, window[0].Sub(cutoff)
	}

	l.hits[key] = append(window, now)
	return true, 0
}

// blockUntilAdmitted waits precisely for window slots; critical requests
// must not be dropped.
func (l *Limiter) blockUntilAdmitted(ctx context.Context, key string, prio Priority, wait time.Duration) error {
	for {
		if wait < 10*time.Millisecond {
			wait = 10 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		var admitted bool
		admitted, wait = l.tryAdmit(key)
		if admitted {
			AdmittedTotal.WithLabelValues(key, prio.String()).Inc()
			return nil
		}
	}
}

// backoffUntilAdmitted retries with jittered exponential delay.
func (l *Limiter) backoffUntilAdmitted(ctx context.Context, key string, prio Priority) error {
	delay := l.cfg.BackoffInitial

	for {
		// Full jitter: sleep uniformly in [0, delay].
		sleep := time.Duration(rand.Int63n(int64(delay) + 1))

		if l.cfg.Logger != nil {
			l.cfg.Logger.Debug("rate-limit-backoff",
				zap.String("key", key),
				zap.Duration("delay", sleep))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}

		admitted, _ := l.tryAdmit(key)
		if admitted {
			AdmittedTotal.WithLabelValues(key, prio.String()).Inc()
			return nil
		}

		RefusedTotal.WithLabelValues(key, prio.String()).Inc()

		delay *= 2
		if delay > l.cfg.BackoffMax {
			delay = l.cfg.BackoffMax
		}
	}
}
