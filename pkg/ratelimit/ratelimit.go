// Package ratelimit is a fixed-window attempt counter keyed by an
// identifier string such as "signin:<email>".
//
// A record is created on the first attempt and lives for one window. Expired
// records are dropped lazily when their identifier is next touched, or in bulk
// by Sweep.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	DefaultWindow      = 15 * time.Minute
	DefaultMaxAttempts = 5
)

// Config configures a Limiter. Zero values take the defaults.
type Config struct {
	Window      time.Duration
	MaxAttempts int

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

type record struct {
	count   int
	resetAt time.Time
}

// Limiter tracks attempts per identifier. It is safe for concurrent use.
type Limiter struct {
	window time.Duration
	max    int
	now    func() time.Time

	mu      sync.Mutex
	records map[string]record
}

func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Limiter{
		window:  cfg.Window,
		max:     cfg.MaxAttempts,
		now:     cfg.Now,
		records: make(map[string]record),
	}
}

// live returns the record for id, deleting it if its window has passed.
// Callers hold l.mu.
func (l *Limiter) live(id string, now time.Time) (record, bool) {
	rec, ok := l.records[id]
	if !ok {
		return record{}, false
	}
	if !now.Before(rec.resetAt) {
		delete(l.records, id)
		return record{}, false
	}
	return rec, true
}

// IsRateLimited reports whether id has used up its attempts in the
// current window.
func (l *Limiter) IsRateLimited(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.live(id, l.now())
	return ok && rec.count >= l.max
}

// RecordAttempt counts one attempt for id, opening a new window if none is live.
func (l *Limiter) RecordAttempt(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.live(id, now)
	if !ok {
		l.records[id] = record{count: 1, resetAt: now.Add(l.window)}
		return
	}
	rec.count++
	l.records[id] = rec
}

// Reset forgets id.
func (l *Limiter) Reset(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, id)
}

// Remaining returns how many attempts id has left in the window.
func (l *Limiter) Remaining(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.live(id, l.now())
	if !ok {
		return l.max
	}
	return max(l.max-rec.count, 0)
}

// RetryAfter returns the time until id may try again, or 0 if it is not limited.
func (l *Limiter) RetryAfter(id string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.live(id, now)
	if !ok || rec.count < l.max {
		return 0
	}
	return rec.resetAt.Sub(now)
}

// Check returns a *LimitedError when id is limited, nil otherwise.
func (l *Limiter) Check(id string) error {
	if d := l.RetryAfter(id); d > 0 {
		return &LimitedError{ID: id, RetryAfter: d}
	}
	return nil
}

// Clear drops every record.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.records)
}

// Len is the number of records held, expired ones included.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Sweep drops every expired record and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for id, rec := range l.records {
		if !now.Before(rec.resetAt) {
			delete(l.records, id)
			n++
		}
	}
	return n
}

// LimitedError reports a denied identifier and when it may retry.
type LimitedError struct {
	ID         string
	RetryAfter time.Duration
}

// Minutes is RetryAfter rounded up to whole minutes, at least 1.
func (e *LimitedError) Minutes() int {
	return max(int(math.Ceil(e.RetryAfter.Minutes())), 1)
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("Muitas tentativas. Tente novamente em %d minutos.", e.Minutes())
}
