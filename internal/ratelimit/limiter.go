// Package ratelimit bounds request rates per client using a sliding
// window over persisted timestamps.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"
)

// Category is a named limiter configuration.
type Category struct {
	Name        string
	MaxRequests int
	Window      time.Duration

	// FailOpen controls what happens when the backing store errors:
	// admit the request (search/api) or reject it (login/register).
	FailOpen bool
}

// Built-in categories.
var (
	CategoryLogin    = Category{Name: "login", MaxRequests: 5, Window: 900 * time.Second}
	CategoryAPI      = Category{Name: "api", MaxRequests: 100, Window: time.Hour, FailOpen: true}
	CategorySearch   = Category{Name: "search", MaxRequests: 60, Window: time.Hour, FailOpen: true}
	CategoryRegister = Category{Name: "register", MaxRequests: 3, Window: time.Hour}
)

// SweepMaxAge is how long an untouched window survives before the
// periodic cleanup removes it.
const SweepMaxAge = 24 * time.Hour

// Decision is the outcome of a single admission check, carrying the
// metadata clients need to self-throttle.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Window     time.Duration
	RetryAfter time.Duration
}

// Limiter enforces sliding-window limits against a Store.
type Limiter struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// New creates a Limiter on top of store.
func New(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// windowKey derives the persisted key for one (category, identity,
// resource) triple.
func windowKey(category, identity, resource string) string {
	sum := sha256.Sum256([]byte(category + "|" + identity + "|" + resource))
	return hex.EncodeToString(sum[:])
}

// inWindow drops timestamps older than the window.
func inWindow(stamps []int64, cutoff int64) []int64 {
	kept := stamps[:0]
	for _, s := range stamps {
		if s > cutoff {
			kept = append(kept, s)
		}
	}
	return kept
}

// Allow checks and records one request. The window is filtered to
// in-window timestamps first, capacity is checked against only those,
// and the current instant is appended and persisted in the same
// atomic store update. A denied request records nothing.
func (l *Limiter) Allow(ctx context.Context, resource, identity string, cat Category) Decision {
	key := windowKey(cat.Name, identity, resource)
	now := l.now().Unix()
	cutoff := now - int64(cat.Window.Seconds())

	allowed := false
	result, err := l.store.Update(ctx, key, func(stamps []int64) ([]int64, bool) {
		stamps = inWindow(stamps, cutoff)
		if len(stamps) >= cat.MaxRequests {
			allowed = false
			return stamps, false
		}
		allowed = true
		return append(stamps, now), true
	})
	if err != nil {
		l.logf("rate limit store failure for %s: %v", cat.Name, err)
		return l.storeFailure(cat)
	}

	d := Decision{
		Allowed: allowed,
		Limit:   cat.MaxRequests,
		Window:  cat.Window,
	}
	if allowed {
		d.Remaining = cat.MaxRequests - len(result)
	}
	if len(result) > 0 {
		d.RetryAfter = resetAfter(result, cat.Window, now)
	}
	return d
}

// Remaining reports how many requests are left in the current window
// without recording anything.
func (l *Limiter) Remaining(ctx context.Context, resource, identity string, cat Category) int {
	stamps, err := l.stamps(ctx, resource, identity, cat)
	if err != nil {
		l.logf("rate limit store failure for %s: %v", cat.Name, err)
		if cat.FailOpen {
			return cat.MaxRequests
		}
		return 0
	}
	remaining := cat.MaxRequests - len(stamps)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAfter reports how long until the oldest in-window timestamp
// leaves the window, floored at zero.
func (l *Limiter) ResetAfter(ctx context.Context, resource, identity string, cat Category) time.Duration {
	stamps, err := l.stamps(ctx, resource, identity, cat)
	if err != nil || len(stamps) == 0 {
		return 0
	}
	return resetAfter(stamps, cat.Window, l.now().Unix())
}

func (l *Limiter) stamps(ctx context.Context, resource, identity string, cat Category) ([]int64, error) {
	stamps, err := l.store.Get(ctx, windowKey(cat.Name, identity, resource))
	if err != nil {
		return nil, err
	}
	cutoff := l.now().Unix() - int64(cat.Window.Seconds())
	return inWindow(stamps, cutoff), nil
}

// Sweep removes windows untouched for at least maxAge.
func (l *Limiter) Sweep(ctx context.Context, maxAge time.Duration) {
	keys, err := l.store.StaleKeys(ctx, maxAge)
	if err != nil {
		l.logf("rate limit sweep failed: %v", err)
		return
	}
	for _, key := range keys {
		if err := l.store.Delete(ctx, key); err != nil {
			l.logf("rate limit sweep: deleting %s: %v", key, err)
		}
	}
}

// storeFailure builds the decision used when the store is unreachable.
func (l *Limiter) storeFailure(cat Category) Decision {
	d := Decision{
		Allowed: cat.FailOpen,
		Limit:   cat.MaxRequests,
		Window:  cat.Window,
	}
	if cat.FailOpen {
		d.Remaining = cat.MaxRequests
	} else {
		d.RetryAfter = cat.Window
	}
	return d
}

func resetAfter(stamps []int64, window time.Duration, now int64) time.Duration {
	oldest := stamps[0]
	for _, s := range stamps[1:] {
		if s < oldest {
			oldest = s
		}
	}
	reset := time.Duration(oldest+int64(window.Seconds())-now) * time.Second
	if reset < 0 {
		return 0
	}
	return reset
}

func (l *Limiter) logf(format string, args ...any) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
