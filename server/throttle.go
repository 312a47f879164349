package server

import (
	"sync"
	"time"
)

// LoginThrottle bounds login attempts per client key within a fixed window.
// A key is typically username plus remote host.
type LoginThrottle struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	seen   map[string]*attemptWindow
	now    func() time.Time
}

type attemptWindow struct {
	start time.Time
	count int
}

// NewLoginThrottle creates a throttle allowing max attempts per window.
func NewLoginThrottle(max int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		max:    max,
		window: window,
		seen:   make(map[string]*attemptWindow),
		now:    time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within budget.
func (t *LoginThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.current(key)
	if w.count >= t.max {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts key has left in the current window.
func (t *LoginThrottle) Remaining(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.current(key)
	left := t.max - w.count
	if left < 0 {
		return 0
	}
	return left
}

// SecondsUntilReset returns how long until key's window starts over.
func (t *LoginThrottle) SecondsUntilReset(key string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.current(key)
	remaining := t.window - t.now().Sub(w.start)
	if remaining < 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

// Reset clears the window for key, typically after a successful login.
func (t *LoginThrottle) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, key)
}

// current returns key's window, rolling it over when expired.
// Caller holds the lock.
func (t *LoginThrottle) current(key string) *attemptWindow {
	now := t.now()
	w, ok := t.seen[key]
	if !ok || now.Sub(w.start) >= t.window {
		w = &attemptWindow{start: now}
		t.seen[key] = w
	}
	return w
}
