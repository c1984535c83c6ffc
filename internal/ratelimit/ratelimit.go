package ratelimit

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"linktrack-go/internal/config"
)

// Result describes the outcome of a rate limit check
type Result struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter int
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter enforces a fixed-window request count per (user, command) key.
// State is in-memory and owned exclusively by this instance.
type Limiter struct {
	cfg       *config.RateLimitConfig
	cron      *cron.Cron
	entryID   cron.EntryID
	windows   map[string]*window
	mu        sync.Mutex
	isRunning bool
	now       func() time.Time
}

// New creates a Limiter. Call Start to begin the background sweep and Stop
// for clean shutdown.
func New(cfg *config.RateLimitConfig) *Limiter {
	return &Limiter{
		cfg:     cfg,
		cron:    cron.New(),
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func key(userID, commandName string) string {
	return userID + ":" + commandName
}

// Check consumes one slot for the (user, command) key if available. Rejected
// checks do not increment the window.
func (l *Limiter) Check(userID, commandName string) Result {
	// Disabled is a distinct mode, not a large limit: no windows are ever
	// created and every check passes.
	if !l.cfg.Enabled {
		return Result{Allowed: true, Remaining: math.MaxInt32}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := key(userID, commandName)

	w, ok := l.windows[k]
	if !ok || now.After(w.resetAt) || now.Equal(w.resetAt) {
		w = &window{count: 0, resetAt: now.Add(l.cfg.Window)}
		l.windows[k] = w
	}

	if w.count >= l.cfg.MaxRequests {
		retry := int(math.Ceil(w.resetAt.Sub(now).Seconds()))
		logrus.Debugf("Rate limit exceeded for %s, retry after %ds", k, retry)
		return Result{Allowed: false, Remaining: 0, ResetTime: w.resetAt, RetryAfter: retry}
	}

	w.count++
	return Result{
		Allowed:   true,
		Remaining: l.cfg.MaxRequests - w.count,
		ResetTime: w.resetAt,
	}
}

// Peek resolves the current state of a key without consuming a slot
func (l *Limiter) Peek(userID, commandName string) Result {
	if !l.cfg.Enabled {
		return Result{Allowed: true, Remaining: math.MaxInt32}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key(userID, commandName)]
	if !ok || now.After(w.resetAt) || now.Equal(w.resetAt) {
		return Result{Allowed: true, Remaining: l.cfg.MaxRequests, ResetTime: now.Add(l.cfg.Window)}
	}

	remaining := l.cfg.MaxRequests - w.count
	if remaining <= 0 {
		retry := int(math.Ceil(w.resetAt.Sub(now).Seconds()))
		return Result{Allowed: false, Remaining: 0, ResetTime: w.resetAt, RetryAfter: retry}
	}
	return Result{Allowed: true, Remaining: remaining, ResetTime: w.resetAt}
}

// Reset removes the window for exactly one (user, command) key
func (l *Limiter) Reset(userID, commandName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key(userID, commandName))
}

// ResetUser removes all windows belonging to one user
func (l *Limiter) ResetUser(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := userID + ":"
	for k := range l.windows {
		if strings.HasPrefix(k, prefix) {
			delete(l.windows, k)
		}
	}
}

// Start begins the periodic sweep of expired windows. The sweep reclaims
// memory only; an expired window behaves identically to an absent one.
func (l *Limiter) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isRunning {
		return fmt.Errorf("rate limiter is already running")
	}
	if !l.cfg.Enabled {
		logrus.Info("Rate limiting disabled, all commands allowed")
		l.isRunning = true
		return nil
	}

	schedule := fmt.Sprintf("@every %s", l.cfg.SweepInterval)
	entryID, err := l.cron.AddFunc(schedule, l.sweep)
	if err != nil {
		return fmt.Errorf("failed to schedule rate limit sweep: %w", err)
	}

	l.entryID = entryID
	l.cron.Start()
	l.isRunning = true

	logrus.Infof("Rate limiter started: %d requests per %s", l.cfg.MaxRequests, l.cfg.Window)
	return nil
}

// Stop halts the sweep and clears all windows
func (l *Limiter) Stop() error {
	l.mu.Lock()
	if !l.isRunning {
		l.mu.Unlock()
		return nil
	}
	l.isRunning = false
	l.mu.Unlock()

	// Wait for an in-flight sweep without holding the mutex: sweep needs it
	// to finish.
	ctx := l.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		logrus.Warn("Rate limit sweep stop timeout")
	}

	l.mu.Lock()
	l.windows = make(map[string]*window)
	l.mu.Unlock()

	logrus.Info("Rate limiter stopped")
	return nil
}

// IsRunning returns whether the limiter has been started
func (l *Limiter) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isRunning
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for k, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, k)
			removed++
		}
	}
	if removed > 0 {
		logrus.Debugf("Rate limit sweep removed %d expired windows", removed)
	}
}
