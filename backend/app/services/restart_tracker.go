package services

import (
	"fmt"
	"sync"
	"time"
)

// RestartTracker keeps per-target restart episode state in memory. A
// target is one service or process on one server; episodes reset the
// moment the target is seen healthy.
type RestartTracker struct {
	mu      sync.Mutex
	entries map[string]*restartEntry
}

type restartEntry struct {
	AttemptCount     int
	LastAttemptAt    time.Time
	CooldownUntil    time.Time
	FailureAlertSent bool
}

func NewRestartTracker() *RestartTracker {
	return &RestartTracker{entries: make(map[string]*restartEntry)}
}

// ServiceKey and ProcessKey namespace targets so a service and process
// with the same name never share an episode.
func ServiceKey(serverID uint, name string) string {
	return fmt.Sprintf("%d:%s", serverID, name)
}

func ProcessKey(serverID uint, name string) string {
	return fmt.Sprintf("%d:process:%s", serverID, name)
}

// ResetIfTripped clears any episode state for a healthy target and
// reports what was cleared, so callers can decide whether a recovery
// alert is owed.
func (t *RestartTracker) ResetIfTripped(key string) (hadAttempts, alertSent bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return false, false
	}
	hadAttempts = e.AttemptCount > 0
	alertSent = e.FailureAlertSent
	delete(t.entries, key)
	return hadAttempts, alertSent
}

func (t *RestartTracker) InCooldown(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	return ok && now.Before(e.CooldownUntil)
}

func (t *RestartTracker) Attempts(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		return e.AttemptCount
	}
	return 0
}

// RecordAttempt increments the attempt count and starts a cooldown.
// Returns the new count.
func (t *RestartTracker) RecordAttempt(key string, now time.Time, cooldown time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &restartEntry{}
		t.entries[key] = e
	}
	e.AttemptCount++
	e.LastAttemptAt = now
	e.CooldownUntil = now.Add(cooldown)
	return e.AttemptCount
}

// MarkAlertSent flags the episode's failure alert. Returns false when
// one was already sent, so each episode alerts exactly once.
func (t *RestartTracker) MarkAlertSent(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &restartEntry{}
		t.entries[key] = e
	}
	if e.FailureAlertSent {
		return false
	}
	e.FailureAlertSent = true
	return true
}

func (t *RestartTracker) AlertSent(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	return ok && e.FailureAlertSent
}
