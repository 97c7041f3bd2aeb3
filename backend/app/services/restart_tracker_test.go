package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestartTrackerAttemptsAndCooldown(t *testing.T) {
	tr := NewRestartTracker()
	key := ServiceKey(1, "nginx")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, tr.Attempts(key))
	assert.False(t, tr.InCooldown(key, now))

	assert.Equal(t, 1, tr.RecordAttempt(key, now, 20*time.Second))
	assert.True(t, tr.InCooldown(key, now.Add(19*time.Second)))
	assert.False(t, tr.InCooldown(key, now.Add(20*time.Second)))

	assert.Equal(t, 2, tr.RecordAttempt(key, now.Add(25*time.Second), 20*time.Second))
	assert.Equal(t, 2, tr.Attempts(key))
}

func TestRestartTrackerAlertSentOnce(t *testing.T) {
	tr := NewRestartTracker()
	key := ProcessKey(1, "postgres")

	assert.True(t, tr.MarkAlertSent(key))
	assert.False(t, tr.MarkAlertSent(key))
	assert.True(t, tr.AlertSent(key))
}

func TestRestartTrackerResetReportsPriorState(t *testing.T) {
	tr := NewRestartTracker()
	key := ServiceKey(2, "redis")
	now := time.Now()

	hadAttempts, alertSent := tr.ResetIfTripped(key)
	assert.False(t, hadAttempts)
	assert.False(t, alertSent)

	tr.RecordAttempt(key, now, 20*time.Second)
	hadAttempts, alertSent = tr.ResetIfTripped(key)
	assert.True(t, hadAttempts)
	assert.False(t, alertSent)
	assert.Equal(t, 0, tr.Attempts(key), "reset clears the episode")

	tr.RecordAttempt(key, now, 20*time.Second)
	tr.MarkAlertSent(key)
	hadAttempts, alertSent = tr.ResetIfTripped(key)
	assert.True(t, hadAttempts)
	assert.True(t, alertSent)
}

func TestRestartTrackerKeysAreNamespaced(t *testing.T) {
	tr := NewRestartTracker()
	now := time.Now()
	tr.RecordAttempt(ServiceKey(1, "nginx"), now, time.Second)
	assert.Equal(t, 0, tr.Attempts(ProcessKey(1, "nginx")))
	assert.Equal(t, 0, tr.Attempts(ServiceKey(2, "nginx")))
}
