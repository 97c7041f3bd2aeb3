package models

import "time"

// WatchlistService is a systemd unit the agent reports on. AutoRestart
// opts the unit into the restart state machine.
type WatchlistService struct {
	ID          uint   `gorm:"primaryKey"`
	ServerID    uint   `gorm:"index"`
	Name        string `gorm:"size:255;not null"`
	AutoRestart bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WatchlistProcess is matched by case-insensitive substring against the
// process name or cmdline. Processes are never restarted, only alerted.
type WatchlistProcess struct {
	ID        uint   `gorm:"primaryKey"`
	ServerID  uint   `gorm:"index"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
