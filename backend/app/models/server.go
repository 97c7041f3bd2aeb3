package models

import "time"

// Server is a monitored host. AgentTokenHash holds a bcrypt hash of the
// agent token; the plaintext is shown exactly once at registration.
type Server struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:255;not null"`
	Hostname       string `gorm:"size:255"`
	AgentTokenHash string `gorm:"size:255;not null"`
	IsOnline       bool   `gorm:"index"`
	LastSeenAt     *time.Time
	OSName         string `gorm:"size:128"`
	KernelVersion  string `gorm:"size:128"`
	CPUModel       string `gorm:"size:255"`
	CPUCores       int
	TotalRAMGB     float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
