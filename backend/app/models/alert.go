package models

import "time"

type Alert struct {
	ID             uint   `gorm:"primaryKey"`
	RuleID         *uint  `gorm:"index"` // nil for system alerts (restart episodes, backups)
	ServerID       uint   `gorm:"index"`
	Severity       string `gorm:"size:16"`
	Message        string `gorm:"size:1024"`
	Value          float64
	TriggeredAt    time.Time `gorm:"index"`
	Acknowledged   bool
	AcknowledgedAt *time.Time
}
