package models

import "time"

// Backup job and log statuses.
const (
	BackupStatusPending = "pending"
	BackupStatusSuccess = "success"
	BackupStatusError   = "error"
)

// BackupJob holds restic credentials encrypted with the master key.
type BackupJob struct {
	ID           string `gorm:"primaryKey;size:36"`
	ServerID     uint   `gorm:"index"`
	Name         string `gorm:"size:255;not null"`
	SourcePath   string `gorm:"size:1024"`
	RepoURL      string `gorm:"size:1024"`
	EncPassword  string `gorm:"type:text"`
	EncSSHKey    string `gorm:"type:text"`
	ScheduleCron  string `gorm:"size:128"`
	IsActive      bool   `gorm:"index"`
	LastRunStatus string `gorm:"size:32"`
	LastRunAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BackupLog's primary key doubles as the task id carried in the
// trigger-backup request and the backup-completed event.
type BackupLog struct {
	ID             string `gorm:"primaryKey;size:36"`
	JobID          string `gorm:"size:36;index"`
	ServerID       uint   `gorm:"index"`
	Status         string `gorm:"size:32;index"` // pending,success,error
	SnapshotID     string `gorm:"size:128"`
	FilesNew       int
	DataAddedBytes int64
	DurationSec    float64
	ErrorMessage   string `gorm:"size:1024"`
	StartedAt      time.Time
	FinishedAt     *time.Time
}
