package models

import "time"

// MetricSample is one metrics report from an agent. Disk partitions and
// network interfaces are stored as child rows of the sample.
type MetricSample struct {
	ID                 uint `gorm:"primaryKey"`
	ServerID           uint `gorm:"index"`
	CPUUsagePercent    float64
	RAMUsagePercent    float64
	RAMUsedGB          float64
	Load1m             float64
	Load5m             float64
	Load15m            float64
	DiskReadSpeedMBps  float64
	DiskWriteSpeedMBps float64
	UptimeSeconds      int64
	RecordedAt         time.Time `gorm:"index"`

	Disks      []DiskPartitionMetric    `gorm:"foreignKey:SampleID"`
	Interfaces []NetworkInterfaceMetric `gorm:"foreignKey:SampleID"`
}

type DiskPartitionMetric struct {
	ID           uint   `gorm:"primaryKey"`
	SampleID     uint   `gorm:"index"`
	Device       string `gorm:"size:255"`
	Mountpoint   string `gorm:"size:255"`
	Fstype       string `gorm:"size:64"`
	TotalGB      float64
	UsedGB       float64
	UsagePercent float64
}

type NetworkInterfaceMetric struct {
	ID                uint   `gorm:"primaryKey"`
	SampleID          uint   `gorm:"index"`
	Name              string `gorm:"size:128"`
	MAC               string `gorm:"size:64"`
	IPv4              string `gorm:"size:64"`
	IPv6              string `gorm:"size:128"`
	UploadSpeedMbps   float64
	DownloadSpeedMbps float64
}
