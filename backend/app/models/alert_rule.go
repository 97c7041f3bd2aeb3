package models

import "time"

// AlertRule target types.
const (
	RuleTargetServer  = "server"
	RuleTargetDisk    = "disk"
	RuleTargetNetwork = "network"
	RuleTargetProcess = "process"
	RuleTargetService = "service"
)

// Metrics evaluated against server-level samples.
const (
	MetricCPU             = "cpu"
	MetricRAM             = "ram"
	MetricLoad1m          = "load1m"
	MetricLoad5m          = "load5m"
	MetricLoad15m         = "load15m"
	MetricDiskUsage       = "disk_usage"
	MetricNetworkUpload   = "network_upload"
	MetricNetworkDownload = "network_download"
)

type AlertRule struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:255;not null"`
	ServerID *uint  `gorm:"index"` // nil applies to every server
	// TargetType selects what the rule watches: server, disk, network,
	// process or service.
	TargetType string `gorm:"size:32;not null"`
	// Target narrows disk rules to a device and names the process/service
	// for watchlist rules. Empty for disk means worst partition wins.
	Target          string  `gorm:"size:255"`
	Metric          string  `gorm:"size:32"`
	Comparison      string  `gorm:"size:8"` // > >= < <= ==
	ThresholdValue  float64
	Severity        string `gorm:"size:16"` // info,warning,critical
	CooldownMinutes int
	IsActive        bool `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
