package dto

import "time"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type RegisterServerRequest struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
}

// RegisterServerResponse is the only place the plaintext agent token
// ever appears.
type RegisterServerResponse struct {
	ServerID   uint   `json:"serverId"`
	AgentToken string `json:"agentToken"`
}

type ServerSummary struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Hostname   string     `json:"hostname"`
	IsOnline   bool       `json:"isOnline"`
	LastSeenAt *time.Time `json:"lastSeenAt"`
}

type AlertRuleRequest struct {
	Name            string  `json:"name"`
	ServerID        *uint   `json:"serverId"`
	TargetType      string  `json:"targetType"`
	Target          string  `json:"target"`
	Metric          string  `json:"metric"`
	Comparison      string  `json:"comparison"`
	ThresholdValue  float64 `json:"thresholdValue"`
	Severity        string  `json:"severity"`
	CooldownMinutes int     `json:"cooldownMinutes"`
	IsActive        bool    `json:"isActive"`
}

type BackupJobRequest struct {
	ServerID     uint   `json:"serverId"`
	Name         string `json:"name"`
	SourcePath   string `json:"sourcePath"`
	RepoURL      string `json:"repoUrl"`
	Password     string `json:"password"`
	SSHKey       string `json:"sshKey"`
	ScheduleCron string `json:"scheduleCron"`
	IsActive     bool   `json:"isActive"`
}

type WatchlistServiceRequest struct {
	Name        string `json:"name"`
	AutoRestart bool   `json:"autoRestart"`
}

type WatchlistProcessRequest struct {
	Name string `json:"name"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
