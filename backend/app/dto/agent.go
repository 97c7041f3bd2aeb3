package dto

// AuthPayload is the payload of the mandatory first frame on an agent
// socket. AgentID is a hint only; the token decides identity.
type AuthPayload struct {
	AgentID string `json:"agentId"`
	Token   string `json:"token"`
}

type AuthResult struct {
	Status     string `json:"status"` // ok,error
	Message    string `json:"message"`
	ServerID   uint   `json:"serverId,omitempty"`
	ServerName string `json:"serverName,omitempty"`
}

// ServerInfoPayload is the agent's answer to get-server-info.
type ServerInfoPayload struct {
	OSName        string  `json:"osName"`
	KernelVersion string  `json:"kernelVersion"`
	CPUModel      string  `json:"cpuModel"`
	CPUCores      int     `json:"cpuCores"`
	TotalRAMGB    float64 `json:"totalRamGB"`
}

// MetricsPayload mirrors what the agent collects each interval.
type MetricsPayload struct {
	CPUUsagePercent    float64            `json:"cpuUsagePercent"`
	RAMUsagePercent    float64            `json:"ramUsagePercent"`
	RAMUsedGB          float64            `json:"ramUsedGB"`
	DiskUsage          []DiskUsage        `json:"diskUsage"`
	NetworkInterfaces  []NetworkInterface `json:"networkInterfaces"`
	UptimeSeconds      int64              `json:"uptimeSeconds"`
	NormalizedLoad     map[string]float64 `json:"normalizedLoad"` // keys 1m,5m,15m
	DiskReadSpeedMBps  float64            `json:"diskReadSpeedMBps"`
	DiskWriteSpeedMBps float64            `json:"diskWriteSpeedMBps"`
}

type DiskUsage struct {
	Device       string  `json:"device"`
	Mountpoint   string  `json:"mountpoint"`
	Fstype       string  `json:"fstype"`
	TotalGB      float64 `json:"totalGB"`
	UsedGB       float64 `json:"usedGB"`
	UsagePercent float64 `json:"usagePercent"`
}

type NetworkInterface struct {
	Name              string  `json:"name"`
	MAC               string  `json:"mac"`
	IPv4              string  `json:"ipv4"`
	IPv6              string  `json:"ipv6"`
	UploadSpeedMbps   float64 `json:"uploadSpeedMbps"`
	DownloadSpeedMbps float64 `json:"downloadSpeedMbps"`
}

// WatchlistPayload wraps each watched service/process in a status
// envelope so the agent can report lookup failures per entry.
type WatchlistPayload struct {
	Services  []ServiceEntry `json:"services"`
	Processes []ProcessEntry `json:"processes"`
}

type ServiceEntry struct {
	Status  string       `json:"status"` // ok,error
	Data    *ServiceInfo `json:"data"`
	Message string       `json:"message"`
}

type ServiceInfo struct {
	Name            string  `json:"name"`
	ActiveState     string  `json:"activeState"` // "active" means running
	CPUUsagePercent float64 `json:"cpuUsagePercent"`
	MemoryUsage     float64 `json:"memoryUsage"`
	MainPID         int     `json:"mainPID"`
}

type ProcessEntry struct {
	Status  string       `json:"status"`
	Data    *ProcessInfo `json:"data"`
	Message string       `json:"message"`
}

type ProcessInfo struct {
	PID        int     `json:"pid"`
	Name       string  `json:"name"`
	Cmdline    string  `json:"cmdline"`
	CPUPercent float64 `json:"cpuPercent"`
	MemoryMb   float64 `json:"memoryMb"`
}
