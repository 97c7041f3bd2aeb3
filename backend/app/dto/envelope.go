package dto

import "encoding/json"

// Frame types on the agent socket.
const (
	FrameRequest  = "request"
	FrameResponse = "response"
	FrameEvent    = "event"
)

// Actions the backend sends to agents.
const (
	ActionRestartService    = "restart-service"
	ActionTriggerBackup     = "trigger-backup"
	ActionUpdateAgentConfig = "update-agent-config"
	ActionGetProcesses      = "get-processes"
	ActionGetProcess        = "get-process"
	ActionGetServices       = "get-services"
	ActionGetService        = "get-service"
	ActionGetServiceLog     = "get-service-log"
	ActionGetServerInfo     = "get-server-info"
)

// Actions agents send to the backend.
const (
	ActionAuthenticate     = "authenticate"
	ActionMetrics          = "metrics"
	ActionWatchlistMetrics = "watchlist-metrics"
	ActionBackupCompleted  = "backup-completed"
)

// Envelope is the framing shared by every message on the agent socket.
// Payload stays raw until type and action pick the concrete shape.
type Envelope struct {
	Type      string          `json:"type"`
	ID        int             `json:"id"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"` // unix millis
}

// NewRequest builds a request envelope. A nil payload marshals to JSON
// null, not an empty object.
func NewRequest(id int, action string, payload json.RawMessage, nowMillis int64) Envelope {
	return Envelope{Type: FrameRequest, ID: id, Action: action, Payload: payload, Timestamp: nowMillis}
}

func NewResponse(id int, action string, payload json.RawMessage, nowMillis int64) Envelope {
	return Envelope{Type: FrameResponse, ID: id, Action: action, Payload: payload, Timestamp: nowMillis}
}
