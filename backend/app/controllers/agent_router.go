package controllers

import (
	"encoding/json"

	"servermon/backend/app/dto"
	"servermon/backend/app/services"
	"servermon/backend/app/socket"
	"servermon/backend/global"
)

// AgentRouter dispatches every frame arriving on an authenticated agent
// socket. One malformed frame drops that frame, never the connection.
type AgentRouter struct {
	Correlator  *services.Correlator
	Metrics     *services.MetricService
	Alerts      *services.AlertService
	AutoRestart *services.AutoRestartService
	Backups     *services.BackupService
	Hub         *socket.Hub
}

func NewAgentRouter(correlator *services.Correlator, metrics *services.MetricService, alerts *services.AlertService, autoRestart *services.AutoRestartService, backups *services.BackupService, hub *socket.Hub) *AgentRouter {
	return &AgentRouter{
		Correlator:  correlator,
		Metrics:     metrics,
		Alerts:      alerts,
		AutoRestart: autoRestart,
		Backups:     backups,
		Hub:         hub,
	}
}

func (rt *AgentRouter) HandleFrame(serverID uint, raw []byte) {
	var env dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		global.Logger.Warn().Err(err).Uint("server", serverID).Msg("malformed agent frame dropped")
		return
	}

	switch env.Type {
	case dto.FrameEvent:
		rt.handleEvent(serverID, &env)
	case dto.FrameResponse:
		rt.handleResponse(serverID, &env)
	case dto.FrameRequest:
		// agents have no request/response path into the backend
		global.Logger.Warn().Uint("server", serverID).Str("action", env.Action).
			Msg("ignoring request frame from agent")
	default:
		global.Logger.Warn().Uint("server", serverID).Str("type", env.Type).
			Msg("unknown frame type from agent")
	}
}

func (rt *AgentRouter) handleEvent(serverID uint, env *dto.Envelope) {
	switch env.Action {
	case dto.ActionMetrics:
		var p dto.MetricsPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			global.Logger.Warn().Err(err).Uint("server", serverID).Msg("bad metrics payload")
			return
		}
		rt.Metrics.HandleMetrics(serverID, &p)
		rt.Alerts.EvaluateMetrics(serverID, &p)
	case dto.ActionWatchlistMetrics:
		var p dto.WatchlistPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			global.Logger.Warn().Err(err).Uint("server", serverID).Msg("bad watchlist payload")
			return
		}
		rt.Hub.Broadcast(socket.ServerGroup(serverID), socket.EvWatchlistMetricsUpdated, &p)
		rt.AutoRestart.HandleWatchlist(serverID, &p)
		rt.Alerts.EvaluateWatchlist(serverID, &p)
	case dto.ActionBackupCompleted:
		var p dto.BackupCompletedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			global.Logger.Warn().Err(err).Uint("server", serverID).Msg("bad backup completion payload")
			return
		}
		rt.Backups.HandleCompleted(serverID, &p)
	default:
		global.Logger.Warn().Uint("server", serverID).Str("action", env.Action).
			Msg("unknown event from agent")
	}
}

func (rt *AgentRouter) handleResponse(serverID uint, env *dto.Envelope) {
	req, ok := rt.Correlator.Complete(env.ID, env.Payload)
	if !ok {
		// expected race: the monitor already failed the request, or a
		// second reply arrived for the same id
		global.Logger.Debug().Int("id", env.ID).Uint("server", serverID).
			Msg("response for unknown request id")
		return
	}
	rt.Hub.Broadcast(socket.ServerGroup(serverID), socket.EvCommandSuccess, map[string]interface{}{
		"id":       req.ID,
		"action":   req.Action,
		"serverId": req.ServerID,
	})
}
