package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"servermon/backend/app/dto"
	"servermon/backend/app/services"
)

// CommandController proxies operator requests to the target agent and
// maps command outcomes onto HTTP statuses: offline agent 503, agent
// not answering 504.
type CommandController struct {
	Commands *services.CommandService
}

func NewCommandController(commands *services.CommandService) *CommandController {
	return &CommandController{Commands: commands}
}

func (c *CommandController) proxy(w http.ResponseWriter, r *http.Request, action string, payload interface{}) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	var out json.RawMessage
	err := c.Commands.SendCommand(r.Context(), id, action, payload, &out)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAgentNotConnected):
			writeError(w, http.StatusServiceUnavailable, "agent not connected")
		case errors.Is(err, services.ErrRequestTimeout):
			writeError(w, http.StatusGatewayTimeout, "agent did not respond")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(out) > 0 {
		_, _ = w.Write(out)
	} else {
		_, _ = w.Write([]byte("null"))
	}
}

func (c *CommandController) GetProcesses(w http.ResponseWriter, r *http.Request) {
	c.proxy(w, r, dto.ActionGetProcesses, nil)
}

func (c *CommandController) GetProcess(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	c.proxy(w, r, dto.ActionGetProcess, map[string]string{"name": name})
}

func (c *CommandController) GetServices(w http.ResponseWriter, r *http.Request) {
	c.proxy(w, r, dto.ActionGetServices, nil)
}

func (c *CommandController) GetService(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	c.proxy(w, r, dto.ActionGetService, map[string]string{"name": name})
}

func (c *CommandController) GetServiceLog(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	c.proxy(w, r, dto.ActionGetServiceLog, map[string]interface{}{
		"name":  name,
		"lines": queryInt(r, "lines", 100),
	})
}

func (c *CommandController) GetServerInfo(w http.ResponseWriter, r *http.Request) {
	c.proxy(w, r, dto.ActionGetServerInfo, nil)
}

func (c *CommandController) RestartService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	c.proxy(w, r, dto.ActionRestartService, map[string]string{"name": req.Name})
}
