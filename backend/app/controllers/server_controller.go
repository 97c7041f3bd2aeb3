package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"servermon/backend/app/dto"
	"servermon/backend/app/services"

	"gorm.io/gorm"
)

type ServerController struct {
	Servers *services.ServerService
	Metrics *services.MetricService
}

func NewServerController(servers *services.ServerService, metrics *services.MetricService) *ServerController {
	return &ServerController{Servers: servers, Metrics: metrics}
}

func (c *ServerController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterServerRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	srv, token, err := c.Servers.Register(req.Name, req.Hostname)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "register failed")
		return
	}
	writeJSON(w, http.StatusCreated, dto.RegisterServerResponse{ServerID: srv.ID, AgentToken: token})
}

func (c *ServerController) List(w http.ResponseWriter, r *http.Request) {
	servers, err := c.Servers.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	out := make([]dto.ServerSummary, 0, len(servers))
	for _, s := range servers {
		out = append(out, dto.ServerSummary{
			ID: s.ID, Name: s.Name, Hostname: s.Hostname,
			IsOnline: s.IsOnline, LastSeenAt: s.LastSeenAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *ServerController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	srv, err := c.Servers.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "server not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, srv)
}

func (c *ServerController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	if err := c.Servers.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ServerController) LatestMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	p, err := c.Metrics.Latest(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "no metrics yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "metrics lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *ServerController) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	samples, err := c.Metrics.History(id, queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "metrics lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, samples)
}
