package controllers

import (
	"encoding/json"
	"net/http"

	"servermon/backend/app/dto"
	"servermon/backend/app/services"
)

type WatchlistController struct {
	Watchlist *services.WatchlistService
}

func NewWatchlistController(watchlist *services.WatchlistService) *WatchlistController {
	return &WatchlistController{Watchlist: watchlist}
}

func (c *WatchlistController) ListServices(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	out, err := c.Watchlist.Services(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *WatchlistController) AddService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	var req dto.WatchlistServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	svc, err := c.Watchlist.AddService(id, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (c *WatchlistController) RemoveService(w http.ResponseWriter, r *http.Request) {
	serverID, ok1 := pathUint(r, "id")
	entryID, ok2 := pathUint(r, "entryId")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := c.Watchlist.RemoveService(serverID, entryID); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *WatchlistController) ListProcesses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	out, err := c.Watchlist.Processes(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *WatchlistController) AddProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	var req dto.WatchlistProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	p, err := c.Watchlist.AddProcess(id, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (c *WatchlistController) RemoveProcess(w http.ResponseWriter, r *http.Request) {
	serverID, ok1 := pathUint(r, "id")
	entryID, ok2 := pathUint(r, "entryId")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := c.Watchlist.RemoveProcess(serverID, entryID); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
