package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"servermon/backend/app/dto"
	"servermon/backend/app/repo"
	"servermon/backend/app/services"

	"gorm.io/gorm"
)

type BackupController struct {
	Backups *repo.BackupRepository
	Service *services.BackupService
}

func NewBackupController(backups *repo.BackupRepository, service *services.BackupService) *BackupController {
	return &BackupController{Backups: backups, Service: service}
}

func (c *BackupController) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req dto.BackupJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if req.Name == "" || req.ServerID == 0 || req.SourcePath == "" || req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "name, serverId, sourcePath and repoUrl required")
		return
	}
	job, err := c.Service.CreateJob(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	// encrypted credentials never leave the backend
	job.EncPassword = ""
	job.EncSSHKey = ""
	writeJSON(w, http.StatusCreated, job)
}

func (c *BackupController) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := c.Backups.ListJobs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	for i := range jobs {
		jobs[i].EncPassword = ""
		jobs[i].EncSSHKey = ""
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (c *BackupController) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := c.Backups.DeleteJob(r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TriggerNow starts a run outside the schedule.
func (c *BackupController) TriggerNow(w http.ResponseWriter, r *http.Request) {
	job, err := c.Backups.FindJob(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if err := c.Service.TriggerJob(job); err != nil {
		writeError(w, http.StatusInternalServerError, "trigger failed")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (c *BackupController) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := c.Backups.ListLogs(r.PathValue("id"), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
