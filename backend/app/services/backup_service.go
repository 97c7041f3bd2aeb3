package services

import (
	"fmt"
	"time"

	"servermon/backend/app/crypto"
	"servermon/backend/app/dto"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/app/socket"
	"servermon/backend/global"

	"github.com/google/uuid"
)

// BackupService owns backup jobs: credential sealing, dispatching runs
// to agents and folding completion events back into job/log state.
type BackupService struct {
	backups  *repo.BackupRepository
	registry *socket.Registry
	commands *CommandService
	box      *crypto.Box
	hub      *socket.Hub
	now      func() time.Time
}

func NewBackupService(backups *repo.BackupRepository, registry *socket.Registry, commands *CommandService, box *crypto.Box, hub *socket.Hub) *BackupService {
	return &BackupService{
		backups:  backups,
		registry: registry,
		commands: commands,
		box:      box,
		hub:      hub,
		now:      time.Now,
	}
}

func (s *BackupService) CreateJob(req dto.BackupJobRequest) (*models.BackupJob, error) {
	encPass, err := s.box.Encrypt(req.Password)
	if err != nil {
		return nil, fmt.Errorf("seal password: %w", err)
	}
	encKey := ""
	if req.SSHKey != "" {
		if encKey, err = s.box.Encrypt(req.SSHKey); err != nil {
			return nil, fmt.Errorf("seal ssh key: %w", err)
		}
	}
	job := &models.BackupJob{
		ID:           uuid.NewString(),
		ServerID:     req.ServerID,
		Name:         req.Name,
		SourcePath:   req.SourcePath,
		RepoURL:      req.RepoURL,
		EncPassword:  encPass,
		EncSSHKey:    encKey,
		ScheduleCron: req.ScheduleCron,
		IsActive:     req.IsActive,
	}
	if err := s.backups.CreateJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// TriggerJob starts one run of a job. An offline agent produces an
// error log row immediately; no command is sent.
func (s *BackupService) TriggerJob(job *models.BackupJob) error {
	now := s.now()
	if !s.registry.IsOnline(job.ServerID) {
		log := &models.BackupLog{
			ID:           uuid.NewString(),
			JobID:        job.ID,
			ServerID:     job.ServerID,
			Status:       models.BackupStatusError,
			ErrorMessage: "agent is offline",
			StartedAt:    now,
		}
		if err := s.backups.CreateLog(log); err != nil {
			return err
		}
		return s.backups.UpdateJobRun(job.ID, models.BackupStatusError, now)
	}

	password, err := s.box.Decrypt(job.EncPassword)
	if err != nil {
		return fmt.Errorf("unseal password for job %s: %w", job.ID, err)
	}
	sshKey := ""
	if job.EncSSHKey != "" {
		if sshKey, err = s.box.Decrypt(job.EncSSHKey); err != nil {
			return fmt.Errorf("unseal ssh key for job %s: %w", job.ID, err)
		}
	}

	taskID := uuid.NewString()
	log := &models.BackupLog{
		ID:        taskID,
		JobID:     job.ID,
		ServerID:  job.ServerID,
		Status:    models.BackupStatusPending,
		StartedAt: now,
	}
	if err := s.backups.CreateLog(log); err != nil {
		return err
	}
	// stamping last_run_at here moves the schedule base forward, so the
	// scheduler will not re-trigger the occurrence while the run is in
	// flight
	if err := s.backups.UpdateJobRun(job.ID, models.BackupStatusPending, now); err != nil {
		return err
	}

	global.Logger.Info().Str("job", job.ID).Str("task", taskID).
		Uint("server", job.ServerID).Msg("triggering backup")
	return s.commands.SendFireAndForget(job.ServerID, dto.ActionTriggerBackup, dto.TriggerBackupPayload{
		TaskID:   taskID,
		Source:   job.SourcePath,
		Repo:     job.RepoURL,
		Password: password,
		SSHKey:   sshKey,
	})
}

// HandleCompleted folds the agent's backup-completed event into the
// matching log row and its job, then tells the dashboards.
func (s *BackupService) HandleCompleted(serverID uint, p *dto.BackupCompletedPayload) {
	log, err := s.backups.FindLog(p.TaskID)
	if err != nil {
		global.Logger.Warn().Err(err).Str("task", p.TaskID).Uint("server", serverID).
			Msg("backup completion for unknown task")
		return
	}

	now := s.now()
	status := models.BackupStatusError
	if p.Result.Status == "ok" {
		status = models.BackupStatusSuccess
	}
	log.Status = status
	log.SnapshotID = p.Result.SnapshotID
	log.FilesNew = p.Result.FilesNew
	log.DataAddedBytes = p.Result.DataAdded
	log.DurationSec = p.Result.Duration
	log.ErrorMessage = p.Result.ErrorMessage
	log.FinishedAt = &now
	if err := s.backups.SaveLog(log); err != nil {
		global.Logger.Error().Err(err).Str("task", p.TaskID).Msg("save backup log")
		return
	}
	if err := s.backups.UpdateJobRun(log.JobID, status, now); err != nil {
		global.Logger.Error().Err(err).Str("job", log.JobID).Msg("update backup job run")
	}

	s.hub.Broadcast(socket.ServerGroup(log.ServerID), socket.EvBackupCompleted, map[string]interface{}{
		"taskId":   p.TaskID,
		"jobId":    log.JobID,
		"serverId": log.ServerID,
		"status":   status,
	})
}
