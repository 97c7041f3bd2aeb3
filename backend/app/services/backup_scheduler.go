package services

import (
	"context"
	"time"

	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/global"

	"github.com/robfig/cron/v3"
)

// BackupScheduler ticks once a minute and triggers every active job
// whose next cron occurrence has passed. All cron math is UTC.
type BackupScheduler struct {
	backups  *repo.BackupRepository
	service  *BackupService
	interval time.Duration
	now      func() time.Time
}

func NewBackupScheduler(backups *repo.BackupRepository, service *BackupService, interval time.Duration) *BackupScheduler {
	return &BackupScheduler{
		backups:  backups,
		service:  service,
		interval: interval,
		now:      time.Now,
	}
}

func (s *BackupScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckDue()
		}
	}
}

// CheckDue triggers every due active job. A bad schedule or failed
// trigger is logged per job and never stops the pass.
func (s *BackupScheduler) CheckDue() {
	jobs, err := s.backups.ActiveJobs()
	if err != nil {
		global.Logger.Error().Err(err).Msg("load backup jobs")
		return
	}
	now := s.now().UTC()
	for i := range jobs {
		job := jobs[i]
		due, err := s.isDue(&job, now)
		if err != nil {
			global.Logger.Error().Err(err).Str("job", job.ID).
				Str("cron", job.ScheduleCron).Msg("bad backup schedule")
			continue
		}
		if !due {
			continue
		}
		if err := s.service.TriggerJob(&job); err != nil {
			global.Logger.Error().Err(err).Str("job", job.ID).Msg("trigger backup")
		}
	}
}

// isDue computes the first occurrence after the last run (or the job's
// creation if it never ran) and checks whether it has arrived.
func (s *BackupScheduler) isDue(job *models.BackupJob, now time.Time) (bool, error) {
	sched, err := cron.ParseStandard(job.ScheduleCron)
	if err != nil {
		return false, err
	}
	base := job.CreatedAt
	if job.LastRunAt != nil {
		base = *job.LastRunAt
	}
	next := sched.Next(base.UTC())
	return !next.After(now), nil
}
