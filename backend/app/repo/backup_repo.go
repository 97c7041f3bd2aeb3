package repo

import (
	"time"

	"servermon/backend/app/models"

	"gorm.io/gorm"
)

type BackupRepository struct{ db *gorm.DB }

func NewBackupRepository(db *gorm.DB) *BackupRepository { return &BackupRepository{db: db} }

func (r *BackupRepository) CreateJob(j *models.BackupJob) error { return r.db.Create(j).Error }

func (r *BackupRepository) FindJob(id string) (*models.BackupJob, error) {
	var j models.BackupJob
	if err := r.db.Where("id = ?", id).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *BackupRepository) ListJobs() ([]models.BackupJob, error) {
	var out []models.BackupJob
	err := r.db.Order("created_at").Find(&out).Error
	return out, err
}

func (r *BackupRepository) ActiveJobs() ([]models.BackupJob, error) {
	var out []models.BackupJob
	err := r.db.Where("is_active = ?", true).Find(&out).Error
	return out, err
}

func (r *BackupRepository) SaveJob(j *models.BackupJob) error { return r.db.Save(j).Error }

func (r *BackupRepository) DeleteJob(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.BackupJob{}).Error
}

func (r *BackupRepository) UpdateJobRun(id, status string, at time.Time) error {
	return r.db.Model(&models.BackupJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"last_run_status": status, "last_run_at": at}).Error
}

func (r *BackupRepository) CreateLog(l *models.BackupLog) error { return r.db.Create(l).Error }

func (r *BackupRepository) FindLog(taskID string) (*models.BackupLog, error) {
	var l models.BackupLog
	if err := r.db.Where("id = ?", taskID).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *BackupRepository) SaveLog(l *models.BackupLog) error { return r.db.Save(l).Error }

func (r *BackupRepository) ListLogs(jobID string, limit int) ([]models.BackupLog, error) {
	var out []models.BackupLog
	q := r.db.Where("job_id = ?", jobID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
