package repo

import (
	"servermon/backend/app/models"

	"gorm.io/gorm"
)

type MetricRepository struct{ db *gorm.DB }

func NewMetricRepository(db *gorm.DB) *MetricRepository { return &MetricRepository{db: db} }

// Create stores the sample together with its disk and interface child
// rows in one transaction (gorm cascades the associations).
func (r *MetricRepository) Create(m *models.MetricSample) error {
	return r.db.Create(m).Error
}

func (r *MetricRepository) Latest(serverID uint) (*models.MetricSample, error) {
	var m models.MetricSample
	err := r.db.Preload("Disks").Preload("Interfaces").
		Where("server_id = ?", serverID).Order("recorded_at DESC").First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MetricRepository) Range(serverID uint, limit int) ([]models.MetricSample, error) {
	var out []models.MetricSample
	q := r.db.Where("server_id = ?", serverID).Order("recorded_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
