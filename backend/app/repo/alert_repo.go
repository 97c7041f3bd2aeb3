package repo

import (
	"errors"
	"time"

	"servermon/backend/app/models"

	"gorm.io/gorm"
)

type AlertRepository struct{ db *gorm.DB }

func NewAlertRepository(db *gorm.DB) *AlertRepository { return &AlertRepository{db: db} }

func (r *AlertRepository) Create(a *models.Alert) error { return r.db.Create(a).Error }

func (r *AlertRepository) ListByServer(serverID uint, limit int) ([]models.Alert, error) {
	var out []models.Alert
	q := r.db.Where("server_id = ?", serverID).Order("triggered_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *AlertRepository) List(limit int) ([]models.Alert, error) {
	var out []models.Alert
	q := r.db.Order("triggered_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// LastTriggeredAt returns the newest trigger time for (rule, server),
// or nil when the pair has never fired. Cooldown math keys off this.
func (r *AlertRepository) LastTriggeredAt(ruleID, serverID uint) (*time.Time, error) {
	var a models.Alert
	err := r.db.Where("rule_id = ? AND server_id = ?", ruleID, serverID).
		Order("triggered_at DESC").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := a.TriggeredAt
	return &t, nil
}

func (r *AlertRepository) Acknowledge(id uint, at time.Time) error {
	return r.db.Model(&models.Alert{}).Where("id = ?", id).
		Updates(map[string]interface{}{"acknowledged": true, "acknowledged_at": at}).Error
}
