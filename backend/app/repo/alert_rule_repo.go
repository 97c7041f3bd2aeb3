package repo

import (
	"servermon/backend/app/models"

	"gorm.io/gorm"
)

type AlertRuleRepository struct{ db *gorm.DB }

func NewAlertRuleRepository(db *gorm.DB) *AlertRuleRepository {
	return &AlertRuleRepository{db: db}
}

func (r *AlertRuleRepository) Create(rule *models.AlertRule) error {
	return r.db.Create(rule).Error
}

func (r *AlertRuleRepository) FindByID(id uint) (*models.AlertRule, error) {
	var rule models.AlertRule
	if err := r.db.First(&rule, id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *AlertRuleRepository) List() ([]models.AlertRule, error) {
	var out []models.AlertRule
	err := r.db.Order("id").Find(&out).Error
	return out, err
}

// ActiveForServer returns active rules scoped to the server plus
// fleet-wide rules (server_id null).
func (r *AlertRuleRepository) ActiveForServer(serverID uint) ([]models.AlertRule, error) {
	var out []models.AlertRule
	err := r.db.Where("is_active = ? AND (server_id IS NULL OR server_id = ?)", true, serverID).
		Find(&out).Error
	return out, err
}

func (r *AlertRuleRepository) Save(rule *models.AlertRule) error { return r.db.Save(rule).Error }

func (r *AlertRuleRepository) Delete(id uint) error {
	return r.db.Delete(&models.AlertRule{}, id).Error
}
