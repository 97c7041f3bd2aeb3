package repo

import (
	"time"

	"servermon/backend/app/models"

	"gorm.io/gorm"
)

type ServerRepository struct{ db *gorm.DB }

func NewServerRepository(db *gorm.DB) *ServerRepository { return &ServerRepository{db: db} }

func (r *ServerRepository) Create(s *models.Server) error { return r.db.Create(s).Error }

func (r *ServerRepository) FindByID(id uint) (*models.Server, error) {
	var s models.Server
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServerRepository) List() ([]models.Server, error) {
	var out []models.Server
	err := r.db.Order("id").Find(&out).Error
	return out, err
}

func (r *ServerRepository) Save(s *models.Server) error { return r.db.Save(s).Error }

func (r *ServerRepository) Delete(id uint) error {
	return r.db.Delete(&models.Server{}, id).Error
}

func (r *ServerRepository) MarkOnline(id uint, at time.Time) error {
	return r.db.Model(&models.Server{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_online": true, "last_seen_at": at}).Error
}

func (r *ServerRepository) MarkOffline(id uint) error {
	return r.db.Model(&models.Server{}).Where("id = ?", id).
		Update("is_online", false).Error
}

// MarkAllOffline clears stale online flags at startup; sockets do not
// survive a backend restart.
func (r *ServerRepository) MarkAllOffline() error {
	return r.db.Model(&models.Server{}).Where("is_online = ?", true).
		Update("is_online", false).Error
}
