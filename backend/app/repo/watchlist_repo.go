package repo

import (
	"servermon/backend/app/models"

	"gorm.io/gorm"
)

type WatchlistRepository struct{ db *gorm.DB }

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

func (r *WatchlistRepository) ServicesFor(serverID uint) ([]models.WatchlistService, error) {
	var out []models.WatchlistService
	err := r.db.Where("server_id = ?", serverID).Order("id").Find(&out).Error
	return out, err
}

func (r *WatchlistRepository) ProcessesFor(serverID uint) ([]models.WatchlistProcess, error) {
	var out []models.WatchlistProcess
	err := r.db.Where("server_id = ?", serverID).Order("id").Find(&out).Error
	return out, err
}

func (r *WatchlistRepository) AddService(s *models.WatchlistService) error {
	return r.db.Create(s).Error
}

func (r *WatchlistRepository) AddProcess(p *models.WatchlistProcess) error {
	return r.db.Create(p).Error
}

func (r *WatchlistRepository) RemoveService(serverID, id uint) error {
	return r.db.Where("server_id = ?", serverID).Delete(&models.WatchlistService{}, id).Error
}

func (r *WatchlistRepository) RemoveProcess(serverID, id uint) error {
	return r.db.Where("server_id = ?", serverID).Delete(&models.WatchlistProcess{}, id).Error
}
