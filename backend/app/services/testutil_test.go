package services

import (
	"sync"
	"testing"

	"servermon/backend/app/dto"
	"servermon/backend/app/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Server{},
		&models.AlertRule{},
		&models.Alert{},
		&models.MetricSample{},
		&models.DiskPartitionMetric{},
		&models.NetworkInterfaceMetric{},
		&models.BackupJob{},
		&models.BackupLog{},
		&models.WatchlistService{},
		&models.WatchlistProcess{},
	))
	return db
}

// fakeConn records every envelope written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []dto.Envelope
	closed bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if env, ok := v.(dto.Envelope); ok {
		f.frames = append(f.frames, env)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) sent() []dto.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dto.Envelope, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakeConn) sentActions(action string) []dto.Envelope {
	var out []dto.Envelope
	for _, env := range f.sent() {
		if env.Action == action {
			out = append(out, env)
		}
	}
	return out
}
