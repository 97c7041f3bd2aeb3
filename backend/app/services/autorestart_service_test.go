package services

import (
	"testing"
	"time"

	"servermon/backend/app/dto"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/app/socket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type restartFixture struct {
	svc    *AutoRestartService
	alerts *repo.AlertRepository
	conn   *fakeConn
	now    time.Time
}

func newRestartFixture(t *testing.T) *restartFixture {
	db := newTestDB(t)
	watchlist := repo.NewWatchlistRepository(db)
	require.NoError(t, watchlist.AddService(&models.WatchlistService{
		ServerID: 1, Name: "nginx", AutoRestart: true,
	}))
	require.NoError(t, watchlist.AddProcess(&models.WatchlistProcess{
		ServerID: 1, Name: "worker",
	}))

	registry := socket.NewRegistry()
	conn := &fakeConn{}
	registry.Register(1, conn)

	correlator := NewCorrelator(5 * time.Second)
	commands := NewCommandService(registry, correlator, 30*time.Second, 3)

	alerts := repo.NewAlertRepository(db)
	alertSvc := NewAlertService(repo.NewAlertRuleRepository(db), alerts, socket.NewHub(), nil)

	f := &restartFixture{
		alerts: alerts,
		conn:   conn,
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAutoRestartService(NewRestartTracker(), watchlist, commands, alertSvc, socket.NewHub(), 3, 20*time.Second)
	f.svc.now = func() time.Time { return f.now }
	alertSvc.now = f.svc.now
	return f
}

func serviceDown() *dto.WatchlistPayload {
	return &dto.WatchlistPayload{
		Services: []dto.ServiceEntry{
			{Status: "ok", Data: &dto.ServiceInfo{Name: "nginx", ActiveState: "failed"}},
		},
		Processes: []dto.ProcessEntry{
			{Status: "ok", Data: &dto.ProcessInfo{Name: "worker", Cmdline: "/usr/bin/worker"}},
		},
	}
}

func serviceUp() *dto.WatchlistPayload {
	return &dto.WatchlistPayload{
		Services: []dto.ServiceEntry{
			{Status: "ok", Data: &dto.ServiceInfo{Name: "nginx", ActiveState: "active"}},
		},
		Processes: []dto.ProcessEntry{
			{Status: "ok", Data: &dto.ProcessInfo{Name: "worker", Cmdline: "/usr/bin/worker"}},
		},
	}
}

func TestAutoRestartBoundedAttemptsThenOneAlert(t *testing.T) {
	f := newRestartFixture(t)

	// five reports 25s apart: three restart attempts, then give up once
	for i := 0; i < 5; i++ {
		f.svc.HandleWatchlist(1, serviceDown())
		f.now = f.now.Add(25 * time.Second)
	}

	restarts := f.conn.sentActions(dto.ActionRestartService)
	assert.Len(t, restarts, 3, "attempts stop at the cap")

	alerts, err := f.alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1, "one failure alert per episode")
	assert.Equal(t, "critical", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "nginx")
}

func TestAutoRestartCooldownSuppressesAttempts(t *testing.T) {
	f := newRestartFixture(t)

	f.svc.HandleWatchlist(1, serviceDown())
	f.now = f.now.Add(10 * time.Second) // inside the 20s cooldown
	f.svc.HandleWatchlist(1, serviceDown())

	assert.Len(t, f.conn.sentActions(dto.ActionRestartService), 1)
}

func TestAutoRestartRecoveryAfterAlert(t *testing.T) {
	f := newRestartFixture(t)

	for i := 0; i < 4; i++ {
		f.svc.HandleWatchlist(1, serviceDown())
		f.now = f.now.Add(25 * time.Second)
	}
	alerts, err := f.alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	f.svc.HandleWatchlist(1, serviceUp())
	alerts, err = f.alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "info", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "recovered")
}

func TestAutoRestartSilentResetWithoutAlert(t *testing.T) {
	f := newRestartFixture(t)

	// one failed observation, then healthy: attempts reset silently
	f.svc.HandleWatchlist(1, serviceDown())
	f.svc.HandleWatchlist(1, serviceUp())

	alerts, err := f.alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts, "no recovery alert when no failure alert went out")

	// and the next episode starts from a clean slate
	f.now = f.now.Add(time.Minute)
	f.svc.HandleWatchlist(1, serviceDown())
	assert.Len(t, f.conn.sentActions(dto.ActionRestartService), 2)
}

func TestProcessDownAlertsOnceNoRestart(t *testing.T) {
	f := newRestartFixture(t)

	down := &dto.WatchlistPayload{
		Services: serviceUp().Services,
		Processes: []dto.ProcessEntry{
			{Status: "error", Message: "process worker not found"},
		},
	}
	f.svc.HandleWatchlist(1, down)
	f.now = f.now.Add(30 * time.Second)
	f.svc.HandleWatchlist(1, down)

	assert.Empty(t, f.conn.sentActions(dto.ActionRestartService))
	alerts, err := f.alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "warning", alerts[0].Severity)

	f.now = f.now.Add(30 * time.Second)
	f.svc.HandleWatchlist(1, serviceUp())
	alerts, err = f.alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "info", alerts[0].Severity)
}
