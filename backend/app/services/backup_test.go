package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"servermon/backend/app/crypto"
	"servermon/backend/app/dto"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/app/socket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backupFixture struct {
	backups   *repo.BackupRepository
	service   *BackupService
	scheduler *BackupScheduler
	registry  *socket.Registry
	box       *crypto.Box
	now       time.Time
}

func newBackupFixture(t *testing.T) *backupFixture {
	db := newTestDB(t)
	backups := repo.NewBackupRepository(db)
	registry := socket.NewRegistry()

	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))
	box, err := crypto.NewBox(key)
	require.NoError(t, err)

	correlator := NewCorrelator(5 * time.Second)
	commands := NewCommandService(registry, correlator, 30*time.Second, 3)

	f := &backupFixture{
		backups:  backups,
		registry: registry,
		box:      box,
		now:      time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	f.service = NewBackupService(backups, registry, commands, box, socket.NewHub())
	f.service.now = func() time.Time { return f.now }
	f.scheduler = NewBackupScheduler(backups, f.service, time.Minute)
	f.scheduler.now = f.service.now
	return f
}

func (f *backupFixture) seedJob(t *testing.T, cron string) *models.BackupJob {
	t.Helper()
	encPass, err := f.box.Encrypt("restic-pass")
	require.NoError(t, err)
	job := &models.BackupJob{
		ID:           "job-1",
		ServerID:     1,
		Name:         "nightly etc",
		SourcePath:   "/etc",
		RepoURL:      "sftp:backup@vault:/srv/restic",
		EncPassword:  encPass,
		ScheduleCron: cron,
		IsActive:     true,
		CreatedAt:    f.now,
	}
	require.NoError(t, f.backups.CreateJob(job))
	return job
}

func TestSchedulerNotDueBeforeFirstOccurrence(t *testing.T) {
	f := newBackupFixture(t)
	f.seedJob(t, "0 2 * * *") // daily 02:00, job created 08:00

	f.now = time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	f.scheduler.CheckDue()

	logs, err := f.backups.ListLogs("job-1", 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSchedulerOfflineAgentWritesErrorLog(t *testing.T) {
	f := newBackupFixture(t)
	f.seedJob(t, "0 2 * * *")

	f.now = time.Date(2025, 6, 2, 2, 0, 30, 0, time.UTC)
	f.scheduler.CheckDue()

	logs, err := f.backups.ListLogs("job-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.BackupStatusError, logs[0].Status)
	assert.Equal(t, "agent is offline", logs[0].ErrorMessage)

	job, err := f.backups.FindJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.BackupStatusError, job.LastRunStatus)
}

func TestSchedulerTriggersWithDecryptedCredentials(t *testing.T) {
	f := newBackupFixture(t)
	f.seedJob(t, "0 2 * * *")
	conn := &fakeConn{}
	f.registry.Register(1, conn)

	f.now = time.Date(2025, 6, 2, 2, 0, 30, 0, time.UTC)
	f.scheduler.CheckDue()

	frames := conn.sentActions(dto.ActionTriggerBackup)
	require.Len(t, frames, 1)
	var payload dto.TriggerBackupPayload
	require.NoError(t, json.Unmarshal(frames[0].Payload, &payload))
	assert.NotEmpty(t, payload.TaskID)
	assert.Equal(t, "/etc", payload.Source)
	assert.Equal(t, "restic-pass", payload.Password)

	logs, err := f.backups.ListLogs("job-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.BackupStatusPending, logs[0].Status)
	assert.Equal(t, payload.TaskID, logs[0].ID)
}

func TestSchedulerDueOnlyOncePerOccurrence(t *testing.T) {
	f := newBackupFixture(t)
	f.seedJob(t, "0 2 * * *")
	conn := &fakeConn{}
	f.registry.Register(1, conn)

	f.now = time.Date(2025, 6, 2, 2, 0, 30, 0, time.UTC)
	f.scheduler.CheckDue()
	require.Len(t, conn.sentActions(dto.ActionTriggerBackup), 1)

	// triggering stamps LastRunAt itself; a run still in flight is not
	// re-triggered on the following ticks
	f.now = f.now.Add(time.Minute)
	f.scheduler.CheckDue()
	f.now = f.now.Add(time.Minute)
	f.scheduler.CheckDue()
	assert.Len(t, conn.sentActions(dto.ActionTriggerBackup), 1)

	logs, err := f.backups.ListLogs("job-1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	// the next day's occurrence is due again
	f.now = time.Date(2025, 6, 3, 2, 0, 30, 0, time.UTC)
	f.scheduler.CheckDue()
	assert.Len(t, conn.sentActions(dto.ActionTriggerBackup), 2)
}

func TestSchedulerOfflineErrorLoggedOncePerOccurrence(t *testing.T) {
	f := newBackupFixture(t)
	f.seedJob(t, "0 2 * * *")

	f.now = time.Date(2025, 6, 2, 2, 0, 30, 0, time.UTC)
	f.scheduler.CheckDue()
	f.now = f.now.Add(time.Minute)
	f.scheduler.CheckDue()

	logs, err := f.backups.ListLogs("job-1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1, "one error row per missed occurrence, not one per tick")
}

func TestHandleCompletedSuccess(t *testing.T) {
	f := newBackupFixture(t)
	f.seedJob(t, "0 2 * * *")
	conn := &fakeConn{}
	f.registry.Register(1, conn)

	f.now = time.Date(2025, 6, 2, 2, 1, 0, 0, time.UTC)
	job, err := f.backups.FindJob("job-1")
	require.NoError(t, err)
	require.NoError(t, f.service.TriggerJob(job))

	frames := conn.sentActions(dto.ActionTriggerBackup)
	require.Len(t, frames, 1)
	var payload dto.TriggerBackupPayload
	require.NoError(t, json.Unmarshal(frames[0].Payload, &payload))

	f.service.HandleCompleted(1, &dto.BackupCompletedPayload{
		TaskID: payload.TaskID,
		Result: dto.BackupResult{Status: "ok", SnapshotID: "abc123", FilesNew: 12, DataAdded: 4096, Duration: 3.5},
	})

	log, err := f.backups.FindLog(payload.TaskID)
	require.NoError(t, err)
	assert.Equal(t, models.BackupStatusSuccess, log.Status)
	assert.Equal(t, "abc123", log.SnapshotID)
	assert.Equal(t, 12, log.FilesNew)
	require.NotNil(t, log.FinishedAt)

	got, err := f.backups.FindJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.BackupStatusSuccess, got.LastRunStatus)
	require.NotNil(t, got.LastRunAt)
}

func TestHandleCompletedFailure(t *testing.T) {
	f := newBackupFixture(t)
	f.seedJob(t, "0 2 * * *")
	conn := &fakeConn{}
	f.registry.Register(1, conn)

	job, err := f.backups.FindJob("job-1")
	require.NoError(t, err)
	require.NoError(t, f.service.TriggerJob(job))

	var payload dto.TriggerBackupPayload
	require.NoError(t, json.Unmarshal(conn.sentActions(dto.ActionTriggerBackup)[0].Payload, &payload))

	f.service.HandleCompleted(1, &dto.BackupCompletedPayload{
		TaskID: payload.TaskID,
		Result: dto.BackupResult{Status: "error", ErrorMessage: "repository locked"},
	})

	log, err := f.backups.FindLog(payload.TaskID)
	require.NoError(t, err)
	assert.Equal(t, models.BackupStatusError, log.Status)
	assert.Equal(t, "repository locked", log.ErrorMessage)
}

func TestHandleCompletedUnknownTaskIsIgnored(t *testing.T) {
	f := newBackupFixture(t)
	f.service.HandleCompleted(1, &dto.BackupCompletedPayload{TaskID: "no-such-task"})
}
