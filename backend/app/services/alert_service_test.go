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

func TestCompare(t *testing.T) {
	cases := []struct {
		name      string
		value     float64
		op        string
		threshold float64
		want      bool
	}{
		{"gt true", 90, ">", 80, true},
		{"gt false at boundary", 80, ">", 80, false},
		{"gte true at boundary", 80, ">=", 80, true},
		{"lt true", 5, "<", 10, true},
		{"lte false", 11, "<=", 10, false},
		{"eq within epsilon", 80.005, "==", 80, true},
		{"eq at epsilon", 80.01, "==", 80, false},
		{"eq outside epsilon", 80.02, "==", 80, false},
		{"unknown operator", 100, "~", 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, compare(tc.value, tc.op, tc.threshold))
		})
	}
}

func newAlertFixture(t *testing.T) (*AlertService, *repo.AlertRuleRepository, *repo.AlertRepository) {
	db := newTestDB(t)
	rules := repo.NewAlertRuleRepository(db)
	alerts := repo.NewAlertRepository(db)
	svc := NewAlertService(rules, alerts, socket.NewHub(), nil)
	return svc, rules, alerts
}

func TestEvaluateMetricsCPURule(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "cpu high", TargetType: models.RuleTargetServer, Metric: models.MetricCPU,
		Comparison: ">", ThresholdValue: 80, Severity: "warning", IsActive: true,
	}))

	svc.EvaluateMetrics(1, &dto.MetricsPayload{CPUUsagePercent: 75})
	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	svc.EvaluateMetrics(1, &dto.MetricsPayload{CPUUsagePercent: 91.5})
	got, err = alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 91.5, got[0].Value)
	assert.Equal(t, "warning", got[0].Severity)
}

func TestEvaluateMetricsDiskWorstPartitionWins(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "disk full", TargetType: models.RuleTargetDisk,
		Comparison: ">=", ThresholdValue: 90, Severity: "critical", IsActive: true,
	}))

	svc.EvaluateMetrics(1, &dto.MetricsPayload{DiskUsage: []dto.DiskUsage{
		{Device: "/dev/sda1", UsagePercent: 40},
		{Device: "/dev/sdb1", UsagePercent: 95},
		{Device: "/dev/sdc1", UsagePercent: 60},
	}})

	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 95.0, got[0].Value)
}

func TestEvaluateMetricsDiskTargetDeviceMissing(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "data disk", TargetType: models.RuleTargetDisk, Target: "/dev/sdz1",
		Comparison: ">", ThresholdValue: 10, Severity: "warning", IsActive: true,
	}))

	svc.EvaluateMetrics(1, &dto.MetricsPayload{DiskUsage: []dto.DiskUsage{
		{Device: "/dev/sda1", UsagePercent: 99},
	}})

	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Empty(t, got, "a missing target device never trips the rule")
}

func TestEvaluateMetricsNetworkWorstInterface(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "upload spike", TargetType: models.RuleTargetNetwork,
		Metric: models.MetricNetworkUpload, Comparison: ">", ThresholdValue: 100,
		Severity: "warning", IsActive: true,
	}))

	svc.EvaluateMetrics(1, &dto.MetricsPayload{NetworkInterfaces: []dto.NetworkInterface{
		{Name: "eth0", UploadSpeedMbps: 20},
		{Name: "eth1", UploadSpeedMbps: 250},
	}})

	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 250.0, got[0].Value)
}

func TestEvaluateMetricsNetworkTargetInterfaceOnly(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "eth1 upload", TargetType: models.RuleTargetNetwork, Target: "eth1",
		Metric: models.MetricNetworkUpload, Comparison: ">", ThresholdValue: 100,
		Severity: "warning", IsActive: true,
	}))

	// a spike on another interface must not trip a scoped rule
	svc.EvaluateMetrics(1, &dto.MetricsPayload{NetworkInterfaces: []dto.NetworkInterface{
		{Name: "eth0", UploadSpeedMbps: 500},
		{Name: "eth1", UploadSpeedMbps: 1},
	}})
	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	svc.EvaluateMetrics(1, &dto.MetricsPayload{NetworkInterfaces: []dto.NetworkInterface{
		{Name: "eth0", UploadSpeedMbps: 1},
		{Name: "eth1", UploadSpeedMbps: 180},
	}})
	got, err = alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 180.0, got[0].Value)
}

func TestEvaluateMetricsNetworkTargetInterfaceMissing(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "bond0 download", TargetType: models.RuleTargetNetwork, Target: "bond0",
		Metric: models.MetricNetworkDownload, Comparison: ">", ThresholdValue: 10,
		Severity: "warning", IsActive: true,
	}))

	svc.EvaluateMetrics(1, &dto.MetricsPayload{NetworkInterfaces: []dto.NetworkInterface{
		{Name: "eth0", DownloadSpeedMbps: 900},
	}})

	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Empty(t, got, "a missing target interface never trips the rule")
}

func TestCooldownBoundaryIsInclusive(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "cpu high", TargetType: models.RuleTargetServer, Metric: models.MetricCPU,
		Comparison: ">", ThresholdValue: 80, Severity: "warning",
		CooldownMinutes: 10, IsActive: true,
	}))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	svc.now = func() time.Time { return now }

	hot := &dto.MetricsPayload{CPUUsagePercent: 95}
	svc.EvaluateMetrics(1, hot)

	now = base.Add(9 * time.Minute)
	svc.EvaluateMetrics(1, hot)
	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1, "still cooling down")

	now = base.Add(10 * time.Minute)
	svc.EvaluateMetrics(1, hot)
	got, err = alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2, "the cooldown boundary itself is eligible")
}

func TestCooldownIsPerServer(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "cpu high", TargetType: models.RuleTargetServer, Metric: models.MetricCPU,
		Comparison: ">", ThresholdValue: 80, Severity: "warning",
		CooldownMinutes: 10, IsActive: true,
	}))

	hot := &dto.MetricsPayload{CPUUsagePercent: 95}
	svc.EvaluateMetrics(1, hot)
	svc.EvaluateMetrics(2, hot)

	a1, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	a2, err := alerts.ListByServer(2, 0)
	require.NoError(t, err)
	assert.Len(t, a1, 1)
	assert.Len(t, a2, 1)
}

func TestEvaluateWatchlistServiceDown(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "nginx up", TargetType: models.RuleTargetService, Target: "nginx",
		Severity: "critical", IsActive: true,
	}))

	svc.EvaluateWatchlist(1, &dto.WatchlistPayload{Services: []dto.ServiceEntry{
		{Status: "ok", Data: &dto.ServiceInfo{Name: "nginx.service", ActiveState: "failed"}},
	}})

	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Value)
}

func TestEvaluateWatchlistErrorEntryMatchesByMessage(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "worker alive", TargetType: models.RuleTargetProcess, Target: "worker",
		Severity: "warning", IsActive: true,
	}))

	svc.EvaluateWatchlist(1, &dto.WatchlistPayload{Processes: []dto.ProcessEntry{
		{Status: "error", Message: "process Worker not found"},
	}})

	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEvaluateWatchlistHealthyProcessMetricRule(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "worker cpu", TargetType: models.RuleTargetProcess, Target: "worker",
		Metric: models.MetricCPU, Comparison: ">", ThresholdValue: 50,
		Severity: "warning", IsActive: true,
	}))

	svc.EvaluateWatchlist(1, &dto.WatchlistPayload{Processes: []dto.ProcessEntry{
		{Status: "ok", Data: &dto.ProcessInfo{Name: "queue-worker", Cmdline: "/usr/bin/queue-worker", CPUPercent: 72}},
	}})

	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 72.0, got[0].Value)
}

func TestInactiveRulesAreSkipped(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "cpu high", TargetType: models.RuleTargetServer, Metric: models.MetricCPU,
		Comparison: ">", ThresholdValue: 80, Severity: "warning", IsActive: false,
	}))

	svc.EvaluateMetrics(1, &dto.MetricsPayload{CPUUsagePercent: 99})
	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRuleScopedToOtherServerIsSkipped(t *testing.T) {
	svc, rules, alerts := newAlertFixture(t)
	other := uint(9)
	require.NoError(t, rules.Create(&models.AlertRule{
		Name: "cpu high", ServerID: &other, TargetType: models.RuleTargetServer,
		Metric: models.MetricCPU, Comparison: ">", ThresholdValue: 80,
		Severity: "warning", IsActive: true,
	}))

	svc.EvaluateMetrics(1, &dto.MetricsPayload{CPUUsagePercent: 99})
	got, err := alerts.ListByServer(1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
