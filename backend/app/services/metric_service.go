package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"servermon/backend/app/dto"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/app/socket"
	"servermon/backend/global"

	"github.com/redis/go-redis/v9"
)

const latestMetricsTTL = 5 * time.Minute

// MetricService persists metrics reports and keeps a hot latest-sample
// snapshot in redis for dashboards that just (re)connected.
type MetricService struct {
	metrics *repo.MetricRepository
	rdb     *redis.Client // nil disables the cache
	hub     *socket.Hub
	now     func() time.Time
}

func NewMetricService(metrics *repo.MetricRepository, rdb *redis.Client, hub *socket.Hub) *MetricService {
	return &MetricService{metrics: metrics, rdb: rdb, hub: hub, now: time.Now}
}

func latestKey(serverID uint) string { return fmt.Sprintf("metrics:latest:%d", serverID) }

// HandleMetrics stores one report, refreshes the cache and pushes the
// raw payload to subscribed dashboards.
func (s *MetricService) HandleMetrics(serverID uint, p *dto.MetricsPayload) {
	sample := &models.MetricSample{
		ServerID:           serverID,
		CPUUsagePercent:    p.CPUUsagePercent,
		RAMUsagePercent:    p.RAMUsagePercent,
		RAMUsedGB:          p.RAMUsedGB,
		Load1m:             p.NormalizedLoad["1m"],
		Load5m:             p.NormalizedLoad["5m"],
		Load15m:            p.NormalizedLoad["15m"],
		DiskReadSpeedMBps:  p.DiskReadSpeedMBps,
		DiskWriteSpeedMBps: p.DiskWriteSpeedMBps,
		UptimeSeconds:      p.UptimeSeconds,
		RecordedAt:         s.now(),
	}
	for _, d := range p.DiskUsage {
		sample.Disks = append(sample.Disks, models.DiskPartitionMetric{
			Device: d.Device, Mountpoint: d.Mountpoint, Fstype: d.Fstype,
			TotalGB: d.TotalGB, UsedGB: d.UsedGB, UsagePercent: d.UsagePercent,
		})
	}
	for _, ni := range p.NetworkInterfaces {
		sample.Interfaces = append(sample.Interfaces, models.NetworkInterfaceMetric{
			Name: ni.Name, MAC: ni.MAC, IPv4: ni.IPv4, IPv6: ni.IPv6,
			UploadSpeedMbps: ni.UploadSpeedMbps, DownloadSpeedMbps: ni.DownloadSpeedMbps,
		})
	}
	if err := s.metrics.Create(sample); err != nil {
		global.Logger.Error().Err(err).Uint("server", serverID).Msg("persist metrics")
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(p); err == nil {
			if err := s.rdb.Set(context.Background(), latestKey(serverID), raw, latestMetricsTTL).Err(); err != nil {
				global.Logger.Warn().Err(err).Uint("server", serverID).Msg("cache metrics")
			}
		}
	}

	s.hub.Broadcast(socket.ServerGroup(serverID), socket.EvMetricsUpdated, p)
}

// Latest serves the cached snapshot when redis has it, else the newest
// persisted sample.
func (s *MetricService) Latest(ctx context.Context, serverID uint) (*dto.MetricsPayload, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, latestKey(serverID)).Bytes()
		if err == nil {
			var p dto.MetricsPayload
			if err := json.Unmarshal(raw, &p); err == nil {
				return &p, nil
			}
		} else if err != redis.Nil {
			global.Logger.Warn().Err(err).Uint("server", serverID).Msg("metrics cache read")
		}
	}

	sample, err := s.metrics.Latest(serverID)
	if err != nil {
		return nil, err
	}
	p := &dto.MetricsPayload{
		CPUUsagePercent: sample.CPUUsagePercent,
		RAMUsagePercent: sample.RAMUsagePercent,
		RAMUsedGB:       sample.RAMUsedGB,
		NormalizedLoad: map[string]float64{
			"1m": sample.Load1m, "5m": sample.Load5m, "15m": sample.Load15m,
		},
		DiskReadSpeedMBps:  sample.DiskReadSpeedMBps,
		DiskWriteSpeedMBps: sample.DiskWriteSpeedMBps,
		UptimeSeconds:      sample.UptimeSeconds,
	}
	for _, d := range sample.Disks {
		p.DiskUsage = append(p.DiskUsage, dto.DiskUsage{
			Device: d.Device, Mountpoint: d.Mountpoint, Fstype: d.Fstype,
			TotalGB: d.TotalGB, UsedGB: d.UsedGB, UsagePercent: d.UsagePercent,
		})
	}
	for _, ni := range sample.Interfaces {
		p.NetworkInterfaces = append(p.NetworkInterfaces, dto.NetworkInterface{
			Name: ni.Name, MAC: ni.MAC, IPv4: ni.IPv4, IPv6: ni.IPv6,
			UploadSpeedMbps: ni.UploadSpeedMbps, DownloadSpeedMbps: ni.DownloadSpeedMbps,
		})
	}
	return p, nil
}

func (s *MetricService) History(serverID uint, limit int) ([]models.MetricSample, error) {
	return s.metrics.Range(serverID, limit)
}
