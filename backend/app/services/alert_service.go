package services

import (
	"fmt"
	"strings"
	"time"

	"servermon/backend/app/dto"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/app/socket"
	"servermon/backend/global"
)

// equalityEpsilon absorbs float noise in "==" comparisons.
const equalityEpsilon = 0.01

// AlertService evaluates alert rules against incoming metrics and
// watchlist events and records/broadcasts the alerts that fire.
type AlertService struct {
	rules    *repo.AlertRuleRepository
	alerts   *repo.AlertRepository
	hub      *socket.Hub
	notifier Notifier
	now      func() time.Time
}

func NewAlertService(rules *repo.AlertRuleRepository, alerts *repo.AlertRepository, hub *socket.Hub, notifier Notifier) *AlertService {
	return &AlertService{rules: rules, alerts: alerts, hub: hub, notifier: notifier, now: time.Now}
}

// EvaluateMetrics runs server, disk and network rules against one
// metrics report. A failing rule is logged and skipped, never fatal to
// the rest.
func (s *AlertService) EvaluateMetrics(serverID uint, m *dto.MetricsPayload) {
	rules, err := s.rules.ActiveForServer(serverID)
	if err != nil {
		global.Logger.Error().Err(err).Uint("server", serverID).Msg("load alert rules")
		return
	}
	for i := range rules {
		rule := rules[i]
		value, exceeded, skip := s.evalMetricsRule(&rule, m)
		if skip {
			continue
		}
		if exceeded {
			s.fire(&rule, serverID, value)
		}
	}
}

// EvaluateWatchlist runs process and service rules against one
// watchlist report.
func (s *AlertService) EvaluateWatchlist(serverID uint, w *dto.WatchlistPayload) {
	rules, err := s.rules.ActiveForServer(serverID)
	if err != nil {
		global.Logger.Error().Err(err).Uint("server", serverID).Msg("load alert rules")
		return
	}
	for i := range rules {
		rule := rules[i]
		if rule.TargetType != models.RuleTargetProcess && rule.TargetType != models.RuleTargetService {
			continue
		}
		value, exceeded := s.evalWatchlistRule(&rule, w)
		if exceeded {
			s.fire(&rule, serverID, value)
		}
	}
}

func (s *AlertService) evalMetricsRule(rule *models.AlertRule, m *dto.MetricsPayload) (value float64, exceeded, skip bool) {
	switch rule.TargetType {
	case models.RuleTargetServer:
		switch rule.Metric {
		case models.MetricCPU:
			value = m.CPUUsagePercent
		case models.MetricRAM:
			value = m.RAMUsagePercent
		case models.MetricLoad1m:
			value = m.NormalizedLoad["1m"]
		case models.MetricLoad5m:
			value = m.NormalizedLoad["5m"]
		case models.MetricLoad15m:
			value = m.NormalizedLoad["15m"]
		default:
			return 0, false, true
		}
	case models.RuleTargetDisk:
		found := false
		for _, d := range m.DiskUsage {
			if rule.Target != "" {
				if d.Device == rule.Target {
					value = d.UsagePercent
					found = true
				}
				continue
			}
			// no target: worst partition wins
			if !found || d.UsagePercent > value {
				value = d.UsagePercent
				found = true
			}
		}
		if !found {
			return 0, false, true
		}
	case models.RuleTargetNetwork:
		found := false
		for _, ni := range m.NetworkInterfaces {
			if rule.Target != "" && ni.Name != rule.Target {
				continue
			}
			var v float64
			switch rule.Metric {
			case models.MetricNetworkUpload:
				v = ni.UploadSpeedMbps
			case models.MetricNetworkDownload:
				v = ni.DownloadSpeedMbps
			default:
				return 0, false, true
			}
			// worst matching interface wins
			if !found || v > value {
				value = v
				found = true
			}
		}
		if !found {
			return 0, false, true
		}
	default:
		return 0, false, true
	}
	return value, compare(value, rule.Comparison, rule.ThresholdValue), false
}

func (s *AlertService) evalWatchlistRule(rule *models.AlertRule, w *dto.WatchlistPayload) (float64, bool) {
	target := strings.ToLower(rule.Target)
	if target == "" {
		return 0, false
	}

	if rule.TargetType == models.RuleTargetService {
		for _, e := range w.Services {
			if e.Data != nil && strings.Contains(strings.ToLower(e.Data.Name), target) {
				if e.Status != "ok" || e.Data.ActiveState != "active" {
					return 0, true
				}
				return s.compareEntry(rule, e.Data.CPUUsagePercent, e.Data.MemoryUsage)
			}
			if e.Status == "error" && strings.Contains(strings.ToLower(e.Message), target) {
				return 0, true
			}
		}
		return 0, false
	}

	for _, e := range w.Processes {
		if e.Data != nil &&
			(strings.Contains(strings.ToLower(e.Data.Name), target) ||
				strings.Contains(strings.ToLower(e.Data.Cmdline), target)) {
			if e.Status != "ok" {
				return 0, true
			}
			return s.compareEntry(rule, e.Data.CPUPercent, e.Data.MemoryMb)
		}
		if e.Status == "error" && strings.Contains(strings.ToLower(e.Message), target) {
			return 0, true
		}
	}
	return 0, false
}

func (s *AlertService) compareEntry(rule *models.AlertRule, cpu, mem float64) (float64, bool) {
	var value float64
	switch rule.Metric {
	case models.MetricCPU:
		value = cpu
	case models.MetricRAM:
		value = mem
	default:
		// existence rule and the target is healthy
		return 0, false
	}
	return value, compare(value, rule.Comparison, rule.ThresholdValue)
}

// fire records and broadcasts an alert unless the (rule, server) pair
// is still cooling down. The boundary instant is eligible again.
func (s *AlertService) fire(rule *models.AlertRule, serverID uint, value float64) {
	now := s.now()
	last, err := s.alerts.LastTriggeredAt(rule.ID, serverID)
	if err != nil {
		global.Logger.Error().Err(err).Uint("rule", rule.ID).Msg("cooldown lookup failed")
		return
	}
	if last != nil && now.Before(last.Add(time.Duration(rule.CooldownMinutes)*time.Minute)) {
		return
	}

	ruleID := rule.ID
	alert := &models.Alert{
		RuleID:      &ruleID,
		ServerID:    serverID,
		Severity:    rule.Severity,
		Message:     fmt.Sprintf("%s: %s %s %.2f (observed %.2f)", rule.Name, rule.Metric, rule.Comparison, rule.ThresholdValue, value),
		Value:       value,
		TriggeredAt: now,
	}
	s.Raise(alert)
}

// Raise persists an already-built alert and pushes it to dashboards
// and the notifier. Restart episodes and backup failures come through
// here without a rule.
func (s *AlertService) Raise(alert *models.Alert) {
	if alert.TriggeredAt.IsZero() {
		alert.TriggeredAt = s.now()
	}
	if err := s.alerts.Create(alert); err != nil {
		global.Logger.Error().Err(err).Uint("server", alert.ServerID).Msg("persist alert")
		return
	}
	global.Logger.Warn().Uint("server", alert.ServerID).Str("severity", alert.Severity).
		Str("message", alert.Message).Msg("alert triggered")
	s.hub.Broadcast(socket.ServerGroup(alert.ServerID), socket.EvAlertTriggered, alert)
	if s.notifier != nil {
		s.notifier.Notify(alert.Severity, alert.Message)
	}
}

func compare(value float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return value > threshold
	case ">=":
		return value >= threshold
	case "<":
		return value < threshold
	case "<=":
		return value <= threshold
	case "==":
		diff := value - threshold
		if diff < 0 {
			diff = -diff
		}
		return diff < equalityEpsilon
	default:
		return false
	}
}
