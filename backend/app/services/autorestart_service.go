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

// AutoRestartService reacts to watchlist reports: downed services get
// bounded restart attempts, downed processes get alerted, and both get
// a recovery notice once back up if a failure alert actually went out.
type AutoRestartService struct {
	tracker   *RestartTracker
	watchlist *repo.WatchlistRepository
	commands  *CommandService
	alerts    *AlertService
	hub       *socket.Hub

	maxAttempts int
	cooldown    time.Duration
	now         func() time.Time
}

func NewAutoRestartService(tracker *RestartTracker, watchlist *repo.WatchlistRepository, commands *CommandService, alerts *AlertService, hub *socket.Hub, maxAttempts int, cooldown time.Duration) *AutoRestartService {
	return &AutoRestartService{
		tracker:     tracker,
		watchlist:   watchlist,
		commands:    commands,
		alerts:      alerts,
		hub:         hub,
		maxAttempts: maxAttempts,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// HandleWatchlist walks the configured watchlist for one server against
// the agent's latest report.
func (s *AutoRestartService) HandleWatchlist(serverID uint, w *dto.WatchlistPayload) {
	services, err := s.watchlist.ServicesFor(serverID)
	if err != nil {
		global.Logger.Error().Err(err).Uint("server", serverID).Msg("load watchlist services")
	} else {
		for _, svc := range services {
			s.handleService(serverID, svc, w)
		}
	}

	processes, err := s.watchlist.ProcessesFor(serverID)
	if err != nil {
		global.Logger.Error().Err(err).Uint("server", serverID).Msg("load watchlist processes")
		return
	}
	for _, p := range processes {
		s.handleProcess(serverID, p, w)
	}
}

func (s *AutoRestartService) handleService(serverID uint, svc models.WatchlistService, w *dto.WatchlistPayload) {
	key := ServiceKey(serverID, svc.Name)
	if serviceOnline(svc.Name, w) {
		_, alertSent := s.tracker.ResetIfTripped(key)
		if alertSent {
			s.alerts.Raise(&models.Alert{
				ServerID: serverID,
				Severity: "info",
				Message:  fmt.Sprintf("Service %s recovered", svc.Name),
			})
			s.hub.Broadcast(socket.ServerGroup(serverID), socket.EvServiceRecovered, map[string]interface{}{
				"serverId": serverID,
				"name":     svc.Name,
			})
		}
		return
	}

	now := s.now()
	if !svc.AutoRestart || s.tracker.Attempts(key) >= s.maxAttempts {
		s.giveUp(serverID, key, svc)
		return
	}
	if s.tracker.InCooldown(key, now) {
		return
	}

	attempt := s.tracker.RecordAttempt(key, now, s.cooldown)
	global.Logger.Warn().Uint("server", serverID).Str("service", svc.Name).
		Int("attempt", attempt).Msg("service down, sending restart")
	if err := s.commands.SendFireAndForget(serverID, dto.ActionRestartService, map[string]string{"name": svc.Name}); err != nil {
		global.Logger.Warn().Err(err).Uint("server", serverID).Str("service", svc.Name).
			Msg("restart command not sent")
	}
	s.hub.Broadcast(socket.ServerGroup(serverID), socket.EvServiceRestartAttempted, map[string]interface{}{
		"serverId": serverID,
		"name":     svc.Name,
		"attempt":  attempt,
	})
}

// giveUp fires the episode's one failure alert, either because restart
// attempts are exhausted or because the unit opted out of restarting.
func (s *AutoRestartService) giveUp(serverID uint, key string, svc models.WatchlistService) {
	if !s.tracker.MarkAlertSent(key) {
		return
	}
	msg := fmt.Sprintf("Service %s is down", svc.Name)
	severity := "warning"
	if svc.AutoRestart {
		msg = fmt.Sprintf("Service %s still down after %d restart attempts", svc.Name, s.maxAttempts)
		severity = "critical"
	}
	s.alerts.Raise(&models.Alert{ServerID: serverID, Severity: severity, Message: msg})
}

func (s *AutoRestartService) handleProcess(serverID uint, p models.WatchlistProcess, w *dto.WatchlistPayload) {
	key := ProcessKey(serverID, p.Name)
	if processOnline(p.Name, w) {
		_, alertSent := s.tracker.ResetIfTripped(key)
		if alertSent {
			s.alerts.Raise(&models.Alert{
				ServerID: serverID,
				Severity: "info",
				Message:  fmt.Sprintf("Process %s recovered", p.Name),
			})
			s.hub.Broadcast(socket.ServerGroup(serverID), socket.EvServiceRecovered, map[string]interface{}{
				"serverId": serverID,
				"name":     p.Name,
			})
		}
		return
	}
	if !s.tracker.MarkAlertSent(key) {
		return
	}
	s.alerts.Raise(&models.Alert{
		ServerID: serverID,
		Severity: "warning",
		Message:  fmt.Sprintf("Process %s is not running", p.Name),
	})
}

func serviceOnline(name string, w *dto.WatchlistPayload) bool {
	target := strings.ToLower(name)
	for _, e := range w.Services {
		if e.Data == nil || !strings.Contains(strings.ToLower(e.Data.Name), target) {
			continue
		}
		return e.Status == "ok" && e.Data.ActiveState == "active"
	}
	return false
}

func processOnline(name string, w *dto.WatchlistPayload) bool {
	target := strings.ToLower(name)
	for _, e := range w.Processes {
		if e.Data == nil {
			continue
		}
		if strings.Contains(strings.ToLower(e.Data.Name), target) ||
			strings.Contains(strings.ToLower(e.Data.Cmdline), target) {
			if e.Status == "ok" {
				return true
			}
		}
	}
	return false
}
