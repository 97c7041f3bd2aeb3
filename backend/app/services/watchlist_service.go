package services

import (
	"errors"

	"servermon/backend/app/dto"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/global"
)

// WatchlistService edits a server's watchlist and pushes the new
// configuration to the agent when it is connected.
type WatchlistService struct {
	watchlist *repo.WatchlistRepository
	commands  *CommandService
}

func NewWatchlistService(watchlist *repo.WatchlistRepository, commands *CommandService) *WatchlistService {
	return &WatchlistService{watchlist: watchlist, commands: commands}
}

func (s *WatchlistService) Services(serverID uint) ([]models.WatchlistService, error) {
	return s.watchlist.ServicesFor(serverID)
}

func (s *WatchlistService) Processes(serverID uint) ([]models.WatchlistProcess, error) {
	return s.watchlist.ProcessesFor(serverID)
}

func (s *WatchlistService) AddService(serverID uint, req dto.WatchlistServiceRequest) (*models.WatchlistService, error) {
	svc := &models.WatchlistService{ServerID: serverID, Name: req.Name, AutoRestart: req.AutoRestart}
	if err := s.watchlist.AddService(svc); err != nil {
		return nil, err
	}
	s.pushConfig(serverID)
	return svc, nil
}

func (s *WatchlistService) AddProcess(serverID uint, req dto.WatchlistProcessRequest) (*models.WatchlistProcess, error) {
	p := &models.WatchlistProcess{ServerID: serverID, Name: req.Name}
	if err := s.watchlist.AddProcess(p); err != nil {
		return nil, err
	}
	s.pushConfig(serverID)
	return p, nil
}

func (s *WatchlistService) RemoveService(serverID, id uint) error {
	if err := s.watchlist.RemoveService(serverID, id); err != nil {
		return err
	}
	s.pushConfig(serverID)
	return nil
}

func (s *WatchlistService) RemoveProcess(serverID, id uint) error {
	if err := s.watchlist.RemoveProcess(serverID, id); err != nil {
		return err
	}
	s.pushConfig(serverID)
	return nil
}

// pushConfig ships the current watchlist to the agent. An offline agent
// just picks it up on its next connect, so that error only logs.
func (s *WatchlistService) pushConfig(serverID uint) {
	services, err := s.watchlist.ServicesFor(serverID)
	if err != nil {
		global.Logger.Error().Err(err).Uint("server", serverID).Msg("load watchlist for push")
		return
	}
	processes, err := s.watchlist.ProcessesFor(serverID)
	if err != nil {
		global.Logger.Error().Err(err).Uint("server", serverID).Msg("load watchlist for push")
		return
	}

	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, svc.Name)
	}
	procNames := make([]string, 0, len(processes))
	for _, p := range processes {
		procNames = append(procNames, p.Name)
	}

	err = s.commands.SendFireAndForget(serverID, dto.ActionUpdateAgentConfig, map[string]interface{}{
		"services":  names,
		"processes": procNames,
	})
	if err != nil && !errors.Is(err, ErrAgentNotConnected) {
		global.Logger.Warn().Err(err).Uint("server", serverID).Msg("push watchlist config")
	}
}
