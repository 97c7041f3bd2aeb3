package services

import (
	"errors"
	"time"

	"servermon/backend/app/dto"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/global"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadAgentToken = errors.New("agent token not recognized")

// ServerService manages the monitored fleet and authenticates agent
// sockets.
type ServerService struct {
	servers *repo.ServerRepository
	now     func() time.Time
}

func NewServerService(servers *repo.ServerRepository) *ServerService {
	return &ServerService{servers: servers, now: time.Now}
}

// Register creates a server record and returns the plaintext agent
// token exactly once; only its bcrypt hash is stored.
func (s *ServerService) Register(name, hostname string) (*models.Server, string, error) {
	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	srv := &models.Server{Name: name, Hostname: hostname, AgentTokenHash: string(hash)}
	if err := s.servers.Create(srv); err != nil {
		return nil, "", err
	}
	return srv, token, nil
}

// Authenticate resolves an agent token to its server by checking the
// token against every stored hash. The id the agent claims is not
// trusted before this; linear bcrypt scan is the accepted cost.
func (s *ServerService) Authenticate(token string) (*models.Server, error) {
	all, err := s.servers.List()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if bcrypt.CompareHashAndPassword([]byte(all[i].AgentTokenHash), []byte(token)) == nil {
			return &all[i], nil
		}
	}
	return nil, ErrBadAgentToken
}

func (s *ServerService) MarkOnline(id uint) {
	if err := s.servers.MarkOnline(id, s.now()); err != nil {
		global.Logger.Error().Err(err).Uint("server", id).Msg("mark online")
	}
}

func (s *ServerService) MarkOffline(id uint) {
	if err := s.servers.MarkOffline(id); err != nil {
		global.Logger.Error().Err(err).Uint("server", id).Msg("mark offline")
	}
}

// UpdateSystemInfo refreshes the hardware/OS columns from the agent's
// get-server-info answer on connect.
func (s *ServerService) UpdateSystemInfo(id uint, info *dto.ServerInfoPayload) {
	srv, err := s.servers.FindByID(id)
	if err != nil {
		global.Logger.Error().Err(err).Uint("server", id).Msg("system info lookup")
		return
	}
	srv.OSName = info.OSName
	srv.KernelVersion = info.KernelVersion
	srv.CPUModel = info.CPUModel
	srv.CPUCores = info.CPUCores
	srv.TotalRAMGB = info.TotalRAMGB
	if err := s.servers.Save(srv); err != nil {
		global.Logger.Error().Err(err).Uint("server", id).Msg("save system info")
	}
}

func (s *ServerService) List() ([]models.Server, error)      { return s.servers.List() }
func (s *ServerService) Get(id uint) (*models.Server, error) { return s.servers.FindByID(id) }
func (s *ServerService) Delete(id uint) error                { return s.servers.Delete(id) }
func (s *ServerService) ResetOnlineFlags() error             { return s.servers.MarkAllOffline() }
