package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"servermon/backend/app/controllers"
	"servermon/backend/app/dto"
	"servermon/backend/app/services"
	"servermon/backend/app/socket"
	"servermon/backend/global"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	authWait   = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var agentUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AgentServer owns the agent socket endpoint: authentication handshake,
// registry lifecycle and the per-connection read loop.
type AgentServer struct {
	Servers    *services.ServerService
	Registry   *socket.Registry
	Correlator *services.Correlator
	Commands   *services.CommandService
	Router     *controllers.AgentRouter
}

func NewAgentServer(servers *services.ServerService, registry *socket.Registry, correlator *services.Correlator, commands *services.CommandService, router *controllers.AgentRouter) *AgentServer {
	return &AgentServer{Servers: servers, Registry: registry, Correlator: correlator, Commands: commands, Router: router}
}

// Handle runs one agent connection to completion. The first frame must
// authenticate; anything else closes the socket.
func (s *AgentServer) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := agentUpgrader.Upgrade(w, r, nil)
	if err != nil {
		global.Logger.Warn().Err(err).Msg("agent upgrade failed")
		return
	}

	srv, authID, ok := s.authenticate(conn)
	if !ok {
		conn.Close()
		return
	}

	agent := s.Registry.Register(srv.ID, conn)
	s.Servers.MarkOnline(srv.ID)
	log := global.Logger.With().Uint("server", srv.ID).Str("name", srv.Name).Logger()
	log.Info().Msg("agent connected")

	result, _ := json.Marshal(dto.AuthResult{
		Status:     "ok",
		Message:    "authenticated",
		ServerID:   srv.ID,
		ServerName: srv.Name,
	})
	if err := agent.Send(dto.NewResponse(authID, dto.ActionAuthenticate, result, time.Now().UnixMilli())); err != nil {
		log.Warn().Err(err).Msg("auth reply failed")
	}

	go s.refreshSystemInfo(srv.ID, log)

	s.readLoop(agent, conn, log)

	// a stale unregister must not flip a newer socket offline
	if s.Registry.Unregister(agent) {
		s.Servers.MarkOffline(srv.ID)
		s.Correlator.CancelForServer(srv.ID, services.ErrRequestCancelled)
	}
	agent.Close()
	log.Info().Msg("agent disconnected")
}

// authenticate reads the mandatory first frame and resolves it to a
// server. The id the agent sends in its payload is advisory only.
func (s *AgentServer) authenticate(conn *websocket.Conn) (srv *serverIdentity, authID int, ok bool) {
	conn.SetReadDeadline(time.Now().Add(authWait))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		global.Logger.Warn().Err(err).Msg("agent closed before authenticating")
		return nil, 0, false
	}

	var env dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Action != dto.ActionAuthenticate {
		s.rejectAuth(conn, env.ID, "first message must authenticate")
		return nil, 0, false
	}
	var payload dto.AuthPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.Token == "" {
		s.rejectAuth(conn, env.ID, "missing token")
		return nil, 0, false
	}

	found, err := s.Servers.Authenticate(payload.Token)
	if err != nil {
		global.Logger.Warn().Str("claimed", payload.AgentID).Msg("agent authentication failed")
		s.rejectAuth(conn, env.ID, "authentication failed")
		return nil, 0, false
	}
	return &serverIdentity{ID: found.ID, Name: found.Name}, env.ID, true
}

func (s *AgentServer) rejectAuth(conn *websocket.Conn, id int, msg string) {
	result, _ := json.Marshal(dto.AuthResult{Status: "error", Message: msg})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(dto.NewResponse(id, dto.ActionAuthenticate, result, time.Now().UnixMilli()))
}

type serverIdentity struct {
	ID   uint
	Name string
}

// refreshSystemInfo asks the freshly connected agent to describe its
// host. A non-answer just logs; the columns keep their last values.
func (s *AgentServer) refreshSystemInfo(serverID uint, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	var info dto.ServerInfoPayload
	if err := s.Commands.SendCommand(ctx, serverID, dto.ActionGetServerInfo, nil, &info); err != nil {
		log.Warn().Err(err).Msg("system info request failed")
		return
	}
	s.Servers.UpdateSystemInfo(serverID, &info)
}

func (s *AgentServer) readLoop(agent *socket.Agent, conn *websocket.Conn, log zerolog.Logger) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("agent read error")
			}
			return
		}
		s.Router.HandleFrame(agent.ServerID, raw)
	}
}
