package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"servermon/backend/app/dto"
	"servermon/backend/app/socket"
	"servermon/backend/global"
)

// fireAndForgetWindow keeps one-way requests registered briefly so a
// late reply correlates instead of logging as an unknown id.
const fireAndForgetWindow = 10 * time.Second

// CommandService sends correlated requests to agents over their
// registered sockets.
type CommandService struct {
	registry   *socket.Registry
	correlator *Correlator
	timeout    time.Duration
	maxRetries int
}

func NewCommandService(registry *socket.Registry, correlator *Correlator, timeout time.Duration, maxRetries int) *CommandService {
	return &CommandService{
		registry:   registry,
		correlator: correlator,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// ResendOnRetry is wired into the correlator's retry callback at
// startup. The frame goes out with the original id and payload and a
// fresh timestamp; a closed socket just logs, the monitor loop keeps
// owning the request's fate.
func (s *CommandService) ResendOnRetry(req *PendingRequest) {
	agent, ok := s.registry.Lookup(req.ServerID)
	if !ok {
		global.Logger.Warn().Int("id", req.ID).Uint("server", req.ServerID).
			Msg("retry skipped, agent offline")
		return
	}
	env := dto.NewRequest(req.ID, req.Action, req.Payload, time.Now().UnixMilli())
	if err := agent.Send(env); err != nil {
		global.Logger.Warn().Err(err).Int("id", req.ID).Uint("server", req.ServerID).
			Msg("retry write failed")
	}
}

// SendCommand sends a request and waits for the agent's response,
// decoding it into out when out is non-nil.
func (s *CommandService) SendCommand(ctx context.Context, serverID uint, action string, payload interface{}, out interface{}) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	agent, ok := s.registry.Lookup(serverID)
	if !ok {
		return ErrAgentNotConnected
	}

	req := s.correlator.Register(serverID, action, raw, s.timeout, s.maxRetries)
	env := dto.NewRequest(req.ID, action, raw, time.Now().UnixMilli())
	if err := agent.Send(env); err != nil {
		s.correlator.Cancel(req.ID, ErrRequestCancelled)
		return fmt.Errorf("write to agent %d: %w", serverID, err)
	}

	resp, err := s.correlator.WaitForResponse(ctx, req)
	if err != nil {
		return err
	}
	if out != nil && len(resp) > 0 {
		if err := json.Unmarshal(resp, out); err != nil {
			return fmt.Errorf("decode %s response: %w", action, err)
		}
	}
	return nil
}

// SendFireAndForget sends a request without waiting. The request stays
// registered for a short window with retries disabled.
func (s *CommandService) SendFireAndForget(serverID uint, action string, payload interface{}) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	agent, ok := s.registry.Lookup(serverID)
	if !ok {
		return ErrAgentNotConnected
	}

	req := s.correlator.Register(serverID, action, raw, fireAndForgetWindow, 0)
	env := dto.NewRequest(req.ID, action, raw, time.Now().UnixMilli())
	if err := agent.Send(env); err != nil {
		s.correlator.Cancel(req.ID, ErrRequestCancelled)
		return fmt.Errorf("write to agent %d: %w", serverID, err)
	}
	return nil
}

func marshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}
