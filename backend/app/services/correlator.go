package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"servermon/backend/global"
)

// PendingRequest tracks one in-flight request to an agent. Retries
// resend the same id and payload with a fresh timestamp, so a reply to
// any attempt correlates.
type PendingRequest struct {
	ID         int
	ServerID   uint
	Action     string
	Payload    json.RawMessage
	CreatedAt  time.Time
	Timeout    time.Duration
	MaxRetries int
	RetryCount int

	lastAttempt time.Time
	done        chan outcome
}

type outcome struct {
	payload json.RawMessage
	err     error
}

// Correlator matches agent responses to pending requests by id and
// drives retries and terminal failures from a 1s monitor loop.
type Correlator struct {
	retryInterval time.Duration
	now           func() time.Time

	// Set once at startup, before Run. OnRetry resends the wire frame;
	// OnFailure fans the terminal failure out to observers.
	OnRetry   func(req *PendingRequest)
	OnFailure func(req *PendingRequest)

	mu      sync.Mutex
	nextID  int
	pending map[int]*PendingRequest
}

func NewCorrelator(retryInterval time.Duration) *Correlator {
	return &Correlator{
		retryInterval: retryInterval,
		now:           time.Now,
		pending:       make(map[int]*PendingRequest),
	}
}

// Register allocates the next request id and tracks the request until a
// response, cancellation or timeout resolves it. maxRetries 0 disables
// resending (fire-and-forget stays registered only so a late reply is
// not an unknown id).
func (c *Correlator) Register(serverID uint, action string, payload json.RawMessage, timeout time.Duration, maxRetries int) *PendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	req := &PendingRequest{
		ID:          c.nextID,
		ServerID:    serverID,
		Action:      action,
		Payload:     payload,
		CreatedAt:   c.now(),
		Timeout:     timeout,
		MaxRetries:  maxRetries,
		lastAttempt: c.now(),
		done:        make(chan outcome, 1),
	}
	c.pending[req.ID] = req
	return req
}

// Complete resolves a pending request with the agent's response. The
// first resolution wins; a second reply for the same id reports no
// match. Returns the request so callers can act on its action/server.
func (c *Correlator) Complete(id int, payload json.RawMessage) (*PendingRequest, bool) {
	c.mu.Lock()
	req, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	req.done <- outcome{payload: payload}
	return req, true
}

// Cancel resolves a pending request with an error, e.g. when its agent
// disconnects.
func (c *Correlator) Cancel(id int, err error) bool {
	c.mu.Lock()
	req, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	req.done <- outcome{err: err}
	return true
}

// CancelForServer fails every pending request addressed to one server.
func (c *Correlator) CancelForServer(serverID uint, err error) int {
	c.mu.Lock()
	var doomed []*PendingRequest
	for id, req := range c.pending {
		if req.ServerID == serverID {
			delete(c.pending, id)
			doomed = append(doomed, req)
		}
	}
	c.mu.Unlock()
	for _, req := range doomed {
		req.done <- outcome{err: err}
	}
	return len(doomed)
}

func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// WaitForResponse blocks until the request resolves or the context
// ends. A context end abandons the wait; the monitor loop still owns
// cleanup of the pending entry.
func (c *Correlator) WaitForResponse(ctx context.Context, req *PendingRequest) (json.RawMessage, error) {
	select {
	case out := <-req.done:
		return out.payload, out.err
	case <-ctx.Done():
		c.Cancel(req.ID, ErrRequestCancelled)
		return nil, ctx.Err()
	}
}

// Run drives the monitor loop until the context ends.
func (c *Correlator) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep classifies every pending request: expired or retry-exhausted
// requests fail, stale ones with retries left go out again.
func (c *Correlator) sweep() {
	now := c.now()

	c.mu.Lock()
	var failed, retry []*PendingRequest
	for id, req := range c.pending {
		switch {
		case now.Sub(req.CreatedAt) >= req.Timeout:
			delete(c.pending, id)
			failed = append(failed, req)
		case req.RetryCount >= req.MaxRetries:
			if req.MaxRetries > 0 && now.Sub(req.lastAttempt) >= c.retryInterval {
				delete(c.pending, id)
				failed = append(failed, req)
			}
		case now.Sub(req.lastAttempt) >= c.retryInterval:
			req.RetryCount++
			req.lastAttempt = now
			retry = append(retry, req)
		}
	}
	c.mu.Unlock()

	for _, req := range retry {
		global.Logger.Warn().Int("id", req.ID).Uint("server", req.ServerID).
			Str("action", req.Action).Int("retry", req.RetryCount).
			Msg("retrying pending request")
		if c.OnRetry != nil {
			c.OnRetry(req)
		}
	}
	for _, req := range failed {
		global.Logger.Error().Int("id", req.ID).Uint("server", req.ServerID).
			Str("action", req.Action).Int("retries", req.RetryCount).
			Msg("request failed, no response from agent")
		req.done <- outcome{err: ErrRequestTimeout}
		if c.OnFailure != nil {
			c.OnFailure(req)
		}
	}
}
