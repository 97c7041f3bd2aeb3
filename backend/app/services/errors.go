package services

import "errors"

var (
	ErrAgentNotConnected = errors.New("agent not connected")
	ErrRequestTimeout    = errors.New("request timed out")
	ErrRequestCancelled  = errors.New("request cancelled")
)
