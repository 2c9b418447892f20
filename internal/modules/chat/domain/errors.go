package domain

import (
	"errors"
	"fmt"
)

var (
	ErrQueueFull             = errors.New("outbound queue full")
	ErrConnectionClosed      = fmt.Errorf("%w: connection closed", ErrQueueFull)
	ErrUnrecognizedEventKind = errors.New("unrecognized event kind")
	ErrConnectionNotFound    = errors.New("connection not found")
	ErrNotJoined             = errors.New("connection has not joined")
	ErrInvalidDisplayName    = errors.New("invalid display name")
	ErrInvalidTopic          = errors.New("invalid topic")
	ErrDecode                = errors.New("decode inbound frame")
	ErrDrainActive           = errors.New("drain already active")
)
