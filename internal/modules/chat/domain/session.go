package domain

import "time"

// Session is the per-connection metadata recorded when a JOIN is processed.
type Session struct {
	ConnectionID string
	DisplayName  string
	Topic        string
	JoinedAt     time.Time
}

func (s Session) Joined() bool {
	return s.DisplayName != ""
}
