package domain

import (
	"fmt"
	"strings"
)

// EventKind identifies the type of a chat event on the wire.
type EventKind string

const (
	KindChat  EventKind = "CHAT"
	KindJoin  EventKind = "JOIN"
	KindLeave EventKind = "LEAVE"
)

// ParseEventKind normalizes a textual kind. Unknown values are returned as-is so the
// router can reject them with ErrUnrecognizedEventKind.
func ParseEventKind(raw string) EventKind {
	return EventKind(strings.ToUpper(strings.TrimSpace(raw)))
}

func (k EventKind) Known() bool {
	switch k {
	case KindChat, KindJoin, KindLeave:
		return true
	default:
		return false
	}
}

// Event is the structure fanned out to subscribers. It is treated as immutable once routed.
type Event struct {
	Type      EventKind `json:"type"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp int64     `json:"timestamp"`
}

func (e Event) String() string {
	return fmt.Sprintf("Event{type=%s sender=%q timestamp=%d}", e.Type, e.Sender, e.Timestamp)
}

// Inbound is the decoded client frame. Destination is optional and, when present, takes
// precedence over Type through the router's destination table. Client timestamps are
// never read.
type Inbound struct {
	Destination string    `json:"destination,omitempty"`
	Type        EventKind `json:"type"`
	Content     string    `json:"content"`
	Sender      string    `json:"sender"`
	Topic       string    `json:"topic,omitempty"`
}

// Announcement is a server-originated message injected through REST or Kafka.
type Announcement struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

func JoinedContent(name string) string {
	return name + " joined the chat!"
}

func LeftContent(name string) string {
	return name + " left the chat!"
}
