package domain

import "strings"

const (
	// PublicTopic is the broadcast topic every client joins unless told otherwise.
	PublicTopic = "public"

	// DestinationPrefix scopes the inbound routing table.
	DestinationPrefix = "chat."

	DestinationSendMessage = DestinationPrefix + "sendMessage"
	DestinationAddUser     = DestinationPrefix + "addUser"
	DestinationRemoveUser  = DestinationPrefix + "removeUser"

	SystemSender = "system"
)

// DefaultDestinations maps inbound destinations to event kinds.
func DefaultDestinations() map[string]EventKind {
	return map[string]EventKind{
		DestinationSendMessage: KindChat,
		DestinationAddUser:     KindJoin,
		DestinationRemoveUser:  KindLeave,
	}
}

// NormalizeTopic trims the name and strips a leading "/topic/" so STOMP-style
// destinations map onto plain topic names.
func NormalizeTopic(raw string) string {
	topic := strings.TrimSpace(raw)
	topic = strings.TrimPrefix(topic, "/topic/")
	return strings.Trim(topic, "/ ")
}
