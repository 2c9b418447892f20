package infrastructure

import (
	"log/slog"
	"sync"

	"chatWs/internal/modules/chat/application/port"
)

// TopicRegistry maps topic names to the set of subscribed connection ids. A reverse
// index per connection lets UnsubscribeAll remove every membership under one lock.
type TopicRegistry struct {
	topics      map[string]map[string]struct{}
	memberships map[string]map[string]struct{}
	mu          sync.RWMutex
}

func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics:      make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
	}
}

func (r *TopicRegistry) Subscribe(topic, connectionID string) {
	if topic == "" || connectionID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.topics[topic] == nil {
		r.topics[topic] = make(map[string]struct{})
	}
	r.topics[topic][connectionID] = struct{}{}
	if r.memberships[connectionID] == nil {
		r.memberships[connectionID] = make(map[string]struct{})
	}
	r.memberships[connectionID][topic] = struct{}{}
}

func (r *TopicRegistry) Unsubscribe(topic, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(topic, connectionID)
	if subs, ok := r.memberships[connectionID]; ok {
		delete(subs, topic)
		if len(subs) == 0 {
			delete(r.memberships, connectionID)
		}
	}
}

// UnsubscribeAll drops the connection from every topic atomically with respect to
// Members snapshots and returns the topics it was removed from.
func (r *TopicRegistry) UnsubscribeAll(connectionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.memberships[connectionID]
	removed := make([]string, 0, len(subs))
	for topic := range subs {
		r.removeLocked(topic, connectionID)
		removed = append(removed, topic)
	}
	delete(r.memberships, connectionID)
	if len(removed) > 0 {
		slog.Debug("connection unsubscribed from all topics", slog.String("connectionId", connectionID), slog.Any("topics", removed))
	}
	return removed
}

func (r *TopicRegistry) removeLocked(topic, connectionID string) {
	if subs, ok := r.topics[topic]; ok {
		delete(subs, connectionID)
		if len(subs) == 0 {
			delete(r.topics, topic)
		}
	}
}

// Members returns a copy of the topic's member set. A missing topic has no members.
func (r *TopicRegistry) Members(topic string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := r.topics[topic]
	members := make([]string, 0, len(subs))
	for id := range subs {
		members = append(members, id)
	}
	return members
}

// TopicsOf lists the topics a connection is subscribed to.
func (r *TopicRegistry) TopicsOf(connectionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := r.memberships[connectionID]
	topics := make([]string, 0, len(subs))
	for topic := range subs {
		topics = append(topics, topic)
	}
	return topics
}

// Topics returns member counts for every non-empty topic.
func (r *TopicRegistry) Topics() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int, len(r.topics))
	for topic, subs := range r.topics {
		counts[topic] = len(subs)
	}
	return counts
}

var _ port.TopicRegistry = (*TopicRegistry)(nil)
