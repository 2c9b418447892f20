package usecase

import (
	"context"
	"slices"
	"sync"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

type stubClock struct{ ms int64 }

func (c stubClock) NowMillis() int64 { return c.ms }

type memoryTopics struct {
	mu     sync.Mutex
	topics map[string][]string
}

func newMemoryTopics() *memoryTopics {
	return &memoryTopics{topics: make(map[string][]string)}
}

func (m *memoryTopics) Subscribe(topic, connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.topics[topic], connectionID) {
		m.topics[topic] = append(m.topics[topic], connectionID)
	}
}

func (m *memoryTopics) Unsubscribe(topic, connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := slices.DeleteFunc(m.topics[topic], func(id string) bool { return id == connectionID })
	if len(members) == 0 {
		delete(m.topics, topic)
		return
	}
	m.topics[topic] = members
}

func (m *memoryTopics) UnsubscribeAll(connectionID string) []string {
	var removed []string
	for topic := range m.Topics() {
		if slices.Contains(m.Members(topic), connectionID) {
			m.Unsubscribe(topic, connectionID)
			removed = append(removed, topic)
		}
	}
	return removed
}

func (m *memoryTopics) Members(topic string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.topics[topic])
}

func (m *memoryTopics) Topics() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.topics))
	for topic, members := range m.topics {
		out[topic] = len(members)
	}
	return out
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]domain.Session)}
}

func (m *memorySessions) Put(connectionID string, session domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ConnectionID = connectionID
	m.sessions[connectionID] = session
}

func (m *memorySessions) Get(connectionID string) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[connectionID]
	return s, ok
}

func (m *memorySessions) Remove(connectionID string) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[connectionID]
	delete(m.sessions, connectionID)
	return s, ok
}

type publishCall struct {
	topic string
	event domain.Event
}

type recordingPublisher struct {
	calls []publishCall
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event domain.Event) port.PublishResult {
	p.calls = append(p.calls, publishCall{topic: topic, event: event})
	return port.PublishResult{Topic: topic, Members: 2, Delivered: 2}
}

var (
	_ port.TopicRegistry = (*memoryTopics)(nil)
	_ port.SessionStore  = (*memorySessions)(nil)
	_ port.Publisher     = (*recordingPublisher)(nil)
)
