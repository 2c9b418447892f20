package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// scriptedReader returns the queued results in order and then blocks until ctx ends.
type scriptedReader struct {
	mu      sync.Mutex
	results []readResult
	closed  bool
}

type readResult struct {
	msg kafka.Message
	err error
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.results) > 0 {
		next := r.results[0]
		r.results = r.results[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestDecodeAnnouncement(t *testing.T) {
	cases := []struct {
		name string
		msg  kafka.Message
		want domain.Announcement
	}{
		{
			name: "json envelope",
			msg:  kafka.Message{Value: []byte(`{"topic":"random","content":"hi","sender":"ops"}`)},
			want: domain.Announcement{Topic: "random", Content: "hi", Sender: "ops"},
		},
		{
			name: "json without sender uses header",
			msg: kafka.Message{
				Value:   []byte(`{"content":"hi"}`),
				Headers: []kafka.Header{{Key: "Sender", Value: []byte("deploy-bot")}},
			},
			want: domain.Announcement{Content: "hi", Sender: "deploy-bot"},
		},
		{
			name: "plain text",
			msg:  kafka.Message{Value: []byte("  rolling restart in 5 minutes \n")},
			want: domain.Announcement{Content: "rolling restart in 5 minutes"},
		},
		{
			name: "json without content is treated as text",
			msg:  kafka.Message{Value: []byte(`{"topic":"random"}`)},
			want: domain.Announcement{Content: `{"topic":"random"}`},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, *decodeAnnouncement(tc.msg))
		})
	}
}

func TestKafkaConsumer_ConsumeUntilCancelled(t *testing.T) {
	reader := &scriptedReader{results: []readResult{
		{msg: kafka.Message{Topic: "ops", Value: []byte(`{"content":"one"}`)}},
		{err: errors.New("broker unavailable")},
		{msg: kafka.Message{Topic: "ops", Value: []byte("two")}},
		{msg: kafka.Message{Topic: "ops", Value: []byte("three")}},
	}}
	consumer := &KafkaConsumer{topic: "ops", reader: reader}

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, func(msg *domain.Announcement) error {
			got = append(got, msg.Content)
			if msg.Content == "two" {
				return errors.New("handler failed")
			}
			if msg.Content == "three" {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
	assert.True(t, reader.closed)
}

type fakePubSub struct {
	messages []*domain.Announcement
}

func (f *fakePubSub) Consume(ctx context.Context, handler func(*domain.Announcement) error) error {
	for _, msg := range f.messages {
		if err := handler(msg); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	received map[string][]string
}

func (d *recordingDispatcher) Dispatch(_ context.Context, source string, msg *domain.Announcement) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received[source] = append(d.received[source], msg.Content)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, msgs := range d.received {
		n += len(msgs)
	}
	return n
}

func TestRunConsumers_DispatchesPerSource(t *testing.T) {
	dispatcher := &recordingDispatcher{received: make(map[string][]string)}
	consumers := map[string]port.PubSubPort{
		"ops":  &fakePubSub{messages: []*domain.Announcement{{Content: "a"}, {Content: "b"}}},
		"news": &fakePubSub{messages: []*domain.Announcement{{Content: "c"}}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runConsumers(ctx, dispatcher, consumers) }()

	require.Eventually(t, func() bool { return dispatcher.count() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"a", "b"}, dispatcher.received["ops"])
	assert.Equal(t, []string{"c"}, dispatcher.received["news"])
}

func TestRunKafkaConsumers_DisabledWithoutBrokers(t *testing.T) {
	dispatcher := &recordingDispatcher{received: make(map[string][]string)}

	err := RunKafkaConsumers(context.Background(), dispatcher, nil, "chat-ws", []string{"ops"})

	assert.NoError(t, err)
}
