package broker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// Dispatcher routes a message consumed from source to its handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, source string, msg *domain.Announcement) error
}

// RunKafkaConsumers starts one consumer per topic and blocks until ctx is cancelled.
// With no brokers configured it returns immediately.
func RunKafkaConsumers(ctx context.Context, dispatcher Dispatcher, brokers []string, groupID string, topics []string) error {
	consumers := make(map[string]port.PubSubPort, len(topics))
	if len(brokers) > 0 {
		for _, topic := range topics {
			consumers[topic] = NewKafkaConsumer(brokers, groupID, topic)
		}
	}
	return runConsumers(ctx, dispatcher, consumers)
}

func runConsumers(ctx context.Context, dispatcher Dispatcher, consumers map[string]port.PubSubPort) error {
	if len(consumers) == 0 {
		slog.Info("kafka announcements disabled")
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for topic, consumer := range consumers {
		g.Go(func() error {
			slog.Info("kafka consumer started", slog.String("topic", topic))
			return consumer.Consume(gctx, func(msg *domain.Announcement) error {
				return dispatcher.Dispatch(gctx, topic, msg)
			})
		})
	}
	return g.Wait()
}
