package kafka

import (
	"context"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
)

// EventPublisher emits domain events about resolutions and asset loads.
type EventPublisher interface {
	PublishResolved(ctx context.Context, payloads []ResolvedPayload) error
	PublishAssetsLoaded(ctx context.Context, payload AssetsLoadedPayload) error
	Close() error
}

type publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
	PublishBatch(ctx context.Context, msgs []*ProducerMessage) (int, error)
	Close() error
}

type eventPublisher struct {
	producer publisher
	source   string
	topic    string
	logger   logging.Logger
}

// NewEventPublisher publishes resolutions to topic (TopicAdditiveResolved
// when empty). Events are keyed by substance name.
func NewEventPublisher(p *Producer, source, topic string, logger logging.Logger) EventPublisher {
	return newEventPublisher(p, source, topic, logger)
}

func newEventPublisher(p publisher, source, topic string, logger logging.Logger) *eventPublisher {
	if topic == "" {
		topic = TopicAdditiveResolved
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &eventPublisher{producer: p, source: source, topic: topic, logger: logger}
}

func (e *eventPublisher) PublishResolved(ctx context.Context, payloads []ResolvedPayload) error {
	if len(payloads) == 0 {
		return nil
	}
	msgs := make([]*ProducerMessage, 0, len(payloads))
	for _, p := range payloads {
		env, err := NewEventEnvelope(EventTypeResolved, e.source, p)
		if err != nil {
			return err
		}
		msg, err := env.ToMessage(e.topic, p.Substance)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 1 {
		return e.producer.Publish(ctx, msgs[0])
	}
	_, err := e.producer.PublishBatch(ctx, msgs)
	return err
}

func (e *eventPublisher) PublishAssetsLoaded(ctx context.Context, payload AssetsLoadedPayload) error {
	env, err := NewEventEnvelope(EventTypeAssetsLoaded, e.source, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(TopicAssetsLoaded, "")
	if err != nil {
		return err
	}
	return e.producer.Publish(ctx, msg)
}

func (e *eventPublisher) Close() error {
	return e.producer.Close()
}

// NewNoopPublisher returns a publisher that drops every event.
func NewNoopPublisher() EventPublisher { return noopPublisher{} }

type noopPublisher struct{}

func (noopPublisher) PublishResolved(context.Context, []ResolvedPayload) error       { return nil }
func (noopPublisher) PublishAssetsLoaded(context.Context, AssetsLoadedPayload) error { return nil }
func (noopPublisher) Close() error                                                   { return nil }
