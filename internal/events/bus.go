// Package events publishes profile mutation events through watermill. Every
// event goes to an in-process channel; when Kafka brokers are configured it is
// also sent to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/service"
)

// DefaultTopic carries all profile events.
const DefaultTopic = "bankprep.profile_events"

const metaType = "event_type"

// Bus implements service.Publisher.
type Bus struct {
	topic  string
	local  *gochannel.GoChannel
	remote message.Publisher
	log    *zap.Logger
}

var _ service.Publisher = (*Bus)(nil)

// Config selects the transports. Empty Brokers means in-process only.
type Config struct {
	Topic   string
	Brokers []string
}

// New builds a bus.
func New(cfg Config, log *zap.Logger) (*Bus, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	adapter := NewZapAdapter(log)
	b := &Bus{
		topic: cfg.Topic,
		local: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, adapter),
		log:   log,
	}
	if len(cfg.Brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, adapter)
		if err != nil {
			_ = b.local.Close()
			return nil, fmt.Errorf("events: kafka publisher: %w", err)
		}
		b.remote = pub
	}
	return b, nil
}

// Publish encodes ev as JSON and sends it to every transport.
func (b *Bus) Publish(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	id := ev.ID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(metaType, string(ev.Type))
	msg.SetContext(ctx)

	var errsOut []error
	if err := b.local.Publish(b.topic, msg); err != nil {
		errsOut = append(errsOut, fmt.Errorf("local: %w", err))
	}
	if b.remote != nil {
		if err := b.remote.Publish(b.topic, msg.Copy()); err != nil {
			errsOut = append(errsOut, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errsOut...)
}

// Subscribe returns the in-process stream of events until ctx ends.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.local.Subscribe(ctx, b.topic)
}

// Close shuts down all transports.
func (b *Bus) Close() error {
	var errsOut []error
	if b.remote != nil {
		errsOut = append(errsOut, b.remote.Close())
	}
	errsOut = append(errsOut, b.local.Close())
	return errors.Join(errsOut...)
}

// Decode parses a message produced by Publish.
func Decode(msg *message.Message) (model.Event, error) {
	var ev model.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return model.Event{}, fmt.Errorf("events: decode %s: %w", msg.UUID, err)
	}
	return ev, nil
}

// Audit logs one line per message and acks it. It returns when msgs is closed.
func Audit(msgs <-chan *message.Message, log *zap.Logger) {
	for msg := range msgs {
		ev, err := Decode(msg)
		if err != nil {
			log.Warn("audit: bad event", zap.Error(err))
			msg.Ack()
			continue
		}
		log.Info("audit",
			zap.String("event_id", ev.ID),
			zap.String("type", string(ev.Type)),
			zap.String("user_id", ev.UserID),
			zap.Time("at", ev.OccurredAt),
		)
		msg.Ack()
	}
}
