package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/richxcame/rental-insights/pkg/logger"
	"go.uber.org/zap"
)

// Subjects published by the booking, fleet and listing services.
const (
	SubjectBookingCreated   = "bookings.created"
	SubjectBookingUpdated   = "bookings.updated"
	SubjectBookingCancelled = "bookings.cancelled"

	SubjectCarCreated = "cars.created"
	SubjectCarUpdated = "cars.updated"
	SubjectCarDeleted = "cars.deleted"

	SubjectViewRecorded = "views.recorded"
)

// Wildcards covering every subject of one kind.
const (
	SubjectAllBookings = "bookings.>"
	SubjectAllCars     = "cars.>"
	SubjectAllViews    = "views.>"
)

const (
	defaultStreamName = "RENTALS"
	maxDeliveries     = 5
	ackWait           = 30 * time.Second
	// redeliveries back off from baseRedelivery, doubling up to maxRedelivery.
	baseRedelivery = time.Second
	maxRedelivery  = 30 * time.Second
)

// Event is the envelope every publisher wraps its payload in.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh ID and a UTC timestamp.
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// HandlerFunc processes one event. A nil error acks it; any other error
// schedules a redelivery.
type HandlerFunc func(ctx context.Context, event *Event) error

type Config struct {
	URL        string
	Name       string
	StreamName string
}

func (c Config) streamName() string {
	if c.StreamName == "" {
		return defaultStreamName
	}
	return c.StreamName
}

// Bus consumes rental change events from JetStream.
type Bus struct {
	conn *nats.Conn
	js   jetstream.JetStream
	cfg  Config
	subs []jetstream.ConsumeContext
}

// New connects to NATS and makes sure the stream exists. The stream is
// normally created by the publishers; creating it here lets the reporting
// service start first.
func New(cfg Config) (*Bus, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("event bus disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			logger.Info("event bus reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ensureStream(ctx, js, cfg.streamName()); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("event bus connected", zap.String("url", cfg.URL), zap.String("stream", cfg.streamName()))
	return &Bus{conn: nc, js: js, cfg: cfg}, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, name string) error {
	_, err := js.Stream(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("look up stream %s: %w", name, err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{SubjectAllBookings, SubjectAllCars, SubjectAllViews},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.InterestPolicy,
		MaxAge:    72 * time.Hour,
	})
	if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	return nil
}

// Subscribe attaches handler to a durable consumer named consumerName that
// sees only new messages on subject.
func (b *Bus) Subscribe(ctx context.Context, subject, consumerName string, handler HandlerFunc) error {
	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.cfg.streamName(), jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		MaxDeliver:    maxDeliveries,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		deliver(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", consumerName, err)
	}

	b.subs = append(b.subs, cc)
	logger.Info("subscribed to events", zap.String("subject", subject), zap.String("consumer", consumerName))
	return nil
}

// message is the part of jetstream.Msg deliver needs.
type message interface {
	Data() []byte
	Metadata() (*jetstream.MsgMetadata, error)
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

// deliver decodes msg and settles it according to handler's result. A
// malformed envelope is terminated since redelivery cannot fix it.
func deliver(ctx context.Context, msg message, handler HandlerFunc) {
	var event Event
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Warn("terminating malformed event", zap.Error(err))
		_ = msg.Term()
		return
	}

	if err := handler(ctx, &event); err != nil {
		delay := redeliveryDelay(msg)
		logger.Warn("event handler failed, redelivering",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		_ = msg.NakWithDelay(delay)
		return
	}
	_ = msg.Ack()
}

func redeliveryDelay(msg message) time.Duration {
	attempt := uint64(1)
	if md, err := msg.Metadata(); err == nil && md.NumDelivered > 0 {
		attempt = md.NumDelivered
	}

	delay := baseRedelivery
	for i := uint64(1); i < attempt && delay < maxRedelivery; i++ {
		delay *= 2
	}
	return min(delay, maxRedelivery)
}

// Close stops consuming and drains the connection.
func (b *Bus) Close() {
	for _, sub := range b.subs {
		sub.Stop()
	}
	if b.conn != nil {
		_ = b.conn.Drain()
	}
	logger.Info("event bus closed")
}

// Connected reports whether the NATS connection is up.
func (b *Bus) Connected() bool {
	return b.conn != nil && b.conn.IsConnected()
}
