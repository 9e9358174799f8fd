package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/config"
)

// Publisher ships events to a broker. Implementations must be safe for
// concurrent use: import workers publish from several goroutines.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NewPublisher picks the implementation named by cfg.Events.Driver.
func NewPublisher(cfg config.Config, log logrus.FieldLogger) (Publisher, error) {
	switch cfg.Events.Driver {
	case "", "none":
		return Noop{}, nil
	case "amqp":
		return NewAMQPPublisher(cfg.AMQP, log)
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka, log), nil
	}
	return nil, fmt.Errorf("events: unknown driver %q", cfg.Events.Driver)
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Memory keeps events in a slice; used by tests and local tooling.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of what was published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// OfType filters published events by type.
func (m *Memory) OfType(t Type) []Event {
	var out []Event
	for _, ev := range m.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Emit builds and publishes an event, logging instead of failing: events
// go out after the database commit and must never undo it.
func Emit(ctx context.Context, pub Publisher, log logrus.FieldLogger, t Type, theaterID uint64, data any) {
	if pub == nil {
		return
	}
	ev, err := New(t, theaterID, data)
	if err != nil {
		log.WithError(err).WithField("event", t).Error("encode event")
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.WithError(err).WithFields(logrus.Fields{"event": t, "event_id": ev.ID}).Warn("publish event")
	}
}
