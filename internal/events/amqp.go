package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/config"
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpConn interface {
	IsClosed() bool
	Close() error
	channel() (amqpChannel, error)
}

type brokerConn struct{ *amqp.Connection }

func (c brokerConn) channel() (amqpChannel, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialBroker(url string) (amqpConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return brokerConn{conn}, nil
}

// AMQPPublisher publishes events to a durable topic exchange with the
// event type as routing key. The connection is opened once and reopened
// on the next Publish after the broker drops it.
type AMQPPublisher struct {
	cfg  config.AMQPConfig
	log  logrus.FieldLogger
	dial func(url string) (amqpConn, error)

	mu   sync.Mutex
	conn amqpConn
	ch   amqpChannel
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(cfg config.AMQPConfig, log logrus.FieldLogger) (*AMQPPublisher, error) {
	return newAMQPPublisher(cfg, log, dialBroker)
}

func newAMQPPublisher(cfg config.AMQPConfig, log logrus.FieldLogger, dial func(string) (amqpConn, error)) (*AMQPPublisher, error) {
	p := &AMQPPublisher{cfg: cfg, log: log, dial: dial}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

// connectLocked replaces the current connection. A connection whose
// channel died is still open and must be closed here.
func (p *AMQPPublisher) connectLocked() error {
	if err := p.closeLocked(); err != nil {
		p.log.WithError(err).Debug("rabbitmq: closing stale connection")
	}
	conn, err := p.dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	// Durable so messages survive broker restarts.
	if err := ch.ExchangeDeclare(p.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if !p.conn.IsClosed() {
			err = p.conn.Close()
		}
		p.conn = nil
	}
	return err
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		if err := p.connectLocked(); err != nil {
			return err
		}
	}
	err = p.ch.PublishWithContext(ctx, p.cfg.Exchange, string(ev.Type), false, false, pub)
	if errors.Is(err, amqp.ErrClosed) {
		// the channel died underneath us; one retry on a fresh connection
		if err = p.connectLocked(); err == nil {
			err = p.ch.PublishWithContext(ctx, p.cfg.Exchange, string(ev.Type), false, false, pub)
		}
	}
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}
