package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/config"
)

// StartAuditConsumer binds cfg.Queue to every routing key of the event
// exchange and appends one line per event to the audit file at path. It
// reconnects with exponential backoff and returns only when ctx is done.
func StartAuditConsumer(ctx context.Context, cfg config.AMQPConfig, path string, log logrus.FieldLogger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.WithError(err).Warnf("audit consumer: dial failed, retrying in %s", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, cfg, f, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("audit consumer: consume loop ended, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg config.AMQPConfig, out io.Writer, log logrus.FieldLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("audit consumer: set QoS failed")
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(cfg.Queue, "#", cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			line, err := AuditLine(d.Body)
			if err == nil {
				_, err = io.WriteString(out, line)
			}
			if err != nil {
				log.WithError(err).Error("audit consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// AuditLine renders an encoded event as a single human-readable line.
func AuditLine(body []byte) (string, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	ts := ev.OccurredAt.UTC().Format(time.RFC3339)
	switch ev.Type {
	case BookingConfirmed:
		var d BookingConfirmedData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return "", fmt.Errorf("unmarshal data: %w", err)
		}
		return fmt.Sprintf("[%s] Booking confirmed | theater_id=%d | booking_id=%d | seat=%s | customer=%q | total=%d cents\n",
			ts, ev.TheaterID, d.BookingID, d.SeatCode, d.CustomerName, d.PriceCents), nil
	case BookingCancelled:
		var d BookingCancelledData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return "", fmt.Errorf("unmarshal data: %w", err)
		}
		return fmt.Sprintf("[%s] Booking cancelled | theater_id=%d | booking_id=%d | seat=%s\n",
			ts, ev.TheaterID, d.BookingID, d.SeatCode), nil
	case SectionRegenerated:
		var d SectionRegeneratedData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return "", fmt.Errorf("unmarshal data: %w", err)
		}
		return fmt.Sprintf("[%s] Section regenerated | theater_id=%d | section=%q | seats=%d | discarded_bookings=%d\n",
			ts, ev.TheaterID, d.SectionName, d.Seats, d.DiscardedBookings), nil
	case ImportCompleted:
		var d ImportCompletedData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return "", fmt.Errorf("unmarshal data: %w", err)
		}
		return fmt.Sprintf("[%s] Import completed | theater_id=%d | batch=%s | files=%d | created=%d | skipped=%d | errors=%d\n",
			ts, ev.TheaterID, d.BatchID, d.Files, d.Created, d.Skipped, d.Errors), nil
	}
	return fmt.Sprintf("[%s] %s | theater_id=%d | id=%s\n", ts, ev.Type, ev.TheaterID, ev.ID), nil
}
