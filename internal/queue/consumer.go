package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/venue-reservation/internal/observability"
)

// ActivityLogFile is the file the consumer appends to inside its log dir.
const ActivityLogFile = "venue-activity.log"

// StartActivityConsumer connects to the broker, declares the venue.activity
// queue (durable) and appends every message to <logDir>/venue-activity.log
// as one line.  It reconnects with exponential backoff and returns only
// when ctx is cancelled.  Malformed messages are rejected without requeue.
func StartActivityConsumer(ctx context.Context, url, logDir string, log *observability.Logger) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("activity-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, logDir, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("activity-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, log *observability.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("activity-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(ActivityQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ActivityQueueName, "", false, false, false, false, nil)
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
			if err := handleMessage(d.Body, logDir); err != nil {
				log.Error().Err(err).Str("message_id", d.MessageId).Msg("activity-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(body []byte, logDir string) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.EventID == 0 {
		return errors.New("activity without type or event id")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, ActivityLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev ActivityEvent) string {
	line := fmt.Sprintf("[%s] %s | message_id=%s | event_id=%d | status=%s | operator=%q",
		ev.OccurredAt, ev.Type, ev.MessageID, ev.EventID, ev.Status, ev.OperatorID)
	if ev.AreaID != 0 {
		line += fmt.Sprintf(" | area_id=%d", ev.AreaID)
	}
	if ev.BillingID != 0 {
		line += fmt.Sprintf(" | billing_id=%d", ev.BillingID)
	}
	if ev.Amount != "" {
		line += " | amount=" + ev.Amount
	}
	return line + "\n"
}
