package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/observability"
)

// ErrBrokerUnavailable is returned while the circuit breaker is open.
var ErrBrokerUnavailable = errors.New("message broker unavailable")

// Publisher sends ActivityEvents to the venue.activity queue.  Each publish
// dials the broker; repeated failures open a circuit breaker so a dead
// broker does not add a dial timeout to every request.
type Publisher struct {
	url  string
	cb   *gobreaker.CircuitBreaker
	log  *observability.Logger
	send func(ctx context.Context, pub amqp.Publishing) error
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, bc config.BreakerConfig, log *observability.Logger) *Publisher {
	p := &Publisher{url: url, log: log}
	p.send = p.dialAndSend
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rabbitmq-publisher",
		MaxRequests: 1,
		Interval:    bc.Timeout,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= bc.Threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return p
}

// Publish marshals ev and sends it as a persistent message.  A message id
// is generated when ev has none.
func (p *Publisher) Publish(ctx context.Context, ev ActivityEvent) error {
	if ev.MessageID == "" {
		ev.MessageID = uuid.NewString()
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.MessageID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.send(ctx, pub)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	return err
}

func (p *Publisher) dialAndSend(ctx context.Context, pub amqp.Publishing) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(ActivityQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if err := ch.PublishWithContext(ctx, "", ActivityQueueName, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
