package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/observability"
)

func TestHandleMessageAppendsLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	events := []ActivityEvent{
		{MessageID: "m1", Type: ReservationDecided, EventID: 3, AreaID: 9, Status: "APPROVED", OperatorID: "alice", OccurredAt: "2026-10-19T09:00:00Z"},
		{MessageID: "m2", Type: BillingPaid, EventID: 3, BillingID: 4, Status: "PAID", Amount: "375", OperatorID: "bob", OccurredAt: "2026-10-20T09:00:00Z"},
	}
	for _, ev := range events {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, handleMessage(body, dir))
	}

	raw, err := os.ReadFile(filepath.Join(dir, ActivityLogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "reservation.decided | message_id=m1 | event_id=3 | status=APPROVED")
	assert.Contains(t, lines[0], "area_id=9")
	assert.Contains(t, lines[1], "billing_id=4 | amount=375")
}

func TestHandleMessageRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, handleMessage([]byte("{not json"), dir))
	assert.Error(t, handleMessage([]byte(`{"type":"billing.paid"}`), dir))
	_, err := os.Stat(filepath.Join(dir, ActivityLogFile))
	assert.True(t, os.IsNotExist(err))
}

func TestPublishAssignsMessageID(t *testing.T) {
	p := NewPublisher("amqp://unused", config.BreakerConfig{Threshold: 0.5, Timeout: time.Minute}, observability.NewNopLogger())
	var got amqp.Publishing
	p.send = func(_ context.Context, pub amqp.Publishing) error {
		got = pub
		return nil
	}

	require.NoError(t, p.Publish(context.Background(), ActivityEvent{Type: EventCancelled, EventID: 5}))
	assert.NotEmpty(t, got.MessageId)
	assert.Equal(t, EventCancelled, got.Type)
	assert.Equal(t, amqp.Persistent, got.DeliveryMode)

	var ev ActivityEvent
	require.NoError(t, json.Unmarshal(got.Body, &ev))
	assert.Equal(t, got.MessageId, ev.MessageID)
	assert.NotEmpty(t, ev.OccurredAt)
}

func TestPublishOpensBreakerAfterFailures(t *testing.T) {
	p := NewPublisher("amqp://unused", config.BreakerConfig{Threshold: 0.5, Timeout: time.Minute}, observability.NewNopLogger())
	calls := 0
	p.send = func(context.Context, amqp.Publishing) error {
		calls++
		return errors.New("connection refused")
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := p.Publish(ctx, ActivityEvent{Type: BillingCreated, EventID: 1})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBrokerUnavailable)
	}
	err := p.Publish(ctx, ActivityEvent{Type: BillingCreated, EventID: 1})
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, 3, calls)
}
