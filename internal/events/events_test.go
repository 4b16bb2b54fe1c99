package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/crmd/crmd/internal/customer"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

// TestPurpose: Validates that the notifier builds events with a v7 id, the event type and the clock time.
// Scope: Unit Test
// Expected: One event per hook with matching type and customer id.
// Test Case ID: EVT-01
func TestNotifier_BuildsEvents(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := &recordingPublisher{}
	n := NewNotifier(rec, fixedClock(now))
	ctx := context.Background()
	c := &customer.Customer{ID: 9, Name: "Ada", Status: customer.StatusLead}

	require.NoError(t, n.CustomerCreated(ctx, c))
	require.NoError(t, n.CustomerStatusChanged(ctx, c))
	require.NoError(t, n.CustomerDeleted(ctx, c))

	require.Len(t, rec.events, 3)
	types := []string{TypeCustomerCreated, TypeCustomerStatusChanged, TypeCustomerDeleted}
	for i, e := range rec.events {
		assert.Equal(t, types[i], e.Type)
		assert.Equal(t, int64(9), e.CustomerID)
		assert.Equal(t, now, e.OccurredAt)

		id, err := uuid.Parse(e.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
	}
	assert.NotEqual(t, rec.events[0].ID, rec.events[1].ID)
}

func TestNotifier_PropagatesPublishError(t *testing.T) {
	boom := errors.New("broker down")
	n := NewNotifier(&recordingPublisher{err: boom}, nil)

	err := n.CustomerCreated(context.Background(), &customer.Customer{ID: 1})
	assert.ErrorIs(t, err, boom)
}

// TestPurpose: Validates the AMQP message envelope.
// Scope: Unit Test
// Expected: Routing key is the event type; MessageId is the event id; body is the JSON event.
// Test Case ID: EVT-02
func TestAMQPPublisher_Publish(t *testing.T) {
	ch := new(mockChannel)
	p := NewAMQPPublisher(ch, "crm.customers")
	e := Event{
		ID:         "0192d5a4-0000-7000-8000-000000000001",
		Type:       TypeCustomerCreated,
		CustomerID: 3,
		Customer:   &customer.Customer{ID: 3, Name: "Ada", Email: "ada@example.com", Phone: "1", Status: "Lead"},
		OccurredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	ch.On("Publish", "crm.customers", TypeCustomerCreated, false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
		var got Event
		if err := json.Unmarshal(msg.Body, &got); err != nil {
			return false
		}
		return msg.MessageId == e.ID &&
			msg.ContentType == "application/json" &&
			msg.DeliveryMode == amqp.Persistent &&
			got.CustomerID == 3 && got.Customer.Email == "ada@example.com"
	})).Return(nil)

	require.NoError(t, p.Publish(context.Background(), e))
	ch.AssertExpectations(t)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	ch := new(mockChannel)
	p := NewAMQPPublisher(ch, "crm.customers")
	ch.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(amqp.ErrClosed)

	err := p.Publish(context.Background(), Event{Type: TypeCustomerDeleted})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestAMQPPublisher_CanceledContext(t *testing.T) {
	ch := new(mockChannel)
	p := NewAMQPPublisher(ch, "crm.customers")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, Event{}), context.Canceled)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAMQPPublisher_Close(t *testing.T) {
	ch := new(mockChannel)
	ch.On("Close").Return(nil)

	assert.NoError(t, NewAMQPPublisher(ch, "x").Close())
	ch.AssertExpectations(t)
}

func TestLogPublisher_Publish(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewLogPublisher(l)

	require.NoError(t, p.Publish(context.Background(), Event{ID: "e1", Type: TypeCustomerDeleted, CustomerID: 4}))
	assert.Contains(t, buf.String(), `"event_type":"customer.deleted"`)
	assert.Contains(t, buf.String(), `"event_id":"e1"`)
	assert.NoError(t, p.Close())
}
