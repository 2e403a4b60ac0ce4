package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/tally-app/tally/internal/middleware"
	"github.com/tally-app/tally/pkg/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &model.Event{
		ID:           7,
		GroupID:      1,
		TargetUserID: 2,
		RuleID:       3,
		Status:       model.EventStatusVetoed,
		Votes:        []model.Vote{{VoterID: 4}, {VoterID: 5}},
	}

	message := NewMessage(KindEventVetoed, event, now)

	assert.Equal(t, Message{
		Kind:         KindEventVetoed,
		GroupID:      1,
		EventID:      7,
		TargetUserID: 2,
		RuleID:       3,
		Status:       model.EventStatusVetoed,
		VetoCount:    2,
		OccurredAt:   now,
	}, message)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, message Message) error {
	called := m.Called(ctx, message)
	return called.Error(0)
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	message := Message{Kind: KindEventApproved, EventID: 1}
	failing := &mockNotifier{}
	failing.
		On("Notify", ctx, message).
		Return(errors.New("broker down"))
	working := &mockNotifier{}
	working.
		On("Notify", ctx, message).
		Return(nil)

	err := Multi{failing, working}.Notify(ctx, message)

	assert.ErrorContains(t, err, "broker down")
	failing.AssertExpectations(t)
	working.AssertExpectations(t)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	called := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return called.Error(0)
}

func TestAMQPPublisher(t *testing.T) {
	ctx := middleware.NewContextWithCorrelationID(context.Background(), "b3a2f7ae-1b8e-4c53-a8b9-04e6e1b6a0e1")
	message := Message{
		Kind:       KindEventApproved,
		GroupID:    1,
		EventID:    7,
		Status:     model.EventStatusApproved,
		Points:     5,
		OccurredAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	publisher := &mockPublisher{}
	publisher.
		On("PublishWithContext", ctx, "tally", "event.approved", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
			var got Message
			return p.ContentType == "application/json" &&
				p.CorrelationId == "b3a2f7ae-1b8e-4c53-a8b9-04e6e1b6a0e1" &&
				p.Type == "event.approved" &&
				json.Unmarshal(p.Body, &got) == nil &&
				got.EventID == 7 &&
				got.Points == 5 &&
				got.OccurredAt.Equal(message.OccurredAt)
		})).
		Return(nil)

	err := NewAMQPPublisher(slog.Default(), publisher, Exchange).Notify(ctx, message)

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestAMQPPublisher_Error(t *testing.T) {
	ctx := context.Background()
	publisher := &mockPublisher{}
	publisher.
		On("PublishWithContext", ctx, "tally", "event.created", false, false, mock.Anything).
		Return(errors.New("channel closed"))

	err := NewAMQPPublisher(slog.Default(), publisher, Exchange).Notify(ctx, Message{Kind: KindEventCreated, EventID: 1})

	assert.ErrorContains(t, err, "channel closed")
}
