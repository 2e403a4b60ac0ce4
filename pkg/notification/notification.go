// Package notification tells interested parties about the lifecycle of events. Members of a group
// get them streamed using server-sent events and other services can consume them from RabbitMQ.
package notification

import (
	"context"
	"errors"
	"time"

	"github.com/tally-app/tally/pkg/model"
)

type Kind string

const (
	KindEventCreated  Kind = "event.created"
	KindEventVetoed   Kind = "event.vetoed"
	KindEventApproved Kind = "event.approved"
)

// Message describes a change of an event. Members of the group the event belongs to are the
// audience.
type Message struct {
	Kind         Kind              `json:"kind"`
	GroupID      uint              `json:"groupId"`
	EventID      uint              `json:"eventId"`
	TargetUserID uint              `json:"userId"`
	RuleID       uint              `json:"ruleId"`
	Status       model.EventStatus `json:"status"`
	VetoCount    int               `json:"vetoCount"`
	// Points applied to the target member. Only set once approved.
	Points     int       `json:"points,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewMessage describes the current state of event.
func NewMessage(kind Kind, event *model.Event, occurredAt time.Time) Message {
	return Message{
		Kind:         kind,
		GroupID:      event.GroupID,
		EventID:      event.ID,
		TargetUserID: event.TargetUserID,
		RuleID:       event.RuleID,
		Status:       event.Status,
		VetoCount:    event.VetoCount(),
		OccurredAt:   occurredAt,
	}
}

type Notifier interface {
	Notify(ctx context.Context, message Message) error
}

// Multi notifies every notifier even if some of them fail.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
