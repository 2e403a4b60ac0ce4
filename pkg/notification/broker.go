package notification

import (
	"context"
	"log/slog"
	"sync"
)

const subscriberBufferSize = 16

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		logger:      logger,
		subscribers: make(map[uint64]*subscriber),
	}
}

type subscriber struct {
	userID   uint
	groupIDs map[uint]struct{}
	channel  chan Message
}

// Broker fans messages out to the subscribed members of the group a message is about. A user can be
// subscribed more than once, like when having multiple browser tabs open.
type Broker struct {
	logger      *slog.Logger
	lock        sync.RWMutex
	nextID      uint64
	subscribers map[uint64]*subscriber
}

// Subscribe registers a subscriber for messages about the given groups. The returned id is needed
// to receive messages and to unsubscribe.
func (b *Broker) Subscribe(userID uint, groupIDs []uint) uint64 {
	groups := make(map[uint]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		groups[id] = struct{}{}
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	b.nextID++
	b.subscribers[b.nextID] = &subscriber{
		userID:   userID,
		groupIDs: groups,
		channel:  make(chan Message, subscriberBufferSize),
	}
	return b.nextID
}

// Unsubscribe removes the subscriber. Unsubscribing more than once is fine.
func (b *Broker) Unsubscribe(id uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if s, ok := b.subscribers[id]; ok {
		close(s.channel)
		delete(b.subscribers, id)
	}
}

// Subscribers returns the number of subscribers.
func (b *Broker) Subscribers() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.subscribers)
}

// Notify sends message to every subscriber of its group. Subscribers which don't keep up miss
// messages instead of blocking the sender.
func (b *Broker) Notify(ctx context.Context, message Message) error {
	b.lock.RLock()
	defer b.lock.RUnlock()

	for id, s := range b.subscribers {
		if _, ok := s.groupIDs[message.GroupID]; !ok {
			continue
		}

		select {
		case s.channel <- message:
		default:
			b.logger.WarnContext(ctx, "Dropped message of slow subscriber", "subscriberId", id, "userId", s.userID, "kind", message.Kind, "eventId", message.EventID)
		}
	}
	return nil
}

// Receive blocks until a message for the subscriber arrives. It returns false if the subscriber is
// gone or ctx is done.
func (b *Broker) Receive(ctx context.Context, id uint64) (Message, bool) {
	b.lock.RLock()
	s, ok := b.subscribers[id]
	b.lock.RUnlock()
	if !ok {
		return Message{}, false
	}

	select {
	case message, ok := <-s.channel:
		return message, ok
	case <-ctx.Done():
		return Message{}, false
	}
}
