package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tally-app/tally/internal/middleware"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the name of the topic exchange messages are published to. The routing key is the
// kind of the message.
const Exchange = "tally"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher publishes messages to RabbitMQ.
type AMQPPublisher struct {
	logger    *slog.Logger
	publisher publisher
	exchange  string
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewAMQPPublisher(logger *slog.Logger, publisher publisher, exchange string) *AMQPPublisher {
	return &AMQPPublisher{
		logger:    logger,
		publisher: publisher,
		exchange:  exchange,
	}
}

// DialAMQP connects to RabbitMQ at url and declares the exchange. The returned function closes the
// connection.
func DialAMQP(logger *slog.Logger, url string) (*AMQPPublisher, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %v", err)
	}

	err = channel.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %q: %v", Exchange, err)
	}

	return NewAMQPPublisher(logger, channel, Exchange), conn.Close, nil
}

func (p *AMQPPublisher) Notify(ctx context.Context, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %q message: %v", message.Kind, err)
	}

	correlationID, _ := middleware.GetCorrelationID(ctx)
	publishing := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: correlationID,
		Timestamp:     message.OccurredAt,
		Type:          string(message.Kind),
		Headers: amqp.Table{
			"groupId": int64(message.GroupID),
		},
		Body: body,
	}

	err = p.publisher.PublishWithContext(ctx, p.exchange, string(message.Kind), false, false, publishing)
	if err != nil {
		return fmt.Errorf("failed to publish %q message of event %d: %v", message.Kind, message.EventID, err)
	}

	p.logger.DebugContext(ctx, "Published message", "kind", message.Kind, "eventId", message.EventID)
	return nil
}
