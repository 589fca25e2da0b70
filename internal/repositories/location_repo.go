package repositories

import (
    "context"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/yemyoaung/managing-vehicle-tracking-common"
)

type LocationRepository interface {
    PublishLocations(ctx context.Context, message []byte) error
}

// RabbitMqLocationRepository publishes location batches for the vendor relay consumer.
// The channel is owned by the app, which also consumes from it.
type RabbitMqLocationRepository struct {
    queue   string
    channel *amqp.Channel
}

func NewRabbitMqLocationRepository(channel *amqp.Channel, queue string) *RabbitMqLocationRepository {
    return &RabbitMqLocationRepository{
        queue:   queue,
        channel: channel,
    }
}

// PublishLocations publishes an encoded location batch to the location queue
func (r *RabbitMqLocationRepository) PublishLocations(ctx context.Context, message []byte) error {
    return r.channel.PublishWithContext(
        ctx,
        "",
        r.queue,
        false,
        false,
        amqp.Publishing{
            ContentType:  common.ApplicationJSON,
            DeliveryMode: amqp.Persistent,
            MessageId:    uuid.NewString(),
            Body:         message,
        },
    )
}
