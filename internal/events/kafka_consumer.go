package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/kafka"
)

// BookingCleaner removes bookings whose item or booker no longer exists.
type BookingCleaner interface {
	RemoveItemBookings(ctx context.Context, itemID uuid.UUID) error
	RemoveUserBookings(ctx context.Context, userID uuid.UUID) error
}

// CatalogEventConsumer listens to catalog events and cascades deletions to bookings.
type CatalogEventConsumer struct {
	consumer *kafka.Consumer
	cleaner  BookingCleaner
	logger   *zap.Logger
}

// NewCatalogEventConsumer creates a new CatalogEventConsumer.
func NewCatalogEventConsumer(
	brokers []string,
	groupID string,
	cleaner BookingCleaner,
	logger *zap.Logger,
) *CatalogEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, bookingDomain.TopicCatalogEvents, logger)
	return &CatalogEventConsumer{
		consumer: consumer,
		cleaner:  cleaner,
		logger:   logger,
	}
}

// Start begins consuming catalog events. It blocks until the context is cancelled
// or a deletion keeps failing after retries.
func (c *CatalogEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *CatalogEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *CatalogEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from catalog topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case bookingDomain.EventItemDeleted:
		return c.handleItemDeleted(ctx, cloudEvent)
	case bookingDomain.EventUserDeleted:
		return c.handleUserDeleted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled catalog event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *CatalogEventConsumer) handleItemDeleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt bookingDomain.ItemDeletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.ItemID == uuid.Nil {
		c.logger.Error("failed to parse ItemDeletedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	if err := c.cleaner.RemoveItemBookings(ctx, evt.ItemID); err != nil {
		c.logger.Error("failed to remove bookings of deleted item",
			zap.String("item_id", evt.ItemID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (c *CatalogEventConsumer) handleUserDeleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt bookingDomain.UserDeletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.UserID == uuid.Nil {
		c.logger.Error("failed to parse UserDeletedEvent data", zap.Error(err))
		return nil
	}

	if err := c.cleaner.RemoveUserBookings(ctx, evt.UserID); err != nil {
		c.logger.Error("failed to remove bookings of deleted user",
			zap.String("user_id", evt.UserID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
