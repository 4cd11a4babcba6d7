package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/lifecycle"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/publisher"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

// Consumer turns order events from the broker into persisted notifications
// and best-effort pushes. The outbox delivers at least once, so a replayed
// event can produce a duplicate notification; that beats losing one.
type Consumer struct {
	notifications repository.NotificationRepository
	tokens        repository.TokenRepository
	relay         Relay
	reader        *kafka.Reader
	log           *zap.Logger
}

func NewConsumer(
	notifications repository.NotificationRepository,
	tokens repository.TokenRepository,
	relay Relay,
	log *zap.Logger,
	brokers ...string,
) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    publisher.Topic,
		GroupID:  "notifier-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		notifications: notifications,
		tokens:        tokens,
		relay:         relay,
		reader:        reader,
		log:           log,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.consumeOne(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("failed to close kafka reader", zap.Error(err))
	}
}

func (c *Consumer) consumeOne(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Error("failed to read message", zap.Error(err))
		}
		return
	}

	eventType := headerValue(m.Headers, "event_type")

	var event lifecycle.OrderEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Error("failed to parse order event",
			zap.String("event_type", eventType),
			zap.Error(err))
		return
	}

	for _, n := range buildNotifications(eventType, event) {
		if err := c.deliver(ctx, n); err != nil {
			c.log.Error("failed to deliver notification",
				zap.String("event_type", eventType),
				zap.String("user_id", n.UserID),
				zap.Error(err))
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, n domain.Notification) error {
	if err := c.notifications.Insert(ctx, &n); err != nil {
		return err
	}

	token, err := c.tokens.Get(ctx, n.UserID)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil // user never registered a device
	}
	if err != nil {
		return err
	}

	if err := c.relay.Push(ctx, token.Token, n.Title, n.Message); err != nil {
		// notification is persisted; the push is best effort
		c.log.Warn("push delivery failed",
			zap.String("user_id", n.UserID),
			zap.Error(err))
	}
	return nil
}

// buildNotifications maps one order event to the notifications it fans out.
func buildNotifications(eventType string, event lifecycle.OrderEvent) []domain.Notification {
	now := time.Now()
	forUser := func(userID, title, message, route string) domain.Notification {
		return domain.Notification{
			UserID:    userID,
			Title:     title,
			Message:   message,
			Route:     route,
			OrderID:   event.OrderID,
			CreatedAt: now,
		}
	}

	switch eventType {
	case lifecycle.EventOrderPlaced:
		return []domain.Notification{
			forUser(event.SellerID, "New order",
				fmt.Sprintf("%s x%d has been ordered", event.ProductName, event.Quantity),
				"shop-orders"),
		}
	case lifecycle.EventOrderConfirmed:
		return []domain.Notification{
			forUser(event.BuyerID, "Order confirmed",
				fmt.Sprintf("%s is being prepared for shipping", event.ProductName),
				"purchases"),
		}
	case lifecycle.EventOrderCancelled:
		return []domain.Notification{
			forUser(event.BuyerID, "Order cancelled",
				fmt.Sprintf("Your order for %s was cancelled", event.ProductName),
				"purchases"),
			forUser(event.SellerID, "Order cancelled",
				fmt.Sprintf("The order for %s x%d was cancelled", event.ProductName, event.Quantity),
				"shop-orders"),
		}
	case lifecycle.EventOrderShipped:
		return []domain.Notification{
			forUser(event.BuyerID, "Order delivered",
				fmt.Sprintf("%s has been delivered", event.ProductName),
				"purchases"),
		}
	case lifecycle.EventOrderReviewed:
		return []domain.Notification{
			forUser(event.SellerID, "New review",
				fmt.Sprintf("%s received a review", event.ProductName),
				"shop-orders"),
		}
	default:
		return nil
	}
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
