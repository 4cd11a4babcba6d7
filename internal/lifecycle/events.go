package lifecycle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

const (
	EventOrderPlaced    = "order.placed"
	EventOrderConfirmed = "order.confirmed"
	EventOrderCancelled = "order.cancelled"
	EventOrderShipped   = "order.shipped"
	EventOrderReviewed  = "order.reviewed"
)

// OrderEvent is the payload carried through the outbox and onto the broker.
// It is self-contained so the notifier never has to read the order back.
type OrderEvent struct {
	OrderID     string    `json:"order_id"`
	BuyerID     string    `json:"buyer_id"`
	SellerID    string    `json:"seller_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func newOutboxEvent(eventType string, order *domain.Order, at time.Time) (*repository.OutboxEvent, error) {
	payload, err := json.Marshal(OrderEvent{
		OrderID:     order.ID.Hex(),
		BuyerID:     order.BuyerID,
		SellerID:    order.SellerID,
		ProductName: order.Product.Name,
		Quantity:    order.Quantity,
		OccurredAt:  at,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}

	return &repository.OutboxEvent{
		AggregateID: order.ID.Hex(),
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   at,
	}, nil
}
