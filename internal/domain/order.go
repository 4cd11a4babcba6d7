package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusAddedToCart OrderStatus = "ADDED_TO_CART"
	OrderStatusOrdered     OrderStatus = "ORDERED"
	OrderStatusShipping    OrderStatus = "SHIPPING"
	OrderStatusShipped     OrderStatus = "SHIPPED"
	OrderStatusCancelled   OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusAddedToCart, OrderStatusOrdered, OrderStatusShipping,
		OrderStatusShipped, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo encodes the order state machine. There is no way back into
// ADDED_TO_CART; "buy again" creates a fresh order instead.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusAddedToCart:
		return next == OrderStatusOrdered
	case OrderStatusOrdered:
		return next == OrderStatusShipping || next == OrderStatusCancelled
	case OrderStatusShipping:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	default:
		return false
	}
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusShipped || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// ProductSnapshot is the denormalized copy of the product stored on an order.
// It is taken when the order enters the cart and never refreshed afterwards.
type ProductSnapshot struct {
	ProductID  primitive.ObjectID `bson:"product_id" json:"product_id"`
	SellerID   string             `bson:"seller_id" json:"seller_id"`
	Name       string             `bson:"name" json:"name"`
	ImageURL   string             `bson:"image_url" json:"image_url"`
	PriceCents int64              `bson:"price_cents" json:"price_cents"`
}

// BuyerSnapshot is the buyer profile copied onto the order at checkout,
// so the seller keeps shipping details even if the profile changes later.
type BuyerSnapshot struct {
	UserID  string `bson:"user_id" json:"user_id"`
	Name    string `bson:"name" json:"name"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
}

// Order is one line-item purchase: a single product configuration bought by
// one customer. A cart entry is an order with status ADDED_TO_CART.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BuyerID    string             `bson:"buyer_id" json:"buyer_id"`
	SellerID   string             `bson:"seller_id" json:"seller_id"`
	Product    ProductSnapshot    `bson:"product" json:"product"`
	Variations map[string]string  `bson:"variations" json:"variations"` // variation name -> chosen option
	Quantity   int                `bson:"quantity" json:"quantity"`
	Status     OrderStatus        `bson:"status" json:"status"`
	Buyer      *BuyerSnapshot     `bson:"buyer,omitempty" json:"buyer,omitempty"`

	OrderedAt   *time.Time `bson:"ordered_at,omitempty" json:"ordered_at,omitempty"`
	ConfirmedAt *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	ShippedAt   *time.Time `bson:"shipped_at,omitempty" json:"shipped_at,omitempty"`
	CancelledAt *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	Reviewed    bool       `bson:"reviewed" json:"reviewed"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (o *Order) TotalCents() int64 {
	return o.Product.PriceCents * int64(o.Quantity)
}

// CloneForRepurchase copies the product configuration of a finished order into
// a brand-new cart entry. The original order is left untouched.
func (o *Order) CloneForRepurchase(now time.Time) *Order {
	variations := make(map[string]string, len(o.Variations))
	for k, v := range o.Variations {
		variations[k] = v
	}
	return &Order{
		BuyerID:    o.BuyerID,
		SellerID:   o.SellerID,
		Product:    o.Product,
		Variations: variations,
		Quantity:   o.Quantity,
		Status:     OrderStatusAddedToCart,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
