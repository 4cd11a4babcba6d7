package lifecycle

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

// Service owns every order status transition. Each transition persists the
// order write and its outbox event in one store transaction, so a transition
// is never observed without the event that announces it.
type Service struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	outbox   repository.OutboxRepository
	txn      repository.Txn
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	txn repository.Txn,
	log *zap.Logger,
) *Service {
	return &Service{
		orders:   orders,
		products: products,
		users:    users,
		outbox:   outbox,
		txn:      txn,
		log:      log,
		now:      time.Now,
	}
}

// Checkout turns the selected cart entries into placed orders. Orders are
// committed one at a time; a failure stops the loop but already-placed orders
// stay placed, and the returned slice tells the caller which ones went through.
func (s *Service) Checkout(ctx context.Context, session domain.Session, orderIDs []primitive.ObjectID) ([]domain.Order, error) {
	if len(orderIDs) == 0 {
		return nil, ErrEmptyCheckout
	}

	buyer, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	snapshot := buyer.BuyerSnapshot()

	placed := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		order, err := s.placeOne(ctx, session, id, snapshot)
		if err != nil {
			s.log.Warn("checkout stopped",
				zap.String("order_id", id.Hex()),
				zap.Int("placed", len(placed)),
				zap.Error(err))
			return placed, err
		}
		placed = append(placed, *order)
	}
	return placed, nil
}

func (s *Service) placeOne(ctx context.Context, session domain.Session, id primitive.ObjectID, snapshot *domain.BuyerSnapshot) (*domain.Order, error) {
	var placed *domain.Order

	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.BuyerID != session.UserID {
			return ErrForbidden
		}
		if !order.Status.CanTransitionTo(domain.OrderStatusOrdered) {
			return ErrIllegalTransition
		}

		now := s.now()
		order.Status = domain.OrderStatusOrdered
		order.OrderedAt = &now
		order.ShippedAt = nil
		order.CancelledAt = nil
		order.Buyer = snapshot

		if err := s.orders.Replace(ctx, order); err != nil {
			return err
		}
		if err := s.appendEvent(ctx, EventOrderPlaced, order, now); err != nil {
			return err
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// Confirm moves ORDERED -> SHIPPING. Seller only.
func (s *Service) Confirm(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Order, error) {
	var confirmed *domain.Order

	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.SellerID != session.UserID {
			return ErrForbidden
		}
		if !order.Status.CanTransitionTo(domain.OrderStatusShipping) {
			return ErrIllegalTransition
		}

		now := s.now()
		if err := s.orders.MarkShipping(ctx, id, now); err != nil {
			return err
		}
		if err := s.appendEvent(ctx, EventOrderConfirmed, order, now); err != nil {
			return err
		}

		order.Status = domain.OrderStatusShipping
		order.ConfirmedAt = &now
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// Cancel moves ORDERED or SHIPPING -> CANCELLED. Buyer or seller may cancel;
// SHIPPED and CANCELLED orders are rejected here, not just hidden in the UI.
func (s *Service) Cancel(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Order, error) {
	var cancelled *domain.Order

	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.SellerID != session.UserID && order.BuyerID != session.UserID {
			return ErrForbidden
		}
		if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
			return ErrIllegalTransition
		}

		now := s.now()
		if err := s.orders.MarkCancelled(ctx, id, now); err != nil {
			return err
		}
		if err := s.appendEvent(ctx, EventOrderCancelled, order, now); err != nil {
			return err
		}

		order.Status = domain.OrderStatusCancelled
		order.CancelledAt = &now
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// ConfirmShipped moves SHIPPING -> SHIPPED and settles inventory in the same
// transaction: the matching stock entry is decremented and the sold counter
// incremented, or nothing happens at all. The floor check runs inside the
// transaction body, so a conflicting shipment that commits first forces a
// retry against the fresh quantity and the loser is rejected instead of
// driving stock negative.
func (s *Service) ConfirmShipped(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Order, error) {
	var shipped *domain.Order

	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.SellerID != session.UserID {
			return ErrForbidden
		}
		if !order.Status.CanTransitionTo(domain.OrderStatusShipped) {
			return ErrIllegalTransition
		}

		product, err := s.products.GetByID(ctx, order.Product.ProductID)
		if err != nil {
			return err
		}

		idx, ok := product.MatchStock(order.Variations)
		if !ok {
			return ErrStockNotFound
		}
		if product.Stocks[idx].Quantity < order.Quantity {
			return ErrInsufficientStock
		}

		now := s.now()
		if err := s.products.ApplyShipment(ctx, product.ID, idx, order.Quantity); err != nil {
			return err
		}
		if err := s.orders.MarkShipped(ctx, id, now); err != nil {
			return err
		}
		if err := s.appendEvent(ctx, EventOrderShipped, order, now); err != nil {
			return err
		}

		order.Status = domain.OrderStatusShipped
		order.ShippedAt = &now
		shipped = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order shipped",
		zap.String("order_id", shipped.ID.Hex()),
		zap.Int("quantity", shipped.Quantity))
	return shipped, nil
}

// SubmitReview appends the review to the product and flips the order's
// reviewed flag together. Buyer only, SHIPPED only, at most once.
func (s *Service) SubmitReview(ctx context.Context, session domain.Session, id primitive.ObjectID, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidReview
	}

	return s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.BuyerID != session.UserID {
			return ErrForbidden
		}
		if order.Status != domain.OrderStatusShipped {
			return ErrNotShipped
		}
		if order.Reviewed {
			return ErrAlreadyReviewed
		}

		now := s.now()
		review := domain.Review{
			OrderID:   order.ID,
			BuyerID:   session.UserID,
			BuyerName: session.Name,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
		}

		if err := s.products.AppendReview(ctx, order.Product.ProductID, review); err != nil {
			return err
		}
		if err := s.orders.MarkReviewed(ctx, id); err != nil {
			return err
		}
		return s.appendEvent(ctx, EventOrderReviewed, order, now)
	})
}

// BuyAgain clones a finished order's product configuration into a fresh cart
// entry. The original order is never rewound.
func (s *Service) BuyAgain(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != session.UserID {
		return nil, ErrForbidden
	}
	if !order.Status.IsTerminal() {
		return nil, ErrNotRepurchasable
	}

	clone := order.CloneForRepurchase(s.now())
	if err := s.orders.Insert(ctx, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

func (s *Service) appendEvent(ctx context.Context, eventType string, order *domain.Order, at time.Time) error {
	event, err := newOutboxEvent(eventType, order, at)
	if err != nil {
		return err
	}
	return s.outbox.Append(ctx, event)
}
