package cart

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/cache"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidSelection = errors.New("variation selection does not match the product")
	ErrForbidden        = errors.New("caller does not own this cart entry")
	ErrNotInCart        = errors.New("order is no longer a cart entry")
)

// Service manages a buyer's cart. Cart entries are orders in the
// ADDED_TO_CART status, so checkout is just a status transition away.
type Service struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	cache    cache.CartCache
	log      *zap.Logger
	sfg      singleflight.Group // prevents cache stampede
}

func NewService(orders repository.OrderRepository, products repository.ProductRepository, cartCache cache.CartCache, log *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		products: products,
		cache:    cartCache,
		log:      log,
	}
}

// Add puts a product configuration into the buyer's cart as a new order.
// The product's name, image and price are snapshotted onto the entry so
// later catalog edits do not rewrite history.
func (s *Service) Add(ctx context.Context, session domain.Session, productID primitive.ObjectID, variations map[string]string, quantity int) (*domain.Order, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := validateSelection(product, variations); err != nil {
		return nil, err
	}

	now := time.Now()
	order := &domain.Order{
		BuyerID:    session.UserID,
		SellerID:   product.SellerID,
		Product:    product.Snapshot(),
		Variations: variations,
		Quantity:   quantity,
		Status:     domain.OrderStatusAddedToCart,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	s.invalidate(session.UserID)
	return order, nil
}

// Update changes the variation selection and quantity of a cart entry. Entries
// that have already gone through checkout are immutable.
func (s *Service) Update(ctx context.Context, session domain.Session, orderID primitive.ObjectID, variations map[string]string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != session.UserID {
		return ErrForbidden
	}
	if order.Status != domain.OrderStatusAddedToCart {
		return ErrNotInCart
	}

	product, err := s.products.GetByID(ctx, order.Product.ProductID)
	if err != nil {
		return err
	}
	if err := validateSelection(product, variations); err != nil {
		return err
	}

	if err := s.orders.UpdateCartItem(ctx, orderID, session.UserID, variations, quantity); err != nil {
		return err
	}

	s.invalidate(session.UserID)
	return nil
}

// Remove deletes a cart entry. The repository filter is scoped to the buyer,
// so removing someone else's entry is a not-found.
func (s *Service) Remove(ctx context.Context, session domain.Session, orderID primitive.ObjectID) error {
	if err := s.orders.Delete(ctx, orderID, session.UserID); err != nil {
		return err
	}
	s.invalidate(session.UserID)
	return nil
}

// List returns the buyer's cart entries, cache-aside with singleflight so
// concurrent misses for the same buyer hit the store once.
func (s *Service) List(ctx context.Context, session domain.Session) ([]domain.Order, error) {
	v, err, _ := s.sfg.Do(session.UserID, func() (interface{}, error) {
		items, err := s.cache.Get(ctx, session.UserID)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart cache get failed", zap.Error(err))
		}

		items, err = s.orders.ListByBuyerStatus(ctx, session.UserID, domain.OrderStatusAddedToCart)
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), session.UserID, items); err != nil {
				s.log.Warn("cart cache set failed", zap.Error(err))
			}
		}()

		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Order), nil
}

func (s *Service) invalidate(buyerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, buyerID); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.Error(err))
	}
}

// validateSelection checks that every variation axis has a chosen value and
// that each chosen value is one of the axis' options.
func validateSelection(product *domain.Product, chosen map[string]string) error {
	if len(chosen) != len(product.Variations) {
		return ErrInvalidSelection
	}
	for _, variation := range product.Variations {
		value, ok := chosen[variation.Name]
		if !ok {
			return ErrInvalidSelection
		}
		valid := false
		for _, option := range variation.Options {
			if option == value {
				valid = true
				break
			}
		}
		if !valid {
			return ErrInvalidSelection
		}
	}
	return nil
}
