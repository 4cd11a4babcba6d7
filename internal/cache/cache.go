package cache

import (
	"context"
	"errors"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

// CartCache holds a buyer's cart entries keyed by buyer id.
type CartCache interface {
	Get(ctx context.Context, buyerID string) ([]domain.Order, error)
	Set(ctx context.Context, buyerID string, items []domain.Order) error
	Delete(ctx context.Context, buyerID string) error
}

var ErrCacheMiss = errors.New("cache miss")
