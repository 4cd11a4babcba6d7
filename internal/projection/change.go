package projection

import (
	"context"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

type ChangeKind string

const (
	ChangeUpsert ChangeKind = "UPSERT"
	ChangeDelete ChangeKind = "DELETE"
)

// Change is one notification from the store's snapshot listener: the current
// state of a single order, or its removal.
type Change struct {
	Kind    ChangeKind
	OrderID string
	Order   *domain.Order // nil for deletes
}

// Stream delivers order changes until the subscription is closed. Next blocks
// until a change arrives, the context is cancelled, or the stream ends.
type Stream interface {
	Next(ctx context.Context) (Change, error)
	Close(ctx context.Context) error
}
