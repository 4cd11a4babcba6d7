package projection

import (
	"sort"
	"sync"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

// StatusIndex is a normalized in-memory view of one subscription's result set,
// keyed by order status. It is updated incrementally per change notification
// instead of repartitioning the whole snapshot on every event.
type StatusIndex struct {
	mu     sync.RWMutex
	orders map[string]domain.Order // order id -> current state
}

func NewStatusIndex() *StatusIndex {
	return &StatusIndex{
		orders: make(map[string]domain.Order),
	}
}

func (i *StatusIndex) Apply(change Change) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch change.Kind {
	case ChangeDelete:
		delete(i.orders, change.OrderID)
	case ChangeUpsert:
		if change.Order == nil {
			return
		}
		// cart entries are not part of any live view
		if change.Order.Status == domain.OrderStatusAddedToCart {
			delete(i.orders, change.OrderID)
			return
		}
		i.orders[change.OrderID] = *change.Order
	}
}

// Bucket returns the orders currently in the given status, newest first.
func (i *StatusIndex) Bucket(status domain.OrderStatus) []domain.Order {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var out []domain.Order
	for _, o := range i.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].UpdatedAt.After(out[b].UpdatedAt)
	})
	return out
}

// Counts returns the bucket sizes for every status present in the index.
func (i *StatusIndex) Counts() map[domain.OrderStatus]int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	counts := make(map[domain.OrderStatus]int)
	for _, o := range i.orders {
		counts[o.Status]++
	}
	return counts
}

func (i *StatusIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.orders)
}
