package lifecycle

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/projection"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

// mockOrderRepo keeps orders in a map and mutates them the way the real
// mongo repository would.
type mockOrderRepo struct {
	orders   map[primitive.ObjectID]*domain.Order
	err      error
	replaced int
	inserted int
}

func newMockOrderRepo(orders ...*domain.Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[primitive.ObjectID]*domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) Insert(_ context.Context, order *domain.Order) error {
	if m.err != nil {
		return m.err
	}
	order.ID = primitive.NewObjectID()
	cp := *order
	m.orders[order.ID] = &cp
	m.inserted++
	return nil
}

func (m *mockOrderRepo) Replace(_ context.Context, order *domain.Order) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	cp := *order
	m.orders[order.ID] = &cp
	m.replaced++
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id primitive.ObjectID, _ string) error {
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) UpdateCartItem(_ context.Context, id primitive.ObjectID, _ string, variations map[string]string, quantity int) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Variations = variations
	o.Quantity = quantity
	return nil
}

func (m *mockOrderRepo) ListByBuyerStatus(_ context.Context, buyerID string, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID && o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListBySeller(_ context.Context, sellerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.SellerID == sellerID && o.OrderedAt != nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) MarkShipping(_ context.Context, id primitive.ObjectID, confirmedAt time.Time) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = domain.OrderStatusShipping
	o.ConfirmedAt = &confirmedAt
	return nil
}

func (m *mockOrderRepo) MarkCancelled(_ context.Context, id primitive.ObjectID, cancelledAt time.Time) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = domain.OrderStatusCancelled
	o.CancelledAt = &cancelledAt
	return nil
}

func (m *mockOrderRepo) MarkShipped(_ context.Context, id primitive.ObjectID, shippedAt time.Time) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = domain.OrderStatusShipped
	o.ShippedAt = &shippedAt
	return nil
}

func (m *mockOrderRepo) MarkReviewed(_ context.Context, id primitive.ObjectID) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Reviewed = true
	return nil
}

func (m *mockOrderRepo) Watch(context.Context, repository.ViewFilter) (projection.Stream, error) {
	return nil, errors.New("not implemented")
}

type mockProductRepo struct {
	products map[primitive.ObjectID]*domain.Product
	err      error
	shipped  int
	reviews  int
}

func newMockProductRepo(products ...*domain.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[primitive.ObjectID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Insert(_ context.Context, p *domain.Product) error {
	p.ID = primitive.NewObjectID()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Replace(_ context.Context, p *domain.Product) error {
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id primitive.ObjectID, _ string) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) List(context.Context, repository.ProductFilter) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) SetStocks(_ context.Context, id primitive.ObjectID, _ string, stocks []domain.StockEntry) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stocks = stocks
	return nil
}

func (m *mockProductRepo) AddImage(_ context.Context, id primitive.ObjectID, _, url string) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Images = append(p.Images, url)
	return nil
}

func (m *mockProductRepo) ApplyShipment(_ context.Context, id primitive.ObjectID, stockIndex, quantity int) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if stockIndex < 0 || stockIndex >= len(p.Stocks) {
		return repository.ErrStockIndexOutOfRange
	}
	p.Stocks[stockIndex].Quantity -= quantity
	p.Sold += quantity
	m.shipped++
	return nil
}

func (m *mockProductRepo) AppendReview(_ context.Context, id primitive.ObjectID, review domain.Review) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Reviews = append(p.Reviews, review)
	m.reviews++
	return nil
}

type mockUserRepo struct {
	users map[string]*domain.User
	err   error
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, u *domain.User) error {
	m.users[u.ID] = u
	return nil
}

type mockOutbox struct {
	events []*repository.OutboxEvent
	err    error
}

func (m *mockOutbox) Append(_ context.Context, event *repository.OutboxEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockOutbox) GetUnprocessed(context.Context, int64) ([]*repository.OutboxEvent, error) {
	return m.events, nil
}

func (m *mockOutbox) MarkProcessed(context.Context, primitive.ObjectID) error {
	return nil
}

// mockTxn runs the callback directly; rollback behavior is covered by the
// repository integration tests against a real replica set.
type mockTxn struct {
	calls int
	err   error
}

func (m *mockTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.err != nil {
		return m.err
	}
	m.calls++
	return fn(ctx)
}
