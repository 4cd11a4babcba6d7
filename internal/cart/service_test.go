package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/cache"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/projection"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

type mockOrderRepo struct {
	m      sync.Mutex
	orders map[primitive.ObjectID]*domain.Order
	err    error
}

func newMockOrderRepo(orders ...*domain.Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[primitive.ObjectID]*domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
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
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	order.ID = primitive.NewObjectID()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Replace(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id primitive.ObjectID, buyerID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	o, ok := m.orders[id]
	if !ok || o.BuyerID != buyerID {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) UpdateCartItem(_ context.Context, id primitive.ObjectID, buyerID string, variations map[string]string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	o, ok := m.orders[id]
	if !ok || o.BuyerID != buyerID {
		return repository.ErrOrderNotFound
	}
	o.Variations = variations
	o.Quantity = quantity
	return nil
}

func (m *mockOrderRepo) ListByBuyerStatus(_ context.Context, buyerID string, status domain.OrderStatus) ([]domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID && o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListBySeller(context.Context, string) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) MarkShipping(context.Context, primitive.ObjectID, time.Time) error {
	return nil
}

func (m *mockOrderRepo) MarkCancelled(context.Context, primitive.ObjectID, time.Time) error {
	return nil
}

func (m *mockOrderRepo) MarkShipped(context.Context, primitive.ObjectID, time.Time) error {
	return nil
}

func (m *mockOrderRepo) MarkReviewed(context.Context, primitive.ObjectID) error {
	return nil
}

func (m *mockOrderRepo) Watch(context.Context, repository.ViewFilter) (projection.Stream, error) {
	return nil, errors.New("not implemented")
}

type mockProductRepo struct {
	product *domain.Product
	err     error
}

func (m *mockProductRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.product == nil || m.product.ID != id {
		return nil, repository.ErrProductNotFound
	}
	cp := *m.product
	return &cp, nil
}

func (m *mockProductRepo) Insert(context.Context, *domain.Product) error  { return nil }
func (m *mockProductRepo) Replace(context.Context, *domain.Product) error { return nil }
func (m *mockProductRepo) Delete(context.Context, primitive.ObjectID, string) error {
	return nil
}

func (m *mockProductRepo) List(context.Context, repository.ProductFilter) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) SetStocks(context.Context, primitive.ObjectID, string, []domain.StockEntry) error {
	return nil
}

func (m *mockProductRepo) AddImage(context.Context, primitive.ObjectID, string, string) error {
	return nil
}

func (m *mockProductRepo) ApplyShipment(context.Context, primitive.ObjectID, int, int) error {
	return nil
}

func (m *mockProductRepo) AppendReview(context.Context, primitive.ObjectID, domain.Review) error {
	return nil
}

type mockCache struct {
	m     sync.RWMutex
	items []domain.Order
	has   bool
	err   error
}

func (m *mockCache) Get(context.Context, string) ([]domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if !m.has {
		return nil, cache.ErrCacheMiss
	}
	return m.items, nil
}

func (m *mockCache) Set(_ context.Context, _ string, items []domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.items = items
	m.has = true
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.items = nil
	m.has = false
	return m.err
}

func (m *mockCache) cached() bool {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.has
}

func shirt(seller string) *domain.Product {
	return &domain.Product{
		ID:         primitive.NewObjectID(),
		SellerID:   seller,
		Name:       "T-Shirt",
		PriceCents: 1500,
		Images:     []string{"https://cdn.example.com/shirt.png"},
		Variations: []domain.Variation{
			{Name: "Color", Options: []string{"Black", "White"}},
			{Name: "Size", Options: []string{"S", "M", "L"}},
		},
		Stocks: []domain.StockEntry{
			{Labels: []string{"Black", "S"}, Quantity: 5},
		},
	}
}

func session() domain.Session {
	return domain.Session{UserID: "buyer-1", Name: "Alice"}
}

func TestAdd_Success(t *testing.T) {
	product := shirt("seller-1")
	repo := newMockOrderRepo()
	mockC := &mockCache{has: true}
	sut := NewService(repo, &mockProductRepo{product: product}, mockC, zap.NewNop())

	order, err := sut.Add(context.Background(), session(), product.ID,
		map[string]string{"Color": "Black", "Size": "S"}, 2)
	require.NoError(t, err)

	assert.False(t, order.ID.IsZero())
	assert.Equal(t, domain.OrderStatusAddedToCart, order.Status)
	assert.Equal(t, "buyer-1", order.BuyerID)
	assert.Equal(t, "seller-1", order.SellerID)
	assert.Equal(t, "T-Shirt", order.Product.Name)
	assert.Equal(t, int64(1500), order.Product.PriceCents)
	assert.Equal(t, 2, order.Quantity)

	// cache invalidated so the next List sees the new entry
	require.Eventually(t, func() bool {
		return !mockC.cached()
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestAdd_InvalidQuantity(t *testing.T) {
	product := shirt("seller-1")
	sut := NewService(newMockOrderRepo(), &mockProductRepo{product: product}, &mockCache{}, zap.NewNop())

	_, err := sut.Add(context.Background(), session(), product.ID,
		map[string]string{"Color": "Black", "Size": "S"}, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAdd_SelectionValidation(t *testing.T) {
	product := shirt("seller-1")
	sut := NewService(newMockOrderRepo(), &mockProductRepo{product: product}, &mockCache{}, zap.NewNop())

	cases := map[string]map[string]string{
		"missing axis":  {"Color": "Black"},
		"unknown axis":  {"Color": "Black", "Fit": "Slim"},
		"unknown value": {"Color": "Green", "Size": "S"},
	}
	for name, chosen := range cases {
		_, err := sut.Add(context.Background(), session(), product.ID, chosen, 1)
		assert.ErrorIs(t, err, ErrInvalidSelection, name)
	}
}

func TestAdd_ProductNotFound(t *testing.T) {
	sut := NewService(newMockOrderRepo(), &mockProductRepo{}, &mockCache{}, zap.NewNop())

	_, err := sut.Add(context.Background(), session(), primitive.NewObjectID(), nil, 1)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestUpdate_Success(t *testing.T) {
	product := shirt("seller-1")
	order := &domain.Order{
		ID:         primitive.NewObjectID(),
		BuyerID:    "buyer-1",
		SellerID:   "seller-1",
		Product:    product.Snapshot(),
		Variations: map[string]string{"Color": "Black", "Size": "S"},
		Quantity:   1,
		Status:     domain.OrderStatusAddedToCart,
	}
	repo := newMockOrderRepo(order)
	mockC := &mockCache{has: true}
	sut := NewService(repo, &mockProductRepo{product: product}, mockC, zap.NewNop())

	err := sut.Update(context.Background(), session(), order.ID,
		map[string]string{"Color": "White", "Size": "M"}, 3)
	require.NoError(t, err)

	updated := repo.orders[order.ID]
	assert.Equal(t, "White", updated.Variations["Color"])
	assert.Equal(t, 3, updated.Quantity)

	require.Eventually(t, func() bool {
		return !mockC.cached()
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestUpdate_RejectsCheckedOutEntry(t *testing.T) {
	product := shirt("seller-1")
	order := &domain.Order{
		ID:       primitive.NewObjectID(),
		BuyerID:  "buyer-1",
		Product:  product.Snapshot(),
		Quantity: 1,
		Status:   domain.OrderStatusOrdered,
	}
	sut := NewService(newMockOrderRepo(order), &mockProductRepo{product: product}, &mockCache{}, zap.NewNop())

	err := sut.Update(context.Background(), session(), order.ID,
		map[string]string{"Color": "Black", "Size": "S"}, 2)
	assert.ErrorIs(t, err, ErrNotInCart)
}

func TestUpdate_ForeignEntry(t *testing.T) {
	product := shirt("seller-1")
	order := &domain.Order{
		ID:      primitive.NewObjectID(),
		BuyerID: "someone-else",
		Product: product.Snapshot(),
		Status:  domain.OrderStatusAddedToCart,
	}
	sut := NewService(newMockOrderRepo(order), &mockProductRepo{product: product}, &mockCache{}, zap.NewNop())

	err := sut.Update(context.Background(), session(), order.ID,
		map[string]string{"Color": "Black", "Size": "S"}, 2)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRemove_Success(t *testing.T) {
	order := &domain.Order{
		ID:      primitive.NewObjectID(),
		BuyerID: "buyer-1",
		Status:  domain.OrderStatusAddedToCart,
	}
	repo := newMockOrderRepo(order)
	mockC := &mockCache{has: true}
	sut := NewService(repo, &mockProductRepo{}, mockC, zap.NewNop())

	err := sut.Remove(context.Background(), session(), order.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.orders)

	require.Eventually(t, func() bool {
		return !mockC.cached()
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestRemove_ForeignEntryNotFound(t *testing.T) {
	order := &domain.Order{
		ID:      primitive.NewObjectID(),
		BuyerID: "someone-else",
		Status:  domain.OrderStatusAddedToCart,
	}
	sut := NewService(newMockOrderRepo(order), &mockProductRepo{}, &mockCache{}, zap.NewNop())

	err := sut.Remove(context.Background(), session(), order.ID)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestList_CacheMissFillsCache(t *testing.T) {
	order := &domain.Order{
		ID:       primitive.NewObjectID(),
		BuyerID:  "buyer-1",
		Quantity: 2,
		Status:   domain.OrderStatusAddedToCart,
	}
	other := &domain.Order{
		ID:      primitive.NewObjectID(),
		BuyerID: "buyer-1",
		Status:  domain.OrderStatusOrdered, // not a cart entry anymore
	}
	repo := newMockOrderRepo(order, other)
	mockC := &mockCache{}
	sut := NewService(repo, &mockProductRepo{}, mockC, zap.NewNop())

	items, err := sut.List(context.Background(), session())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, order.ID, items[0].ID)

	require.Eventually(t, func() bool {
		return mockC.cached()
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not set in cache")
}

func TestList_CacheHitSkipsRepo(t *testing.T) {
	cachedOrder := domain.Order{
		ID:      primitive.NewObjectID(),
		BuyerID: "buyer-1",
		Status:  domain.OrderStatusAddedToCart,
	}
	repo := newMockOrderRepo()
	repo.err = fmt.Errorf("repo must not be called")
	mockC := &mockCache{items: []domain.Order{cachedOrder}, has: true}
	sut := NewService(repo, &mockProductRepo{}, mockC, zap.NewNop())

	items, err := sut.List(context.Background(), session())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cachedOrder.ID, items[0].ID)
}

func TestList_RepoError(t *testing.T) {
	repo := newMockOrderRepo()
	repo.err = fmt.Errorf("database error")
	sut := NewService(repo, &mockProductRepo{}, &mockCache{}, zap.NewNop())

	_, err := sut.List(context.Background(), session())
	require.ErrorContains(t, err, "database error")
}
