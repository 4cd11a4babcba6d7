package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/storage"
)

type mockProductRepo struct {
	products map[primitive.ObjectID]*domain.Product
	addErr   error
}

func newMockProductRepo(products ...*domain.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[primitive.ObjectID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
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
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id primitive.ObjectID, sellerID string) error {
	p, ok := m.products[id]
	if !ok || p.SellerID != sellerID {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) List(context.Context, repository.ProductFilter) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProductRepo) SetStocks(_ context.Context, id primitive.ObjectID, sellerID string, stocks []domain.StockEntry) error {
	p, ok := m.products[id]
	if !ok || p.SellerID != sellerID {
		return repository.ErrProductNotFound
	}
	p.Stocks = stocks
	return nil
}

func (m *mockProductRepo) AddImage(_ context.Context, id primitive.ObjectID, sellerID, url string) error {
	if m.addErr != nil {
		return m.addErr
	}
	p, ok := m.products[id]
	if !ok || p.SellerID != sellerID {
		return repository.ErrProductNotFound
	}
	p.Images = append(p.Images, url)
	return nil
}

func (m *mockProductRepo) ApplyShipment(context.Context, primitive.ObjectID, int, int) error {
	return nil
}

func (m *mockProductRepo) AppendReview(context.Context, primitive.ObjectID, domain.Review) error {
	return nil
}

type mockCategoryRepo struct {
	categories []domain.Category
}

func (m *mockCategoryRepo) List(context.Context) ([]domain.Category, error) {
	return m.categories, nil
}

func (m *mockCategoryRepo) Insert(_ context.Context, c *domain.Category) error {
	m.categories = append(m.categories, *c)
	return nil
}

type likeKey struct {
	userID    string
	productID primitive.ObjectID
}

type mockLikeRepo struct {
	likes map[likeKey]domain.Like
}

func newMockLikeRepo() *mockLikeRepo {
	return &mockLikeRepo{likes: make(map[likeKey]domain.Like)}
}

func (m *mockLikeRepo) Like(_ context.Context, userID string, productID primitive.ObjectID) error {
	m.likes[likeKey{userID, productID}] = domain.Like{
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *mockLikeRepo) Unlike(_ context.Context, userID string, productID primitive.ObjectID) error {
	delete(m.likes, likeKey{userID, productID})
	return nil
}

func (m *mockLikeRepo) Count(_ context.Context, productID primitive.ObjectID) (int64, error) {
	var n int64
	for k := range m.likes {
		if k.productID == productID {
			n++
		}
	}
	return n, nil
}

func (m *mockLikeRepo) ListByUser(_ context.Context, userID string) ([]domain.Like, error) {
	var out []domain.Like
	for k, l := range m.likes {
		if k.userID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockBlobStore struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{saved: make(map[string][]byte)}
}

func (m *mockBlobStore) Save(_ context.Context, entity, ownerID, purpose string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	key := entity + "/" + ownerID + "/" + purpose + "/blob"
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.saved[key] = data
	return key, nil
}

func (m *mockBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.saved[key]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockBlobStore) Delete(_ context.Context, key string) error {
	delete(m.saved, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func sellerSession() domain.Session {
	return domain.Session{UserID: "seller-1", Name: "Bob"}
}

func validProduct() *domain.Product {
	return &domain.Product{
		Name:       "T-Shirt",
		PriceCents: 1500,
		Category:   "Clothes",
		Variations: []domain.Variation{
			{Name: "Color", Options: []string{"Black", "White"}},
		},
		Stocks: []domain.StockEntry{
			{Labels: []string{"Black"}, Quantity: 5},
		},
	}
}

func newSut(repo *mockProductRepo, likes *mockLikeRepo, blobs *mockBlobStore) *Service {
	return NewService(repo, &mockCategoryRepo{}, likes, blobs, zap.NewNop())
}

func TestCreateProduct_Success(t *testing.T) {
	repo := newMockProductRepo()
	sut := newSut(repo, newMockLikeRepo(), newMockBlobStore())

	product := validProduct()
	err := sut.CreateProduct(context.Background(), sellerSession(), product)
	require.NoError(t, err)

	assert.False(t, product.ID.IsZero())
	stored := repo.products[product.ID]
	assert.Equal(t, "seller-1", stored.SellerID)
	assert.Equal(t, 0, stored.Sold)
	assert.Empty(t, stored.Reviews)
}

func TestCreateProduct_Validation(t *testing.T) {
	sut := newSut(newMockProductRepo(), newMockLikeRepo(), newMockBlobStore())

	cases := map[string]func(*domain.Product){
		"empty name":     func(p *domain.Product) { p.Name = "" },
		"zero price":     func(p *domain.Product) { p.PriceCents = 0 },
		"negative price": func(p *domain.Product) { p.PriceCents = -100 },
		"empty axis":     func(p *domain.Product) { p.Variations[0].Name = "" },
		"no options":     func(p *domain.Product) { p.Variations[0].Options = nil },
		"negative stock": func(p *domain.Product) { p.Stocks[0].Quantity = -1 },
	}
	for name, mutate := range cases {
		product := validProduct()
		mutate(product)
		err := sut.CreateProduct(context.Background(), sellerSession(), product)

		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr, name)
	}
}

func TestUpdateProduct_PreservesLifecycleFields(t *testing.T) {
	existing := validProduct()
	existing.ID = primitive.NewObjectID()
	existing.SellerID = "seller-1"
	existing.Sold = 7
	existing.Reviews = []domain.Review{{Rating: 5}}
	repo := newMockProductRepo(existing)
	sut := newSut(repo, newMockLikeRepo(), newMockBlobStore())

	updated := validProduct()
	updated.ID = existing.ID
	updated.Name = "Premium T-Shirt"
	updated.Sold = 999                            // must be ignored
	updated.Reviews = []domain.Review{{Rating: 1}} // must be ignored

	err := sut.UpdateProduct(context.Background(), sellerSession(), updated)
	require.NoError(t, err)

	stored := repo.products[existing.ID]
	assert.Equal(t, "Premium T-Shirt", stored.Name)
	assert.Equal(t, 7, stored.Sold)
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, 5, stored.Reviews[0].Rating)
}

func TestUpdateProduct_ForeignSeller(t *testing.T) {
	existing := validProduct()
	existing.ID = primitive.NewObjectID()
	existing.SellerID = "someone-else"
	sut := newSut(newMockProductRepo(existing), newMockLikeRepo(), newMockBlobStore())

	updated := validProduct()
	updated.ID = existing.ID
	err := sut.UpdateProduct(context.Background(), sellerSession(), updated)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestSetStocks_Validation(t *testing.T) {
	existing := validProduct()
	existing.ID = primitive.NewObjectID()
	existing.SellerID = "seller-1"
	sut := newSut(newMockProductRepo(existing), newMockLikeRepo(), newMockBlobStore())

	err := sut.SetStocks(context.Background(), sellerSession(), existing.ID,
		[]domain.StockEntry{{Labels: []string{"Black"}, Quantity: -1}})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	err = sut.SetStocks(context.Background(), sellerSession(), existing.ID,
		[]domain.StockEntry{{Labels: nil, Quantity: 3}})
	assert.ErrorAs(t, err, &vErr)
}

func TestSetStocks_Success(t *testing.T) {
	existing := validProduct()
	existing.ID = primitive.NewObjectID()
	existing.SellerID = "seller-1"
	repo := newMockProductRepo(existing)
	sut := newSut(repo, newMockLikeRepo(), newMockBlobStore())

	stocks := []domain.StockEntry{
		{Labels: []string{"Black"}, Quantity: 10},
		{Labels: []string{"White"}, Quantity: 0},
	}
	err := sut.SetStocks(context.Background(), sellerSession(), existing.ID, stocks)
	require.NoError(t, err)
	assert.Equal(t, stocks, repo.products[existing.ID].Stocks)
}

func TestUploadImage_Success(t *testing.T) {
	existing := validProduct()
	existing.ID = primitive.NewObjectID()
	existing.SellerID = "seller-1"
	repo := newMockProductRepo(existing)
	blobs := newMockBlobStore()
	sut := newSut(repo, newMockLikeRepo(), blobs)

	key, err := sut.UploadImage(context.Background(), sellerSession(), existing.ID,
		bytes.NewReader([]byte("png bytes")))
	require.NoError(t, err)

	assert.Contains(t, repo.products[existing.ID].Images, key)
	assert.Equal(t, []byte("png bytes"), blobs.saved[key])
}

func TestUploadImage_CleansUpOnAddFailure(t *testing.T) {
	existing := validProduct()
	existing.ID = primitive.NewObjectID()
	existing.SellerID = "seller-1"
	repo := newMockProductRepo(existing)
	repo.addErr = errors.New("write conflict")
	blobs := newMockBlobStore()
	sut := newSut(repo, newMockLikeRepo(), blobs)

	_, err := sut.UploadImage(context.Background(), sellerSession(), existing.ID,
		bytes.NewReader([]byte("png bytes")))
	require.ErrorContains(t, err, "write conflict")
	assert.Len(t, blobs.deleted, 1)
	assert.Empty(t, blobs.saved)
}

func TestLikes_RoundTrip(t *testing.T) {
	existing := validProduct()
	existing.ID = primitive.NewObjectID()
	existing.SellerID = "seller-1"
	likes := newMockLikeRepo()
	sut := newSut(newMockProductRepo(existing), likes, newMockBlobStore())
	ctx := context.Background()
	buyer := domain.Session{UserID: "buyer-1"}

	require.NoError(t, sut.Like(ctx, buyer, existing.ID))
	count, err := sut.LikeCount(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	liked, err := sut.LikedProducts(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, existing.ID, liked[0].ID)

	require.NoError(t, sut.Unlike(ctx, buyer, existing.ID))
	count, err = sut.LikeCount(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestLike_MissingProduct(t *testing.T) {
	sut := newSut(newMockProductRepo(), newMockLikeRepo(), newMockBlobStore())

	err := sut.Like(context.Background(), domain.Session{UserID: "buyer-1"}, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestLikedProducts_SkipsDeletedProducts(t *testing.T) {
	existing := validProduct()
	existing.ID = primitive.NewObjectID()
	existing.SellerID = "seller-1"
	likes := newMockLikeRepo()
	buyer := domain.Session{UserID: "buyer-1"}
	ctx := context.Background()

	require.NoError(t, likes.Like(ctx, buyer.UserID, existing.ID))
	require.NoError(t, likes.Like(ctx, buyer.UserID, primitive.NewObjectID())) // gone

	sut := newSut(newMockProductRepo(existing), likes, newMockBlobStore())
	liked, err := sut.LikedProducts(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, liked, 1)
}
