package catalog

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/storage"
)

// ValidationError reports which product field failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Service covers the seller-facing catalog: products, stocks, images,
// plus the buyer-facing likes and category listing.
type Service struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	likes      repository.LikeRepository
	blobs      storage.BlobStore
	log        *zap.Logger
}

func NewService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	likes repository.LikeRepository,
	blobs storage.BlobStore,
	log *zap.Logger,
) *Service {
	return &Service{
		products:   products,
		categories: categories,
		likes:      likes,
		blobs:      blobs,
		log:        log,
	}
}

func (s *Service) CreateProduct(ctx context.Context, session domain.Session, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	now := time.Now()
	product.SellerID = session.UserID
	product.Sold = 0
	product.Reviews = nil
	product.CreatedAt = now
	product.UpdatedAt = now
	return s.products.Insert(ctx, product)
}

func (s *Service) UpdateProduct(ctx context.Context, session domain.Session, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	existing, err := s.products.GetByID(ctx, product.ID)
	if err != nil {
		return err
	}
	if existing.SellerID != session.UserID {
		return repository.ErrProductNotFound
	}

	// sold counter and reviews are owned by the order lifecycle
	product.SellerID = existing.SellerID
	product.Sold = existing.Sold
	product.Reviews = existing.Reviews
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	return s.products.Replace(ctx, product)
}

func (s *Service) DeleteProduct(ctx context.Context, session domain.Session, id primitive.ObjectID) error {
	return s.products.Delete(ctx, id, session.UserID)
}

func (s *Service) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	return s.products.List(ctx, filter)
}

// SetStocks replaces the product's stock table. Negative quantities never
// enter the store.
func (s *Service) SetStocks(ctx context.Context, session domain.Session, id primitive.ObjectID, stocks []domain.StockEntry) error {
	for _, entry := range stocks {
		if entry.Quantity < 0 {
			return &ValidationError{Field: "stocks", Reason: "quantity cannot be negative"}
		}
		if len(entry.Labels) == 0 {
			return &ValidationError{Field: "stocks", Reason: "entry needs at least one label"}
		}
	}
	return s.products.SetStocks(ctx, id, session.UserID, stocks)
}

// UploadImage stores the binary and appends its key to the product.
func (s *Service) UploadImage(ctx context.Context, session domain.Session, id primitive.ObjectID, r io.Reader) (string, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if product.SellerID != session.UserID {
		return "", repository.ErrProductNotFound
	}

	key, err := s.blobs.Save(ctx, "products", id.Hex(), "image", r)
	if err != nil {
		return "", err
	}

	if err := s.products.AddImage(ctx, id, session.UserID, key); err != nil {
		// orphaned blob; clean up best effort
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to delete orphaned blob",
				zap.String("key", key),
				zap.Error(delErr))
		}
		return "", err
	}
	return key, nil
}

func (s *Service) Like(ctx context.Context, session domain.Session, productID primitive.ObjectID) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return err
	}
	return s.likes.Like(ctx, session.UserID, productID)
}

func (s *Service) Unlike(ctx context.Context, session domain.Session, productID primitive.ObjectID) error {
	return s.likes.Unlike(ctx, session.UserID, productID)
}

func (s *Service) LikeCount(ctx context.Context, productID primitive.ObjectID) (int64, error) {
	return s.likes.Count(ctx, productID)
}

func (s *Service) LikedProducts(ctx context.Context, session domain.Session) ([]domain.Product, error) {
	likes, err := s.likes.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(likes))
	for _, like := range likes {
		product, err := s.products.GetByID(ctx, like.ProductID)
		if err != nil {
			continue // product was deleted since the like
		}
		products = append(products, *product)
	}
	return products, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func validateProduct(p *domain.Product) error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "cannot be empty"}
	}
	if p.PriceCents <= 0 {
		return &ValidationError{Field: "price_cents", Reason: "must be positive"}
	}
	for _, v := range p.Variations {
		if v.Name == "" {
			return &ValidationError{Field: "variations", Reason: "axis name cannot be empty"}
		}
		if len(v.Options) == 0 {
			return &ValidationError{Field: "variations", Reason: "axis needs at least one option"}
		}
	}
	for _, entry := range p.Stocks {
		if entry.Quantity < 0 {
			return &ValidationError{Field: "stocks", Reason: "quantity cannot be negative"}
		}
	}
	return nil
}
