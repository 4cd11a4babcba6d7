package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/projection"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrTokenNotFound        = errors.New("push token not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrStockIndexOutOfRange = errors.New("stock entry index out of range")
)

// Txn runs fn inside a single multi-document transaction. Every store call
// made through the callback's context joins the transaction; the store retries
// the whole callback on transient write conflicts.
type Txn interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	Insert(ctx context.Context, order *domain.Order) error
	Replace(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id primitive.ObjectID, buyerID string) error
	UpdateCartItem(ctx context.Context, id primitive.ObjectID, buyerID string, variations map[string]string, quantity int) error
	ListByBuyerStatus(ctx context.Context, buyerID string, status domain.OrderStatus) ([]domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Order, error)
	MarkShipping(ctx context.Context, id primitive.ObjectID, confirmedAt time.Time) error
	MarkCancelled(ctx context.Context, id primitive.ObjectID, cancelledAt time.Time) error
	MarkShipped(ctx context.Context, id primitive.ObjectID, shippedAt time.Time) error
	MarkReviewed(ctx context.Context, id primitive.ObjectID) error
	Watch(ctx context.Context, filter ViewFilter) (projection.Stream, error)
}

type ProductFilter struct {
	SellerID string
	Category string
	Limit    int64
}

type ProductRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	Insert(ctx context.Context, product *domain.Product) error
	Replace(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id primitive.ObjectID, sellerID string) error
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	SetStocks(ctx context.Context, id primitive.ObjectID, sellerID string, stocks []domain.StockEntry) error
	AddImage(ctx context.Context, id primitive.ObjectID, sellerID, url string) error
	ApplyShipment(ctx context.Context, id primitive.ObjectID, stockIndex, quantity int) error
	AppendReview(ctx context.Context, id primitive.ObjectID, review domain.Review) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, userID string) error
}

type TokenRepository interface {
	Get(ctx context.Context, userID string) (*domain.PushToken, error)
	Save(ctx context.Context, token *domain.PushToken) error
}

type MessageRepository interface {
	Insert(ctx context.Context, m *domain.Message) error
	Conversation(ctx context.Context, userA, userB string, limit int64) ([]domain.Message, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Insert(ctx context.Context, c *domain.Category) error
}

type LikeRepository interface {
	Like(ctx context.Context, userID string, productID primitive.ObjectID) error
	Unlike(ctx context.Context, userID string, productID primitive.ObjectID) error
	Count(ctx context.Context, productID primitive.ObjectID) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Like, error)
}

type OutboxRepository interface {
	Append(ctx context.Context, event *OutboxEvent) error
	GetUnprocessed(ctx context.Context, limit int64) ([]*OutboxEvent, error)
	MarkProcessed(ctx context.Context, id primitive.ObjectID) error
}

// Store bundles all collection repositories over one database handle.
type Store struct {
	db *mongo.Database

	Orders        OrderRepository
	Products      ProductRepository
	Users         UserRepository
	Notifications NotificationRepository
	Tokens        TokenRepository
	Messages      MessageRepository
	Categories    CategoryRepository
	Likes         LikeRepository
	Outbox        OutboxRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:            db,
		Orders:        newOrderRepository(db),
		Products:      newProductRepository(db),
		Users:         newUserRepository(db),
		Notifications: newNotificationRepository(db),
		Tokens:        newTokenRepository(db),
		Messages:      newMessageRepository(db),
		Categories:    newCategoryRepository(db),
		Likes:         newLikeRepository(db),
		Outbox:        newOutboxRepository(db),
	}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) CreateIndexes(ctx context.Context) error {
	orderIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "ordered_at", Value: -1}}},
	}
	if _, err := s.db.Collection("orders").Indexes().CreateMany(ctx, orderIndexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	productIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seller_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	if _, err := s.db.Collection("products").Indexes().CreateMany(ctx, productIndexes); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}

	likeIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.db.Collection("likes").Indexes().CreateOne(ctx, likeIndex); err != nil {
		return fmt.Errorf("failed to create like index: %w", err)
	}

	outboxIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "processed", Value: 1}, {Key: "created_at", Value: 1}},
	}
	if _, err := s.db.Collection("event").Indexes().CreateOne(ctx, outboxIndex); err != nil {
		return fmt.Errorf("failed to create outbox index: %w", err)
	}

	messageIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "from_id", Value: 1}, {Key: "to_id", Value: 1}, {Key: "created_at", Value: -1}},
	}
	if _, err := s.db.Collection("messages").Indexes().CreateOne(ctx, messageIndex); err != nil {
		return fmt.Errorf("failed to create message index: %w", err)
	}

	return nil
}
