package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"` // recipient
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Route     string             `bson:"route" json:"route"` // screen the client should open
	OrderID   string             `bson:"order_id,omitempty" json:"order_id,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FromID    string             `bson:"from_id" json:"from_id"`
	ToID      string             `bson:"to_id" json:"to_id"`
	Text      string             `bson:"text" json:"text"`
	ImageURL  string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type Category struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	ImageURL string             `bson:"image_url" json:"image_url"`
}

type Like struct {
	UserID    string             `bson:"user_id" json:"user_id"`
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
