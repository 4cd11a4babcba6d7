package domain

import "time"

// User ids come from the identity provider, so _id is a plain string.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	AvatarURL string    `bson:"avatar_url" json:"avatar_url"`
	Phone     string    `bson:"phone" json:"phone"`
	Address   string    `bson:"address" json:"address"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Session is the authenticated caller, resolved once by the HTTP middleware
// and passed explicitly into services.
type Session struct {
	UserID string
	Name   string
}

func (u *User) BuyerSnapshot() *BuyerSnapshot {
	return &BuyerSnapshot{
		UserID:  u.ID,
		Name:    u.Name,
		Phone:   u.Phone,
		Address: u.Address,
	}
}

// PushToken maps a user to the device token the push relay delivers to.
type PushToken struct {
	UserID    string    `bson:"_id" json:"user_id"`
	Token     string    `bson:"token" json:"token"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
