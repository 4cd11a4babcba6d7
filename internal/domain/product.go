package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Variation is one configurable axis of a product, e.g. Color -> [Black, White].
type Variation struct {
	Name    string   `bson:"name" json:"name"`
	Options []string `bson:"options" json:"options"`
}

// StockEntry holds the available quantity for one variation combination.
// Labels is an unordered set of option labels, e.g. [Black, S].
type StockEntry struct {
	Labels   []string `bson:"labels" json:"labels"`
	Quantity int      `bson:"quantity" json:"quantity"`
}

// Matches reports whether this entry covers the given selection: every chosen
// option value must appear among the entry's labels.
func (e StockEntry) Matches(chosen map[string]string) bool {
	for _, v := range chosen {
		found := false
		for _, label := range e.Labels {
			if label == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type Review struct {
	OrderID   primitive.ObjectID `bson:"order_id" json:"order_id"`
	BuyerID   string             `bson:"buyer_id" json:"buyer_id"`
	BuyerName string             `bson:"buyer_name" json:"buyer_name"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID    string             `bson:"seller_id" json:"seller_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	PriceCents  int64              `bson:"price_cents" json:"price_cents"`
	Images      []string           `bson:"images" json:"images"`
	Variations  []Variation        `bson:"variations" json:"variations"`
	Stocks      []StockEntry       `bson:"stocks" json:"stocks"`
	Sold        int                `bson:"sold" json:"sold"`
	Reviews     []Review           `bson:"reviews" json:"reviews"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MatchStock returns the index of the first stock entry covering the chosen
// variation selection, or false when no entry matches.
func (p *Product) MatchStock(chosen map[string]string) (int, bool) {
	for i, entry := range p.Stocks {
		if entry.Matches(chosen) {
			return i, true
		}
	}
	return 0, false
}

// Snapshot builds the denormalized copy stored on orders.
func (p *Product) Snapshot() ProductSnapshot {
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	return ProductSnapshot{
		ProductID:  p.ID,
		SellerID:   p.SellerID,
		Name:       p.Name,
		ImageURL:   image,
		PriceCents: p.PriceCents,
	}
}
