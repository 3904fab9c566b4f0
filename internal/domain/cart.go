package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    string     `bson:"user_id" json:"user"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

// CartItem is a point-in-time snapshot of a (product, variant) pair. Name,
// price and image are copied at merge time, never read back from the
// catalog or taken from the client.
type CartItem struct {
	ProductID  primitive.ObjectID `bson:"product_id" json:"productId"`
	VariantID  string             `bson:"variant_id" json:"variantId"`
	Name       string             `bson:"name" json:"name"`
	Price      int64              `bson:"price" json:"price"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Attributes map[string]string  `bson:"attributes,omitempty" json:"attributes,omitempty"`
	AddedAt    time.Time          `bson:"added_at" json:"addedAt"`
}

// MergeKeyMatches reports whether an incoming line lands on this one. Two
// sizes of the same product are distinct lines.
func (i *CartItem) MergeKeyMatches(productID primitive.ObjectID, variantID string) bool {
	return i.ProductID == productID && i.VariantID == variantID
}
