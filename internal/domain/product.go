package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VariantStatus string

const (
	VariantStatusActive       VariantStatus = "active"
	VariantStatusOutOfStock   VariantStatus = "out_of_stock"
	VariantStatusDiscontinued VariantStatus = "discontinued"
)

// Variant is a purchasable size/configuration of a product with its own
// price and stock.
type Variant struct {
	VariantID     string        `bson:"variantId" json:"variantId"`
	SizeCm        float64       `bson:"sizeCm,omitempty" json:"sizeCm,omitempty"`
	Price         int64         `bson:"price" json:"price"`
	OriginalPrice int64         `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Images        []string      `bson:"images,omitempty" json:"images,omitempty"`
	Stock         int64         `bson:"stock" json:"stock"`
	SKU           string        `bson:"sku,omitempty" json:"sku,omitempty"`
	WeightGrams   int64         `bson:"weightGrams,omitempty" json:"weightGrams,omitempty"`
	Status        VariantStatus `bson:"status" json:"status"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Description string             `bson:"description" json:"description"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	Thumbnail   string             `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`

	// Aggregates derived from Variants. Never set by callers; recomputed
	// via ComputeAggregates on every save.
	MinPrice   int64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   int64 `bson:"maxPrice" json:"maxPrice"`
	StockTotal int64 `bson:"stockTotal" json:"stockTotal"`

	Tags      []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	Rating    float64   `bson:"rating,omitempty" json:"rating,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ComputeAggregates recomputes MinPrice, MaxPrice and StockTotal from the
// variant list. It is total over all variant sequences and must run on
// every persist so the cached values cannot drift.
func (p *Product) ComputeAggregates() {
	if len(p.Variants) == 0 {
		p.MinPrice, p.MaxPrice, p.StockTotal = 0, 0, 0
		return
	}
	min, max := p.Variants[0].Price, p.Variants[0].Price
	var stock int64
	for _, v := range p.Variants {
		if v.Price < min {
			min = v.Price
		}
		if v.Price > max {
			max = v.Price
		}
		stock += v.Stock
	}
	p.MinPrice, p.MaxPrice, p.StockTotal = min, max, stock
}

// AvailableSizes lists sizes of variants that are active and in stock.
func (p *Product) AvailableSizes() []float64 {
	sizes := []float64{}
	for _, v := range p.Variants {
		if v.Status == VariantStatusActive && v.Stock > 0 {
			sizes = append(sizes, v.SizeCm)
		}
	}
	return sizes
}

// MarshalJSON adds the availableSizes derived view to every serialized
// product.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		AvailableSizes []float64 `json:"availableSizes"`
	}{
		alias:          alias(p),
		AvailableSizes: p.AvailableSizes(),
	})
}

// ResolveVariant picks the variant matching variantID, falling back to the
// first variant when no id was given or none matches. The second return is
// false only when the product has no variants at all. Cart merges and order
// settlement both resolve through here so their snapshots agree.
func (p *Product) ResolveVariant(variantID string) (*Variant, bool) {
	if len(p.Variants) == 0 {
		return nil, false
	}
	if variantID != "" {
		for i := range p.Variants {
			if p.Variants[i].VariantID == variantID {
				return &p.Variants[i], true
			}
		}
	}
	return &p.Variants[0], true
}

// UnitPrice is the authoritative server-side price for a resolved variant.
// A zero variant price means the variant carries no price of its own and
// the product's MinPrice applies.
func (p *Product) UnitPrice(v *Variant) int64 {
	if v.Price > 0 {
		return v.Price
	}
	return p.MinPrice
}

// VariantDisplayName composes the snapshot name for cart and order lines.
func (p *Product) VariantDisplayName(v *Variant) string {
	if v.SizeCm > 0 {
		return p.Name + " - " + FormatSize(v.SizeCm) + "cm"
	}
	return p.Name
}

// VariantImage picks the snapshot image: variant image first, then the
// product thumbnail, then the product gallery.
func (p *Product) VariantImage(v *Variant) string {
	if len(v.Images) > 0 {
		return v.Images[0]
	}
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// SnapshotAttributes builds the attribute map stored on cart and order
// lines: caller extras plus variantId, sizeCm and sku for display and
// reconstruction.
func (v *Variant) SnapshotAttributes(extra map[string]string) map[string]string {
	attrs := make(map[string]string, len(extra)+3)
	for k, val := range extra {
		attrs[k] = val
	}
	attrs["variantId"] = v.VariantID
	if v.SizeCm > 0 {
		attrs["sizeCm"] = FormatSize(v.SizeCm)
	} else {
		attrs["sizeCm"] = ""
	}
	attrs["sku"] = v.SKU
	return attrs
}

func FormatSize(size float64) string {
	return strconv.FormatFloat(size, 'f', -1, 64)
}
