package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pokefigs/storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// ProductQuery carries the catalog list filters. Price bounds apply to the
// product's minPrice (the displayed "from" price).
type ProductQuery struct {
	Category string
	Search   string
	PriceMin *int64
	PriceMax *int64
	Sort     string
	Page     int64
	Limit    int64
}

// ProductRepository is the catalog store. Consumers define this interface,
// not the MongoDB implementation.
type ProductRepository interface {
	Insert(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Product, error)
	List(ctx context.Context, q ProductQuery) ([]*domain.Product, int64, error)
}

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	RemoveProduct(ctx context.Context, userID string, productID primitive.ObjectID) error
	ClearItems(ctx context.Context, userID string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAll(ctx context.Context, limit int) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	Close() error
}

// Credentials holds Postgres connection settings for the order store.
type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}
