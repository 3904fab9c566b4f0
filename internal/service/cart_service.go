package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pokefigs/storefront/internal/cache"
	"github.com/pokefigs/storefront/internal/domain"
	"github.com/pokefigs/storefront/internal/repository"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddOrUpdateItem(ctx context.Context, userID string, productID primitive.ObjectID, variantID string, quantity int, attributes map[string]string) (*domain.Cart, error)
	RemoveProduct(ctx context.Context, userID string, productID primitive.ObjectID) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type CartServiceImpl struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	log      *zap.SugaredLogger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, c cache.CartCache, log *zap.SugaredLogger) *CartServiceImpl {
	return &CartServiceImpl{
		repo:     repo,
		products: products,
		cache:    c,
		log:      log,
	}
}

func (s *CartServiceImpl) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warnw("cache get error", "user_id", userID, "err", err)
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			// No cart yet: hand back an empty one instead of a 404.
			return &domain.Cart{
				UserID:    userID,
				Items:     []domain.CartItem{},
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), userID, cart); errSet != nil {
				s.log.Warnw("cache set error", "user_id", userID, "err", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddOrUpdateItem merges a line into the user's cart keyed by (product,
// resolved variant). Price, name and image are recomputed from the catalog
// on every call; client-supplied values are never trusted.
func (s *CartServiceImpl) AddOrUpdateItem(ctx context.Context, userID string, productID primitive.ObjectID, variantID string, quantity int, attributes map[string]string) (*domain.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	variant, ok := product.ResolveVariant(variantID)
	if !ok {
		return nil, fmt.Errorf("%w: product %s has no variants", ErrVariantNotFound, productID.Hex())
	}

	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart = &domain.Cart{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	item := domain.CartItem{
		ProductID:  productID,
		VariantID:  variant.VariantID,
		Name:       product.VariantDisplayName(variant),
		Price:      product.UnitPrice(variant),
		Quantity:   quantity,
		Image:      product.VariantImage(variant),
		Attributes: variant.SnapshotAttributes(attributes),
		AddedAt:    time.Now(),
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].MergeKeyMatches(productID, item.VariantID) {
			cart.Items[i] = item
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, item)
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		s.log.Errorw("upsert cart failed", "user_id", userID, "err", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

// RemoveProduct deletes every line for the product id, across variants.
func (s *CartServiceImpl) RemoveProduct(ctx context.Context, userID string, productID primitive.ObjectID) (*domain.Cart, error) {
	if err := s.repo.RemoveProduct(ctx, userID, productID); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return s.repo.GetCart(ctx, userID)
}

func (s *CartServiceImpl) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.ClearItems(ctx, userID); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartServiceImpl) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warnw("cache invalidate error", "user_id", userID, "err", err)
	}
}
