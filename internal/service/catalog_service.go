package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/pokefigs/storefront/internal/domain"
	"github.com/pokefigs/storefront/internal/repository"
)

type VariantInput struct {
	VariantID     string   `json:"variantId"`
	SizeCm        float64  `json:"sizeCm"`
	Price         int64    `json:"price"`
	OriginalPrice int64    `json:"originalPrice"`
	Images        []string `json:"images"`
	Stock         int64    `json:"stock"`
	SKU           string   `json:"sku"`
	WeightGrams   int64    `json:"weightGrams"`
	Status        string   `json:"status"`
}

type CreateProductInput struct {
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Variants    []VariantInput `json:"variants"`
	Images      []string       `json:"images"`
	Thumbnail   string         `json:"thumbnail"`
	Tags        []string       `json:"tags"`
}

// UpdateProductInput carries partial updates; nil fields are left alone.
type UpdateProductInput struct {
	Name        *string         `json:"name"`
	Category    *string         `json:"category"`
	Description *string         `json:"description"`
	Variants    *[]VariantInput `json:"variants"`
	Images      *[]string       `json:"images"`
	Thumbnail   *string         `json:"thumbnail"`
	Tags        *[]string       `json:"tags"`
}

type ListProductsQuery struct {
	Category string
	Search   string
	PriceMin *int64
	PriceMax *int64
	Sort     string
	Page     int64
	Limit    int64
}

type Pagination struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type CatalogService interface {
	CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, in UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	ListProducts(ctx context.Context, q ListProductsQuery) ([]*domain.Product, *Pagination, error)
}

type CatalogServiceImpl struct {
	repo repository.ProductRepository
	log  *zap.SugaredLogger
}

func NewCatalogService(repo repository.ProductRepository, log *zap.SugaredLogger) *CatalogServiceImpl {
	return &CatalogServiceImpl{repo: repo, log: log}
}

func (s *CatalogServiceImpl) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	slug, err := domain.MakeSlug(name)
	if err != nil {
		return nil, err
	}

	slug, err = s.uniqueSlug(ctx, slug, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        name,
		Slug:        slug,
		Category:    in.Category,
		Description: in.Description,
		Variants:    variantsFromInput(in.Variants),
		Images:      in.Images,
		Thumbnail:   in.Thumbnail,
		Tags:        in.Tags,
	}
	// Aggregates are recomputed at the call site before every persist so
	// the cached values cannot drift from the variant list.
	product.ComputeAggregates()

	if err := s.repo.Insert(ctx, product); err != nil {
		s.log.Errorw("insert product failed", "slug", slug, "err", err)
		return nil, err
	}

	s.log.Infow("product created", "id", product.ID.Hex(), "slug", product.Slug)
	return product, nil
}

func (s *CatalogServiceImpl) UpdateProduct(ctx context.Context, id primitive.ObjectID, in UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name != product.Name {
			slug, err := domain.MakeSlug(name)
			if err != nil {
				return nil, err
			}
			slug, err = s.uniqueSlug(ctx, slug, product.ID)
			if err != nil {
				return nil, err
			}
			product.Name = name
			product.Slug = slug
		}
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Thumbnail != nil {
		product.Thumbnail = *in.Thumbnail
	}
	if in.Variants != nil {
		product.Variants = variantsFromInput(*in.Variants)
	}
	if in.Images != nil {
		product.Images = *in.Images
	}
	if in.Tags != nil {
		product.Tags = *in.Tags
	}

	product.ComputeAggregates()

	if err := s.repo.Update(ctx, product); err != nil {
		s.log.Errorw("update product failed", "id", id.Hex(), "err", err)
		return nil, err
	}
	return product, nil
}

func (s *CatalogServiceImpl) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

func (s *CatalogServiceImpl) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CatalogServiceImpl) ListProducts(ctx context.Context, q ListProductsQuery) ([]*domain.Product, *Pagination, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	products, total, err := s.repo.List(ctx, repository.ProductQuery{
		Category: q.Category,
		Search:   q.Search,
		PriceMin: q.PriceMin,
		PriceMax: q.PriceMax,
		Sort:     q.Sort,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, nil, err
	}

	meta := &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	return products, meta, nil
}

// uniqueSlug suffixes the slug when another product already holds it. The
// in-flight record is excluded so updates keeping the same name do not
// suffix themselves.
func (s *CatalogServiceImpl) uniqueSlug(ctx context.Context, slug string, selfID primitive.ObjectID) (string, error) {
	existing, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrProductNotFound) {
		return slug, nil
	}
	if err != nil {
		return "", err
	}
	if existing.ID == selfID {
		return slug, nil
	}
	return domain.SuffixSlug(slug), nil
}

func variantsFromInput(in []VariantInput) []domain.Variant {
	variants := make([]domain.Variant, 0, len(in))
	for _, v := range in {
		status := domain.VariantStatus(v.Status)
		if status == "" {
			status = domain.VariantStatusActive
		}
		variants = append(variants, domain.Variant{
			VariantID:     v.VariantID,
			SizeCm:        v.SizeCm,
			Price:         v.Price,
			OriginalPrice: v.OriginalPrice,
			Images:        v.Images,
			Stock:         v.Stock,
			SKU:           v.SKU,
			WeightGrams:   v.WeightGrams,
			Status:        status,
		})
	}
	return variants
}
