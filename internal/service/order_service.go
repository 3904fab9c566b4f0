package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/pokefigs/storefront/internal/domain"
	"github.com/pokefigs/storefront/internal/repository"
)

const adminOrderListLimit = 200

// SettleItem carries the quantity as a pointer so the HTTP layer can tell
// an omitted value (defaults to 1) from an explicit zero (rejected).
type SettleItem struct {
	ProductID  string            `json:"productId"`
	VariantID  string            `json:"variantId"`
	Quantity   *int              `json:"quantity"`
	Attributes map[string]string `json:"attributes"`
}

type AddressInput struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// ShippingInput accepts both a nested address block and flat top-level
// fields; normalizeShipping folds them into one canonical address.
type ShippingInput struct {
	Address        *AddressInput `json:"address"`
	FullName       string        `json:"fullName"`
	Phone          string        `json:"phone"`
	Line1          string        `json:"line1"`
	AddressLine    string        `json:"addressLine"`
	City           string        `json:"city"`
	Province       string        `json:"province"`
	PostalCode     string        `json:"postalCode"`
	Country        string        `json:"country"`
	Status         string        `json:"status"`
	Courier        string        `json:"courier"`
	TrackingNumber string        `json:"trackingNumber"`
}

type PaymentInput struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

type SettleRequest struct {
	Items       []SettleItem  `json:"items"`
	Shipping    ShippingInput `json:"shipping"`
	Payment     PaymentInput  `json:"payment"`
	Note        string        `json:"note"`
	ShippingFee int64         `json:"shippingFee"`
}

// CartClearer is the slice of the cart service settlement needs.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

type OrderService interface {
	Settle(ctx context.Context, userID string, req SettleRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error)
}

type OrderServiceImpl struct {
	repo     repository.OrderRepository
	products repository.ProductRepository
	carts    CartClearer
	log      *zap.SugaredLogger
}

func NewOrderService(repo repository.OrderRepository, products repository.ProductRepository, carts CartClearer, log *zap.SugaredLogger) *OrderServiceImpl {
	return &OrderServiceImpl{
		repo:     repo,
		products: products,
		carts:    carts,
		log:      log,
	}
}

// Settle converts requested line items into a persisted, priced order.
// All-or-nothing: any unresolvable product or variant aborts before the
// insert, so a partial order is never visible.
func (s *OrderServiceImpl) Settle(ctx context.Context, userID string, req SettleRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrItemsRequired
	}

	ids := make([]primitive.ObjectID, 0, len(req.Items))
	for _, item := range req.Items {
		id, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", repository.ErrProductNotFound, item.ProductID)
		}
		ids = append(ids, id)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		lookup[p.ID.Hex()] = p
	}

	var subtotal int64
	orderItems := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		product, ok := lookup[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", repository.ErrProductNotFound, item.ProductID)
		}

		variant, ok := product.ResolveVariant(item.VariantID)
		if !ok {
			return nil, fmt.Errorf("%w: product %s has no variants", ErrVariantNotFound, item.ProductID)
		}

		quantity := 1
		if item.Quantity != nil && *item.Quantity > 0 {
			quantity = *item.Quantity
		}

		// Unit price is computed exactly as the cart merge computes it,
		// so a cart snapshot and the order snapshot agree.
		price := product.UnitPrice(variant)
		subtotal += price * int64(quantity)

		orderItems = append(orderItems, domain.OrderItem{
			ProductID:  product.ID.Hex(),
			Name:       product.VariantDisplayName(variant),
			Price:      price,
			Quantity:   quantity,
			Image:      product.VariantImage(variant),
			Attributes: variant.SnapshotAttributes(item.Attributes),
		})
	}

	fee := req.ShippingFee
	if fee < 0 {
		fee = 0
	}

	order := &domain.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Items:       orderItems,
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       subtotal + fee,
		Payment:     normalizePayment(req.Payment),
		Shipping:    normalizeShipping(req.Shipping),
		Status:      domain.OrderStatusCreated,
		Note:        req.Note,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.log.Errorw("insert order failed", "user_id", userID, "err", err)
		return nil, err
	}

	// The order is durable at this point; clearing the cart again on the
	// next settlement covers a failed clear.
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.log.Warnw("clear cart after settlement failed", "user_id", userID, "order_id", order.ID, "err", err)
	}

	s.log.Infow("order settled", "order_id", order.ID, "user_id", userID, "total", order.Total)
	return order, nil
}

func (s *OrderServiceImpl) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *OrderServiceImpl) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.ListAll(ctx, adminOrderListLimit)
}

func (s *OrderServiceImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error) {
	next := domain.OrderStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}

	order.Status = next
	return order, nil
}

func normalizeShipping(in ShippingInput) domain.Shipping {
	addr := domain.Address{}
	if in.Address != nil {
		addr = domain.Address{
			FullName:   in.Address.FullName,
			Phone:      in.Address.Phone,
			Line1:      in.Address.Line1,
			City:       in.Address.City,
			Province:   in.Address.Province,
			PostalCode: in.Address.PostalCode,
			Country:    in.Address.Country,
		}
	}
	if addr.FullName == "" {
		addr.FullName = in.FullName
	}
	if addr.Phone == "" {
		addr.Phone = in.Phone
	}
	if addr.Line1 == "" {
		if in.AddressLine != "" {
			addr.Line1 = in.AddressLine
		} else {
			addr.Line1 = in.Line1
		}
	}
	if addr.City == "" {
		addr.City = in.City
	}
	if addr.Province == "" {
		addr.Province = in.Province
	}
	if addr.PostalCode == "" {
		addr.PostalCode = in.PostalCode
	}
	if addr.Country == "" {
		addr.Country = in.Country
	}

	status := domain.ShippingStatus(in.Status)
	if !status.Valid() {
		status = domain.ShippingStatusPending
	}

	return domain.Shipping{
		Address:        addr,
		Status:         status,
		Courier:        in.Courier,
		TrackingNumber: in.TrackingNumber,
	}
}

func normalizePayment(in PaymentInput) domain.Payment {
	status := domain.PaymentStatus(in.Status)
	if !status.Valid() {
		status = domain.PaymentStatusPending
	}
	return domain.Payment{
		Method: in.Method,
		Status: status,
	}
}
