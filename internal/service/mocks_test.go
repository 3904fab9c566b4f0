package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pokefigs/storefront/internal/cache"
	"github.com/pokefigs/storefront/internal/domain"
	"github.com/pokefigs/storefront/internal/repository"
)

func qty(n int) *int { return &n }

type mockProductRepo struct {
	m        sync.RWMutex
	products map[string]*domain.Product
	bySlug   map[string]*domain.Product
	err      error

	inserted []*domain.Product
	updated  []*domain.Product
	deleted  []primitive.ObjectID
	listed   []repository.ProductQuery
	total    int64
}

func newMockProductRepo(products ...*domain.Product) *mockProductRepo {
	m := &mockProductRepo{
		products: make(map[string]*domain.Product),
		bySlug:   make(map[string]*domain.Product),
	}
	for _, p := range products {
		m.products[p.ID.Hex()] = p
		if p.Slug != "" {
			m.bySlug[p.Slug] = p
		}
	}
	return m
}

func (m *mockProductRepo) Insert(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.products[p.ID.Hex()] = p
	m.bySlug[p.Slug] = p
	m.inserted = append(m.inserted, p)
	return nil
}

func (m *mockProductRepo) Update(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.products[p.ID.Hex()]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[p.ID.Hex()] = p
	m.updated = append(m.updated, p)
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.products[id.Hex()]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id.Hex())
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id.Hex()]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepo) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.bySlug[slug]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := m.products[id.Hex()]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) List(_ context.Context, q repository.ProductQuery) ([]*domain.Product, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	m.listed = append(m.listed, q)
	var out []*domain.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	total := m.total
	if total == 0 {
		total = int64(len(out))
	}
	return out, total, nil
}

type mockCartRepo struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	err   error
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepo) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (m *mockCartRepo) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[cart.UserID] = cart
	return nil
}

func (m *mockCartRepo) RemoveProduct(_ context.Context, userID string, productID primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return nil
}

func (m *mockCartRepo) ClearItems(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if cart, ok := m.carts[userID]; ok {
		cart.Items = []domain.CartItem{}
	}
	return nil
}

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockOrderRepo struct {
	m      sync.RWMutex
	orders map[uuid.UUID]*domain.Order
	err    error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context, limit int) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Order
	for _, o := range m.orders {
		if len(out) == limit {
			break
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepo) Close() error { return nil }

func (m *mockOrderRepo) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.orders)
}

type mockCartClearer struct {
	m       sync.Mutex
	cleared []string
	err     error
}

func (m *mockCartClearer) ClearCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cleared = append(m.cleared, userID)
	return nil
}

func (m *mockCartClearer) clearedUsers() []string {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]string(nil), m.cleared...)
}
