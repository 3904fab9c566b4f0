package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pokefigs/storefront/internal/domain"
	"github.com/pokefigs/storefront/internal/repository"
	"github.com/pokefigs/storefront/internal/service"
)

type catalogServiceMock struct {
	product *domain.Product
	meta    *service.Pagination
	err     error
}

func (m *catalogServiceMock) CreateProduct(context.Context, service.CreateProductInput) (*domain.Product, error) {
	return m.product, m.err
}

func (m *catalogServiceMock) UpdateProduct(context.Context, primitive.ObjectID, service.UpdateProductInput) (*domain.Product, error) {
	return m.product, m.err
}

func (m *catalogServiceMock) DeleteProduct(context.Context, primitive.ObjectID) error {
	return m.err
}

func (m *catalogServiceMock) GetProduct(context.Context, primitive.ObjectID) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *catalogServiceMock) ListProducts(context.Context, service.ListProductsQuery) ([]*domain.Product, *service.Pagination, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	var products []*domain.Product
	if m.product != nil {
		products = append(products, m.product)
	}
	return products, m.meta, nil
}

type cartServiceMock struct {
	cart *domain.Cart
	err  error
}

func (m *cartServiceMock) GetCart(context.Context, string) (*domain.Cart, error) {
	return m.cart, m.err
}

func (m *cartServiceMock) AddOrUpdateItem(context.Context, string, primitive.ObjectID, string, int, map[string]string) (*domain.Cart, error) {
	return m.cart, m.err
}

func (m *cartServiceMock) RemoveProduct(context.Context, string, primitive.ObjectID) (*domain.Cart, error) {
	return m.cart, m.err
}

func (m *cartServiceMock) ClearCart(context.Context, string) error {
	return m.err
}

type orderServiceMock struct {
	order  *domain.Order
	orders []*domain.Order
	err    error
}

func (m *orderServiceMock) Settle(context.Context, string, service.SettleRequest) (*domain.Order, error) {
	return m.order, m.err
}

func (m *orderServiceMock) ListOrders(context.Context, string) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *orderServiceMock) ListAllOrders(context.Context) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *orderServiceMock) UpdateStatus(context.Context, uuid.UUID, string) (*domain.Order, error) {
	return m.order, m.err
}

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

func qty(n int) *int { return &n }

func TestProductList_InvalidPage(t *testing.T) {
	handler := NewProductHandler(&catalogServiceMock{}, 5*time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/products?page=abc", nil)
	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "page", resp.Errors[0].Field)
}

func TestProductCreate_ValidationErrors(t *testing.T) {
	handler := NewProductHandler(&catalogServiceMock{}, 5*time.Second)

	body, _ := json.Marshal(map[string]interface{}{
		"variants": []map[string]interface{}{
			{"variantId": "", "price": -1},
		},
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/products", bytes.NewReader(body))
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	fields := make(map[string]bool)
	for _, e := range resp.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["category"])
	assert.True(t, fields["variants[0].variantId"])
	assert.True(t, fields["variants[0].price"])
}

func TestProductCreate_Success(t *testing.T) {
	product := &domain.Product{ID: primitive.NewObjectID(), Name: "Pikachu Figure", Slug: "pikachu-figure"}
	handler := NewProductHandler(&catalogServiceMock{product: product}, 5*time.Second)

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Pikachu Figure",
		"category": "figures",
		"variants": []map[string]interface{}{
			{"variantId": "v-10", "price": 150000, "stock": 3},
		},
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/products", bytes.NewReader(body))
	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestProductGet_SerializesAvailableSizes(t *testing.T) {
	product := &domain.Product{
		ID:   primitive.NewObjectID(),
		Name: "Pikachu Figure",
		Slug: "pikachu-figure",
		Variants: []domain.Variant{
			{VariantID: "v-10", SizeCm: 10, Price: 150000, Stock: 3, Status: domain.VariantStatusActive},
			{VariantID: "v-15", SizeCm: 15, Price: 250000, Stock: 0, Status: domain.VariantStatusActive},
		},
	}
	handler := NewProductHandler(&catalogServiceMock{product: product}, 5*time.Second)

	r := chi.NewRouter()
	r.Get("/products/{id}", handler.Get)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/products/"+product.ID.Hex(), nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	sizes, ok := resp["availableSizes"].([]interface{})
	require.True(t, ok, "availableSizes missing from product JSON")
	require.Len(t, sizes, 1)
	assert.Equal(t, float64(10), sizes[0])
}

func TestProductGet_NotFound(t *testing.T) {
	handler := NewProductHandler(&catalogServiceMock{err: repository.ErrProductNotFound}, 5*time.Second)

	r := chi.NewRouter()
	r.Get("/products/{id}", handler.Get)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/products/"+primitive.NewObjectID().Hex(), nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductGet_MalformedID(t *testing.T) {
	handler := NewProductHandler(&catalogServiceMock{}, 5*time.Second)

	r := chi.NewRouter()
	r.Get("/products/{id}", handler.Get)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/products/not-a-hex-id", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartGet_Unauthorized(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{}, 5*time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	handler.Get(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartAddItem_Success(t *testing.T) {
	cart := &domain.Cart{UserID: "u1", Items: []domain.CartItem{{VariantID: "v-10", Quantity: 2}}}
	handler := NewCartHandler(&cartServiceMock{cart: cart}, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{
		ProductID: primitive.NewObjectID().Hex(),
		VariantID: "v-10",
		Quantity:  qty(2),
	})
	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body)), "u1")
	handler.AddItem(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp domain.Cart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Len(t, resp.Items, 1)
}

func TestCartAddItem_BadProductID(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{}, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: "nope", Quantity: qty(1)})
	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body)), "u1")
	handler.AddItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartAddItem_ZeroQuantityRejected(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{}, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: primitive.NewObjectID().Hex(), Quantity: qty(0)})
	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body)), "u1")
	handler.AddItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "quantity", resp.Errors[0].Field)
}

func TestCartAddItem_OmittedQuantityDefaultsToOne(t *testing.T) {
	cart := &domain.Cart{UserID: "u1", Items: []domain.CartItem{{VariantID: "v-10", Quantity: 1}}}
	handler := NewCartHandler(&cartServiceMock{cart: cart}, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: primitive.NewObjectID().Hex(), VariantID: "v-10"})
	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body)), "u1")
	handler.AddItem(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCartAddItem_VariantNotFound(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{err: service.ErrVariantNotFound}, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: primitive.NewObjectID().Hex(), Quantity: qty(1)})
	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body)), "u1")
	handler.AddItem(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderCreate_Success(t *testing.T) {
	order := &domain.Order{ID: uuid.New(), UserID: "u1", Total: 470000, Status: domain.OrderStatusCreated}
	handler := NewOrderHandler(&orderServiceMock{order: order}, 5*time.Second)

	body, _ := json.Marshal(service.SettleRequest{
		Items: []service.SettleItem{
			{ProductID: primitive.NewObjectID().Hex(), VariantID: "v-10", Quantity: qty(3)},
		},
		ShippingFee: 20000,
	})
	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader(body)), "u1")
	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(470000), resp.Total)
}

func TestOrderCreate_ZeroQuantityRejected(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{}, 5*time.Second)

	body, _ := json.Marshal(service.SettleRequest{
		Items: []service.SettleItem{
			{ProductID: primitive.NewObjectID().Hex(), Quantity: qty(0)},
		},
	})
	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader(body)), "u1")
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "items[0].quantity", resp.Errors[0].Field)
}

func TestOrderCreate_EmptyItems(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{}, 5*time.Second)

	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader([]byte(`{}`))), "u1")
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderCreate_Unauthorized(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{}, 5*time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader([]byte(`{}`)))
	handler.Create(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderUpdateStatus_InvalidTransition(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{err: service.ErrInvalidTransition}, 5*time.Second)

	r := chi.NewRouter()
	r.Patch("/orders/{id}/status", handler.UpdateStatus)

	body := []byte(`{"status":"processing"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/orders/"+uuid.NewString()+"/status", bytes.NewReader(body))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid_transition", resp.Code)
}

func TestOrderUpdateStatus_BadID(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{}, 5*time.Second)

	r := chi.NewRouter()
	r.Patch("/orders/{id}/status", handler.UpdateStatus)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/orders/not-a-uuid/status", bytes.NewReader([]byte(`{"status":"processing"}`)))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserIDMiddleware(t *testing.T) {
	var captured string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = getUserIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-ID", "u42")
	UserIDMiddleware(next).ServeHTTP(rec, req)

	assert.Equal(t, "u42", captured)
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	RequestIDMiddleware(next).ServeHTTP(rec, req)

	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}
