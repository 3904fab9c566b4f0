package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusProcessing, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo encodes the order lifecycle:
// created -> processing -> completed, created|processing -> cancelled,
// completed -> refunded. Cancelled and refunded are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusCompleted || next == OrderStatusCancelled
	case OrderStatusCompleted:
		return next == OrderStatusRefunded
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusDelivered ShippingStatus = "delivered"
	ShippingStatusCancelled ShippingStatus = "cancelled"
)

func (s ShippingStatus) Valid() bool {
	switch s {
	case ShippingStatusPending, ShippingStatusShipped, ShippingStatusDelivered, ShippingStatusCancelled:
		return true
	}
	return false
}

type Address struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Payment struct {
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	TransactionID string        `json:"transactionId,omitempty"`
}

type Shipping struct {
	Address        Address        `json:"address"`
	Status         ShippingStatus `json:"status"`
	Courier        string         `json:"courier,omitempty"`
	TrackingNumber string         `json:"trackingNumber,omitempty"`
	ShippedAt      *time.Time     `json:"shippedAt,omitempty"`
}

// OrderItem has the same snapshot shape as a cart line. Product ids are
// carried as hex strings since the row lives outside MongoDB.
type OrderItem struct {
	ProductID  string            `json:"productId"`
	Name       string            `json:"name"`
	Price      int64             `json:"price"`
	Quantity   int               `json:"quantity"`
	Image      string            `json:"image,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Order is immutable once created except for status transitions.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	UserID      string      `json:"user"`
	Items       []OrderItem `json:"items"`
	Subtotal    int64       `json:"subtotal"`
	ShippingFee int64       `json:"shippingFee"`
	Total       int64       `json:"total"`
	Payment     Payment     `json:"payment"`
	Shipping    Shipping    `json:"shipping"`
	Status      OrderStatus `json:"status"`
	Note        string      `json:"note,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
