package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known lifecycle statuses.
// Status updates only check this when strict validation is enabled;
// by default arbitrary strings are accepted.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

const DefaultCurrency = "USD"

type OrderItem struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"order_id"`
	ProductName string  `json:"product_name"`
	ProductID   string  `json:"product_id,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// StatusHistoryEntry is one row of an order's append-only audit trail.
type StatusHistoryEntry struct {
	ID        string      `json:"id"`
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Notes     string      `json:"notes,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Order is a purchase record owned by the local store. Orders fetched
// through the Shopify gateway are a different entity entirely and never
// decode into this type.
type Order struct {
	ID            string               `json:"id"`
	OrderNumber   int64                `json:"order_number"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	Status        OrderStatus          `json:"status"`
	TotalPrice    float64              `json:"total_price"`
	Currency      string               `json:"currency"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Items         []OrderItem          `json:"items,omitempty"`
	History       []StatusHistoryEntry `json:"history,omitempty"`
}
