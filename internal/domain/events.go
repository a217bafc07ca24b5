package domain

import "time"

type OrderCreatedEvent struct {
	OrderID     string      `json:"order_id"`
	OrderNumber int64       `json:"order_number"`
	ItemCount   int         `json:"item_count"`
	TotalPrice  float64     `json:"total_price"`
	Currency    string      `json:"currency"`
	Status      OrderStatus `json:"status"`
	Timestamp   time.Time   `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID     string      `json:"order_id"`
	OrderNumber int64       `json:"order_number"`
	Status      OrderStatus `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}
