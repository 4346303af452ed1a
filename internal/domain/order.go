package domain

import "time"

// OrderStatus is the lifecycle state of a resting order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// RestingOrder is one leg of a maker signal that has been handed to
// execution and is waiting for a fill.
type RestingOrder struct {
	OrderID   string
	SignalID  string
	AssetID   string
	Price     float64
	Size      float64
	CreatedAt time.Time
	Status    OrderStatus
}

// ExecutionEventType enumerates the events published by the order service.
type ExecutionEventType string

const (
	EventPlaced    ExecutionEventType = "placed"
	EventFilled    ExecutionEventType = "filled"
	EventCancelled ExecutionEventType = "cancelled"
)

// ExecutionEvent is the bus payload describing what happened to an order.
type ExecutionEvent struct {
	Type     ExecutionEventType `json:"type"`
	OrderID  string             `json:"order_id"`
	SignalID string             `json:"signal_id,omitempty"`
	AssetID  string             `json:"asset_id"`
	Side     Side               `json:"side,omitempty"`
	Price    float64            `json:"price,omitempty"`
	Size     float64            `json:"size,omitempty"`
}
