// Package events carries sales notifications between the API and background workers over RabbitMQ.
package events

import (
	"context"
	"time"
)

// SalesLine is the part of a sales order line the consumers care about.
type SalesLine struct {
	GoodsID  uint  `json:"goods_id"`
	Quantity int64 `json:"quantity"`
}

// SalesCreated is published after a sales order is committed.
type SalesCreated struct {
	OrderNo   string      `json:"order_no"`
	Total     string      `json:"total"`
	Lines     []SalesLine `json:"lines"`
	CreatedAt time.Time   `json:"created_at"`
}

type Publisher interface {
	PublishSalesCreated(ctx context.Context, ev SalesCreated) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSalesCreated(context.Context, SalesCreated) error { return nil }
