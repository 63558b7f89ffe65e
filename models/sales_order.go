package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesOrder is one checkout at the counter.
type SalesOrder struct {
	ID        uint             `gorm:"primaryKey"`
	OrderNo   string           `gorm:"uniqueIndex;not null"`
	Total     decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Note      string
	CreatedAt time.Time        `gorm:"index"`
	Lines     []SalesOrderLine `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE"`
}

func (o *SalesOrder) TableName() string {
	return "sales_orders"
}

// SalesOrderLine references the goods sold and the category it belonged to
// at the time of sale. GoodsName is kept so the line survives goods deletion.
type SalesOrderLine struct {
	ID           uint            `gorm:"primaryKey"`
	SalesOrderID uint            `gorm:"not null;index"`
	GoodsID      uint            `gorm:"not null;index"`
	CategoryID   uint            `gorm:"not null;index"`
	GoodsName    string          `gorm:"not null"`
	Quantity     int64           `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (l *SalesOrderLine) TableName() string {
	return "sales_order_lines"
}
