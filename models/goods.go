package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goods represents an item the shop keeps in stock.
// Barcode is optional but unique among goods that carry one.
type Goods struct {
	ID         uint            `gorm:"primaryKey"`
	Name       string          `gorm:"not null"`
	Barcode    string          `gorm:"uniqueIndex:uniq_goods_barcode,where:barcode <> ''"`
	Standard   string
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock      int64           `gorm:"not null;default:0"`
	CategoryID uint            `gorm:"not null;index"`
	Category   Category        `gorm:"foreignKey:CategoryID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (g *Goods) TableName() string {
	return "goods"
}
