package models

// Category groups goods on the shelf and in sales reports.
// It includes a unique code and a human-readable name.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	Description string

	// ProductCount is filled by queries that count goods per category.
	ProductCount int64 `gorm:"->;-:migration"`
}

func (c *Category) TableName() string {
	return "categories"
}
