package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type GoodsRepository struct {
	db *gorm.DB
}

type GoodsFilters struct {
	CategoryCode  string
	PriceLessThan *float64
	NameQuery     string
	LowStock      *int64
}

func NewGoodsRepository(db *gorm.DB) *GoodsRepository {
	return &GoodsRepository{
		db: db,
	}
}

func (r *GoodsRepository) GetFilteredGoods(offset, limit int, filters GoodsFilters) ([]Goods, int64, error) {
	var goods []Goods
	var total int64

	query := r.db.Model(&Goods{}).
		Joins("LEFT JOIN categories ON categories.id = goods.category_id").
		Preload("Category")

	// Filter
	if filters.CategoryCode != "" {
		query = query.Where("categories.code = ?", filters.CategoryCode)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("goods.price < ?", *filters.PriceLessThan)
	}
	if q := strings.TrimSpace(filters.NameQuery); q != "" {
		query = query.Where("goods.name ILIKE ?", "%"+escapeLike(q)+"%")
	}
	if filters.LowStock != nil {
		query = query.Where("goods.stock <= ?", *filters.LowStock)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query.Order("goods.id").Offset(offset).Limit(limit).Find(&goods).Error; err != nil {
		return nil, 0, err
	}

	return goods, total, nil
}

func (r *GoodsRepository) GetByID(id uint) (*Goods, error) {
	var goods Goods
	if err := r.db.Preload("Category").First(&goods, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoodsNotFound
		}
		return nil, err
	}
	return &goods, nil
}

func (r *GoodsRepository) GetByBarcode(barcode string) (*Goods, error) {
	var goods Goods
	if err := r.db.
		Preload("Category").
		Where("barcode = ?", barcode).
		First(&goods).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoodsNotFound
		}
		return nil, err
	}
	return &goods, nil
}

func (r *GoodsRepository) CreateGoods(goods *Goods) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := checkGoodsRefs(tx, goods); err != nil {
			return err
		}
		if err := tx.Omit("Category").Create(goods).Error; err != nil {
			return goodsWriteError(err)
		}
		return tx.Preload("Category").First(goods, goods.ID).Error
	})
}

// UpdateGoods replaces the editable fields of an existing goods row.
func (r *GoodsRepository) UpdateGoods(goods *Goods) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing Goods
		if err := tx.First(&existing, goods.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGoodsNotFound
			}
			return err
		}
		if err := checkGoodsRefs(tx, goods); err != nil {
			return err
		}
		if err := tx.Model(&existing).Updates(map[string]any{
			"name":        goods.Name,
			"barcode":     goods.Barcode,
			"standard":    goods.Standard,
			"price":       goods.Price,
			"stock":       goods.Stock,
			"category_id": goods.CategoryID,
		}).Error; err != nil {
			return goodsWriteError(err)
		}
		return tx.Preload("Category").First(goods, goods.ID).Error
	})
}

func (r *GoodsRepository) DeleteGoods(id uint) error {
	res := r.db.Delete(&Goods{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGoodsNotFound
	}
	return nil
}

// goodsWriteError maps a barcode index violation from a racing writer that
// passed checkGoodsRefs at the same time.
func goodsWriteError(err error) error {
	if isUniqueViolation(err) {
		return ErrDuplicateBarcode
	}
	return err
}

// checkGoodsRefs verifies the category exists and the barcode is not taken by another row.
func checkGoodsRefs(tx *gorm.DB, goods *Goods) error {
	var count int64
	if err := tx.Model(&Category{}).Where("id = ?", goods.CategoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrCategoryNotFound
	}

	if goods.Barcode == "" {
		return nil
	}
	if err := tx.Model(&Goods{}).
		Where("barcode = ? AND id <> ?", goods.Barcode, goods.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateBarcode
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
