package models

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesRepository struct {
	db *gorm.DB
}

// SalesLineInput is one requested line of a new sales order.
// A nil UnitPrice sells at the goods' current price.
type SalesLineInput struct {
	GoodsID   uint
	Quantity  int64
	UnitPrice *decimal.Decimal
}

type SalesOrderInput struct {
	Note  string
	Lines []SalesLineInput
}

type SalesFilters struct {
	From *time.Time
	To   *time.Time
}

// CategoryRevenue is the per-category slice of a sales summary.
type CategoryRevenue struct {
	CategoryID   uint
	CategoryCode string
	CategoryName string
	Quantity     int64
	Revenue      decimal.Decimal
}

type SalesSummary struct {
	OrderCount int64
	ItemCount  int64
	Revenue    decimal.Decimal
	ByCategory []CategoryRevenue
}

func NewSalesRepository(db *gorm.DB) *SalesRepository {
	return &SalesRepository{
		db: db,
	}
}

// CreateSalesOrder records the order and takes the sold quantities out of stock.
// Either every line is applied or none is.
func (r *SalesRepository) CreateSalesOrder(input SalesOrderInput) (*SalesOrder, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	order := &SalesOrder{
		OrderNo: uuid.NewString(),
		Note:    input.Note,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, len(input.Lines))
		for i, in := range input.Lines {
			ids[i] = in.GoodsID
		}
		stock, err := lockGoods(tx, ids)
		if err != nil {
			return err
		}

		lines, total, err := priceLines(input.Lines, stock)
		if err != nil {
			return err
		}
		order.Lines = lines
		order.Total = total

		for id, g := range stock {
			if err := tx.Model(&Goods{}).Where("id = ?", id).Update("stock", g.Stock).Error; err != nil {
				return err
			}
		}

		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// lockGoods takes row locks on the given goods in ascending id order, so
// concurrent orders touching the same goods queue up instead of deadlocking.
// Ids with no row are absent from the result.
func lockGoods(tx *gorm.DB, ids []uint) (map[uint]*Goods, error) {
	ids = sortedUnique(ids)
	if len(ids) == 0 {
		return map[uint]*Goods{}, nil
	}
	var rows []Goods
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	stock := make(map[uint]*Goods, len(rows))
	for i := range rows {
		stock[rows[i].ID] = &rows[i]
	}
	return stock, nil
}

func sortedUnique(ids []uint) []uint {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// priceLines builds order lines from the requested inputs, decrementing the
// in-memory stock of each goods as it goes.
func priceLines(inputs []SalesLineInput, stock map[uint]*Goods) ([]SalesOrderLine, decimal.Decimal, error) {
	lines := make([]SalesOrderLine, 0, len(inputs))
	total := decimal.Zero

	for _, in := range inputs {
		g, ok := stock[in.GoodsID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("goods %d: %w", in.GoodsID, ErrGoodsNotFound)
		}
		if in.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("goods %d: quantity must be positive", in.GoodsID)
		}
		if g.Stock < in.Quantity {
			return nil, decimal.Zero, fmt.Errorf("goods %d has %d, wants %d: %w", g.ID, g.Stock, in.Quantity, ErrInsufficientStock)
		}
		g.Stock -= in.Quantity

		price := g.Price
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		amount := price.Mul(decimal.NewFromInt(in.Quantity))
		total = total.Add(amount)

		lines = append(lines, SalesOrderLine{
			GoodsID:    g.ID,
			CategoryID: g.CategoryID,
			GoodsName:  g.Name,
			Quantity:   in.Quantity,
			UnitPrice:  price,
			Amount:     amount,
		})
	}

	return lines, total, nil
}

func (r *SalesRepository) GetSalesOrders(offset, limit int, filters SalesFilters) ([]SalesOrder, int64, error) {
	var orders []SalesOrder
	var total int64

	query := applySalesFilters(r.db.Model(&SalesOrder{}), filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Lines").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *SalesRepository) GetSalesOrder(id uint) (*SalesOrder, error) {
	var order SalesOrder
	if err := r.db.Preload("Lines").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSalesOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// DeleteSalesOrder removes the order and puts its quantities back on the
// shelf for goods that still exist.
func (r *SalesRepository) DeleteSalesOrder(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Order row before goods rows: a concurrent delete of the same order
		// blocks here and then sees it gone, so stock is restored once.
		var order SalesOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSalesOrderNotFound
			}
			return err
		}
		if err := tx.Where("sales_order_id = ?", order.ID).Find(&order.Lines).Error; err != nil {
			return err
		}

		ids := make([]uint, len(order.Lines))
		for i, line := range order.Lines {
			ids[i] = line.GoodsID
		}
		if _, err := lockGoods(tx, ids); err != nil {
			return err
		}

		for _, line := range order.Lines {
			if err := tx.Model(&Goods{}).
				Where("id = ?", line.GoodsID).
				Update("stock", gorm.Expr("stock + ?", line.Quantity)).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("sales_order_id = ?", order.ID).Delete(&SalesOrderLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// GetSummary aggregates orders in the range into dashboard totals.
func (r *SalesRepository) GetSummary(filters SalesFilters) (*SalesSummary, error) {
	summary := &SalesSummary{Revenue: decimal.Zero}

	var totals struct {
		OrderCount int64
		Revenue    decimal.NullDecimal
	}
	if err := applySalesFilters(r.db.Model(&SalesOrder{}), filters).
		Select("COUNT(*) AS order_count, SUM(total) AS revenue").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	summary.OrderCount = totals.OrderCount
	if totals.Revenue.Valid {
		summary.Revenue = totals.Revenue.Decimal
	}

	var rows []struct {
		CategoryID   uint
		CategoryCode string
		CategoryName string
		Quantity     int64
		Revenue      decimal.Decimal
	}
	lines := r.db.Table("sales_order_lines").
		Select("sales_order_lines.category_id, COALESCE(categories.code, '') AS category_code, " +
			"COALESCE(categories.name, '') AS category_name, " +
			"SUM(sales_order_lines.quantity) AS quantity, SUM(sales_order_lines.amount) AS revenue").
		Joins("JOIN sales_orders ON sales_orders.id = sales_order_lines.sales_order_id").
		Joins("LEFT JOIN categories ON categories.id = sales_order_lines.category_id")
	if filters.From != nil {
		lines = lines.Where("sales_orders.created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		lines = lines.Where("sales_orders.created_at < ?", *filters.To)
	}
	if err := lines.
		Group("sales_order_lines.category_id, categories.code, categories.name").
		Order("revenue DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary.ByCategory = make([]CategoryRevenue, len(rows))
	for i, row := range rows {
		summary.ItemCount += row.Quantity
		summary.ByCategory[i] = CategoryRevenue(row)
	}

	return summary, nil
}

func applySalesFilters(query *gorm.DB, filters SalesFilters) *gorm.DB {
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at < ?", *filters.To)
	}
	return query
}
