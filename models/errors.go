package models

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrGoodsNotFound is returned when a goods row is not found.
	ErrGoodsNotFound = errors.New("goods not found")
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryInUse is returned when deleting a category that still has goods.
	ErrCategoryInUse = errors.New("category still has goods")
	// ErrDuplicateCode is returned when a category code is already taken.
	ErrDuplicateCode = errors.New("category code already exists")
	// ErrDuplicateBarcode is returned when another goods row carries the same barcode.
	ErrDuplicateBarcode = errors.New("barcode already registered")
	// ErrSalesOrderNotFound is returned when a sales order is not found.
	ErrSalesOrderNotFound = errors.New("sales order not found")
	// ErrInsufficientStock is returned when a sales line asks for more than is in stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrEmptyOrder is returned when a sales order has no lines.
	ErrEmptyOrder = errors.New("sales order has no lines")
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
