package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockFixture() map[uint]*Goods {
	return map[uint]*Goods{
		1: {ID: 1, Name: "Cola", Price: decimal.RequireFromString("3.50"), Stock: 10, CategoryID: 7},
		2: {ID: 2, Name: "Chips", Price: decimal.RequireFromString("5.00"), Stock: 2, CategoryID: 8},
	}
}

func TestPriceLines(t *testing.T) {
	override := decimal.RequireFromString("3.00")

	testCases := []struct {
		name      string
		inputs    []SalesLineInput
		wantTotal string
		wantStock map[uint]int64
		wantErr   error
	}{
		{
			name: "Uses current price",
			inputs: []SalesLineInput{
				{GoodsID: 1, Quantity: 2},
				{GoodsID: 2, Quantity: 1},
			},
			wantTotal: "12",
			wantStock: map[uint]int64{1: 8, 2: 1},
		},
		{
			name:      "Unit price override",
			inputs:    []SalesLineInput{{GoodsID: 1, Quantity: 3, UnitPrice: &override}},
			wantTotal: "9",
			wantStock: map[uint]int64{1: 7, 2: 2},
		},
		{
			name: "Repeated goods share stock",
			inputs: []SalesLineInput{
				{GoodsID: 2, Quantity: 2},
				{GoodsID: 2, Quantity: 1},
			},
			wantErr: ErrInsufficientStock,
		},
		{
			name:    "Unknown goods",
			inputs:  []SalesLineInput{{GoodsID: 99, Quantity: 1}},
			wantErr: ErrGoodsNotFound,
		},
		{
			name:    "Insufficient stock",
			inputs:  []SalesLineInput{{GoodsID: 2, Quantity: 3}},
			wantErr: ErrInsufficientStock,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stock := stockFixture()
			lines, total, err := priceLines(tc.inputs, stock)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, lines, len(tc.inputs))
			assert.True(t, decimal.RequireFromString(tc.wantTotal).Equal(total), "total %s", total)
			for id, want := range tc.wantStock {
				assert.Equal(t, want, stock[id].Stock, "stock of goods %d", id)
			}
		})
	}
}

func TestPriceLinesCopiesGoodsDetails(t *testing.T) {
	lines, _, err := priceLines([]SalesLineInput{{GoodsID: 1, Quantity: 4}}, stockFixture())
	require.NoError(t, err)

	line := lines[0]
	assert.Equal(t, uint(1), line.GoodsID)
	assert.Equal(t, uint(7), line.CategoryID)
	assert.Equal(t, "Cola", line.GoodsName)
	assert.True(t, decimal.RequireFromString("3.50").Equal(line.UnitPrice))
	assert.True(t, decimal.RequireFromString("14").Equal(line.Amount))
}

func TestPriceLinesRejectsNonPositiveQuantity(t *testing.T) {
	_, _, err := priceLines([]SalesLineInput{{GoodsID: 1, Quantity: 0}}, stockFixture())
	assert.ErrorContains(t, err, "quantity must be positive")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "cola", escapeLike("cola"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestSortedUnique(t *testing.T) {
	ids := []uint{9, 3, 9, 1, 3}
	assert.Equal(t, []uint{1, 3, 9}, sortedUnique(ids))
	assert.Equal(t, []uint{9, 3, 9, 1, 3}, ids, "input must not be reordered")
	assert.Empty(t, sortedUnique(nil))
}

func TestGoodsWriteError(t *testing.T) {
	assert.ErrorIs(t, goodsWriteError(&pq.Error{Code: "23505", Constraint: "uniq_goods_barcode"}), ErrDuplicateBarcode)

	other := errors.New("connection reset")
	assert.Equal(t, other, goodsWriteError(other))
}
