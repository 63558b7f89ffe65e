package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopkeeper/retail-assistant/app/barcode"
	"github.com/shopkeeper/retail-assistant/app/catalog"
	"github.com/shopkeeper/retail-assistant/app/categories"
	"github.com/shopkeeper/retail-assistant/app/httpx"
	"github.com/shopkeeper/retail-assistant/app/ocr"
	"github.com/shopkeeper/retail-assistant/app/sales"
	"github.com/shopkeeper/retail-assistant/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore satisfies every provider with canned data.
type stubStore struct {
	deletedCategory uint
}

func (s *stubStore) GetAllCategories() ([]models.Category, error) {
	return []models.Category{{ID: 1, Code: "drinks", Name: "Drinks"}}, nil
}
func (s *stubStore) CreateCategory(*models.Category) error { return nil }
func (s *stubStore) UpdateCategory(*models.Category) error { return nil }
func (s *stubStore) DeleteCategory(id uint) error {
	s.deletedCategory = id
	return nil
}

func (s *stubStore) GetFilteredGoods(int, int, models.GoodsFilters) ([]models.Goods, int64, error) {
	return nil, 0, nil
}
func (s *stubStore) GetByID(id uint) (*models.Goods, error) {
	return &models.Goods{ID: id, Name: "Cola"}, nil
}
func (s *stubStore) GetByBarcode(code string) (*models.Goods, error) {
	return &models.Goods{ID: 2, Barcode: code}, nil
}
func (s *stubStore) CreateGoods(*models.Goods) error { return nil }
func (s *stubStore) UpdateGoods(*models.Goods) error { return nil }
func (s *stubStore) DeleteGoods(uint) error          { return nil }

func (s *stubStore) CreateSalesOrder(models.SalesOrderInput) (*models.SalesOrder, error) {
	return &models.SalesOrder{ID: 1}, nil
}
func (s *stubStore) GetSalesOrders(int, int, models.SalesFilters) ([]models.SalesOrder, int64, error) {
	return nil, 0, nil
}
func (s *stubStore) GetSalesOrder(id uint) (*models.SalesOrder, error) {
	return &models.SalesOrder{ID: id, OrderNo: "x"}, nil
}
func (s *stubStore) DeleteSalesOrder(uint) error { return nil }
func (s *stubStore) GetSummary(models.SalesFilters) (*models.SalesSummary, error) {
	return &models.SalesSummary{OrderCount: 4}, nil
}

type stubLooker struct{}

func (stubLooker) Lookup(_ context.Context, code string) (barcode.Product, error) {
	return barcode.Product{GoodsName: "Cola", Barcode: code}, nil
}

type stubCaller struct{}

func (stubCaller) Call(context.Context, string, []byte) (*ocr.RawResponse, error) {
	return &ocr.RawResponse{StatusCode: http.StatusOK, Body: []byte(`{"Response":{}}`)}, nil
}

func newTestRouter(store *stubStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Handlers{
		Categories: categories.NewCategoryHandler(store, logger),
		Catalog:    catalog.NewCatalogHandler(store, logger),
		Sales:      sales.NewSalesHandler(store, nil, logger),
		Barcode:    barcode.NewBarcodeHandler(stubLooker{}, logger),
		OCR:        ocr.NewOCRHandler(stubCaller{}, logger),
	}, logger)
}

func TestRoutes(t *testing.T) {
	store := &stubStore{}
	h := newTestRouter(store)

	testCases := []struct {
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"GET", "/healthz", "", http.StatusOK, `"status":"ok"`},
		{"GET", "/categories", "", http.StatusOK, `"code":"drinks"`},
		{"DELETE", "/categories/3", "", http.StatusNoContent, ""},
		{"GET", "/goods/5", "", http.StatusOK, `"id":5`},
		{"GET", "/goods/barcode/690123", "", http.StatusOK, `"barcode":"690123"`},
		{"GET", "/goods/abc", "", http.StatusNotFound, `"error":"not found"`},
		{"GET", "/sales/summary", "", http.StatusOK, `"order_count":4`},
		{"GET", "/sales/9", "", http.StatusOK, `"id":9`},
		{"GET", "/barcode?barcode=690123", "", http.StatusOK, `"goodsName":"Cola"`},
		{"POST", "/ocr", `{"ImageUrl":"https://example.com/a.jpg"}`, http.StatusOK, `{"Response":{}}`},
		{"POST", "/ocr/items", `{"ImageUrl":"https://example.com/a.jpg"}`, http.StatusOK, `"items":[]`},
		{"PATCH", "/goods", "", http.StatusMethodNotAllowed, `"error":"method not allowed"`},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, body))

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(httpx.RequestIDHeader))
			if tc.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tc.wantBody)
			}
		})
	}

	assert.Equal(t, uint(3), store.deletedCategory)
}

func TestHealthzBody(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&stubStore{}).ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}
