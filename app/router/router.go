// Package router maps the HTTP API onto the feature handlers.
package router

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopkeeper/retail-assistant/app/barcode"
	"github.com/shopkeeper/retail-assistant/app/catalog"
	"github.com/shopkeeper/retail-assistant/app/categories"
	"github.com/shopkeeper/retail-assistant/app/httpx"
	"github.com/shopkeeper/retail-assistant/app/ocr"
	"github.com/shopkeeper/retail-assistant/app/sales"
)

type Handlers struct {
	Categories *categories.CategoryHandler
	Catalog    *catalog.CatalogHandler
	Sales      *sales.SalesHandler
	Barcode    *barcode.BarcodeHandler
	OCR        *ocr.OCRHandler
}

// New registers every route and wraps the router in the shared middleware.
func New(h Handlers, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/categories", h.Categories.HandleGetAll).Methods(http.MethodGet)
	r.HandleFunc("/categories", h.Categories.HandleCreate).Methods(http.MethodPost)
	r.HandleFunc("/categories/{id}", h.Categories.HandleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/categories/{id}", h.Categories.HandleDelete).Methods(http.MethodDelete)

	r.HandleFunc("/goods", h.Catalog.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/goods", h.Catalog.HandleCreate).Methods(http.MethodPost)
	r.HandleFunc("/goods/barcode/{barcode}", h.Catalog.HandleGetByBarcode).Methods(http.MethodGet)
	r.HandleFunc("/goods/{id:[0-9]+}", h.Catalog.HandleGetGoods).Methods(http.MethodGet)
	r.HandleFunc("/goods/{id:[0-9]+}", h.Catalog.HandleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/goods/{id:[0-9]+}", h.Catalog.HandleDelete).Methods(http.MethodDelete)

	r.HandleFunc("/sales", h.Sales.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/sales", h.Sales.HandleCreate).Methods(http.MethodPost)
	r.HandleFunc("/sales/summary", h.Sales.HandleSummary).Methods(http.MethodGet)
	r.HandleFunc("/sales/{id:[0-9]+}", h.Sales.HandleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/sales/{id:[0-9]+}", h.Sales.HandleDelete).Methods(http.MethodDelete)

	r.HandleFunc("/barcode", h.Barcode.HandleLookup).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/ocr", h.OCR.HandleRecognize).Methods(http.MethodPost)
	r.HandleFunc("/ocr/items", h.OCR.HandleItems).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return httpx.WithRequestID(httpx.WithLogging(logger)(httpx.WithRecover(logger)(r)))
}
