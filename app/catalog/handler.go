package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopkeeper/retail-assistant/app/httpx"
	"github.com/shopkeeper/retail-assistant/models"
	"github.com/shopspring/decimal"
)

type Response struct {
	Total int     `json:"total"`
	Goods []Goods `json:"goods"`
}

type Category struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Goods struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Barcode  string   `json:"barcode,omitempty"`
	Standard string   `json:"standard,omitempty"`
	Price    float64  `json:"price"`
	Stock    int64    `json:"stock"`
	Category Category `json:"category"`
}

type GoodsProvider interface {
	GetFilteredGoods(offset, limit int, filters models.GoodsFilters) ([]models.Goods, int64, error)
	GetByID(id uint) (*models.Goods, error)
	GetByBarcode(barcode string) (*models.Goods, error)
	CreateGoods(goods *models.Goods) error
	UpdateGoods(goods *models.Goods) error
	DeleteGoods(id uint) error
}

type CatalogHandler struct {
	repo   GoodsProvider
	logger *slog.Logger
}

func NewCatalogHandler(r GoodsProvider, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo:   r,
		logger: logger,
	}
}

type goodsInput struct {
	Name       string          `json:"name"`
	Barcode    string          `json:"barcode"`
	Standard   string          `json:"standard"`
	Price      decimal.Decimal `json:"price"`
	Stock      int64           `json:"stock"`
	CategoryID uint            `json:"category_id"`
}

func (in goodsInput) validate() string {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return "Missing name"
	case in.CategoryID == 0:
		return "Missing category_id"
	case in.Price.IsNegative():
		return "Price must not be negative"
	case in.Stock < 0:
		return "Stock must not be negative"
	}
	return ""
}

func (in goodsInput) toModel(id uint) *models.Goods {
	return &models.Goods{
		ID:         id,
		Name:       strings.TrimSpace(in.Name),
		Barcode:    strings.TrimSpace(in.Barcode),
		Standard:   strings.TrimSpace(in.Standard),
		Price:      in.Price.Round(2),
		Stock:      in.Stock,
		CategoryID: in.CategoryID,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	offset, limit := httpx.ParsePage(r)

	// Parse filters
	q := r.URL.Query()
	filters := models.GoodsFilters{
		CategoryCode: q.Get("category"),
		NameQuery:    q.Get("q"),
	}
	if priceStr := q.Get("price_lt"); priceStr != "" {
		if val, err := strconv.ParseFloat(priceStr, 64); err == nil {
			filters.PriceLessThan = &val
		}
	}
	if lowStr := q.Get("low_stock"); lowStr != "" {
		if val, err := strconv.ParseInt(lowStr, 10, 64); err == nil && val >= 0 {
			filters.LowStock = &val
		}
	}

	res, total, err := h.repo.GetFilteredGoods(offset, limit, filters)
	if err != nil {
		h.logger.Error("list goods failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get goods")
		return
	}

	goods := make([]Goods, len(res))
	for i, g := range res {
		goods[i] = toResponse(g)
	}

	httpx.WriteJSON(w, http.StatusOK, Response{
		Total: int(total),
		Goods: goods,
	})
}

func (h *CatalogHandler) HandleGetGoods(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "Goods not found")
		return
	}

	goods, err := h.repo.GetByID(id)
	h.writeGoods(w, goods, err)
}

// HandleGetByBarcode finds goods already in stock for a scanned code.
func (h *CatalogHandler) HandleGetByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(mux.Vars(r)["barcode"])
	if barcode == "" {
		httpx.WriteError(w, http.StatusNotFound, "Goods not found")
		return
	}

	goods, err := h.repo.GetByBarcode(barcode)
	h.writeGoods(w, goods, err)
}

func (h *CatalogHandler) writeGoods(w http.ResponseWriter, goods *models.Goods, err error) {
	if err != nil {
		if errors.Is(err, models.ErrGoodsNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Goods not found")
			return
		}
		h.logger.Error("get goods failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to retrieve goods")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(*goods))
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input goodsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := input.validate(); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	goods := input.toModel(0)
	if err := h.repo.CreateGoods(goods); err != nil {
		h.writeSaveError(w, err, "Failed to create goods")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toResponse(*goods))
}

func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid goods id")
		return
	}

	var input goodsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := input.validate(); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	goods := input.toModel(id)
	if err := h.repo.UpdateGoods(goods); err != nil {
		h.writeSaveError(w, err, "Failed to update goods")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toResponse(*goods))
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid goods id")
		return
	}

	if err := h.repo.DeleteGoods(id); err != nil {
		if errors.Is(err, models.ErrGoodsNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Goods not found")
			return
		}
		h.logger.Error("delete goods failed", "id", id, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to delete goods")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) writeSaveError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrGoodsNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Goods not found")
	case errors.Is(err, models.ErrCategoryNotFound):
		httpx.WriteError(w, http.StatusBadRequest, "Unknown category")
	case errors.Is(err, models.ErrDuplicateBarcode):
		httpx.WriteError(w, http.StatusConflict, "Barcode already registered")
	default:
		h.logger.Error("save goods failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, fallback)
	}
}

func toResponse(g models.Goods) Goods {
	return Goods{
		ID:       g.ID,
		Name:     g.Name,
		Barcode:  g.Barcode,
		Standard: g.Standard,
		Price:    g.Price.InexactFloat64(),
		Stock:    g.Stock,
		Category: Category{
			ID:   g.Category.ID,
			Code: g.Category.Code,
			Name: g.Category.Name,
		},
	}
}
