package sales

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopkeeper/retail-assistant/app/events"
	"github.com/shopkeeper/retail-assistant/app/httpx"
	"github.com/shopkeeper/retail-assistant/models"
	"github.com/shopspring/decimal"
)

type Line struct {
	GoodsID    uint    `json:"goods_id"`
	CategoryID uint    `json:"category_id"`
	GoodsName  string  `json:"goods_name"`
	Quantity   int64   `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Amount     float64 `json:"amount"`
}

type Order struct {
	ID        uint      `json:"id"`
	OrderNo   string    `json:"order_no"`
	Total     float64   `json:"total"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Lines     []Line    `json:"lines"`
}

type Response struct {
	Total  int     `json:"total"`
	Orders []Order `json:"orders"`
}

type CategoryRevenue struct {
	CategoryID uint    `json:"category_id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity"`
	Revenue    float64 `json:"revenue"`
}

type SummaryResponse struct {
	OrderCount int64             `json:"order_count"`
	ItemCount  int64             `json:"item_count"`
	Revenue    float64           `json:"revenue"`
	Categories []CategoryRevenue `json:"categories"`
}

type SalesProvider interface {
	CreateSalesOrder(input models.SalesOrderInput) (*models.SalesOrder, error)
	GetSalesOrders(offset, limit int, filters models.SalesFilters) ([]models.SalesOrder, int64, error)
	GetSalesOrder(id uint) (*models.SalesOrder, error)
	DeleteSalesOrder(id uint) error
	GetSummary(filters models.SalesFilters) (*models.SalesSummary, error)
}

type SalesHandler struct {
	repo      SalesProvider
	publisher events.Publisher
	logger    *slog.Logger
}

func NewSalesHandler(r SalesProvider, p events.Publisher, logger *slog.Logger) *SalesHandler {
	if p == nil {
		p = events.NopPublisher{}
	}
	return &SalesHandler{repo: r, publisher: p, logger: logger}
}

type lineInput struct {
	GoodsID   uint             `json:"goods_id"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type orderInput struct {
	Note  string      `json:"note"`
	Lines []lineInput `json:"lines"`
}

func (h *SalesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input orderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(input.Lines) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "Order needs at least one line")
		return
	}

	lines := make([]models.SalesLineInput, len(input.Lines))
	for i, l := range input.Lines {
		if l.GoodsID == 0 {
			httpx.WriteError(w, http.StatusBadRequest, "Missing goods_id")
			return
		}
		if l.Quantity <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "Quantity must be positive")
			return
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			httpx.WriteError(w, http.StatusBadRequest, "Unit price must not be negative")
			return
		}
		lines[i] = models.SalesLineInput{GoodsID: l.GoodsID, Quantity: l.Quantity}
		if l.UnitPrice != nil {
			price := l.UnitPrice.Round(2)
			lines[i].UnitPrice = &price
		}
	}

	order, err := h.repo.CreateSalesOrder(models.SalesOrderInput{Note: input.Note, Lines: lines})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrGoodsNotFound):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrInsufficientStock):
			httpx.WriteError(w, http.StatusConflict, err.Error())
		case errors.Is(err, models.ErrEmptyOrder):
			httpx.WriteError(w, http.StatusBadRequest, "Order needs at least one line")
		default:
			h.logger.Error("create sales order failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Failed to create sales order")
		}
		return
	}

	h.publish(r, order)
	httpx.WriteJSON(w, http.StatusCreated, toOrder(*order))
}

// publish announces the order; failures are logged and never fail the sale.
func (h *SalesHandler) publish(r *http.Request, order *models.SalesOrder) {
	ev := events.SalesCreated{
		OrderNo:   order.OrderNo,
		Total:     order.Total.StringFixed(2),
		Lines:     make([]events.SalesLine, len(order.Lines)),
		CreatedAt: order.CreatedAt,
	}
	for i, l := range order.Lines {
		ev.Lines[i] = events.SalesLine{GoodsID: l.GoodsID, Quantity: l.Quantity}
	}
	if err := h.publisher.PublishSalesCreated(r.Context(), ev); err != nil {
		h.logger.Warn("publish sales event failed",
			"order_no", order.OrderNo,
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"err", err,
		)
	}
}

func (h *SalesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	offset, limit := httpx.ParsePage(r)
	filters, msg := parseRange(r)
	if msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	res, total, err := h.repo.GetSalesOrders(offset, limit, filters)
	if err != nil {
		h.logger.Error("list sales orders failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get sales orders")
		return
	}

	orders := make([]Order, len(res))
	for i, o := range res {
		orders[i] = toOrder(o)
	}
	httpx.WriteJSON(w, http.StatusOK, Response{Total: int(total), Orders: orders})
}

func (h *SalesHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "Sales order not found")
		return
	}

	order, err := h.repo.GetSalesOrder(id)
	if err != nil {
		if errors.Is(err, models.ErrSalesOrderNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Sales order not found")
			return
		}
		h.logger.Error("get sales order failed", "id", id, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to retrieve sales order")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toOrder(*order))
}

func (h *SalesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid sales order id")
		return
	}

	if err := h.repo.DeleteSalesOrder(id); err != nil {
		if errors.Is(err, models.ErrSalesOrderNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Sales order not found")
			return
		}
		h.logger.Error("delete sales order failed", "id", id, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to delete sales order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSummary serves the dashboard totals for a time range.
func (h *SalesHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	filters, msg := parseRange(r)
	if msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	summary, err := h.repo.GetSummary(filters)
	if err != nil {
		h.logger.Error("sales summary failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get sales summary")
		return
	}

	resp := SummaryResponse{
		OrderCount: summary.OrderCount,
		ItemCount:  summary.ItemCount,
		Revenue:    summary.Revenue.InexactFloat64(),
		Categories: make([]CategoryRevenue, len(summary.ByCategory)),
	}
	for i, c := range summary.ByCategory {
		resp.Categories[i] = CategoryRevenue{
			CategoryID: c.CategoryID,
			Code:       c.CategoryCode,
			Name:       c.CategoryName,
			Quantity:   c.Quantity,
			Revenue:    c.Revenue.InexactFloat64(),
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// parseRange reads from/to as RFC3339 timestamps or plain dates.
// A plain-date "to" covers that whole day.
func parseRange(r *http.Request) (models.SalesFilters, string) {
	var filters models.SalesFilters
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		t, _, err := parseTime(v)
		if err != nil {
			return filters, "Invalid from"
		}
		filters.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, dateOnly, err := parseTime(v)
		if err != nil {
			return filters, "Invalid to"
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		filters.To = &t
	}
	if filters.From != nil && filters.To != nil && !filters.From.Before(*filters.To) {
		return filters, "from must be before to"
	}
	return filters, ""
}

func parseTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	return t, true, err
}

func toOrder(o models.SalesOrder) Order {
	lines := make([]Line, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = Line{
			GoodsID:    l.GoodsID,
			CategoryID: l.CategoryID,
			GoodsName:  l.GoodsName,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.InexactFloat64(),
			Amount:     l.Amount.InexactFloat64(),
		}
	}
	return Order{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		Total:     o.Total.InexactFloat64(),
		Note:      o.Note,
		CreatedAt: o.CreatedAt,
		Lines:     lines,
	}
}
