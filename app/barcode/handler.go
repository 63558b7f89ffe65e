package barcode

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopkeeper/retail-assistant/app/httpx"
)

// Envelope is the response shape shared with the mobile client.
type Envelope struct {
	Code int      `json:"code"`
	Msg  string   `json:"msg"`
	Data *Product `json:"data"`
}

type BarcodeHandler struct {
	lookup Looker
	logger *slog.Logger
}

func NewBarcodeHandler(l Looker, logger *slog.Logger) *BarcodeHandler {
	return &BarcodeHandler{lookup: l, logger: logger}
}

// HandleLookup serves GET ?barcode= and POST with a form or JSON body.
func (h *BarcodeHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(barcodeParam(r))
	if code == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, Envelope{Code: http.StatusBadRequest, Msg: "missing barcode"})
		return
	}

	product, err := h.lookup.Lookup(r.Context(), code)
	if err != nil {
		var upErr *UpstreamError
		switch {
		case errors.Is(err, ErrNotConfigured):
			h.logger.Error("barcode lookup not configured")
			httpx.WriteJSON(w, http.StatusInternalServerError, Envelope{Code: http.StatusInternalServerError, Msg: err.Error()})
		case errors.As(err, &upErr):
			h.logger.Warn("barcode upstream failed", "barcode", code, "status", upErr.Status, "msg", upErr.Msg)
			httpx.WriteJSON(w, http.StatusInternalServerError, Envelope{Code: http.StatusInternalServerError, Msg: upErr.Msg})
		default:
			h.logger.Error("barcode lookup failed", "barcode", code, "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, Envelope{Code: http.StatusInternalServerError, Msg: "barcode lookup failed"})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, Envelope{Code: http.StatusOK, Msg: "success", Data: &product})
}

func barcodeParam(r *http.Request) string {
	if v := r.URL.Query().Get("barcode"); v != "" {
		return v
	}
	if r.Method != http.MethodPost || r.Body == nil {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		var body struct {
			Barcode string `json:"barcode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return ""
		}
		return body.Barcode
	}
	return r.PostFormValue("barcode")
}
