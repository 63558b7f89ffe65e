package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopkeeper/retail-assistant/app/httpx"
)

type Caller interface {
	Call(ctx context.Context, action string, payload []byte) (*RawResponse, error)
}

// Envelope mirrors the barcode proxy's response shape.
type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

type ItemsData struct {
	RequestID string `json:"request_id,omitempty"`
	Items     []Item `json:"items"`
}

type OCRHandler struct {
	client  Caller
	logger  *slog.Logger
	maxBody int64
}

func NewOCRHandler(c Caller, logger *slog.Logger) *OCRHandler {
	return &OCRHandler{client: c, logger: logger, maxBody: MaxRequestBytes}
}

// HandleRecognize forwards the request and relays the vendor reply unmodified.
func (h *OCRHandler) HandleRecognize(w http.ResponseWriter, r *http.Request) {
	_, raw, ok := h.forward(w, r)
	if !ok {
		return
	}

	ct := raw.ContentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(raw.StatusCode)
	_, _ = w.Write(raw.Body)
}

// HandleItems forwards the request and answers with the extracted item list.
func (h *OCRHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	req, raw, ok := h.forward(w, r)
	if !ok {
		return
	}
	if raw.StatusCode < 200 || raw.StatusCode > 299 {
		h.logger.Warn("ocr upstream status", "status", raw.StatusCode)
		writeEnvelope(w, http.StatusInternalServerError, "ocr upstream returned status "+http.StatusText(raw.StatusCode), nil)
		return
	}

	nameKey, qtyKey := DefaultNameKey, DefaultQuantityKey
	if len(req.ItemNames) > 0 {
		nameKey = req.ItemNames[0]
	}
	if len(req.ItemNames) > 1 {
		qtyKey = req.ItemNames[1]
	}

	items, requestID, err := ExtractItems(raw.Body, nameKey, qtyKey)
	if err != nil {
		var vErr *VendorError
		if errors.As(err, &vErr) {
			h.logger.Warn("ocr vendor error", "code", vErr.Code, "vendor_request_id", vErr.RequestID)
			writeEnvelope(w, http.StatusInternalServerError, vErr.Message, nil)
			return
		}
		h.logger.Error("ocr response unreadable", "err", err)
		writeEnvelope(w, http.StatusInternalServerError, "unreadable ocr response", nil)
		return
	}

	writeEnvelope(w, http.StatusOK, "success", ItemsData{RequestID: requestID, Items: items})
}

func (h *OCRHandler) forward(w http.ResponseWriter, r *http.Request) (StructuralRequest, *RawResponse, bool) {
	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, err.Error(), nil)
		return req, nil, false
	}

	if len(req.ItemNames) == 0 {
		req.ItemNames = []string{DefaultNameKey, DefaultQuantityKey}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError, "encode request failed", nil)
		return req, nil, false
	}

	raw, err := h.client.Call(r.Context(), ActionStructural, payload)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			h.logger.Error("ocr not configured")
			writeEnvelope(w, http.StatusInternalServerError, err.Error(), nil)
			return req, nil, false
		}
		h.logger.Error("ocr upstream failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"err", err,
		)
		writeEnvelope(w, http.StatusInternalServerError, "ocr upstream failed", nil)
		return req, nil, false
	}

	return req, raw, true
}

func writeEnvelope(w http.ResponseWriter, status int, msg string, data any) {
	httpx.WriteJSON(w, status, Envelope{Code: status, Msg: msg, Data: data})
}
