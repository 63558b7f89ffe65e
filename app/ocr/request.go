package ocr

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// StructuralRequest is the body accepted from the client and forwarded as is.
// Field names follow the vendor API.
type StructuralRequest struct {
	ImageUrl       string   `json:"ImageUrl,omitempty"`
	ImageBase64    string   `json:"ImageBase64,omitempty"`
	ItemNames      []string `json:"ItemNames,omitempty"`
	ReturnFullText bool     `json:"ReturnFullText,omitempty"`
	ConfigId       string   `json:"ConfigId,omitempty"`
	IsPdf          bool     `json:"IsPdf,omitempty"`
	PdfPageNumber  int      `json:"PdfPageNumber,omitempty"`
}

var (
	errInvalidBody  = errors.New("invalid JSON body")
	errMissingImage = errors.New("ImageUrl or ImageBase64 is required")
	errBodyTooLarge = errors.New("request body too large")
)

// MaxRequestBytes bounds an inbound OCR request. The vendor rejects images
// over 10 MB once base64 encoded; the rest is room for the other fields.
const MaxRequestBytes = 10<<20 + 64<<10

func decodeRequest(r io.Reader) (StructuralRequest, error) {
	var req StructuralRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errBodyTooLarge
		}
		return req, errInvalidBody
	}
	req.ImageUrl = strings.TrimSpace(req.ImageUrl)
	req.ImageBase64 = strings.TrimSpace(req.ImageBase64)
	if req.ImageUrl == "" && req.ImageBase64 == "" {
		return req, errMissingImage
	}

	names := req.ItemNames[:0]
	for _, n := range req.ItemNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	req.ItemNames = names
	return req, nil
}
