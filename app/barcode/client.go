// Package barcode looks up product names for scanned barcodes through a
// cloud-market barcode API and serves them in the app's JSON envelope.
package barcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrNotConfigured is returned when no vendor credential is set.
	ErrNotConfigured = errors.New("barcode service not configured")
)

// UpstreamError carries a failure reported by, or while talking to, the vendor.
type UpstreamError struct {
	Status int
	Msg    string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("barcode upstream: status %d: %s", e.Status, e.Msg)
	}
	return "barcode upstream: " + e.Msg
}

// Product is the normalized lookup result.
type Product struct {
	GoodsName string `json:"goodsName"`
	Standard  string `json:"standard"`
	Barcode   string `json:"barcode"`
}

// vendorStatus accepts the status field both as a number and as a numeric string.
type vendorStatus int

func (s *vendorStatus) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("status %s: %w", b, err)
	}
	*s = vendorStatus(n)
	return nil
}

type vendorResponse struct {
	Status vendorStatus `json:"status"`
	Msg    string       `json:"msg"`
	Result *struct {
		Barcode string `json:"barcode"`
		Name    string `json:"name"`
		Type    string `json:"type"`
	} `json:"result"`
}

type Client struct {
	baseURL string
	appCode string
	http    *http.Client
}

func NewClient(baseURL, appCode string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, appCode: appCode, http: httpClient}
}

// Lookup asks the vendor for the product behind code. One attempt, no retries.
func (c *Client) Lookup(ctx context.Context, code string) (Product, error) {
	if c.appCode == "" {
		return Product{}, ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Product{}, fmt.Errorf("parse barcode api url: %w", err)
	}
	q := u.Query()
	q.Set("barcode", code)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Product{}, err
	}
	req.Header.Set("Authorization", "APPCODE "+c.appCode)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Product{}, &UpstreamError{Msg: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Product{}, &UpstreamError{Status: resp.StatusCode, Msg: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := resp.Header.Get("X-Ca-Error-Message")
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Product{}, &UpstreamError{Status: resp.StatusCode, Msg: msg}
	}

	var vr vendorResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return Product{}, &UpstreamError{Status: resp.StatusCode, Msg: "invalid response: " + err.Error()}
	}
	if vr.Status != 0 || vr.Result == nil {
		msg := vr.Msg
		if msg == "" {
			msg = "no result"
		}
		return Product{}, &UpstreamError{Msg: msg}
	}

	product := Product{
		GoodsName: vr.Result.Name,
		Standard:  vr.Result.Type,
		Barcode:   vr.Result.Barcode,
	}
	if product.Barcode == "" {
		product.Barcode = code
	}
	return product, nil
}
