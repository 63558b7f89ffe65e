package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	service = "ocr"
	version = "2018-11-19"

	// ActionStructural extracts key/value groups such as item names and quantities.
	ActionStructural = "SmartStructuralOCRV2"

	maxResponseBytes = 8 << 20
)

// ErrNotConfigured is returned when the vendor key pair is missing.
var ErrNotConfigured = errors.New("ocr service not configured")

type Client struct {
	baseURL string
	host    string
	region  string
	cred    Credential
	http    *http.Client
	now     func() time.Time
}

// NewClient targets endpoint, which is either a bare host (https is assumed)
// or a full URL.
func NewClient(endpoint, region string, cred Credential, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := endpoint
	if !strings.Contains(endpoint, "://") {
		baseURL = "https://" + endpoint
	}
	host := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/",
		host:    host,
		region:  region,
		cred:    cred,
		http:    httpClient,
		now:     time.Now,
	}
}

// RawResponse is the vendor reply, kept byte for byte.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Call signs payload and posts it as action. One attempt, no retries.
func (c *Client) Call(ctx context.Context, action string, payload []byte) (*RawResponse, error) {
	if !c.cred.Valid() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	ts := c.now()
	req.Host = c.host
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", Authorization(c.cred, service, c.host, action, payload, ts))
	req.Header.Set("X-TC-Action", action)
	req.Header.Set("X-TC-Timestamp", strconv.FormatInt(ts.Unix(), 10))
	req.Header.Set("X-TC-Version", version)
	if c.region != "" {
		req.Header.Set("X-TC-Region", c.region)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("ocr upstream: read body: %w", err)
	}

	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
