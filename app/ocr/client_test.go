package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCallSignsAndRelays(t *testing.T) {
	const reply = `{"Response":{"RequestId":"r-1","StructuralList":[]}}`
	payload := []byte(`{"ImageUrl":"https://example.com/a.jpg"}`)
	ts := time.Unix(1760000000, 0)

	var got *http.Request
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ap-shanghai", testCred, srv.Client())
	client.now = func() time.Time { return ts }

	raw, err := client.Call(context.Background(), ActionStructural, payload)
	require.NoError(t, err)

	host := strings.TrimPrefix(srv.URL, "http://")
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/", got.URL.Path)
	assert.Equal(t, host, got.Host)
	assert.Equal(t, payload, gotBody)
	assert.Equal(t, "application/json; charset=utf-8", got.Header.Get("Content-Type"))
	assert.Equal(t, ActionStructural, got.Header.Get("X-TC-Action"))
	assert.Equal(t, "1760000000", got.Header.Get("X-TC-Timestamp"))
	assert.Equal(t, "2018-11-19", got.Header.Get("X-TC-Version"))
	assert.Equal(t, "ap-shanghai", got.Header.Get("X-TC-Region"))
	assert.Equal(t, Authorization(testCred, "ocr", host, ActionStructural, payload, ts), got.Header.Get("Authorization"))

	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Equal(t, "application/json", raw.ContentType)
	assert.Equal(t, reply, string(raw.Body))
}

func TestClientCallNotConfigured(t *testing.T) {
	client := NewClient("ocr.tencentcloudapi.com", "", Credential{SecretID: "only-id"}, nil)
	_, err := client.Call(context.Background(), ActionStructural, []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewClientEndpoint(t *testing.T) {
	c := NewClient("ocr.tencentcloudapi.com", "", testCred, nil)
	assert.Equal(t, "https://ocr.tencentcloudapi.com/", c.baseURL)
	assert.Equal(t, "ocr.tencentcloudapi.com", c.host)

	c = NewClient("http://localhost:9000/", "", testCred, nil)
	assert.Equal(t, "http://localhost:9000/", c.baseURL)
	assert.Equal(t, "localhost:9000", c.host)
}

func TestClientCallTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "", testCred, nil).Call(context.Background(), ActionStructural, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr upstream")
}
