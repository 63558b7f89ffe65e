package barcode

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleLookup(t *testing.T) {
	testCases := []struct {
		name               string
		request            func() *http.Request
		looker             *countingLooker
		expectedStatusCode int
		expectedMsg        string
		expectedName       string
	}{
		{
			name: "GET success",
			request: func() *http.Request {
				return httptest.NewRequest("GET", "/barcode?barcode=%206901%20", nil)
			},
			looker:             &countingLooker{},
			expectedStatusCode: http.StatusOK,
			expectedMsg:        "success",
			expectedName:       "item-6901",
		},
		{
			name: "POST JSON body",
			request: func() *http.Request {
				req := httptest.NewRequest("POST", "/barcode", strings.NewReader(`{"barcode":"42"}`))
				req.Header.Set("Content-Type", "application/json; charset=utf-8")
				return req
			},
			looker:             &countingLooker{},
			expectedStatusCode: http.StatusOK,
			expectedMsg:        "success",
			expectedName:       "item-42",
		},
		{
			name: "POST form body",
			request: func() *http.Request {
				req := httptest.NewRequest("POST", "/barcode", strings.NewReader(url.Values{"barcode": {"77"}}.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return req
			},
			looker:             &countingLooker{},
			expectedStatusCode: http.StatusOK,
			expectedMsg:        "success",
			expectedName:       "item-77",
		},
		{
			name: "Missing barcode",
			request: func() *http.Request {
				return httptest.NewRequest("GET", "/barcode?barcode=", nil)
			},
			looker:             &countingLooker{},
			expectedStatusCode: http.StatusBadRequest,
			expectedMsg:        "missing barcode",
		},
		{
			name: "Credentials missing",
			request: func() *http.Request {
				return httptest.NewRequest("GET", "/barcode?barcode=1", nil)
			},
			looker:             &countingLooker{err: ErrNotConfigured},
			expectedStatusCode: http.StatusInternalServerError,
			expectedMsg:        "barcode service not configured",
		},
		{
			name: "Upstream failure",
			request: func() *http.Request {
				return httptest.NewRequest("GET", "/barcode?barcode=1", nil)
			},
			looker:             &countingLooker{err: &UpstreamError{Msg: "quota exceeded"}},
			expectedStatusCode: http.StatusInternalServerError,
			expectedMsg:        "quota exceeded",
		},
		{
			name: "Unexpected failure",
			request: func() *http.Request {
				return httptest.NewRequest("GET", "/barcode?barcode=1", nil)
			},
			looker:             &countingLooker{err: errors.New("bad url")},
			expectedStatusCode: http.StatusInternalServerError,
			expectedMsg:        "barcode lookup failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewBarcodeHandler(tc.looker, discardLogger())
			rec := httptest.NewRecorder()

			handler.HandleLookup(rec, tc.request())

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			var env Envelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
			assert.Equal(t, tc.expectedStatusCode, env.Code)
			assert.Equal(t, tc.expectedMsg, env.Msg)
			if tc.expectedName != "" {
				require.NotNil(t, env.Data)
				assert.Equal(t, tc.expectedName, env.Data.GoodsName)
			} else {
				assert.Nil(t, env.Data)
			}
		})
	}
}
