package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/orderbook-engine/internal/adapter/in_memory"
	"github.com/olyamironova/orderbook-engine/internal/api/dto"
	"github.com/olyamironova/orderbook-engine/internal/core"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	eng := core.NewEngine(nil, in_memory.NewMemoryRepo(), in_memory.NewCache(), "BTC-USD")
	return NewHTTPServer(eng, nil, 2, 0, 100*time.Millisecond).Router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, clientID string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", clientID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func submitBody(id uint64, side, kind, price, qty string) map[string]any {
	body := map[string]any{
		"order_id": id,
		"side":     side,
		"kind":     kind,
		"quantity": qty,
	}
	if price != "" {
		body["price"] = price
	}
	return body
}

func TestSubmitAndDepth(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "SELL", "GTC", "100.50", "10"), "c1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/orders", submitBody(2, "BUY", "GTC", "100.50", "4"), "c2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sub dto.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	require.Len(t, sub.Trades, 1)
	assert.Equal(t, "100.5", sub.Trades[0].Ask.Price.String())
	assert.Equal(t, "4", sub.Trades[0].Ask.Quantity.String())

	w = doJSON(t, r, http.MethodGet, "/orderbook", nil, "c3")
	require.Equal(t, http.StatusOK, w.Code)

	var depth dto.DepthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &depth))
	assert.Equal(t, "BTC-USD", depth.Symbol)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, "100.5", depth.Asks[0].Price.String())
	assert.Equal(t, "6", depth.Asks[0].Quantity.String())
	assert.Empty(t, depth.Bids)
}

func TestSubmitMarketOrderWithoutPrice(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "SELL", "GTC", "99.00", "5"), "c1")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/orders", submitBody(2, "BUY", "MARKET", "", "5"), "c2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sub dto.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	require.Len(t, sub.Trades, 1)
	assert.Equal(t, "99", sub.Trades[0].Ask.Price.String())
}

func TestSubmitRejectsOffTickPrice(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "BUY", "GTC", "100.505", "10"), "c1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitRejectsBadSideAndKind(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "HOLD", "GTC", "100", "10"), "c1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "BUY", "IOC", "100", "10"), "c2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitRejectsFractionalQuantity(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "BUY", "GTC", "100", "1.5"), "c1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "BUY", "GTC", "100", "10"), "c1")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/orders/cancel", map[string]any{"order_id": 1}, "c2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CancelOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Cancelled)

	w = doJSON(t, r, http.MethodGet, "/orderbook/size", nil, "c3")
	require.Equal(t, http.StatusOK, w.Code)
	var size dto.SizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &size))
	assert.Equal(t, 0, size.Size)
}

func TestModifyEndpoint(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "BUY", "GTC", "100", "10"), "c1")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/orders/modify", map[string]any{
		"order_id": 1,
		"side":     "BUY",
		"price":    "99.50",
		"quantity": "7",
	}, "c2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/orderbook", nil, "c3")
	var depth dto.DepthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &depth))
	require.Len(t, depth.Bids, 1)
	assert.Equal(t, "99.5", depth.Bids[0].Price.String())
	assert.Equal(t, "7", depth.Bids[0].Quantity.String())
}

func TestSnapshotEndpoint(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/orderbook/snapshot", nil, "c1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SnapshotID)
}

func TestRateLimiterThrottlesClient(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/orderbook/size", nil, "burst")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/orderbook/size", nil, "burst")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different client is unaffected.
	w = doJSON(t, r, http.MethodGet, "/orderbook/size", nil, "other")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRejectedOrderMessage(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/orders", submitBody(1, "BUY", "MARKET", "", "5"), "c1")
	require.Equal(t, http.StatusOK, w.Code)

	var sub dto.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Equal(t, "order rejected", sub.Message)
}
