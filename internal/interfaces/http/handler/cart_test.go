package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cartapp "github.com/unistore/backend/internal/application/cart"
	"github.com/unistore/backend/internal/domain/cart"
	"github.com/unistore/backend/internal/domain/source"
	domstorefront "github.com/unistore/backend/internal/domain/storefront"
)

func cartFixture() (railway, ecom, phone *fakeStore, handlerUnderTest *CartHandler) {
	railway = &fakeStore{src: source.Railway}
	ecom = &fakeStore{src: source.Microservice}
	phone = &fakeStore{src: source.PhoneWebsite}
	reconciler := cartapp.NewReconciler(
		cart.New(),
		[]domstorefront.Gateway{railway, ecom, phone},
		"https://phones.example",
		zap.NewNop(),
	)
	return railway, ecom, phone, NewCartHandler(reconciler)
}

func addRequestBody() map[string]any {
	return map[string]any{
		"source":    "railway",
		"table":     "products",
		"row_index": 0,
		"row":       map[string]any{"id": 1, "name": "Ticket", "price": "25"},
	}
}

func TestCartAddItem(t *testing.T) {
	railway, _, _, h := cartFixture()
	engine := newEngine(h)

	w := perform(engine, http.MethodPost, "/api/v1/cart/items", addRequestBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Warnings)

	data := dataMap(t, resp)
	item := data["item"].(map[string]any)
	assert.Equal(t, "railway-products-1", item["key"])
	assert.Equal(t, float64(1), item["quantity"])

	cartData := data["cart"].(map[string]any)
	assert.Equal(t, float64(1), cartData["count"])
	assert.Equal(t, "25", cartData["total"])

	assert.Equal(t, []string{"add"}, railway.calls)
}

func TestCartAddItemForwardsCallerCredentials(t *testing.T) {
	railway, _, _, h := cartFixture()
	engine := newEngine(h)

	w := perform(engine, http.MethodPost, "/api/v1/cart/items", addRequestBody(), map[string]string{
		"Authorization": "Bearer caller-token",
		"Cookie":        "user=alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "Bearer caller-token", railway.lastCtx.Authorization)
	assert.Equal(t, "user=alice", railway.lastCtx.Cookie)
}

func TestCartAddItemInvalidJSON(t *testing.T) {
	_, _, _, h := cartFixture()
	engine := newEngine(h)

	w := perform(engine, http.MethodPost, "/api/v1/cart/items", map[string]any{"table": "products"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_INVALID_JSON", resp.Error.Code)
}

func TestCartAddItemUnknownSource(t *testing.T) {
	_, _, _, h := cartFixture()
	engine := newEngine(h)

	body := addRequestBody()
	body["source"] = "shopify"
	w := perform(engine, http.MethodPost, "/api/v1/cart/items", body, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_UNKNOWN_SOURCE", resp.Error.Code)
}

func TestCartAddItemNonNumericID(t *testing.T) {
	railway, _, _, h := cartFixture()
	engine := newEngine(h)

	body := addRequestBody()
	body["row"] = map[string]any{"id": "abc", "name": "Ticket"}
	w := perform(engine, http.MethodPost, "/api/v1/cart/items", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_INVALID_INPUT", resp.Error.Code)
	assert.Empty(t, railway.calls)
}

func TestCartAddItemSyncFailureDegradesToWarning(t *testing.T) {
	railway, _, _, h := cartFixture()
	railway.err = errors.New("boom")
	engine := newEngine(h)

	w := perform(engine, http.MethodPost, "/api/v1/cart/items", addRequestBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Warnings)
	assert.Contains(t, resp.Warnings[0], "railway")

	data := dataMap(t, resp)
	cartData := data["cart"].(map[string]any)
	assert.Equal(t, float64(1), cartData["count"])
}

func TestCartUpdateQuantityToZeroRemoves(t *testing.T) {
	railway, _, _, h := cartFixture()
	engine := newEngine(h)

	perform(engine, http.MethodPost, "/api/v1/cart/items", addRequestBody(), nil)

	w := perform(engine, http.MethodPatch, "/api/v1/cart/items/railway-products-1", map[string]any{"delta": -1}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	cartData := data["cart"].(map[string]any)
	assert.Equal(t, float64(0), cartData["count"])
	assert.Equal(t, []string{"add", "remove"}, railway.calls)
}

func TestCartUpdateQuantityUnknownKey(t *testing.T) {
	_, _, _, h := cartFixture()
	engine := newEngine(h)

	w := perform(engine, http.MethodPatch, "/api/v1/cart/items/railway-99", map[string]any{"delta": 1}, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_NOT_FOUND", resp.Error.Code)
}

func TestCartRemoveItem(t *testing.T) {
	railway, _, _, h := cartFixture()
	engine := newEngine(h)

	perform(engine, http.MethodPost, "/api/v1/cart/items", addRequestBody(), nil)

	w := perform(engine, http.MethodDelete, "/api/v1/cart/items/railway-products-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, float64(0), data["count"])
	assert.Equal(t, []string{"add", "remove"}, railway.calls)
}

func TestCartRefreshReplacesLocalState(t *testing.T) {
	railway, ecom, _, h := cartFixture()
	railway.cart = []domstorefront.RemoteCartItem{
		{EntryID: "3", ProductID: ptr(3), Name: "Ticket", Price: ptr(25), Quantity: 2},
	}
	ecom.err = errors.New("down")
	engine := newEngine(h)

	perform(engine, http.MethodPost, "/api/v1/cart/items", addRequestBody(), nil)

	w := perform(engine, http.MethodPost, "/api/v1/cart/refresh", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	require.NotEmpty(t, resp.Warnings)
	assert.Contains(t, resp.Warnings[0], "microservice")

	data := dataMap(t, resp)
	assert.Equal(t, float64(1), data["count"])

	items := data["items"].([]any)
	entry := items[0].(map[string]any)
	assert.Equal(t, "railway-3", entry["key"])
	assert.Equal(t, float64(2), entry["quantity"])
}

func TestCartGetEmpty(t *testing.T) {
	_, _, _, h := cartFixture()
	engine := newEngine(h)

	w := perform(engine, http.MethodGet, "/api/v1/cart", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, float64(0), data["count"])
	assert.Equal(t, "0", data["total"])
}
