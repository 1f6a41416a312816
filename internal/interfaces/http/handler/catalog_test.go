package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogapp "github.com/unistore/backend/internal/application/catalog"
	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/source"
	"github.com/unistore/backend/internal/infrastructure/cache"
	"github.com/unistore/backend/internal/infrastructure/persistence"
)

type fakeOrderFetcher struct {
	orders   []order.Order
	warnings []string
}

func (f *fakeOrderFetcher) ListMerged(context.Context) ([]order.Order, []string) {
	return f.orders, f.warnings
}

func newCatalogHandler(browser *fakeBrowser, orders *fakeOrderFetcher) *CatalogHandler {
	if orders == nil {
		orders = &fakeOrderFetcher{}
	}
	aggregator := catalogapp.NewAggregator(
		browser, orders, cache.NewInMemoryProductCache(),
		time.Minute, "https://phones.example", zap.NewNop(),
	)
	return NewCatalogHandler(browser, aggregator)
}

func TestCatalogListSources(t *testing.T) {
	browser := &fakeBrowser{sources: []source.ID{source.Railway, source.Microservice}}
	engine := newEngine(newCatalogHandler(browser, nil))

	w := perform(engine, http.MethodGet, "/api/v1/catalog/sources", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, []any{"railway", "microservice"}, data["sources"])
}

func TestCatalogListTables(t *testing.T) {
	browser := &fakeBrowser{
		sources: []source.ID{source.Railway},
		tables:  map[source.ID][]string{source.Railway: {"products", "users"}},
	}
	engine := newEngine(newCatalogHandler(browser, nil))

	w := perform(engine, http.MethodGet, "/api/v1/catalog/sources/railway/tables", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, "railway", data["source"])
	assert.Equal(t, []any{"products", "users"}, data["tables"])
}

func TestCatalogListTablesUnknownSource(t *testing.T) {
	engine := newEngine(newCatalogHandler(&fakeBrowser{}, nil))

	w := perform(engine, http.MethodGet, "/api/v1/catalog/sources/shopify/tables", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_UNKNOWN_SOURCE", resp.Error.Code)
}

func TestCatalogGetTable(t *testing.T) {
	browser := &fakeBrowser{
		sources: []source.ID{source.Railway},
		tables:  map[source.ID][]string{source.Railway: {"products"}},
		columns: []persistence.Column{{Name: "id", Type: "INT"}, {Name: "name", Type: "VARCHAR"}},
		rows: map[string][]catalog.Row{
			"products": {{"id": float64(1), "name": "Ticket"}},
		},
	}
	engine := newEngine(newCatalogHandler(browser, nil))

	w := perform(engine, http.MethodGet, "/api/v1/catalog/sources/railway/tables/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, "products", data["table"])
	assert.Equal(t, float64(1), data["row_count"])
	require.Len(t, data["columns"], 2)
	require.Len(t, data["rows"], 1)
}

func TestCatalogListProducts(t *testing.T) {
	browser := &fakeBrowser{
		sources: []source.ID{source.Railway, source.Microservice},
		tables: map[source.ID][]string{
			source.Railway:      {"products"},
			source.Microservice: {"items"},
		},
		rows: map[string][]catalog.Row{
			"products": {{"id": float64(1), "name": "Ticket", "price": "25"}},
			"items":    {{"id": float64(9), "name": "Mouse", "price": float64(12.5)}},
		},
	}
	engine := newEngine(newCatalogHandler(browser, nil))

	w := perform(engine, http.MethodGet, "/api/v1/catalog/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Warnings)

	data := dataMap(t, resp)
	assert.Equal(t, float64(2), data["count"])

	products := data["products"].([]any)
	first := products[0].(map[string]any)
	assert.Equal(t, "railway", first["source_id"])
	assert.Equal(t, "Ticket", first["name"])
	assert.Equal(t, float64(25), first["price"])
}

func TestCatalogBestSellingRejectsBadLimit(t *testing.T) {
	engine := newEngine(newCatalogHandler(&fakeBrowser{}, nil))

	w := perform(engine, http.MethodGet, "/api/v1/catalog/products/best-selling?limit=abc", nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_BAD_REQUEST", resp.Error.Code)
}

func TestCatalogBestSellingJoinsOrders(t *testing.T) {
	browser := &fakeBrowser{
		sources: []source.ID{source.Railway},
		tables:  map[source.ID][]string{source.Railway: {"products"}},
		rows: map[string][]catalog.Row{
			"products": {
				{"id": float64(1), "name": "Ticket", "price": "25"},
				{"id": float64(2), "name": "Pass", "price": "90"},
			},
		},
	}
	orders := &fakeOrderFetcher{orders: []order.Order{
		{
			Source: source.OrderSourceRailway,
			Items: []order.LineItem{
				{ProductID: ptr(1.0), Quantity: 3},
				{ProductID: ptr(2.0), Quantity: 1},
			},
		},
	}}
	engine := newEngine(newCatalogHandler(browser, orders))

	w := perform(engine, http.MethodGet, "/api/v1/catalog/products/best-selling?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, float64(1), data["count"])

	top := data["products"].([]any)[0].(map[string]any)
	assert.Equal(t, "Ticket", top["name"])
	assert.Equal(t, float64(3), top["totalSold"])
}

func TestCatalogProductsWarningsOnDegradedSource(t *testing.T) {
	browser := &fakeBrowser{
		sources: []source.ID{source.Railway},
		tables:  map[source.ID][]string{},
	}
	engine := newEngine(newCatalogHandler(browser, nil))

	w := perform(engine, http.MethodGet, "/api/v1/catalog/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Warnings)
	assert.Contains(t, resp.Warnings[0], "railway")
}

func ptr(v float64) *float64 { return &v }
