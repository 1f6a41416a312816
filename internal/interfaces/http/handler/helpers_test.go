package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/shared"
	"github.com/unistore/backend/internal/domain/source"
	domstorefront "github.com/unistore/backend/internal/domain/storefront"
	"github.com/unistore/backend/internal/infrastructure/persistence"
	"github.com/unistore/backend/internal/infrastructure/storefront"
	"github.com/unistore/backend/internal/interfaces/http/dto"
)

// fakeBrowser stubs the catalog reader for handler tests. It doubles as
// the aggregator's row reader.
type fakeBrowser struct {
	sources []source.ID
	tables  map[source.ID][]string
	columns []persistence.Column
	rows    map[string][]catalog.Row
	err     error
}

func (f *fakeBrowser) Sources() []source.ID { return f.sources }

func (f *fakeBrowser) ListTables(_ context.Context, src source.ID) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tables[src], nil
}

func (f *fakeBrowser) DescribeTable(_ context.Context, _ source.ID, _ string) ([]persistence.Column, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.columns, nil
}

func (f *fakeBrowser) ReadRows(_ context.Context, _ source.ID, table string) ([]catalog.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[table], nil
}

func (f *fakeBrowser) ReadProducts(_ context.Context, src source.ID) (string, []catalog.Row, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	tables := f.tables[src]
	if len(tables) == 0 {
		return "", nil, shared.ErrNoProductTable
	}
	return tables[0], f.rows[tables[0]], nil
}

// fakeStore stubs one remote storefront and records the credentials each
// call arrived with.
type fakeStore struct {
	src     source.ID
	orders  []order.Order
	cart    []domstorefront.RemoteCartItem
	err     error
	calls   []string
	lastCtx storefront.Credentials
}

func (f *fakeStore) Source() source.ID { return f.src }

func (f *fakeStore) AddItem(ctx context.Context, _ domstorefront.ProductRef) error {
	f.calls = append(f.calls, "add")
	f.lastCtx = storefront.CredentialsFrom(ctx)
	return f.err
}

func (f *fakeStore) AdjustQuantity(ctx context.Context, _ domstorefront.ProductRef, delta, _ int) error {
	if delta < 0 {
		f.calls = append(f.calls, "decrease")
	} else {
		f.calls = append(f.calls, "increase")
	}
	f.lastCtx = storefront.CredentialsFrom(ctx)
	return f.err
}

func (f *fakeStore) RemoveItem(ctx context.Context, _ domstorefront.ProductRef) error {
	f.calls = append(f.calls, "remove")
	f.lastCtx = storefront.CredentialsFrom(ctx)
	return f.err
}

func (f *fakeStore) ListCart(ctx context.Context) ([]domstorefront.RemoteCartItem, error) {
	f.lastCtx = storefront.CredentialsFrom(ctx)
	return f.cart, f.err
}

func (f *fakeStore) ListOrders(ctx context.Context) ([]order.Order, error) {
	f.lastCtx = storefront.CredentialsFrom(ctx)
	return f.orders, f.err
}

type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func newEngine(handlers ...routeRegistrar) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return engine
}

func perform(engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "response data is not an object")
	return data
}
