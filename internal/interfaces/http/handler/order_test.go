package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	orderapp "github.com/unistore/backend/internal/application/order"
	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/source"
	domstorefront "github.com/unistore/backend/internal/domain/storefront"
)

func orderFixture(interval, timeout time.Duration) (railway, ecom, phone *fakeStore, h *OrderHandler) {
	railway = &fakeStore{src: source.Railway}
	ecom = &fakeStore{src: source.Microservice}
	phone = &fakeStore{src: source.PhoneWebsite}
	svc := orderapp.NewService(
		[]domstorefront.Gateway{railway, ecom, phone},
		interval, timeout, zap.NewNop(),
	)
	return railway, ecom, phone, NewOrderHandler(svc)
}

func TestOrdersListMergesAllSources(t *testing.T) {
	railway, ecom, _, h := orderFixture(time.Second, time.Minute)
	railway.orders = []order.Order{{Source: source.OrderSourceRailway, ID: "1", Total: ptr(50)}}
	ecom.orders = []order.Order{{Source: source.OrderSourceEcom, ID: "7", Total: ptr(12)}}
	engine := newEngine(h)

	w := perform(engine, http.MethodGet, "/api/v1/orders", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Warnings)

	data := dataMap(t, resp)
	assert.Equal(t, float64(2), data["count"])
	assert.Equal(t, true, data["all_sources_ok"])
}

func TestOrdersListKeepsPartialResultOnFailure(t *testing.T) {
	railway, _, phone, h := orderFixture(time.Second, time.Minute)
	railway.orders = []order.Order{{Source: source.OrderSourceRailway, ID: "1"}}
	phone.err = errors.New("down")
	engine := newEngine(h)

	w := perform(engine, http.MethodGet, "/api/v1/orders", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Warnings)
	assert.Contains(t, resp.Warnings[0], "phonewebsite")

	data := dataMap(t, resp)
	assert.Equal(t, float64(1), data["count"])
	assert.Equal(t, false, data["all_sources_ok"])
}

func TestOrdersPollLifecycle(t *testing.T) {
	_, _, _, h := orderFixture(5*time.Millisecond, time.Second)
	engine := newEngine(h)

	w := perform(engine, http.MethodPost, "/api/v1/orders/poll", nil, nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	runID := data["run_id"].(string)
	assert.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		w := perform(engine, http.MethodGet, "/api/v1/orders/poll", nil, nil)
		snapshot := dataMap(t, decodeResponse(t, w))
		return snapshot["state"] == string(orderapp.PollStateComplete)
	}, time.Second, 10*time.Millisecond)

	w = perform(engine, http.MethodGet, "/api/v1/orders/poll", nil, nil)
	snapshot := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, runID, snapshot["run_id"])
	assert.Equal(t, true, snapshot["all_sources_ok"])
}

func TestOrdersPollCancelKeepsSnapshot(t *testing.T) {
	_, _, phone, h := orderFixture(5*time.Millisecond, time.Minute)
	phone.err = errors.New("down")
	engine := newEngine(h)

	perform(engine, http.MethodPost, "/api/v1/orders/poll", nil, nil)

	require.Eventually(t, func() bool {
		w := perform(engine, http.MethodGet, "/api/v1/orders/poll", nil, nil)
		return dataMap(t, decodeResponse(t, w))["state"] == string(orderapp.PollStatePolling)
	}, time.Second, 10*time.Millisecond)

	w := perform(engine, http.MethodDelete, "/api/v1/orders/poll", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		w := perform(engine, http.MethodGet, "/api/v1/orders/poll", nil, nil)
		return dataMap(t, decodeResponse(t, w))["state"] == string(orderapp.PollStateCancelled)
	}, time.Second, 10*time.Millisecond)
}

func TestOrdersPollIdleByDefault(t *testing.T) {
	_, _, _, h := orderFixture(time.Second, time.Minute)
	engine := newEngine(h)

	w := perform(engine, http.MethodGet, "/api/v1/orders/poll", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	snapshot := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, string(orderapp.PollStateIdle), snapshot["state"])
}
