package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unistore/backend/internal/domain/source"
)

func TestSystemHealthReportsPerSourceConnectivity(t *testing.T) {
	reader := &fakeBrowser{sources: []source.ID{source.Railway, source.PhoneWebsite}}
	engine := newEngine(NewSystemHandler(reader))

	w := perform(engine, http.MethodGet, "/api/v1/system/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := dataMap(t, resp)
	assert.Equal(t, "healthy", data["status"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["timestamp"])

	statuses, ok := data["sources"].([]any)
	require.True(t, ok)
	require.Len(t, statuses, 3)

	byID := make(map[string]bool, len(statuses))
	for _, raw := range statuses {
		entry := raw.(map[string]any)
		byID[entry["id"].(string)] = entry["connected"].(bool)
	}
	assert.True(t, byID["railway"])
	assert.False(t, byID["microservice"])
	assert.True(t, byID["phonewebsite"])
}

func TestSystemHealthWithNoSources(t *testing.T) {
	engine := newEngine(NewSystemHandler(&fakeBrowser{}))

	w := perform(engine, http.MethodGet, "/api/v1/system/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, "healthy", data["status"])
	for _, raw := range data["sources"].([]any) {
		entry := raw.(map[string]any)
		assert.False(t, entry["connected"].(bool))
	}
}
