package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unistore/backend/internal/domain/source"
)

func TestNormalizeResolvesAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		src  source.OrderSource
		want Order
	}{
		{
			name: "railway spelling",
			raw: map[string]any{
				"id":         5,
				"total":      "120.5",
				"status":     "PAID",
				"created_at": "2026-03-01T10:00:00Z",
			},
			src: source.OrderSourceRailway,
			want: Order{
				Source: source.OrderSourceRailway,
				ID:     "5",
				Status: "PAID",
			},
		},
		{
			name: "ecom spelling",
			raw: map[string]any{
				"orderCode":   "A-17",
				"totalAmount": 99,
				"orderStatus": "shipped",
			},
			src: source.OrderSourceEcom,
			want: Order{
				Source: source.OrderSourceEcom,
				ID:     "A-17",
				Status: "shipped",
			},
		},
		{
			name: "phonestore spelling",
			raw: map[string]any{
				"_id":        "x9",
				"grandTotal": "1500000",
				"state":      "pending",
			},
			src: source.OrderSourcePhoneStore,
			want: Order{
				Source: source.OrderSourcePhoneStore,
				ID:     "x9",
				Status: "pending",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, tt.src)
			assert.Equal(t, tt.want.Source, got.Source)
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.Status, got.Status)
			require.NotNil(t, got.Total)
		})
	}
}

func TestNormalizeDegradesMissingFields(t *testing.T) {
	got := Normalize(map[string]any{"id": 1, "total": "free"}, source.OrderSourceRailway)

	assert.Equal(t, "1", got.ID)
	assert.Nil(t, got.Total)
	assert.Empty(t, got.Status)
	assert.Nil(t, got.CreatedAt)
	assert.Zero(t, got.ItemCount)
	assert.Nil(t, got.Items)
}

func TestNormalizeKeepsRawPayload(t *testing.T) {
	raw := map[string]any{"id": 1, "carrier": "vnpost"}
	got := Normalize(raw, source.OrderSourceEcom)

	assert.Equal(t, raw, got.Raw)
}

func TestNormalizeItems(t *testing.T) {
	raw := map[string]any{
		"id": 7,
		"orderItems": []any{
			map[string]any{"productId": 3, "quantity": 2},
			map[string]any{"item_id": "9", "qty": "1"},
			map[string]any{"name": "no id, default qty"},
			"not an object",
		},
	}

	got := Normalize(raw, source.OrderSourceEcom)

	require.Len(t, got.Items, 3)
	require.NotNil(t, got.Items[0].ProductID)
	assert.Equal(t, 3.0, *got.Items[0].ProductID)
	assert.Equal(t, 2.0, got.Items[0].Quantity)
	require.NotNil(t, got.Items[1].ProductID)
	assert.Equal(t, 9.0, *got.Items[1].ProductID)
	assert.Equal(t, 1.0, got.Items[1].Quantity)
	assert.Nil(t, got.Items[2].ProductID)
	assert.Equal(t, 1.0, got.Items[2].Quantity)
	assert.Equal(t, 4, got.ItemCount)
}

func TestNormalizeItemsNonListPayload(t *testing.T) {
	got := Normalize(map[string]any{"id": 1, "items": "3 products"}, source.OrderSourceRailway)

	assert.Nil(t, got.Items)
	assert.Zero(t, got.ItemCount)
}

func TestParseTimestamp(t *testing.T) {
	rfc := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  *time.Time
	}{
		{"rfc3339", "2026-03-01T10:30:00Z", &rfc},
		{"no zone", "2026-03-01T10:30:00", &rfc},
		{"space separated", "2026-03-01 10:30:00", &rfc},
		{"date only", "2026-03-01", timePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))},
		{"unix seconds", float64(1_700_000_000), timePtr(time.Unix(1_700_000_000, 0))},
		{"unix millis", float64(1_700_000_000_000), timePtr(time.UnixMilli(1_700_000_000_000))},
		{"garbage", "last tuesday", nil},
		{"blank", "   ", nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.value)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(*tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestMergeSortsDescendingWithUndatedLast(t *testing.T) {
	older := timePtr(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := timePtr(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	railway := []Order{
		{Source: source.OrderSourceRailway, ID: "r-old", CreatedAt: older},
	}
	ecom := []Order{
		{Source: source.OrderSourceEcom, ID: "e-undated"},
		{Source: source.OrderSourceEcom, ID: "e-new", CreatedAt: newer},
	}

	merged := Merge(railway, ecom)

	require.Len(t, merged, 3)
	assert.Equal(t, "e-new", merged[0].ID)
	assert.Equal(t, "r-old", merged[1].ID)
	assert.Equal(t, "e-undated", merged[2].ID)
}

func TestMergeStableForEqualDates(t *testing.T) {
	ts := timePtr(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	merged := Merge(
		[]Order{{ID: "first", CreatedAt: ts}},
		[]Order{{ID: "second", CreatedAt: ts}},
	)

	require.Len(t, merged, 2)
	assert.Equal(t, "first", merged[0].ID)
	assert.Equal(t, "second", merged[1].ID)
}

func TestMergeEmptyBatches(t *testing.T) {
	assert.Empty(t, Merge(nil, []Order{}))
	assert.Empty(t, Merge())
}

func timePtr(ts time.Time) *time.Time { return &ts }
