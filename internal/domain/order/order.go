// Package order normalizes upstream order payloads into one read-only
// shape. Each upstream spells the same logical fields differently, so
// normalization leans on the same tolerant alias resolution the catalog
// uses. Orders are snapshots; they are never mutated locally.
package order

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/source"
)

// Field alias tables per logical order field.
var (
	idAliases        = []string{"id", "orderid", "order_id", "_id", "ordercode", "order_code"}
	totalAliases     = []string{"total", "totalamount", "total_amount", "totalprice", "total_price", "grandtotal", "amount"}
	statusAliases    = []string{"status", "orderstatus", "order_status", "state"}
	createdAtAliases = []string{"createdat", "created_at", "orderdate", "order_date", "date", "created", "createdate"}
	itemsAliases     = []string{"items", "orderitems", "order_items", "products", "lineitems", "line_items", "details", "cartitems"}

	lineProductAliases  = []string{"productid", "product_id", "id", "itemid", "item_id"}
	lineQuantityAliases = []string{"quantity", "qty", "productqty", "product_qty", "count"}
)

// Order is the canonical normalized order.
type Order struct {
	Source    source.OrderSource `json:"source_id"`
	ID        string             `json:"id"`
	Total     *float64           `json:"total"`
	Status    string             `json:"status"`
	CreatedAt *time.Time         `json:"created_at"`
	ItemCount int                `json:"item_count"`
	Items     []LineItem         `json:"items,omitempty"`
	Raw       map[string]any     `json:"raw,omitempty"`
}

// LineItem is one normalized order line, carrying just enough to join
// against the catalog by (source, product id).
type LineItem struct {
	ProductID *float64 `json:"product_id"`
	Quantity  float64  `json:"quantity"`
}

// Normalize converts one raw upstream order object into the canonical
// shape. Unresolvable fields degrade: missing total becomes nil, missing
// status becomes "", unparseable dates become nil (sorting last).
func Normalize(raw map[string]any, src source.OrderSource) Order {
	row := catalog.Row(raw)

	id := ""
	if value, ok := catalog.ResolveField(row, idAliases); ok {
		id = strings.TrimSpace(fmt.Sprintf("%v", value))
	}

	var total *float64
	if value, ok := catalog.ResolveField(row, totalAliases); ok {
		total = catalog.NormalizePrice(value)
	}

	status := ""
	if value, ok := catalog.ResolveField(row, statusAliases); ok {
		status = strings.TrimSpace(fmt.Sprintf("%v", value))
	}

	var createdAt *time.Time
	if value, ok := catalog.ResolveField(row, createdAtAliases); ok {
		createdAt = parseTimestamp(value)
	}

	items := normalizeItems(row)
	count := 0
	for _, item := range items {
		count += int(item.Quantity)
	}

	return Order{
		Source:    src,
		ID:        id,
		Total:     total,
		Status:    status,
		CreatedAt: createdAt,
		ItemCount: count,
		Items:     items,
		Raw:       raw,
	}
}

func normalizeItems(row catalog.Row) []LineItem {
	value, ok := catalog.ResolveField(row, itemsAliases)
	if !ok {
		return nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	items := make([]LineItem, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		line := catalog.Row(obj)
		item := LineItem{Quantity: 1}
		if raw, ok := catalog.ResolveField(line, lineProductAliases); ok {
			item.ProductID = catalog.NormalizePrice(raw)
		}
		if raw, ok := catalog.ResolveField(line, lineQuantityAliases); ok {
			if qty := catalog.NormalizePrice(raw); qty != nil {
				item.Quantity = *qty
			}
		}
		items = append(items, item)
	}
	return items
}

// timestampLayouts covers the date spellings observed across upstreams.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value any) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return &ts
			}
		}
		return nil
	default:
		// Unix seconds or milliseconds as a JSON number.
		if n := catalog.NormalizePrice(value); n != nil && *n > 0 {
			seconds := int64(*n)
			// Millisecond epochs are 13 digits.
			if *n > 1e12 {
				ts := time.UnixMilli(seconds)
				return &ts
			}
			ts := time.Unix(seconds, 0)
			return &ts
		}
		return nil
	}
}

// Merge flattens the per-source batches and sorts descending by
// CreatedAt. Orders without a parseable date are treated as epoch zero
// and therefore sort after every dated order.
func Merge(batches ...[]Order) []Order {
	merged := make([]Order, 0)
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return sortTime(merged[i]).After(sortTime(merged[j]))
	})
	return merged
}

func sortTime(o Order) time.Time {
	if o.CreatedAt == nil {
		return time.Unix(0, 0)
	}
	return *o.CreatedAt
}
