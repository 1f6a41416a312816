// Package cart holds the optimistic local cart state. The local cart is
// the client's view; each source keeps its own authoritative remote cart
// keyed by its own identity scheme, synchronized best-effort after every
// local transition.
package cart

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/source"
)

// Action names the remote mutation implied by a local cart transition.
type Action string

const (
	ActionAdd      Action = "add"
	ActionIncrease Action = "increase"
	ActionDecrease Action = "decrease"
	ActionRemove   Action = "remove"
)

// Item is one canonical cart line. Key is unique per displayed row
// (source + table + id composite); ID is the numeric product id the
// remote cart protocols require.
type Item struct {
	Key      string             `json:"key"`
	ID       float64            `json:"id"`
	Name     string             `json:"name"`
	Price    *float64           `json:"price"`
	Quantity int                `json:"quantity"`
	Source   source.ID          `json:"source_id"`
	Table    string             `json:"source_table"`
	Image    string             `json:"image"`
	Phone    *catalog.PhoneItem `json:"phone_store_product,omitempty"`
	Raw      catalog.Row        `json:"-"`
}

// ItemFromProduct builds a quantity-1 cart line from a canonical product.
// The product must carry a numeric id; callers reject rows without one
// before any mutation happens.
func ItemFromProduct(p catalog.Product) (Item, bool) {
	if p.NumericID == nil {
		return Item{}, false
	}
	return Item{
		Key:      p.Key,
		ID:       *p.NumericID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: 1,
		Source:   p.Source,
		Table:    p.Table,
		Image:    p.Image,
		Phone:    p.Phone,
		Raw:      p.Raw,
	}, true
}

// Cart is the mutable local cart. Mutations are optimistic: they apply
// immediately and remote sync happens afterwards. Guarded by a mutex
// because the gateway serves concurrent HTTP requests.
type Cart struct {
	mu    sync.Mutex
	items map[string]*Item
	order []string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{items: make(map[string]*Item)}
}

// Add inserts the item or, when its key already exists, increments the
// existing quantity by one. Returns the line after the transition.
func (c *Cart) Add(item Item) Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[item.Key]; ok {
		existing.Quantity++
		return *existing
	}
	line := item
	line.Quantity = 1
	c.items[item.Key] = &line
	c.order = append(c.order, item.Key)
	return line
}

// ApplyDelta adjusts the quantity of the line with the given key,
// flooring at zero and removing the line when it reaches zero. The
// returned item reflects the state after the transition (Quantity 0 means
// removed). ok is false when no such line exists.
func (c *Cart) ApplyDelta(key string, delta int) (item Item, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, exists := c.items[key]
	if !exists {
		return Item{}, false
	}
	next := line.Quantity + delta
	if next < 0 {
		next = 0
	}
	line.Quantity = next
	item = *line
	if next == 0 {
		c.remove(key)
	}
	return item, true
}

// Remove drops the line with the given key regardless of quantity.
func (c *Cart) Remove(key string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, exists := c.items[key]
	if !exists {
		return Item{}, false
	}
	item := *line
	item.Quantity = 0
	c.remove(key)
	return item, true
}

func (c *Cart) remove(key string) {
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Replace atomically swaps the whole local state for the merged remote
// view. Used by the full resync path only.
func (c *Cart) Replace(items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*Item, len(items))
	c.order = c.order[:0]
	for i := range items {
		line := items[i]
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		if _, dup := c.items[line.Key]; dup {
			continue
		}
		c.items[line.Key] = &line
		c.order = append(c.order, line.Key)
	}
}

// Items returns a snapshot of the cart in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Item, 0, len(c.order))
	for _, key := range c.order {
		if line, ok := c.items[key]; ok {
			out = append(out, *line)
		}
	}
	return out
}

// Total sums price × quantity over all lines; unpriced lines contribute
// nothing.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, line := range c.items {
		if line.Price == nil {
			continue
		}
		total = total.Add(decimal.NewFromFloat(*line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// RemoteKey builds the key used for lines materialized from a remote
// cart: remote entries are keyed by the source plus the remote cart-entry
// id, which is a different identity space from product ids.
func RemoteKey(src source.ID, entryID string) string {
	return fmt.Sprintf("%s-%s", src, entryID)
}
