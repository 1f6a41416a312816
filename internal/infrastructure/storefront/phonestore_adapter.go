package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/source"
	"github.com/unistore/backend/internal/domain/storefront"
)

// PhoneStoreGateway talks to the phone store. The remote authenticates by
// username through a cookie instead of a bearer token, and its cart has no
// update verb at all, so quantity changes are replayed as delete plus
// repeated adds.
type PhoneStoreGateway struct {
	client   *client
	username string
}

// NewPhoneStoreGateway creates a gateway for the phone store.
func NewPhoneStoreGateway(baseURL, username string, timeout time.Duration) *PhoneStoreGateway {
	return &PhoneStoreGateway{
		client:   newClient(baseURL, "", timeout),
		username: username,
	}
}

// Source implements storefront.Gateway.
func (g *PhoneStoreGateway) Source() source.ID {
	return source.PhoneWebsite
}

// cookie builds the user=<username> auth cookie the remote expects.
func (g *PhoneStoreGateway) cookie() (http.Header, error) {
	if g.username == "" {
		return nil, storefront.ErrMissingUsername
	}
	h := http.Header{}
	h.Set("Cookie", "user="+url.QueryEscape(g.username))
	return h, nil
}

// AddItem implements storefront.Gateway. The remote wants the whole product
// record in the body, not just an id.
func (g *PhoneStoreGateway) AddItem(ctx context.Context, ref storefront.ProductRef) error {
	headers, err := g.cookie()
	if err != nil {
		return err
	}

	product := map[string]any{"id": ref.ID, "name": ref.Name}
	if ref.Phone != nil {
		product["name"] = ref.Phone.Name
		product["discount"] = ref.Phone.DiscountPercent
		product["original"] = ref.Phone.OriginalPrice
		product["imageUrl"] = ref.Phone.ImageURL
	} else if ref.Price != nil {
		product["original"] = *ref.Price
	}

	body := map[string]any{"username": g.username, "product": product}
	resp, err := g.client.do(ctx, http.MethodPost, "/api/cart", nil, headers, body)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// AdjustQuantity implements storefront.Gateway. The remote only supports
// discrete add and delete, so the target quantity is reached by deleting
// the entry when the remote holds too much and then issuing one add per
// missing unit. The adds run strictly sequentially; concurrent adds could
// overshoot the target.
func (g *PhoneStoreGateway) AdjustQuantity(ctx context.Context, ref storefront.ProductRef, delta, target int) error {
	items, err := g.ListCart(ctx)
	if err != nil {
		return err
	}

	current := 0
	var entryIDs []string
	for _, item := range items {
		if item.ProductID != nil && *item.ProductID == ref.ID && item.EntryID != "" {
			current += int(item.Quantity)
			entryIDs = append(entryIDs, item.EntryID)
		}
	}

	adds := 0
	switch {
	case target <= 0 || current > target:
		if err := g.deleteEntries(ctx, entryIDs); err != nil {
			return err
		}
		adds = target
	case current < target:
		adds = target - current
	}

	for i := 0; i < adds; i++ {
		if err := g.AddItem(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

func (g *PhoneStoreGateway) deleteEntries(ctx context.Context, entryIDs []string) error {
	headers, err := g.cookie()
	if err != nil {
		return err
	}
	for _, entryID := range entryIDs {
		query := url.Values{}
		query.Set("id", entryID)
		query.Set("username", g.username)
		resp, err := g.client.do(ctx, http.MethodDelete, "/api/cart", query, headers, nil)
		if err != nil {
			return err
		}
		if err := checkStatus(resp); err != nil {
			return err
		}
	}
	return nil
}

// RemoveItem implements storefront.Gateway. Every cart entry holding the
// product is deleted; the remote may keep duplicate rows per added unit.
func (g *PhoneStoreGateway) RemoveItem(ctx context.Context, ref storefront.ProductRef) error {
	items, err := g.ListCart(ctx)
	if err != nil {
		return err
	}
	var entryIDs []string
	for _, item := range items {
		if item.ProductID != nil && *item.ProductID == ref.ID && item.EntryID != "" {
			entryIDs = append(entryIDs, item.EntryID)
		}
	}
	return g.deleteEntries(ctx, entryIDs)
}

// ListCart implements storefront.Gateway.
func (g *PhoneStoreGateway) ListCart(ctx context.Context) ([]storefront.RemoteCartItem, error) {
	headers, err := g.cookie()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("username", g.username)
	resp, err := g.client.do(ctx, http.MethodGet, "/api/cart", query, headers, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	list, ok := unwrapList(resp.Data)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected cart payload", storefront.ErrInvalidResponse)
	}

	items := make([]storefront.RemoteCartItem, 0, len(list))
	for _, raw := range list {
		if item, ok := parseCartEntry(raw, entryIDAliases); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// ListOrders implements storefront.Gateway.
func (g *PhoneStoreGateway) ListOrders(ctx context.Context) ([]order.Order, error) {
	headers, err := g.cookie()
	if err != nil {
		return nil, err
	}

	resp, err := g.client.do(ctx, http.MethodGet, "/api/orders", nil, headers, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	list, ok := unwrapList(resp.Data)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected orders payload", storefront.ErrInvalidResponse)
	}

	orders := make([]order.Order, 0, len(list))
	for _, raw := range list {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		orders = append(orders, order.Normalize(row, source.OrderSourcePhoneStore))
	}
	return orders, nil
}

var _ storefront.Gateway = (*PhoneStoreGateway)(nil)
