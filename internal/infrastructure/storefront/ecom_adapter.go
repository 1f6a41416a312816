package storefront

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/source"
	"github.com/unistore/backend/internal/domain/storefront"
)

// EcomGateway talks to the third-party e-commerce microservice. Its cart
// entries carry their own ids distinct from the product id, so every
// mutation other than add needs a read first to discover the entry.
type EcomGateway struct {
	client *client
}

// NewEcomGateway creates a gateway for the e-commerce microservice.
func NewEcomGateway(baseURL, authToken string, timeout time.Duration) *EcomGateway {
	return &EcomGateway{client: newClient(baseURL, authToken, timeout)}
}

// Source implements storefront.Gateway.
func (g *EcomGateway) Source() source.ID {
	return source.Microservice
}

// AddItem implements storefront.Gateway.
func (g *EcomGateway) AddItem(ctx context.Context, ref storefront.ProductRef) error {
	body := map[string]any{"productId": ref.ID}
	resp, err := g.client.do(ctx, http.MethodPost, "/api/cart/add", nil, nil, body)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// AdjustQuantity implements storefront.Gateway. The quantity is set to the
// absolute target on the discovered cart entry. An entry that has already
// disappeared remotely is treated as a no-op rather than an error.
func (g *EcomGateway) AdjustQuantity(ctx context.Context, ref storefront.ProductRef, delta, target int) error {
	entryID, found, err := g.findEntry(ctx, ref.ID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if target <= 0 {
		return g.deleteEntry(ctx, entryID)
	}

	body := map[string]any{"quantity": target}
	resp, err := g.client.do(ctx, http.MethodPut, "/api/cart/"+entryID, nil, nil, body)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// RemoveItem implements storefront.Gateway.
func (g *EcomGateway) RemoveItem(ctx context.Context, ref storefront.ProductRef) error {
	entryID, found, err := g.findEntry(ctx, ref.ID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return g.deleteEntry(ctx, entryID)
}

func (g *EcomGateway) deleteEntry(ctx context.Context, entryID string) error {
	resp, err := g.client.do(ctx, http.MethodDelete, "/api/cart/"+entryID, nil, nil, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// findEntry locates the cart entry holding the given product.
func (g *EcomGateway) findEntry(ctx context.Context, productID float64) (string, bool, error) {
	items, err := g.ListCart(ctx)
	if err != nil {
		return "", false, err
	}
	for _, item := range items {
		if item.ProductID != nil && *item.ProductID == productID && item.EntryID != "" {
			return item.EntryID, true, nil
		}
	}
	return "", false, nil
}

// ListCart implements storefront.Gateway.
func (g *EcomGateway) ListCart(ctx context.Context) ([]storefront.RemoteCartItem, error) {
	resp, err := g.client.do(ctx, http.MethodGet, "/api/cart", nil, nil, nil)
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

// ListOrders implements storefront.Gateway. The orders endpoint predates
// the storefront's bearer auth and still wants the raw token in its own
// legacy headers, so the bearer value is mirrored into both.
func (g *EcomGateway) ListOrders(ctx context.Context) ([]order.Order, error) {
	token := CredentialsFrom(ctx).Authorization
	if token == "" {
		token = NormalizeBearer(g.client.fallbackToken)
	}
	extra := http.Header{}
	if raw := stripBearer(token); raw != "" {
		extra.Set("x-access-token", raw)
		extra.Set("token", raw)
	}

	resp, err := g.client.do(ctx, http.MethodGet, "/api/orders/my-orders", nil, extra, nil)
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
		orders = append(orders, order.Normalize(row, source.OrderSourceEcom))
	}
	return orders, nil
}

var _ storefront.Gateway = (*EcomGateway)(nil)
