package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/source"
	"github.com/unistore/backend/internal/domain/storefront"
)

// RailwayGateway talks to the railway storefront. The remote cart is keyed
// directly by product id and exposes separate increase, decrease, and
// remove verbs, so no read-before-write is needed.
type RailwayGateway struct {
	client *client
	userID string
	cartID string
}

// NewRailwayGateway creates a gateway for the railway storefront.
func NewRailwayGateway(baseURL, authToken, userID, cartID string, timeout time.Duration) *RailwayGateway {
	return &RailwayGateway{
		client: newClient(baseURL, authToken, timeout),
		userID: userID,
		cartID: cartID,
	}
}

// Source implements storefront.Gateway.
func (g *RailwayGateway) Source() source.ID {
	return source.Railway
}

// AddItem implements storefront.Gateway. The remote rejects a second add of
// the same product with HTTP 502 and an "already in the cart" message, in
// which case a single quantity increase is issued instead.
func (g *RailwayGateway) AddItem(ctx context.Context, ref storefront.ProductRef) error {
	query := url.Values{}
	query.Set("userId", g.userID)
	query.Set("productId", catalog.FormatID(ref.ID))

	resp, err := g.client.do(ctx, http.MethodPost, "/ecom/cart/add-product", query, nil, nil)
	if err != nil {
		return err
	}

	if resp.Status == http.StatusBadGateway &&
		strings.Contains(strings.ToLower(message(resp.Data)), "already in the cart") {
		return g.step(ctx, ref.ID, "increase")
	}
	return checkStatus(resp)
}

// AdjustQuantity implements storefront.Gateway. The remote has no absolute
// set-quantity call, so the delta is replayed as individual steps.
func (g *RailwayGateway) AdjustQuantity(ctx context.Context, ref storefront.ProductRef, delta, target int) error {
	if target <= 0 {
		return g.RemoveItem(ctx, ref)
	}

	verb := "increase"
	steps := delta
	if delta < 0 {
		verb = "decrease"
		steps = -delta
	}
	for i := 0; i < steps; i++ {
		if err := g.step(ctx, ref.ID, verb); err != nil {
			return err
		}
	}
	return nil
}

func (g *RailwayGateway) step(ctx context.Context, productID float64, verb string) error {
	path := fmt.Sprintf("/ecom/cart/%s-productQty/%s/%s", verb, g.cartID, catalog.FormatID(productID))
	resp, err := g.client.do(ctx, http.MethodPut, path, nil, nil, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// RemoveItem implements storefront.Gateway.
func (g *RailwayGateway) RemoveItem(ctx context.Context, ref storefront.ProductRef) error {
	path := fmt.Sprintf("/ecom/cart/remove-product/%s/%s", g.cartID, catalog.FormatID(ref.ID))
	resp, err := g.client.do(ctx, http.MethodDelete, path, nil, nil, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// ListCart implements storefront.Gateway. Entries are keyed by product id,
// so the entry id and the product id are the same value here.
func (g *RailwayGateway) ListCart(ctx context.Context) ([]storefront.RemoteCartItem, error) {
	resp, err := g.client.do(ctx, http.MethodGet, "/ecom/cart/products/"+g.cartID, nil, nil, nil)
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
		if item, ok := parseCartEntry(raw, productIDAliases); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// ListOrders implements storefront.Gateway.
func (g *RailwayGateway) ListOrders(ctx context.Context) ([]order.Order, error) {
	resp, err := g.client.do(ctx, http.MethodGet, "/ecom/orders/orders/"+g.userID, nil, nil, nil)
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
		orders = append(orders, order.Normalize(row, source.OrderSourceRailway))
	}
	return orders, nil
}

var _ storefront.Gateway = (*RailwayGateway)(nil)
