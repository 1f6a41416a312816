package cart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/unistore/backend/internal/domain/cart"
	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/shared"
	"github.com/unistore/backend/internal/domain/source"
	"github.com/unistore/backend/internal/domain/storefront"
)

// Reconciler keeps the local cart in sync with the remote storefront
// carts. Local mutations are optimistic: they apply immediately and a
// failed remote sync surfaces as a warning, never a rollback.
type Reconciler struct {
	cart         *cart.Cart
	gateways     map[source.ID]storefront.Gateway
	phoneBaseURL string
	logger       *zap.Logger
}

// NewReconciler creates a reconciler over the given storefront gateways.
func NewReconciler(c *cart.Cart, gateways []storefront.Gateway, phoneBaseURL string, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	bySource := make(map[source.ID]storefront.Gateway, len(gateways))
	for _, gw := range gateways {
		bySource[gw.Source()] = gw
	}
	return &Reconciler{
		cart:         c,
		gateways:     bySource,
		phoneBaseURL: phoneBaseURL,
		logger:       logger,
	}
}

// Items returns the current local cart contents.
func (r *Reconciler) Items() []cart.Item {
	return r.cart.Items()
}

// Total returns the local cart total as a string. Items without a price
// contribute nothing.
func (r *Reconciler) Total() string {
	return r.cart.Total().String()
}

// AddToCart normalizes a raw catalog row into a cart item and adds one
// unit. A row whose id cannot be resolved to a finite number is rejected
// before any local or remote mutation: the remote cart protocols all key
// on numeric product ids.
func (r *Reconciler) AddToCart(ctx context.Context, row catalog.Row, rowIndex int, src source.ID, table string) (cart.Item, []string, error) {
	if !src.IsValid() {
		return cart.Item{}, nil, fmt.Errorf("%w: %s", shared.ErrUnknownSource, src)
	}

	product := catalog.BuildProduct(row, rowIndex, src, table, r.phoneBaseURL)
	item, ok := cart.ItemFromProduct(product)
	if !ok {
		return cart.Item{}, nil, fmt.Errorf("%w: product %q in %s.%s",
			shared.ErrNonNumericID, product.ID, src, table)
	}

	updated := r.cart.Add(item)
	warnings := r.sync(ctx, updated, func(gw storefront.Gateway, ref storefront.ProductRef) error {
		if updated.Quantity > 1 {
			return gw.AdjustQuantity(ctx, ref, 1, updated.Quantity)
		}
		return gw.AddItem(ctx, ref)
	})
	return updated, warnings, nil
}

// UpdateQuantity applies a delta to a local item, flooring at zero, then
// mirrors the transition remotely. Reaching zero removes the entry and
// always issues a remote remove regardless of the delta's sign.
func (r *Reconciler) UpdateQuantity(ctx context.Context, key string, delta int) (cart.Item, []string, error) {
	item, ok := r.cart.ApplyDelta(key, delta)
	if !ok {
		return cart.Item{}, nil, fmt.Errorf("%w: cart item %q", shared.ErrNotFound, key)
	}

	warnings := r.sync(ctx, item, func(gw storefront.Gateway, ref storefront.ProductRef) error {
		if item.Quantity <= 0 {
			return gw.RemoveItem(ctx, ref)
		}
		return gw.AdjustQuantity(ctx, ref, delta, item.Quantity)
	})
	return item, warnings, nil
}

// RemoveFromCart drops an item locally and remotely.
func (r *Reconciler) RemoveFromCart(ctx context.Context, key string) ([]string, error) {
	item, ok := r.cart.Remove(key)
	if !ok {
		return nil, fmt.Errorf("%w: cart item %q", shared.ErrNotFound, key)
	}

	warnings := r.sync(ctx, item, func(gw storefront.Gateway, ref storefront.ProductRef) error {
		return gw.RemoveItem(ctx, ref)
	})
	return warnings, nil
}

// sync runs one remote mutation for the item's source. Failures become
// source-attributed warnings and never propagate.
func (r *Reconciler) sync(ctx context.Context, item cart.Item, op func(storefront.Gateway, storefront.ProductRef) error) []string {
	gw, ok := r.gateways[item.Source]
	if !ok {
		return []string{fmt.Sprintf("no remote cart configured for %s", item.Source)}
	}

	ref := storefront.ProductRef{
		ID:    item.ID,
		Name:  item.Name,
		Price: item.Price,
		Phone: item.Phone,
	}
	if err := op(gw, ref); err != nil {
		r.logger.Warn("cart sync failed",
			zap.String("source", item.Source.String()),
			zap.String("key", item.Key),
			zap.Error(err))
		return []string{fmt.Sprintf("could not sync cart with %s", item.Source)}
	}
	return nil
}

// RefreshRemoteCart fetches all remote carts concurrently and atomically
// replaces the local cart with the merged result. This is the one path
// where local state is not optimistic: it is a full resync.
func (r *Reconciler) RefreshRemoteCart(ctx context.Context) ([]cart.Item, []string) {
	type sourceResult struct {
		src   source.ID
		items []storefront.RemoteCartItem
		err   error
	}

	ordered := make([]storefront.Gateway, 0, len(r.gateways))
	for _, src := range source.All() {
		if gw, ok := r.gateways[src]; ok {
			ordered = append(ordered, gw)
		}
	}

	results := make([]sourceResult, len(ordered))
	var wg sync.WaitGroup
	for i, gw := range ordered {
		wg.Add(1)
		go func(i int, gw storefront.Gateway) {
			defer wg.Done()
			items, err := gw.ListCart(ctx)
			results[i] = sourceResult{src: gw.Source(), items: items, err: err}
		}(i, gw)
	}
	wg.Wait()

	var merged []cart.Item
	var warnings []string
	for _, res := range results {
		if res.err != nil {
			r.logger.Warn("remote cart fetch failed",
				zap.String("source", res.src.String()), zap.Error(res.err))
			warnings = append(warnings, fmt.Sprintf("could not fetch the %s cart", res.src))
			continue
		}
		for _, remote := range res.items {
			if remote.ProductID == nil {
				continue
			}
			item := cart.Item{
				Key:      cart.RemoteKey(res.src, remote.EntryID),
				ID:       *remote.ProductID,
				Name:     remote.Name,
				Price:    remote.Price,
				Quantity: remote.Quantity,
				Source:   res.src,
				Image:    remote.Image,
				Raw:      remote.Raw,
			}
			if item.Name == "" {
				item.Name = "Item " + remote.EntryID
			}
			if item.Image == "" {
				item.Image = catalog.PlaceholderImage
			}
			merged = append(merged, item)
		}
	}

	r.cart.Replace(merged)
	return r.cart.Items(), warnings
}
