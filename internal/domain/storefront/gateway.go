// Package storefront defines the closed capability set every remote
// storefront backend exposes to the reconciliation layer. Each source
// gets exactly one Gateway implementation; adding a source means adding
// an implementation, never another dispatch branch.
package storefront

import (
	"context"
	"errors"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/source"
)

var (
	// ErrUnavailable wraps transport-level failures reaching a backend.
	ErrUnavailable = errors.New("storefront: backend temporarily unavailable")
	// ErrRequestFailed wraps non-2xx answers from a backend.
	ErrRequestFailed = errors.New("storefront: backend request failed")
	// ErrInvalidResponse marks a payload that could not be decoded.
	ErrInvalidResponse = errors.New("storefront: invalid backend response")
	// ErrMissingUsername is a hard sync failure: the phone-store backend
	// authenticates by username and no username is configured.
	ErrMissingUsername = errors.New("storefront: phone-store username not configured")
)

// ProductRef carries everything an adapter may need to address a product
// remotely. The phone-store add protocol requires the derived phone
// record, not just the id.
type ProductRef struct {
	ID    float64
	Name  string
	Price *float64
	Phone *catalog.PhoneItem
}

// RemoteCartItem is one line of a remote cart after normalization.
// EntryID is the identifier the remote cart assigned to the line; for
// sources keyed directly by product id the two coincide.
type RemoteCartItem struct {
	EntryID   string
	ProductID *float64
	Name      string
	Price     *float64
	Image     string
	Quantity  int
	Raw       map[string]any
}

// Gateway is the uniform capability set of one remote storefront.
//
// AdjustQuantity receives both the delta that triggered the sync and the
// local target quantity so each implementation can use its native
// mutation semantics (quantity-patch, increase/decrease verbs, or
// delete-and-re-add).
type Gateway interface {
	Source() source.ID
	AddItem(ctx context.Context, ref ProductRef) error
	AdjustQuantity(ctx context.Context, ref ProductRef, delta, target int) error
	RemoveItem(ctx context.Context, ref ProductRef) error
	ListCart(ctx context.Context) ([]RemoteCartItem, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
}
