package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/storefront"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Credentials carries the caller's auth material through to the remote
// storefronts. Empty fields fall back to the adapter's configured token.
type Credentials struct {
	Authorization string
	Cookie        string
}

type credentialsKey struct{}

// WithCredentials returns a context carrying the caller's credentials.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFrom extracts caller credentials from the context, if any.
func CredentialsFrom(ctx context.Context) Credentials {
	creds, _ := ctx.Value(credentialsKey{}).(Credentials)
	return creds
}

// NormalizeBearer ensures a token carries the Bearer prefix exactly once.
func NormalizeBearer(token string) string {
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return token
	}
	return "Bearer " + token
}

// WrapUnavailable tags a transport-level error with the shared
// unavailability sentinel.
func WrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", storefront.ErrUnavailable, err)
}

// stripBearer returns the raw token value without the Bearer prefix.
func stripBearer(token string) string {
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[len("bearer "):])
	}
	return strings.TrimSpace(token)
}

// client is the shared HTTP plumbing for the storefront adapters.
type client struct {
	baseURL       string
	fallbackToken string
	httpClient    *http.Client
}

func newClient(baseURL, fallbackToken string, timeout time.Duration) *client {
	return &client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		fallbackToken: fallbackToken,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// response is a decoded remote reply. Bodies that are not valid JSON are
// kept as the raw string so error messages survive.
type response struct {
	Status int
	Data   any
}

// do performs one request against the remote storefront. The caller's
// Authorization header wins over the configured fallback token, and any
// incoming cookie is forwarded. Extra headers override both.
func (c *client) do(ctx context.Context, method, path string, query url.Values, extra http.Header, body any) (*response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("storefront: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("storefront: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	creds := CredentialsFrom(ctx)
	if creds.Authorization != "" {
		req.Header.Set("Authorization", creds.Authorization)
	} else if c.fallbackToken != "" {
		req.Header.Set("Authorization", NormalizeBearer(c.fallbackToken))
	}
	if creds.Cookie != "" {
		req.Header.Set("Cookie", creds.Cookie)
	}
	for key, values := range extra {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, WrapUnavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("storefront: failed to read response: %w", err)
	}

	var data any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			data = string(raw)
		}
	}
	return &response{Status: resp.StatusCode, Data: data}, nil
}

// checkStatus converts HTTP error statuses into the shared sentinel.
func checkStatus(resp *response) error {
	if resp.Status >= 400 {
		return fmt.Errorf("%w: HTTP %d", storefront.ErrRequestFailed, resp.Status)
	}
	return nil
}

// message digs a human-readable message out of a remote error payload.
func message(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"message", "error", "detail"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// unwrapList accepts either a bare JSON array or an object wrapping one
// under a well-known key. Remote storefronts disagree on which they send.
func unwrapList(data any) ([]any, bool) {
	switch v := data.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, key := range []string{"products", "cartItems", "cart_items", "items", "cart", "orders", "data", "result"} {
			if list, ok := v[key].([]any); ok {
				return list, true
			}
		}
	}
	return nil, false
}

// Field aliases for remote cart entries. Each storefront names the entry
// id, product id, and quantity differently.
var (
	entryIDAliases   = []string{"cartItemId", "cart_item_id", "cartItemID", "id", "_id"}
	productIDAliases = []string{"productId", "product_id", "productid", "id"}
	quantityAliases  = []string{"quantity", "qty", "amount", "count"}
	cartNameAliases  = []string{"name", "productName", "product_name", "title", "phone_name", "phoneName"}
	cartPriceAliases = []string{"price", "unitPrice", "unit_price", "cost", "amount"}
	cartImageAliases = []string{"image", "imageUrl", "image_url", "img", "thumbnail"}
)

// parseCartEntry normalizes one remote cart row. entryAliases picks which
// field identifies the row for mutation calls.
func parseCartEntry(raw any, entryAliases []string) (storefront.RemoteCartItem, bool) {
	row, ok := raw.(map[string]any)
	if !ok {
		return storefront.RemoteCartItem{}, false
	}

	item := storefront.RemoteCartItem{Quantity: 1, Raw: row}

	if v, ok := catalog.ResolveField(row, entryAliases); ok {
		item.EntryID = stringify(v)
	}
	if v, ok := catalog.ResolveField(row, productIDAliases); ok {
		item.ProductID = catalog.NormalizePrice(v)
	}
	if v, ok := catalog.ResolveField(row, quantityAliases); ok {
		if qty := catalog.NormalizePrice(v); qty != nil && *qty > 0 {
			item.Quantity = int(*qty)
		}
	}
	if v, ok := catalog.ResolveField(row, cartNameAliases); ok {
		item.Name = stringify(v)
	}
	if v, ok := catalog.ResolveField(row, cartPriceAliases); ok {
		item.Price = catalog.NormalizePrice(v)
	}
	if v, ok := catalog.ResolveField(row, cartImageAliases); ok {
		item.Image = stringify(v)
	}

	if item.EntryID == "" && item.ProductID == nil {
		return storefront.RemoteCartItem{}, false
	}
	return item, true
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		if n := catalog.NormalizePrice(v); n != nil {
			return catalog.FormatID(*n)
		}
		return fmt.Sprintf("%v", v)
	}
}
