// Package catalog normalizes heterogeneous product rows from the
// configured sources into one canonical shape. Sources expose no fixed
// contract: column names differ in spelling and case per backend, so
// every field is resolved through an ordered alias list.
package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/unistore/backend/internal/domain/source"
)

// Row is one raw record as returned by a source: arbitrary column names
// mapped to arbitrary values.
type Row map[string]any

// PlaceholderImage is shown for rows that carry no resolvable image column.
const PlaceholderImage = "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9?q=80&w=600&auto=format&fit=crop"

// Field alias tables. Resolution is case-insensitive and first-match-wins;
// keep these declarative so a new source only ever extends a list.
var (
	nameAliases  = []string{"name", "title", "productname", "itemname"}
	priceAliases = []string{"price", "unitprice", "cost", "amount"}
	imageAliases = []string{
		"imageUrl", "image_url", "image", "thumbnail",
		"thumb", "img", "pictureUri", "picture_uri",
	}

	// The railway schema keys products by product_id and reuses "id" for
	// the row's own surrogate key, hence the different priority order.
	railwayIDAliases = []string{"product_id", "productid", "id"}
	defaultIDAliases = []string{"id", "product_id", "productid", "catalogitemid", "itemid"}

	phoneNameAliases     = []string{"name", "productname", "product_name", "title", "itemname"}
	phoneDiscountAliases = []string{"discount", "sale", "discountpercent", "percentdiscount", "percent_off"}
	phoneOriginalAliases = []string{"original", "originalprice", "original_price", "baseprice", "listprice", "price"}
	phoneImageAliases    = []string{"imageurl", "image_url", "image", "thumbnail", "thumb", "img"}
)

// Product is the canonical in-memory product shape. It is derived on
// every catalog load and never persisted.
type Product struct {
	Key       string     `json:"key"`
	Source    source.ID  `json:"source_id"`
	Table     string     `json:"source_table"`
	RowIndex  int        `json:"row_index"`
	ID        string     `json:"id"`
	NumericID *float64   `json:"numeric_id,omitempty"`
	Name      string     `json:"name"`
	Price     *float64   `json:"price"`
	Image     string     `json:"image"`
	Phone     *PhoneItem `json:"phone_store_product,omitempty"`
	Raw       Row        `json:"raw,omitempty"`
}

// PhoneItem is the extra record the phone-store cart protocol requires.
// Its discount math overrides the generic price when OriginalPrice is a
// finite number.
type PhoneItem struct {
	ID              float64 `json:"id"`
	Name            string  `json:"name"`
	DiscountPercent float64 `json:"discount"`
	OriginalPrice   float64 `json:"original"`
	ImageURL        string  `json:"imageUrl"`
}

// ResolveField returns the value of the first alias that exists in the
// row, compared case-insensitively on both sides, with a non-nil value.
// The row's key map is built once per call.
func ResolveField(row Row, aliases []string) (any, bool) {
	if len(row) == 0 {
		return nil, false
	}
	keyMap := make(map[string]string, len(row))
	for key := range row {
		keyMap[strings.ToLower(key)] = key
	}
	for _, alias := range aliases {
		if key, ok := keyMap[strings.ToLower(alias)]; ok {
			if value := row[key]; value != nil {
				return value, true
			}
		}
	}
	return nil, false
}

// NormalizePrice coerces a price-like value to a number. Empty strings,
// nil and anything that does not coerce to a finite number yield nil.
func NormalizePrice(value any) *float64 {
	if value == nil {
		return nil
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return coerceNumber(value)
}

// ResolveID finds a numeric product id in the row using the source's
// alias priority, returning nil when no candidate coerces to a finite
// number.
func ResolveID(row Row, src source.ID) *float64 {
	aliases := defaultIDAliases
	if src == source.Railway {
		aliases = railwayIDAliases
	}
	for _, alias := range aliases {
		value, ok := ResolveField(row, []string{alias})
		if !ok {
			continue
		}
		if s, isStr := value.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		if n := coerceNumber(value); n != nil {
			return n
		}
	}
	return nil
}

// BuildProduct composes the canonical product for one raw row.
// phoneBaseURL is used to absolutize relative phone-store image paths.
func BuildProduct(row Row, rowIndex int, src source.ID, table string, phoneBaseURL string) Product {
	numericID := ResolveID(row, src)

	name := resolveString(row, nameAliases)
	if name == "" {
		name = fmt.Sprintf("Item %d", rowIndex+1)
	}

	var basePrice *float64
	if raw, ok := ResolveField(row, priceAliases); ok {
		basePrice = NormalizePrice(raw)
	}

	image := resolveString(row, imageAliases)
	if image == "" {
		image = PlaceholderImage
	}

	var phone *PhoneItem
	if src == source.PhoneWebsite {
		phone = buildPhoneItem(row, rowIndex, src, phoneBaseURL)
	}

	// The phone-store effective price wins when its original price is
	// finite; the generic price remains the display fallback.
	price := basePrice
	if phone != nil && isFinite(phone.OriginalPrice) {
		effective := phoneEffectivePrice(phone.OriginalPrice, phone.DiscountPercent)
		price = &effective
	}

	displayID := fmt.Sprintf("%s-%s-%d", src, table, rowIndex)
	if numericID != nil {
		displayID = FormatID(*numericID)
	}

	return Product{
		Key:       fmt.Sprintf("%s-%s-%s", src, table, displayID),
		Source:    src,
		Table:     table,
		RowIndex:  rowIndex,
		ID:        displayID,
		NumericID: numericID,
		Name:      name,
		Price:     price,
		Image:     image,
		Phone:     phone,
		Raw:       row,
	}
}

// FormatID renders a numeric product id without a trailing fraction when
// it is integral, matching how the upstream cart APIs spell ids in paths.
func FormatID(id float64) string {
	return strconv.FormatFloat(id, 'f', -1, 64)
}

// phoneEffectivePrice computes round(original * (1 - discount/100)).
// A missing or zero discount means 0% off, i.e. the original price.
func phoneEffectivePrice(original, discountPercent float64) float64 {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discountPercent).Div(decimal.NewFromInt(100)))
	result, _ := decimal.NewFromFloat(original).Mul(factor).Round(0).Float64()
	return result
}

// buildPhoneItem derives the phone-store record for one row, or nil when
// the row has no numeric id (the phone-store cart cannot address it).
func buildPhoneItem(row Row, rowIndex int, src source.ID, baseURL string) *PhoneItem {
	id := ResolveID(row, src)
	if id == nil {
		return nil
	}

	name := resolveString(row, phoneNameAliases)
	if name == "" {
		name = fmt.Sprintf("Item %d", rowIndex+1)
	}

	discount := 0.0
	if raw, ok := ResolveField(row, phoneDiscountAliases); ok {
		if n := NormalizePrice(raw); n != nil {
			discount = *n
		}
	}
	original := 0.0
	if raw, ok := ResolveField(row, phoneOriginalAliases); ok {
		if n := NormalizePrice(raw); n != nil {
			original = *n
		}
	}

	return &PhoneItem{
		ID:              *id,
		Name:            name,
		DiscountPercent: discount,
		OriginalPrice:   original,
		ImageURL:        NormalizePhoneImageURL(resolveString(row, phoneImageAliases), baseURL),
	}
}

var absoluteURLPattern = regexp.MustCompile(`(?i)^https?://`)

// NormalizePhoneImageURL absolutizes a phone-store image path against the
// phone-store base URL. Already-absolute URLs pass through untouched.
func NormalizePhoneImageURL(raw, baseURL string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if absoluteURLPattern.MatchString(trimmed) {
		return trimmed
	}
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return base + trimmed
}

// resolveString resolves an alias list to a non-empty string, or "".
func resolveString(row Row, aliases []string) string {
	value, ok := ResolveField(row, aliases)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// coerceNumber converts the value types sources actually produce (JSON
// numbers, SQL integers, numeric strings) to a finite float, or nil.
func coerceNumber(value any) *float64 {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case decimal.Decimal:
		n, _ = v.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		n = parsed
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if !isFinite(n) {
		return nil
	}
	return &n
}

func isFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}
