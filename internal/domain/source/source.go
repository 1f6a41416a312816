// Package source enumerates the storefront backends the gateway
// aggregates. Two namespaces exist side by side: catalog database names
// and order-feed names. They overlap for the railway store only, so the
// mapping between them is explicit.
package source

// ID identifies one of the aggregated catalog databases.
type ID string

const (
	// Railway is the train-ticket storefront database.
	Railway ID = "railway"
	// Microservice is the general e-commerce storefront database.
	Microservice ID = "microservice"
	// PhoneWebsite is the phone storefront database.
	PhoneWebsite ID = "phonewebsite"
)

// All returns every catalog source in canonical display order.
func All() []ID {
	return []ID{Railway, Microservice, PhoneWebsite}
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// IsValid reports whether id names a known catalog source.
func (id ID) IsValid() bool {
	switch id {
	case Railway, Microservice, PhoneWebsite:
		return true
	}
	return false
}

// OrderSource identifies the storefront an order batch came from.
// The remote storefronts name themselves differently from their catalog
// databases for the two non-railway stores.
type OrderSource string

const (
	// OrderSourceRailway tags orders from the railway storefront.
	OrderSourceRailway OrderSource = "railway"
	// OrderSourceEcom tags orders from the e-commerce storefront,
	// whose catalog lives in the Microservice database.
	OrderSourceEcom OrderSource = "ecom"
	// OrderSourcePhoneStore tags orders from the phone storefront,
	// whose catalog lives in the PhoneWebsite database.
	OrderSourcePhoneStore OrderSource = "phonestore"
)

// String implements fmt.Stringer.
func (s OrderSource) String() string {
	return string(s)
}

// CatalogSource maps an order feed back to the catalog database whose
// product ids its line items reference. Unknown feeds fall back to the
// railway database, matching the lenient join on the dashboard side.
func (s OrderSource) CatalogSource() ID {
	switch s {
	case OrderSourceEcom:
		return Microservice
	case OrderSourcePhoneStore:
		return PhoneWebsite
	case OrderSourceRailway:
		return Railway
	default:
		return Railway
	}
}
