package catalog

import (
	"strings"

	"github.com/unistore/backend/internal/domain/source"
)

// productTableKeywords is the priority list used to spot a product table
// in an unknown schema. First table containing any keyword wins.
var productTableKeywords = []string{"product", "catalog", "item", "goods"}

// PickProductTable heuristically selects the table representing products
// for the given source. The phone-store catalog prefers a table named
// after "phone"; all sources fall back to the first listed table. Returns
// "" when the list is empty; callers must treat that as a recoverable
// discovery failure, not a fatal error.
func PickProductTable(tables []string, src source.ID) string {
	if len(tables) == 0 {
		return ""
	}

	if src == source.PhoneWebsite {
		if match := firstContaining(tables, "phone"); match != "" {
			return match
		}
		if match := firstContaining(tables, "product"); match != "" {
			return match
		}
		return tables[0]
	}

	for _, table := range tables {
		lower := strings.ToLower(table)
		for _, keyword := range productTableKeywords {
			if strings.Contains(lower, keyword) {
				return table
			}
		}
	}
	return tables[0]
}

func firstContaining(tables []string, keyword string) string {
	for _, table := range tables {
		if strings.Contains(strings.ToLower(table), keyword) {
			return table
		}
	}
	return ""
}
