package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/source"
)

// cacheKeyAll is the product cache key for the full aggregated list.
const cacheKeyAll = "all"

// RowReader reads raw product rows out of one catalog source.
type RowReader interface {
	Sources() []source.ID
	ReadProducts(ctx context.Context, src source.ID) (table string, rows []catalog.Row, err error)
}

// OrderFetcher supplies the merged order set for the best-seller join.
type OrderFetcher interface {
	ListMerged(ctx context.Context) ([]order.Order, []string)
}

// BestSeller is a catalog product annotated with its summed order volume.
type BestSeller struct {
	catalog.Product
	TotalSold float64 `json:"totalSold"`
}

// Aggregator flattens every configured catalog source into one product
// list. Per-source failures degrade to warnings; the aggregate never fails.
type Aggregator struct {
	reader       RowReader
	orders       OrderFetcher
	cache        catalog.ProductCache
	cacheTTL     time.Duration
	phoneBaseURL string
	logger       *zap.Logger
}

// NewAggregator creates a catalog aggregator.
func NewAggregator(reader RowReader, orders OrderFetcher, cache catalog.ProductCache, cacheTTL time.Duration, phoneBaseURL string, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		reader:       reader,
		orders:       orders,
		cache:        cache,
		cacheTTL:     cacheTTL,
		phoneBaseURL: phoneBaseURL,
		logger:       logger,
	}
}

// LoadAllProducts reads every source concurrently and flattens the results
// in canonical source order. A failing source contributes nothing and is
// reported as a warning, never as an error.
func (a *Aggregator) LoadAllProducts(ctx context.Context) ([]catalog.Product, []string) {
	if a.cache != nil {
		if cached, ok, err := a.cache.Get(ctx, cacheKeyAll); err == nil && ok {
			return cached, nil
		}
	}

	sources := a.reader.Sources()

	type sourceResult struct {
		products []catalog.Product
		warning  string
	}
	results := make([]sourceResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source.ID) {
			defer wg.Done()
			table, rows, err := a.reader.ReadProducts(ctx, src)
			if err != nil {
				a.logger.Warn("catalog read failed",
					zap.String("source", src.String()), zap.Error(err))
				results[i] = sourceResult{
					warning: fmt.Sprintf("no products available from %s", src),
				}
				return
			}
			products := make([]catalog.Product, 0, len(rows))
			for rowIndex, row := range rows {
				products = append(products, catalog.BuildProduct(row, rowIndex, src, table, a.phoneBaseURL))
			}
			results[i] = sourceResult{products: products}
		}(i, src)
	}
	wg.Wait()

	var all []catalog.Product
	var warnings []string
	for _, res := range results {
		all = append(all, res.products...)
		if res.warning != "" {
			warnings = append(warnings, res.warning)
		}
	}

	if a.cache != nil && len(warnings) == 0 {
		if err := a.cache.Set(ctx, cacheKeyAll, all, a.cacheTTL); err != nil {
			a.logger.Warn("product cache write failed", zap.Error(err))
		}
	}
	return all, warnings
}

// InvalidateCache drops the cached product list.
func (a *Aggregator) InvalidateCache(ctx context.Context) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, cacheKeyAll); err != nil {
		a.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}

// LoadBestSelling joins the merged order set against the product index and
// ranks products by summed sold quantity, ties broken by descending price.
// Sold products missing from the catalog are dropped; they cannot be
// displayed without a name and price. limit <= 0 returns the full ranking.
func (a *Aggregator) LoadBestSelling(ctx context.Context, limit int) ([]BestSeller, []string) {
	products, warnings := a.LoadAllProducts(ctx)
	orders, orderWarnings := a.orders.ListMerged(ctx)
	warnings = append(warnings, orderWarnings...)

	// First product registered per composite key wins on duplicate ids.
	index := make(map[string]catalog.Product)
	for _, p := range products {
		if p.NumericID == nil {
			continue
		}
		key := joinKey(p.Source, *p.NumericID)
		if _, exists := index[key]; !exists {
			index[key] = p
		}
	}

	sold := make(map[string]float64)
	var keys []string
	for _, o := range orders {
		src := o.Source.CatalogSource()
		for _, line := range o.Items {
			if line.ProductID == nil {
				continue
			}
			key := joinKey(src, *line.ProductID)
			if _, seen := sold[key]; !seen {
				keys = append(keys, key)
			}
			sold[key] += line.Quantity
		}
	}

	sellers := make([]BestSeller, 0, len(keys))
	for _, key := range keys {
		product, ok := index[key]
		if !ok {
			continue
		}
		sellers = append(sellers, BestSeller{Product: product, TotalSold: sold[key]})
	}

	sort.SliceStable(sellers, func(i, j int) bool {
		if sellers[i].TotalSold != sellers[j].TotalSold {
			return sellers[i].TotalSold > sellers[j].TotalSold
		}
		return priceRank(sellers[i].Price) > priceRank(sellers[j].Price)
	})

	if limit > 0 && len(sellers) > limit {
		sellers = sellers[:limit]
	}
	return sellers, warnings
}

func joinKey(src source.ID, productID float64) string {
	return src.String() + "-" + catalog.FormatID(productID)
}

// priceRank orders nil prices below every real price.
func priceRank(price *float64) float64 {
	if price == nil {
		return math.Inf(-1)
	}
	return *price
}
