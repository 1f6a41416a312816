package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/unistore/backend/internal/application/catalog"
	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/shared"
	"github.com/unistore/backend/internal/domain/source"
	"github.com/unistore/backend/internal/infrastructure/persistence"
)

// CatalogBrowser is the slice of the catalog reader the HTTP layer
// needs. persistence.CatalogReader satisfies it.
type CatalogBrowser interface {
	Sources() []source.ID
	ListTables(ctx context.Context, src source.ID) ([]string, error)
	DescribeTable(ctx context.Context, src source.ID, table string) ([]persistence.Column, error)
	ReadRows(ctx context.Context, src source.ID, table string) ([]catalog.Row, error)
}

// CatalogHandler handles catalog browsing and aggregation endpoints
type CatalogHandler struct {
	BaseHandler
	reader     CatalogBrowser
	aggregator *catalogapp.Aggregator
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(reader CatalogBrowser, aggregator *catalogapp.Aggregator) *CatalogHandler {
	return &CatalogHandler{
		reader:     reader,
		aggregator: aggregator,
	}
}

// TableResponse carries one table's schema together with its capped rows.
type TableResponse struct {
	Source   string               `json:"source"`
	Table    string               `json:"table"`
	Columns  []persistence.Column `json:"columns"`
	Rows     []catalog.Row        `json:"rows"`
	RowCount int                  `json:"row_count"`
}

// ListSources returns the catalog sources that currently have a live
// connection.
func (h *CatalogHandler) ListSources(c *gin.Context) {
	ids := h.reader.Sources()
	names := make([]string, 0, len(ids))
	for _, src := range ids {
		names = append(names, src.String())
	}
	h.Success(c, gin.H{"sources": names})
}

// ListTables returns the table names of one source
func (h *CatalogHandler) ListTables(c *gin.Context) {
	src := source.ID(c.Param("source"))
	if !src.IsValid() {
		h.HandleError(c, shared.ErrUnknownSource)
		return
	}

	tables, err := h.reader.ListTables(c.Request.Context(), src)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"source": src.String(), "tables": tables})
}

// GetTable returns one table's columns and its rows, capped at the
// configured row limit.
func (h *CatalogHandler) GetTable(c *gin.Context) {
	src := source.ID(c.Param("source"))
	if !src.IsValid() {
		h.HandleError(c, shared.ErrUnknownSource)
		return
	}
	table := c.Param("table")

	columns, err := h.reader.DescribeTable(c.Request.Context(), src, table)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	rows, err := h.reader.ReadRows(c.Request.Context(), src, table)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, TableResponse{
		Source:   src.String(),
		Table:    table,
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	})
}

// ListProducts returns the normalized product list aggregated across all
// sources. Degraded sources surface as warnings, not failures.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, warnings := h.aggregator.LoadAllProducts(c.Request.Context())
	h.SuccessWithWarnings(c, gin.H{
		"products": products,
		"count":    len(products),
	}, warnings)
}

// RefreshProducts drops the product cache and reloads from the sources
func (h *CatalogHandler) RefreshProducts(c *gin.Context) {
	h.aggregator.InvalidateCache(c.Request.Context())
	products, warnings := h.aggregator.LoadAllProducts(c.Request.Context())
	h.SuccessWithWarnings(c, gin.H{
		"products": products,
		"count":    len(products),
	}, warnings)
}

// ListBestSelling joins the order feeds against the product index and
// returns the top sellers. The caller's storefront credentials are
// forwarded because the join reads the remote order feeds.
func (h *CatalogHandler) ListBestSelling(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	sellers, warnings := h.aggregator.LoadBestSelling(requestContext(c), limit)
	h.SuccessWithWarnings(c, gin.H{
		"products": sellers,
		"count":    len(sellers),
	}, warnings)
}

// RegisterRoutes registers catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cat := rg.Group("/catalog")
	{
		cat.GET("/sources", h.ListSources)
		cat.GET("/sources/:source/tables", h.ListTables)
		cat.GET("/sources/:source/tables/:table", h.GetTable)
		cat.GET("/products", h.ListProducts)
		cat.POST("/products/refresh", h.RefreshProducts)
		cat.GET("/products/best-selling", h.ListBestSelling)
	}
}
