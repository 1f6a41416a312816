package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/shared"
	"github.com/unistore/backend/internal/domain/source"
)

// Column describes one column of an introspected table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// CatalogReader reads rows out of the storefront databases without any
// prior knowledge of their schemas. Table names always come back from
// introspection before they are interpolated into a query, so arbitrary
// caller-supplied names never reach SQL.
type CatalogReader struct {
	pool   *Pool
	rowCap int
}

// NewCatalogReader wraps a connection pool with a per-table row cap.
func NewCatalogReader(pool *Pool, rowCap int) *CatalogReader {
	return &CatalogReader{pool: pool, rowCap: rowCap}
}

// Sources lists the catalog sources that are currently connected.
func (r *CatalogReader) Sources() []source.ID {
	return r.pool.Sources()
}

// ListTables returns the table names of one source.
func (r *CatalogReader) ListTables(ctx context.Context, src source.ID) ([]string, error) {
	db, ok := r.pool.Get(src)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownSource, src)
	}
	tables, err := db.DB.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables for %s: %w", src, err)
	}
	return tables, nil
}

// DescribeTable returns the column metadata of one table.
func (r *CatalogReader) DescribeTable(ctx context.Context, src source.ID, table string) ([]Column, error) {
	db, ok := r.pool.Get(src)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownSource, src)
	}
	name, err := r.resolveTable(ctx, src, table)
	if err != nil {
		return nil, err
	}
	columnTypes, err := db.DB.WithContext(ctx).Migrator().ColumnTypes(name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s.%s: %w", src, name, err)
	}
	columns := make([]Column, 0, len(columnTypes))
	for _, ct := range columnTypes {
		nullable, _ := ct.Nullable()
		columns = append(columns, Column{
			Name:     ct.Name(),
			Type:     ct.DatabaseTypeName(),
			Nullable: nullable,
		})
	}
	return columns, nil
}

// ReadRows fetches up to the row cap from one table.
func (r *CatalogReader) ReadRows(ctx context.Context, src source.ID, table string) ([]catalog.Row, error) {
	db, ok := r.pool.Get(src)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownSource, src)
	}
	name, err := r.resolveTable(ctx, src, table)
	if err != nil {
		return nil, err
	}

	var raw []map[string]any
	if err := db.DB.WithContext(ctx).Table(name).Limit(r.rowCap).Find(&raw).Error; err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", src, name, err)
	}

	rows := make([]catalog.Row, len(raw))
	for i, m := range raw {
		rows[i] = catalog.Row(m)
	}
	return rows, nil
}

// ReadProducts probes for the product table of one source and returns its
// rows along with the chosen table name.
func (r *CatalogReader) ReadProducts(ctx context.Context, src source.ID) (string, []catalog.Row, error) {
	tables, err := r.ListTables(ctx, src)
	if err != nil {
		return "", nil, err
	}
	table := catalog.PickProductTable(tables, src)
	if table == "" {
		return "", nil, fmt.Errorf("%w: %s", shared.ErrNoProductTable, src)
	}
	rows, err := r.ReadRows(ctx, src, table)
	if err != nil {
		return table, nil, err
	}
	return table, rows, nil
}

// resolveTable matches a requested table name against the source's real
// tables, case-insensitively, and returns the canonical spelling.
func (r *CatalogReader) resolveTable(ctx context.Context, src source.ID, table string) (string, error) {
	tables, err := r.ListTables(ctx, src)
	if err != nil {
		return "", err
	}
	for _, name := range tables {
		if strings.EqualFold(name, table) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: table %q in source %s", shared.ErrNotFound, table, src)
}
