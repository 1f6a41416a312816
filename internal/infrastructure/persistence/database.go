package persistence

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/unistore/backend/internal/domain/source"
	"github.com/unistore/backend/internal/infrastructure/config"
	"github.com/unistore/backend/internal/infrastructure/logger"
)

// Database holds one read-only connection to a storefront catalog.
type Database struct {
	Source source.ID
	DB     *gorm.DB
}

// NewDatabase connects to one catalog source.
func NewDatabase(src source.ID, cfg config.DatabaseConfig, log *zap.Logger, logLevel string) (*Database, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger:                 logger.NewGormLogger(log, src, logLevel),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s catalog: %w", src, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping %s catalog: %w", src, err)
	}

	return &Database{Source: src, DB: db}, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Pool manages the open catalog connections. Sources whose connection
// failed at startup are simply absent.
type Pool struct {
	databases map[source.ID]*Database
}

// NewPool connects to every configured source, skipping the ones that are
// unreachable so one broken catalog never takes the service down.
func NewPool(cfg *config.Config, log *zap.Logger) *Pool {
	pool := &Pool{databases: make(map[source.ID]*Database)}
	for _, src := range source.All() {
		dbCfg, ok := cfg.Sources[src]
		if !ok || !dbCfg.Configured() {
			log.Warn("catalog source not configured, skipping", zap.String("source", src.String()))
			continue
		}
		db, err := NewDatabase(src, dbCfg, log, cfg.Log.Level)
		if err != nil {
			log.Warn("catalog source unreachable, skipping",
				zap.String("source", src.String()), zap.Error(err))
			continue
		}
		pool.databases[src] = db
	}
	return pool
}

// Get returns the connection for one source.
func (p *Pool) Get(src source.ID) (*Database, bool) {
	db, ok := p.databases[src]
	return db, ok
}

// Put registers a connection. Used by tests to inject sqlite-backed
// databases.
func (p *Pool) Put(db *Database) {
	if p.databases == nil {
		p.databases = make(map[source.ID]*Database)
	}
	p.databases[db.Source] = db
}

// Sources lists the connected sources in canonical order.
func (p *Pool) Sources() []source.ID {
	out := make([]source.ID, 0, len(p.databases))
	for _, src := range source.All() {
		if _, ok := p.databases[src]; ok {
			out = append(out, src)
		}
	}
	return out
}

// Close closes every connection and returns the first error seen.
func (p *Pool) Close() error {
	var firstErr error
	for _, db := range p.databases {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
