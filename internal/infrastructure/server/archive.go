package server

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/conceptforge/concept-api/internal/config"
	"github.com/conceptforge/concept-api/internal/database"
	"github.com/conceptforge/concept-api/internal/database/bunstore"
	"github.com/conceptforge/concept-api/internal/database/sqlite"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenArchive opens the concept store selected by cfg.ArchiveDriver and makes
// sure its schema exists. The caller owns the returned repository.
func OpenArchive(cfg *config.Config) (database.ConceptRepository, error) {
	if err := cfg.ValidateArchive(); err != nil {
		return nil, err
	}

	switch cfg.ArchiveDriver {
	case config.DriverSQLite3:
		log.Printf("[System] Opening archive %s (sqlite3)", cfg.DatabasePath)
		return sqlite.NewSQLiteStore(cfg.DatabasePath)
	default:
		log.Printf("[System] Opening archive %s (bun)", cfg.DatabasePath)
		db, err := sql.Open(sqliteshim.ShimName, cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}

		store, err := bunstore.NewBunStore(db, sqlitedialect.New())
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	}
}
