package storage

import (
	"context"
	"fmt"
	"log/slog"

	"pagebuilder/internal/domain"
)

// Open returns the page store for driver: sqlite, postgres, mysql or mongodb.
// For sqlite dsn is the database file path.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (domain.PageStore, error) {
	switch driver {
	case "", string(DialectSQLite):
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return NewPageStore(db), nil
	case string(DialectPostgres), string(DialectMySQL):
		db, err := OpenSQL(Dialect(driver), dsn)
		if err != nil {
			return nil, err
		}
		return NewPageStore(db), nil
	case "mongodb":
		return OpenMongo(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
