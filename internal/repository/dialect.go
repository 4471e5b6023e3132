package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name string
	// collation forces byte-order comparison of text columns in ORDER BY.
	collation string
	schema    []string
}

var (
	// Postgres orders text with the "C" collation so ordering does not depend
	// on the server locale.
	Postgres = Dialect{
		Name:      "postgres",
		collation: ` COLLATE "C"`,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS persons (
    id BIGSERIAL PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    middle_name TEXT NOT NULL DEFAULT '',
    birth_date DATE NOT NULL,
    passport_series TEXT NOT NULL,
    passport_number TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_persons_last_name ON persons (last_name COLLATE "C")`,
		},
	}

	// SQLite relies on the default BINARY collation, which is byte order.
	SQLite = Dialect{
		Name: "sqlite",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS persons (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    middle_name TEXT NOT NULL DEFAULT '',
    birth_date DATE NOT NULL,
    passport_series TEXT NOT NULL,
    passport_number TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_persons_last_name ON persons (last_name)`,
		},
	}
)

// DialectFor returns the dialect registered for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// EnsureSchema creates the persons table and its indexes when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB, dialect Dialect) error {
	for _, stmt := range dialect.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure %s schema: %w", dialect.Name, err)
		}
	}
	return nil
}

func (d Dialect) textCollation(column string) string {
	switch column {
	case "id", "birth_date":
		return ""
	default:
		return d.collation
	}
}
