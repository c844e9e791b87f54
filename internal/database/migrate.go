package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/valeriaulyamaeva/moneymine/models"
)

//go:embed schema.sql
var schema string

// Migrate creates every table that does not exist yet. It is safe to run on each start.
func (db *DB) Migrate(ctx context.Context) error {
	// Without arguments pgx uses the simple protocol, which accepts several statements.
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: migrate: %w", models.ErrDatabase, err)
	}
	return nil
}
