package migrations

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is valid for both PostgreSQL and SQLite. Statements are idempotent
// and run in order on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS staff_accounts (
            username TEXT PRIMARY KEY,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS blood_units (
            component TEXT NOT NULL CHECK (component IN ('PRBC', 'PC', 'PLASMA', 'WB', 'CRYO')),
            barcode_id TEXT NOT NULL,
            volume TEXT,
            date_collected TEXT,
            blood_type TEXT,
            rh_factor TEXT,
            hcv TEXT,
            syphilis TEXT,
            hbsag TEXT,
            hiv TEXT,
            malaria TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (component, barcode_id)
        );`,
	`CREATE INDEX IF NOT EXISTS blood_units_barcode_idx ON blood_units (barcode_id);`,
}

// Run creates the database schema required by the inventory service.
func Run(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
