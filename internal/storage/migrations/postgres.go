package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"intraday-almanac/internal/storage/postgres"
)

// RunPostgresMigrations creates the trading-day and economic-event
// reference tables, applying the embedded files in lexical order.
// Every migration is idempotent, so rerunning on startup is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}
