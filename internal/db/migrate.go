package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gyeh/rifexport/internal/rif"
	embedsql "github.com/gyeh/rifexport/internal/sql"
)

// ApplyMigrations runs all embedded SQL migrations in filename order, then
// creates the table of every given record layout.
// All DDL uses IF NOT EXISTS so migrations are idempotent.
func ApplyMigrations(ctx context.Context, conn Conn, log zerolog.Logger, layouts ...*rif.Schema) error {
	entries, err := fs.ReadDir(embedsql.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename to ensure correct ordering.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := fs.ReadFile(embedsql.Migrations, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("applying migration")
		if _, err := conn.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
	}

	for _, layout := range layouts {
		log.Info().Str("record_type", layout.Name()).Msg("creating record table")
		if _, err := conn.Exec(ctx, CreateTableSQL(layout)); err != nil {
			return fmt.Errorf("create %s table: %w", layout.Name(), err)
		}
	}

	log.Info().Int("count", len(entries)+len(layouts)).Msg("all migrations applied")
	return nil
}
