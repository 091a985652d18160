package sink

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/rif"
)

// Postgres copies rows into rif.<record type> tables, one COPY per claim. Each
// row carries RunID so runs can be told apart.
type Postgres struct {
	Conn  db.Conn
	RunID uuid.UUID
}

// Open is an Opener for Postgres tables. The table must already exist; see
// db.ApplyMigrations.
func (p Postgres) Open(schema *rif.Schema) (Backend, error) {
	if p.Conn == nil {
		return nil, fmt.Errorf("postgres sink has no connection")
	}
	return &postgresTable{
		conn:    p.Conn,
		runID:   p.RunID,
		schema:  schema,
		columns: db.CopyColumns(schema),
	}, nil
}

type postgresTable struct {
	conn    db.Conn
	runID   uuid.UUID
	schema  *rif.Schema
	columns []string
}

func (t *postgresTable) Write(ctx context.Context, rows []*rif.Record) error {
	n, err := t.conn.CopyFrom(ctx, db.TableIdentifier(t.schema), t.columns, db.NewRecordSource(t.runID, rows))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", t.schema.Name(), err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", t.schema.Name(), n, len(rows))
	}
	return nil
}

func (t *postgresTable) Close() error { return nil }
