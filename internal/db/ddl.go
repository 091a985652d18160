package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/rifexport/internal/rif"
)

// RecordSchema is the Postgres schema holding one table per record type.
const RecordSchema = "rif"

// RunIDColumn tags every exported row with its export run.
const RunIDColumn = "export_run_id"

// TableIdentifier returns the table a record layout is copied into.
func TableIdentifier(schema *rif.Schema) pgx.Identifier {
	return pgx.Identifier{RecordSchema, schema.Name()}
}

// CopyColumns returns the COPY column list for a record layout: the run id
// followed by every layout column, lowercased.
func CopyColumns(schema *rif.Schema) []string {
	cols := schema.Columns()
	out := make([]string, 0, len(cols)+1)
	out = append(out, RunIDColumn)
	for _, c := range cols {
		out = append(out, strings.ToLower(c))
	}
	return out
}

// CreateTableSQL returns idempotent DDL for a record layout's table. Rows keep
// their write order in row_seq, so a claim's rows stay adjacent when read back
// ordered by it.
func CreateTableSQL(schema *rif.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", TableIdentifier(schema).Sanitize())
	b.WriteString("    row_seq bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,\n")
	fmt.Fprintf(&b, "    %s uuid NOT NULL", RunIDColumn)
	for i, name := range schema.Columns() {
		fmt.Fprintf(&b, ",\n    %s text", pgx.Identifier{strings.ToLower(name)}.Sanitize())
		if schema.Required(rif.Field(i)) {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString("\n);\n")
	fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS %s ON %s (%s, clm_id);\n",
		pgx.Identifier{schema.Name() + "_run_claim_idx"}.Sanitize(),
		TableIdentifier(schema).Sanitize(), RunIDColumn)
	return b.String()
}
