package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/rifexport/internal/rif"
)

// RecordSource implements pgx.CopyFromSource over the rows of one claim. Each
// row is prefixed with the export run id.
type RecordSource struct {
	runID uuid.UUID
	rows  []*rif.Record
	pos   int
}

// NewRecordSource creates a CopyFromSource over rows.
func NewRecordSource(runID uuid.UUID, rows []*rif.Record) *RecordSource {
	return &RecordSource{runID: runID, rows: rows, pos: -1}
}

// Next advances to the next row. Returns false after the last row.
func (s *RecordSource) Next() bool {
	s.pos++
	return s.pos < len(s.rows)
}

// Values returns the current row's values in COPY column order.
func (s *RecordSource) Values() ([]any, error) {
	vals := s.rows[s.pos].NullableValues()
	out := make([]any, 0, len(vals)+1)
	out = append(out, s.runID)
	for _, v := range vals {
		out = append(out, v)
	}
	return out, nil
}

// Err returns any error encountered during iteration.
func (s *RecordSource) Err() error {
	return nil
}

// Compile-time check that RecordSource satisfies the interface.
var _ pgx.CopyFromSource = (*RecordSource)(nil)
