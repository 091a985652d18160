// Package sink persists exported claim rows. A Sink hands out one shared Table
// per record type; all rows of a claim are written through Table.WriteClaim so
// that no other claim's rows interleave with them.
package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/gyeh/rifexport/internal/rif"
)

// Backend appends rows of one record type to durable storage. Write is called
// with every row of one claim and is never called concurrently for the same
// backend.
type Backend interface {
	Write(ctx context.Context, rows []*rif.Record) error
	Close() error
}

// Opener creates the backend for a record type on first use.
type Opener func(schema *rif.Schema) (Backend, error)

// Sink owns the tables of one export run.
type Sink struct {
	open Opener
	log  zerolog.Logger

	mu     sync.Mutex
	tables map[string]*Table
	closed bool
}

// New creates a Sink whose tables are opened with open.
func New(open Opener, log zerolog.Logger) *Sink {
	return &Sink{open: open, log: log, tables: make(map[string]*Table)}
}

// Table returns the shared handle for schema's record type, opening its backend
// on first use. Every call for the same record type returns the same handle.
func (s *Sink) Table(schema *rif.Schema) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("sink is closed")
	}
	if t, ok := s.tables[schema.Name()]; ok {
		return t, nil
	}
	b, err := s.open(schema)
	if err != nil {
		return nil, fmt.Errorf("open %s table: %w", schema.Name(), err)
	}
	t := &Table{schema: schema, backend: b}
	s.tables[schema.Name()] = t
	s.log.Debug().Str("record_type", schema.Name()).Msg("table opened")
	return t, nil
}

// Stats returns per record type counters.
func (s *Sink) Stats() map[string]TableStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]TableStats, len(s.tables))
	for name, t := range s.tables {
		out[name] = t.Stats()
	}
	return out
}

// Close closes every backend. It reports the first error but closes all tables.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var first error
	for name, t := range s.tables {
		t.mu.Lock()
		err := t.backend.Close()
		t.mu.Unlock()
		if err != nil {
			s.log.Error().Err(err).Str("record_type", name).Msg("table close failed")
			if first == nil {
				first = fmt.Errorf("close %s table: %w", name, err)
			}
		}
	}
	return first
}

// TableStats counts what a table has written.
type TableStats struct {
	Claims int64
	Rows   int64
}

// Table is the shared writer handle for one record type.
type Table struct {
	schema  *rif.Schema
	backend Backend

	mu     sync.Mutex
	claims atomic.Int64
	rows   atomic.Int64
}

// Schema returns the record layout the table stores.
func (t *Table) Schema() *rif.Schema { return t.schema }

// WriteClaim appends the rows of one claim as a contiguous group. The rows must
// be fully computed by the caller; the table lock is held only for the backend
// write and released on every path.
func (t *Table) WriteClaim(ctx context.Context, rows []*rif.Record) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r.Schema() != t.schema {
			return fmt.Errorf("row of %s layout written to %s table", r.Schema().Name(), t.schema.Name())
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.backend.Write(ctx, rows); err != nil {
		return err
	}
	t.claims.Add(1)
	t.rows.Add(int64(len(rows)))
	return nil
}

// Stats returns the table's counters.
func (t *Table) Stats() TableStats {
	return TableStats{Claims: t.claims.Load(), Rows: t.rows.Load()}
}
