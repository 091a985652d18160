package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/rifexport/internal/rif"
)

const parquetFlushInterval = 100_000

// Parquet writes one Parquet file per record type, named <record type>.parquet
// under Dir. Every column is an optional string; unset fields are null.
type Parquet struct {
	Dir string
}

// ParquetSchema derives the Parquet schema for a record layout.
func ParquetSchema(schema *rif.Schema) *parquet.Schema {
	group := make(parquet.Group, schema.Len())
	for _, name := range schema.Columns() {
		group[name] = parquet.Optional(parquet.String())
	}
	return parquet.NewSchema(schema.Name(), group)
}

// Open is an Opener for Parquet files.
func (p Parquet) Open(schema *rif.Schema) (Backend, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(p.Dir, schema.Name()+".parquet")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}

	ps := ParquetSchema(schema)
	// Group fields are stored in name order, not layout order.
	columnIndex := make([]int, schema.Len())
	for i, name := range schema.Columns() {
		leaf, ok := ps.Lookup(name)
		if !ok {
			f.Close()
			return nil, fmt.Errorf("parquet schema lost column %s", name)
		}
		columnIndex[i] = leaf.ColumnIndex
	}

	w := parquet.NewWriter(f, ps,
		parquet.Compression(&parquet.Snappy),
		parquet.CreatedBy("rifexport", "1.0", ""),
	)
	return &parquetTable{file: f, writer: w, columnIndex: columnIndex}, nil
}

type parquetTable struct {
	file        *os.File
	writer      *parquet.Writer
	columnIndex []int
	count       int
}

func (t *parquetTable) Write(_ context.Context, rows []*rif.Record) error {
	batch := make([]parquet.Row, len(rows))
	for i, r := range rows {
		batch[i] = t.row(r)
	}
	if _, err := t.writer.WriteRows(batch); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}

	before := t.count / parquetFlushInterval
	t.count += len(rows)
	// Flush row groups periodically to bound memory usage, only at claim
	// boundaries.
	if t.count/parquetFlushInterval != before {
		if err := t.writer.Flush(); err != nil {
			return fmt.Errorf("flush parquet row group: %w", err)
		}
	}
	return nil
}

func (t *parquetTable) row(r *rif.Record) parquet.Row {
	row := make(parquet.Row, len(t.columnIndex))
	for i, v := range r.NullableValues() {
		col := t.columnIndex[i]
		if v == nil {
			row[col] = parquet.Value{}.Level(0, 0, col)
			continue
		}
		row[col] = parquet.ValueOf(*v).Level(0, 1, col)
	}
	return row
}

func (t *parquetTable) Close() error {
	if err := t.writer.Close(); err != nil {
		t.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return t.file.Close()
}
