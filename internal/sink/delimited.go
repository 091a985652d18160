package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gyeh/rifexport/internal/rif"
)

// Delimited writes pipe-delimited RIF text files, one per record type, named
// <record type>.csv under Dir. The first line holds the column names.
type Delimited struct {
	Dir string
}

// Open is an Opener for delimited files.
func (d Delimited) Open(schema *rif.Schema) (Backend, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(d.Dir, schema.Name()+".csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	buf := bufio.NewWriterSize(f, 1<<20)
	w := csv.NewWriter(buf)
	w.Comma = '|'
	if err := w.Write(schema.Columns()); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &delimitedTable{file: f, buf: buf, w: w}, nil
}

type delimitedTable struct {
	file *os.File
	buf  *bufio.Writer
	w    *csv.Writer
}

func (t *delimitedTable) Write(_ context.Context, rows []*rif.Record) error {
	for _, r := range rows {
		if err := t.w.Write(r.Values()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return nil
}

func (t *delimitedTable) Close() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		t.file.Close()
		return err
	}
	if err := t.buf.Flush(); err != nil {
		t.file.Close()
		return err
	}
	return t.file.Close()
}
