package timeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gyeh/rifexport/internal/model"
)

// Writer writes patients as NDJSON.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// Create creates (or truncates) an NDJSON timeline file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create timeline file: %w", err)
	}
	buf := bufio.NewWriter(f)
	return &Writer{file: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write appends one patient line.
func (w *Writer) Write(p *model.Patient) error {
	if err := w.enc.Encode(p); err != nil {
		return fmt.Errorf("encode patient %s: %w", p.ID, err)
	}
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
