// Package timeline reads and writes patient timelines as newline-delimited
// JSON, one patient per line.
package timeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gyeh/rifexport/internal/model"
)

const maxLineBytes = 64 << 20

// ErrInvalidPatient marks a line that could not be decoded or validated. The
// reader has moved past it; reading may continue.
var ErrInvalidPatient = errors.New("invalid patient")

// Reader streams patients from an NDJSON file.
type Reader struct {
	file *os.File
	buf  *bufio.Reader
	line int64
}

// Open opens an NDJSON timeline file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open timeline file: %w", err)
	}
	return &Reader{file: f, buf: bufio.NewReaderSize(f, 1<<20)}, nil
}

// Read decodes up to len(patients) patients into the provided slice, reusing
// its elements. Returns the number read and io.EOF when the file is done.
// Blank lines are skipped.
func (r *Reader) Read(patients []model.Patient) (int, error) {
	n := 0
	for n < len(patients) {
		line, err := r.next()
		if err != nil {
			return n, err
		}
		patients[n] = model.Patient{}
		if err := json.Unmarshal(line, &patients[n]); err != nil {
			return n, fmt.Errorf("%w: decode line %d: %w", ErrInvalidPatient, r.line, err)
		}
		if err := Validate(&patients[n]); err != nil {
			return n, fmt.Errorf("%w: line %d: %w", ErrInvalidPatient, r.line, err)
		}
		n++
	}
	return n, nil
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int64 { return r.line }

// next returns the next non-blank line, or io.EOF.
func (r *Reader) next() ([]byte, error) {
	for {
		line, err := r.buf.ReadBytes('\n')
		if len(line) > maxLineBytes {
			return nil, fmt.Errorf("line %d exceeds %d bytes", r.line+1, maxLineBytes)
		}
		if len(line) > 0 {
			r.line++
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				return trimmed, nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read timeline line %d: %w", r.line+1, err)
		}
	}
}

// Close releases the file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Count returns the number of non-blank lines in an NDJSON file without
// decoding them.
func Count(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open timeline file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<20), maxLineBytes)
	var n int64
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("count timeline lines: %w", err)
	}
	return n, nil
}
