package sink

import (
	"context"
	"sync"

	"github.com/gyeh/rifexport/internal/rif"
)

// Memory keeps written rows in memory. It backs dry runs and tests.
type Memory struct {
	// Discard drops rows after counting them.
	Discard bool
	// Err, when set, is returned by every write.
	Err error

	mu     sync.Mutex
	rows   map[string][]*rif.Record
	groups map[string][]int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string][]*rif.Record), groups: make(map[string][]int)}
}

// Open is an Opener for in-memory tables.
func (m *Memory) Open(schema *rif.Schema) (Backend, error) {
	return &memoryTable{store: m, name: schema.Name()}, nil
}

// Rows returns the rows written for a record type, in write order.
func (m *Memory) Rows(recordType string) []*rif.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*rif.Record(nil), m.rows[recordType]...)
}

// Groups returns the size of each claim group written for a record type.
func (m *Memory) Groups(recordType string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.groups[recordType]...)
}

type memoryTable struct {
	store *Memory
	name  string
}

func (t *memoryTable) Write(_ context.Context, rows []*rif.Record) error {
	m := t.store
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[t.name] = append(m.groups[t.name], len(rows))
	if m.Discard {
		return nil
	}
	for _, r := range rows {
		m.rows[t.name] = append(m.rows[t.name], r.Clone())
	}
	return nil
}

func (t *memoryTable) Close() error { return nil }
