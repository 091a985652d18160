package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/parquet-go/parquet-go"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/rif"
)

func claimRows(claimID string, n int) []*rif.Record {
	rows := make([]*rif.Record, n)
	for i := range rows {
		r := rif.Inpatient.NewRecord()
		r.Set(rif.ClmID, claimID)
		r.Set(rif.ClmLineNum, fmt.Sprint(i+1))
		rows[i] = r
	}
	return rows
}

func TestSink_TableIsShared(t *testing.T) {
	mem := NewMemory()
	s := New(mem.Open, zerolog.Nop())

	a, err := s.Table(rif.Inpatient)
	require.NoError(t, err)
	b, err := s.Table(rif.Inpatient)
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, s.Close())
	_, err = s.Table(rif.Inpatient)
	assert.Error(t, err, "closed sink should refuse new tables")
}

func TestTable_ConcurrentClaimsStayAdjacent(t *testing.T) {
	mem := NewMemory()
	s := New(mem.Open, zerolog.Nop())
	tbl, err := s.Table(rif.Inpatient)
	require.NoError(t, err)

	const writers, claimsPerWriter = 8, 50
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range claimsPerWriter {
				id := fmt.Sprintf("%d-%d", w, c)
				if err := tbl.WriteClaim(context.Background(), claimRows(id, 1+c%4)); err != nil {
					t.Errorf("WriteClaim: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	rows := mem.Rows("inpatient")
	seen := make(map[string]bool)
	prev := ""
	for _, r := range rows {
		id := r.Value(rif.ClmID)
		if id != prev {
			require.False(t, seen[id], "claim %s rows are not contiguous", id)
			seen[id] = true
			prev = id
		}
	}
	assert.Len(t, seen, writers*claimsPerWriter)

	stats := tbl.Stats()
	assert.Equal(t, int64(writers*claimsPerWriter), stats.Claims)
	assert.Equal(t, int64(len(rows)), stats.Rows)
	assert.Len(t, mem.Groups("inpatient"), writers*claimsPerWriter)
}

func TestTable_WriteErrorReleasesLock(t *testing.T) {
	mem := NewMemory()
	mem.Err = errors.New("disk full")
	s := New(mem.Open, zerolog.Nop())
	tbl, err := s.Table(rif.Inpatient)
	require.NoError(t, err)

	require.Error(t, tbl.WriteClaim(context.Background(), claimRows("-1", 2)))

	mem.Err = nil
	require.NoError(t, tbl.WriteClaim(context.Background(), claimRows("-2", 2)))
	assert.Equal(t, int64(1), tbl.Stats().Claims)
}

func TestTable_RejectsForeignLayout(t *testing.T) {
	other := rif.NewSchema("outpatient", []rif.Column{{Name: "CLM_ID"}})
	s := New(NewMemory().Open, zerolog.Nop())
	tbl, err := s.Table(rif.Inpatient)
	require.NoError(t, err)

	err = tbl.WriteClaim(context.Background(), []*rif.Record{other.NewRecord()})
	assert.Error(t, err)
}

func TestDelimited_WritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	s := New(Delimited{Dir: dir}.Open, zerolog.Nop())
	tbl, err := s.Table(rif.Inpatient)
	require.NoError(t, err)
	require.NoError(t, tbl.WriteClaim(context.Background(), claimRows("-7", 2)))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(filepath.Join(dir, "inpatient.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)

	header := strings.Split(lines[0], "|")
	assert.Equal(t, rif.Inpatient.Columns(), header)

	first := strings.Split(lines[1], "|")
	require.Len(t, first, rif.Inpatient.Len())
	assert.Equal(t, "-7", first[rif.ClmID])
	assert.Equal(t, "1", first[rif.ClmLineNum])
	assert.Equal(t, "", first[rif.HcpcsCd])
}

func TestParquet_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(Parquet{Dir: dir}.Open, zerolog.Nop())
	tbl, err := s.Table(rif.Inpatient)
	require.NoError(t, err)
	require.NoError(t, tbl.WriteClaim(context.Background(), claimRows("-3", 3)))
	require.NoError(t, s.Close())

	f, err := os.Open(filepath.Join(dir, "inpatient.parquet"))
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(f, info.Size())
	require.NoError(t, err)
	assert.Equal(t, int64(3), pf.NumRows())

	clmID, ok := pf.Schema().Lookup("CLM_ID")
	require.True(t, ok)
	hcpcs, ok := pf.Schema().Lookup("HCPCS_CD")
	require.True(t, ok)

	r := parquet.NewReader(pf)
	defer r.Close()
	buf := make([]parquet.Row, 3)
	n, _ := r.ReadRows(buf)
	require.Equal(t, 3, n)

	for _, row := range buf[:n] {
		for _, v := range row {
			switch v.Column() {
			case clmID.ColumnIndex:
				assert.Equal(t, "-3", v.String())
			case hcpcs.ColumnIndex:
				assert.True(t, v.IsNull(), "unset field should be null")
			}
		}
	}
}

func TestPostgres_OneCopyPerClaim(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	runID := uuid.New()
	table := pgx.Identifier{"rif", "inpatient"}
	cols := db.CopyColumns(rif.Inpatient)
	mock.ExpectCopyFrom(table, cols).WillReturnResult(2)
	mock.ExpectCopyFrom(table, cols).WillReturnResult(1)

	s := New(Postgres{Conn: mock, RunID: runID}.Open, zerolog.Nop())
	tbl, err := s.Table(rif.Inpatient)
	require.NoError(t, err)
	require.NoError(t, tbl.WriteClaim(context.Background(), claimRows("-1", 2)))
	require.NoError(t, tbl.WriteClaim(context.Background(), claimRows("-2", 1)))
	require.NoError(t, s.Close())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ShortCopyFails(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectCopyFrom(pgx.Identifier{"rif", "inpatient"}, db.CopyColumns(rif.Inpatient)).WillReturnResult(1)

	s := New(Postgres{Conn: mock, RunID: uuid.New()}.Open, zerolog.Nop())
	tbl, err := s.Table(rif.Inpatient)
	require.NoError(t, err)
	assert.Error(t, tbl.WriteClaim(context.Background(), claimRows("-1", 2)))
}
