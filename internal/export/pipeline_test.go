package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/rifexport/internal/config"
	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/rif"
)

func TestRun_DelimitedOutput(t *testing.T) {
	cfg := testConfig(t,
		fixturePatient(1, []model.ClaimEntry{procedureEntry(300), procedureEntry(600)}),
		fixturePatient(2, nil, []model.ClaimEntry{procedureEntry(90)}),
	)

	summary, err := Run(context.Background(), nil, zerolog.Nop(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.PatientsRead)
	assert.Equal(t, int64(2), summary.PatientsExported)
	assert.Equal(t, int64(3), summary.ClaimsExported)
	assert.Equal(t, int64(4), summary.RowsWritten)
	assert.Len(t, summary.InputSHA256, 64)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.MappingCodes["conditions"])
	assert.Equal(t, 2, summary.MappingCodes["procedures"])
	assert.Equal(t, 1, summary.MappingCodes["hcpcs"])
	assert.Equal(t, 1, summary.MappingCodes["drg"])

	data, err := os.ReadFile(filepath.Join(cfg.OutDir, "inpatient.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 5, "header plus four rows")

	claimLines := make(map[string][]string)
	for _, line := range lines[1:] {
		fields := strings.Split(line, "|")
		require.Len(t, fields, rif.Inpatient.Len())
		id := fields[rif.ClmID]
		claimLines[id] = append(claimLines[id], fields[rif.ClmLineNum]+":"+fields[rif.HcpcsCd])
	}
	assert.Len(t, claimLines, 3)
	var sizes []int
	for _, ls := range claimLines {
		sizes = append(sizes, len(ls))
	}
	assert.ElementsMatch(t, []int{2, 1, 1}, sizes)
}

func TestRun_RejectedLineIsPartial(t *testing.T) {
	cfg := testConfig(t, fixturePatient(1, nil))
	f, err := os.OpenFile(cfg.PatientsPath, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("{\"id\":\"broken\"}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	summary, err := Run(context.Background(), nil, zerolog.Nop(), cfg)
	require.ErrorIs(t, err, ErrPartial)
	require.NotNil(t, summary)
	assert.Equal(t, int64(1), summary.PatientsRejected)
	assert.Equal(t, int64(1), summary.ClaimsExported)
}

func TestRun_MissingMappingFile(t *testing.T) {
	cfg := testConfig(t, fixturePatient(1, nil))
	cfg.Mappings.HCPCS = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Run(context.Background(), nil, zerolog.Nop(), cfg)
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseMappings, pe.Phase)
}

func TestRun_MissingInput(t *testing.T) {
	cfg := config.Default()
	cfg.PatientsPath = filepath.Join(t.TempDir(), "nope.ndjson")
	_, err := Run(context.Background(), nil, zerolog.Nop(), &cfg)
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhasePreflight, pe.Phase)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t, fixturePatient(1, []model.ClaimEntry{procedureEntry(10)}))
	cfg.DryRun = true

	summary, err := Run(context.Background(), nil, zerolog.Nop(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.RowsWritten)
	_, err = os.Stat(cfg.OutDir)
	assert.True(t, os.IsNotExist(err), "dry run should not create the output dir")
}

func TestRun_PostgresRecordsRun(t *testing.T) {
	cfg := testConfig(t,
		fixturePatient(1, []model.ClaimEntry{procedureEntry(300), procedureEntry(600)}, nil),
	)
	cfg.Format = config.FormatPostgres
	cfg.Workers = 1

	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	table := db.TableIdentifier(rif.Inpatient)
	cols := db.CopyColumns(rif.Inpatient)
	mock.ExpectExec(`INSERT INTO export\.runs`).
		WithArgs(pgxmock.AnyArg(), cfg.PatientsPath, pgxmock.AnyArg(), db.RunStatusRunning).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(table, cols).WillReturnResult(2)
	mock.ExpectCopyFrom(table, cols).WillReturnResult(1)
	mock.ExpectExec(`UPDATE export\.runs`).
		WithArgs(pgxmock.AnyArg(), db.RunStatusDone, int64(1), int64(0), int64(2), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	summary, err := Run(context.Background(), mock, zerolog.Nop(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.RowsWritten)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeExporter struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (f *fakeExporter) Export(_ context.Context, p *model.Patient) (int, error) {
	f.mu.Lock()
	f.seen = append(f.seen, p.BeneID)
	f.mu.Unlock()
	if f.fail[p.BeneID] {
		return 1, errors.New("sink unavailable")
	}
	return len(p.Encounters), nil
}

func TestExportPatients_FailuresAreCounted(t *testing.T) {
	var patients []*model.Patient
	for i := range 20 {
		patients = append(patients, fixturePatient(i, nil, nil))
	}
	path := writePatients(t, t.TempDir(), patients...)
	x := &fakeExporter{fail: map[string]bool{"-103": true, "-117": true}}

	res, err := ExportPatients(context.Background(), zerolog.Nop(), x, path, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.PatientsRead)
	assert.Equal(t, int64(18), res.PatientsExported)
	assert.Equal(t, int64(2), res.PatientsFailed)
	assert.Equal(t, int64(18*2+2), res.ClaimsExported)
	assert.Len(t, x.seen, 20)
}

func TestExportPatients_Canceled(t *testing.T) {
	path := writePatients(t, t.TempDir(), fixturePatient(1, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExportPatients(ctx, zerolog.Nop(), &fakeExporter{}, path, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_NoClaimTypes(t *testing.T) {
	cfg := testConfig(t, fixturePatient(1, nil))
	cfg.ClaimTypes = nil

	_, err := Run(context.Background(), nil, zerolog.Nop(), cfg)
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhasePreflight, pe.Phase)
}

func TestClaimExporters_StopAtFirstFailure(t *testing.T) {
	p := fixturePatient(7, nil, nil)
	ok := &fakeExporter{}
	bad := &fakeExporter{fail: map[string]bool{p.BeneID: true}}
	never := &fakeExporter{}

	n, err := claimExporters{ok, bad, never}.Export(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, len(p.Encounters)+1, n)
	assert.Empty(t, never.seen)

	n, err = claimExporters{ok, ok}.Export(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2*len(p.Encounters), n)
}
