package db_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rifexport/internal/config"
	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/export"
	"github.com/gyeh/rifexport/internal/logging"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/rif"
	"github.com/gyeh/rifexport/internal/timeline"
)

const (
	testPort     = 15432
	testDB       = "riftest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	if os.Getenv("RIFEXPORT_SKIP_PG") != "" {
		fmt.Fprintln(os.Stderr, "SKIP: RIFEXPORT_SKIP_PG is set, postgres tests disabled")
		os.Exit(m.Run())
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30*time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB connects, drops the export schemas and applies migrations.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testDSN == "" {
		t.Skip("embedded postgres not started")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, schema := range []string{db.RecordSchema, "export"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Fatalf("drop schema %s: %v", schema, err)
		}
	}

	log := logging.Setup("text")
	if err := db.ApplyMigrations(ctx, pool, log, rif.Inpatient); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	if err := db.ApplyMigrations(ctx, pool, logging.Setup("text"), rif.Inpatient); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var cols int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2`,
		db.RecordSchema, rif.Inpatient.Name()).Scan(&cols)
	if err != nil {
		t.Fatalf("count columns: %v", err)
	}
	// row_seq and export_run_id precede the layout's columns.
	if want := rif.Inpatient.Len() + 2; cols != want {
		t.Errorf("inpatient table has %d columns, want %d", cols, want)
	}
}

func TestExport_PostgresRun(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	cfg := postgresConfig(t, 12)
	summary, err := export.Run(ctx, pool, logging.Setup("text"), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Each patient has a stay with two billed items and one with none.
	if summary.ClaimsExported != 24 || summary.RowsWritten != 36 {
		t.Fatalf("claims=%d rows=%d, want 24 and 36", summary.ClaimsExported, summary.RowsWritten)
	}

	var status string
	var read, claims, rows int64
	err = pool.QueryRow(ctx, `
		SELECT status, patients_read, claims_exported, rows_written
		FROM export.runs WHERE run_id = $1`, summary.RunID).Scan(&status, &read, &claims, &rows)
	if err != nil {
		t.Fatalf("select run: %v", err)
	}
	if status != db.RunStatusDone || read != 12 || claims != 24 || rows != 36 {
		t.Errorf("run row = %s/%d/%d/%d", status, read, claims, rows)
	}

	// Rows of one claim occupy consecutive row_seq values.
	var interleaved int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT clm_id, max(row_seq) - min(row_seq) + 1 AS span, count(*) AS n
			FROM rif.inpatient WHERE export_run_id = $1
			GROUP BY clm_id
		) c WHERE span <> n`, summary.RunID).Scan(&interleaved)
	if err != nil {
		t.Fatalf("check adjacency: %v", err)
	}
	if interleaved != 0 {
		t.Errorf("%d claims have interleaved rows", interleaved)
	}

	var fallback int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM rif.inpatient
		WHERE export_run_id = $1 AND hcpcs_cd = '99221' AND clm_line_num = '1'`,
		summary.RunID).Scan(&fallback)
	if err != nil {
		t.Fatalf("count fallback rows: %v", err)
	}
	if fallback != 12 {
		t.Errorf("fallback rows = %d, want 12", fallback)
	}
}

func postgresConfig(t *testing.T, patients int) *config.Config {
	t.Helper()
	dir := t.TempDir()

	path := filepath.Join(dir, "patients.ndjson")
	w, err := timeline.Create(path)
	if err != nil {
		t.Fatalf("create timeline: %v", err)
	}
	start := time.Date(2022, time.May, 2, 10, 0, 0, 0, time.UTC)
	for i := range patients {
		p := &model.Patient{
			ID:       fmt.Sprintf("p%d", i),
			BeneID:   fmt.Sprintf("-%d", 500+i),
			Seed:     uint64(i),
			Coverage: []model.CoveragePeriod{{PlanID: "Medicare", Start: start.AddDate(-2, 0, 0)}},
		}
		for j, items := range [][]model.ClaimEntry{{procedure(120), procedure(40)}, nil} {
			s := start.AddDate(0, 0, 30*j)
			p.Encounters = append(p.Encounters, model.Encounter{
				Start:     s,
				Stop:      s.Add(48 * time.Hour),
				Ended:     true,
				Class:     model.ClassInpatient,
				Provider:  model.Provider{State: "CA", CMSProviderNum: "050454", NPI: "1003000126"},
				Clinician: model.Clinician{NPI: "1508800294"},
				Reason:    &model.Code{System: "SNOMED-CT", Code: "74400008"},
				Claim: model.Claim{
					PlanID:           "Medicare",
					TotalCost:        decimal.NewFromInt(1800),
					TotalCoveredCost: decimal.NewFromInt(1500),
					TotalPatientCost: decimal.NewFromInt(300),
					Items:            items,
				},
			})
		}
		if err := w.Write(p); err != nil {
			t.Fatalf("write patient: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close timeline: %v", err)
	}

	conditions := filepath.Join(dir, "conditions.yaml")
	if err := os.WriteFile(conditions, []byte("\"74400008\":\n  - code: K35.80\n"), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	hcpcs := filepath.Join(dir, "hcpcs.yaml")
	if err := os.WriteFile(hcpcs, []byte("\"80146002\":\n  - code: \"44970\"\n"), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}

	cfg := config.Default()
	cfg.PatientsPath = path
	cfg.Format = config.FormatPostgres
	cfg.DSN = testDSN
	cfg.Workers = 4
	cfg.StartDate = "2020-01-01"
	cfg.Mappings.Conditions = conditions
	cfg.Mappings.HCPCS = hcpcs
	if err := cfg.ValidateWithDSN(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return &cfg
}

func procedure(cost int64) model.ClaimEntry {
	return model.ClaimEntry{
		Entry: &model.Procedure{Codes: []model.Code{{System: "SNOMED-CT", Code: "80146002"}}},
		Cost:  decimal.NewFromInt(cost),
	}
}
