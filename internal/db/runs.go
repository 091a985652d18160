package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gyeh/rifexport/internal/model"
	embedsql "github.com/gyeh/rifexport/internal/sql"
)

// Run statuses recorded in export.runs.
const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// RegisterRun inserts the export.runs row for a new run.
func RegisterRun(ctx context.Context, conn Conn, runID uuid.UUID, inputPath, inputSHA256 string) error {
	if _, err := conn.Exec(ctx, embedsql.RegisterRun, runID, inputPath, inputSHA256, RunStatusRunning); err != nil {
		return fmt.Errorf("register run: %w", err)
	}
	return nil
}

// FinishRun records the final status and counts of a run.
func FinishRun(ctx context.Context, conn Conn, runID uuid.UUID, status string, s *model.ExportSummary) error {
	_, err := conn.Exec(ctx, embedsql.FinishRun,
		runID, status,
		s.PatientsRead, s.PatientsFailed, s.ClaimsExported, s.RowsWritten,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
