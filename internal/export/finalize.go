package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/sink"
)

// Finalize closes every sink table, fills the row counts into summary and,
// when conn is set, records the run's final status.
func Finalize(ctx context.Context, conn db.Conn, log zerolog.Logger, out *sink.Sink, runID uuid.UUID, summary *model.ExportSummary) (time.Duration, error) {
	start := time.Now()

	for recordType, st := range out.Stats() {
		summary.RowsWritten += st.Rows
		log.Info().
			Str("record_type", recordType).
			Int64("claims", st.Claims).
			Int64("rows", st.Rows).
			Msg("table complete")
	}

	closeErr := out.Close()
	if conn != nil {
		status := runStatus(summary, closeErr)
		if err := db.FinishRun(ctx, conn, runID, status, summary); err != nil {
			return 0, fmt.Errorf("finish run: %w", err)
		}
		log.Info().Str("run_id", runID.String()).Str("status", status).Msg("run recorded")
	}
	if closeErr != nil {
		return 0, fmt.Errorf("close sink: %w", closeErr)
	}
	return time.Since(start), nil
}

func runStatus(s *model.ExportSummary, closeErr error) string {
	switch {
	case closeErr != nil:
		return db.RunStatusFailed
	case s.PatientsFailed > 0 || s.PatientsRejected > 0:
		return db.RunStatusPartial
	default:
		return db.RunStatusDone
	}
}
