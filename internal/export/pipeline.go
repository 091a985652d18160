// Package export runs an inpatient claim export from a timeline file to a
// record sink.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/rifexport/internal/config"
	"github.com/gyeh/rifexport/internal/coverage"
	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/ids"
	"github.com/gyeh/rifexport/internal/inpatient"
	"github.com/gyeh/rifexport/internal/mapping"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/sink"
)

// Pipeline phases.
const (
	PhasePreflight = "preflight"
	PhaseMappings  = "mappings"
	PhaseExport    = "export"
	PhaseFinalize  = "finalize"
)

// ErrPartial is returned with a complete summary when some patients were
// rejected or failed to export.
var ErrPartial = errors.New("some patients were not exported")

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run executes the full export pipeline: preflight → mappings → export →
// finalize. conn is required for the postgres format and ignored otherwise.
func Run(ctx context.Context, conn db.Conn, log zerolog.Logger, cfg *config.Config) (*model.ExportSummary, error) {
	totalStart := time.Now()

	// Phase 1: Preflight
	log.Info().Str("file", cfg.PatientsPath).Msg("starting preflight")
	pf, err := Preflight(ctx, runConn(cfg, conn), log, cfg.PatientsPath)
	if err != nil {
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}

	// Phase 2: Mappings
	maps, err := mapping.Load(cfg.Mappings)
	if err != nil {
		failRun(ctx, runConn(cfg, conn), log, pf)
		return nil, &PipelineError{Phase: PhaseMappings, Err: err}
	}

	types := cfg.ExportClaimTypes()
	if len(types) == 0 {
		failRun(ctx, runConn(cfg, conn), log, pf)
		return nil, &PipelineError{Phase: PhasePreflight, Err: errors.New("no claim types to export")}
	}

	open, err := openerFor(cfg, conn, pf)
	if err != nil {
		failRun(ctx, runConn(cfg, conn), log, pf)
		return nil, &PipelineError{Phase: PhaseExport, Err: err}
	}
	out := sink.New(open, log)

	start, cutoff, err := cfg.ExportWindow()
	if err != nil {
		failRun(ctx, runConn(cfg, conn), log, pf)
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}
	issuer := ids.NewIssuer(cfg.IDs)
	cov := coverage.NewPlanChecker(cfg.EligiblePlans)
	var x claimExporters
	for _, ct := range types {
		ex, err := inpatient.New(inpatient.Config{
			ClaimType:             ct,
			Start:                 start,
			Cutoff:                cutoff,
			AdmissionThreshold:    cfg.AdmissionThreshold(),
			PrimaryGovernmentPlan: cfg.PrimaryGovernmentPlan,
			Static:                cfg.StaticFields[ct.RecordType],
		}, issuer, maps, cov, out, log)
		if err != nil {
			_ = out.Close()
			failRun(ctx, runConn(cfg, conn), log, pf)
			return nil, &PipelineError{Phase: PhaseMappings, Err: err}
		}
		x = append(x, ex)
	}

	// Phase 3: Export
	log.Info().Int("workers", cfg.Workers).Int64("patients", pf.Patients).Msg("starting export")
	res, err := ExportPatients(ctx, log, x, cfg.PatientsPath, cfg.Workers)
	if err != nil {
		_ = out.Close()
		failRun(ctx, runConn(cfg, conn), log, pf)
		return nil, &PipelineError{Phase: PhaseExport, Err: err}
	}

	summary := &model.ExportSummary{
		InputPath:        pf.InputPath,
		InputSHA256:      pf.InputSHA256,
		RunID:            pf.RunID.String(),
		Format:           cfg.Format,
		PatientsRead:     res.PatientsRead,
		PatientsRejected: res.PatientsRejected,
		PatientsExported: res.PatientsExported,
		PatientsFailed:   res.PatientsFailed,
		ClaimsExported:   res.ClaimsExported,
		MappingCodes:     maps.Sizes(),
		DurationExport:   res.Duration,
	}

	// Phase 4: Finalize
	log.Info().Msg("finalizing")
	finalizeDur, err := Finalize(ctx, runConn(cfg, conn), log, out, pf.RunID, summary)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseFinalize, Err: err}
	}
	summary.DurationFinalize = finalizeDur
	summary.DurationTotal = time.Since(totalStart)

	log.Info().
		Int64("patients_read", summary.PatientsRead).
		Int64("patients_failed", summary.PatientsFailed).
		Int64("patients_rejected", summary.PatientsRejected).
		Int64("claims", summary.ClaimsExported).
		Int64("rows", summary.RowsWritten).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("export pipeline complete")

	if summary.PatientsFailed > 0 || summary.PatientsRejected > 0 {
		return summary, ErrPartial
	}
	return summary, nil
}

// runConn returns the connection runs are recorded through, or nil when the
// run does not write to Postgres.
func runConn(cfg *config.Config, conn db.Conn) db.Conn {
	if cfg.Format != config.FormatPostgres || cfg.DryRun {
		return nil
	}
	return conn
}

func failRun(ctx context.Context, conn db.Conn, log zerolog.Logger, pf *PreflightResult) {
	if conn == nil {
		return
	}
	if err := db.FinishRun(ctx, conn, pf.RunID, db.RunStatusFailed, &model.ExportSummary{}); err != nil {
		log.Warn().Err(err).Msg("could not mark run failed")
	}
}
