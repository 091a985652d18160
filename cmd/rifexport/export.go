package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/rifexport/internal/config"
	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/exitcode"
	"github.com/gyeh/rifexport/internal/export"
	"github.com/gyeh/rifexport/internal/logging"
	"github.com/gyeh/rifexport/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export inpatient claims from a patient timeline file",
	RunE:  runExport,
}

func init() {
	addRunFlags(exportCmd)
	f := exportCmd.Flags()
	f.StringVar(&cfg.OutDir, "out", "", "Output directory for rif and parquet formats")
	f.StringVar(&cfg.Format, "format", cfg.Format, "Output format: rif, parquet or postgres")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validate := cfg.Validate
	if cfg.Format == config.FormatPostgres {
		validate = cfg.ValidateWithDSN
	}
	if err := validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	var conn db.Conn
	if cfg.Format == config.FormatPostgres {
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		conn = pool
	}

	summary, err := export.Run(ctx, conn, log, &cfg)
	if err != nil && !errors.Is(err, export.ErrPartial) {
		log.Error().Err(err).Msg("export failed")
		os.Exit(exitCodeFor(err))
	}

	printSummary(summary)
	if err != nil {
		log.Warn().
			Int64("patients_failed", summary.PatientsFailed).
			Int64("patients_rejected", summary.PatientsRejected).
			Msg("export finished with failures")
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

// exitCodeFor maps a pipeline failure to the process exit code.
func exitCodeFor(err error) int {
	var pe *export.PipelineError
	if !errors.As(err, &pe) {
		return exitcode.ExportError
	}
	switch pe.Phase {
	case export.PhasePreflight:
		return exitcode.ValidationError
	case export.PhaseMappings:
		return exitcode.MappingError
	default:
		return exitcode.ExportError
	}
}

func printSummary(s *model.ExportSummary) {
	fmt.Printf("Export complete: %d patients, %d claims, %d rows (%s, %.1fs)\n",
		s.PatientsExported, s.ClaimsExported, s.RowsWritten, s.Format, s.DurationTotal.Seconds())
	if s.PatientsFailed > 0 || s.PatientsRejected > 0 {
		fmt.Printf("Not exported: %d failed, %d rejected\n", s.PatientsFailed, s.PatientsRejected)
	}
}
