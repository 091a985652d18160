package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/rifexport/internal/exitcode"
	"github.com/gyeh/rifexport/internal/export"
	"github.com/gyeh/rifexport/internal/logging"
	"github.com/gyeh/rifexport/internal/mapping"
	"github.com/gyeh/rifexport/internal/rif"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run export: validate inputs and count claims (no writes)",
	RunE:  runPlan,
}

func init() {
	addRunFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	cfg.DryRun = true

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	summary, err := export.Run(context.Background(), nil, log, &cfg)
	if err != nil && !errors.Is(err, export.ErrPartial) {
		log.Error().Err(err).Msg("plan failed")
		os.Exit(exitCodeFor(err))
	}

	fmt.Println("=== rifexport plan ===")
	fmt.Printf("File:              %s\n", summary.InputPath)
	fmt.Printf("SHA-256:           %s\n", summary.InputSHA256)
	fmt.Printf("Patients read:     %d\n", summary.PatientsRead)
	fmt.Printf("Patients rejected: %d\n", summary.PatientsRejected)
	fmt.Printf("Patients failed:   %d\n", summary.PatientsFailed)
	fmt.Printf("Claims:            %d\n", summary.ClaimsExported)
	fmt.Printf("Rows (%s):    %d\n", rif.Inpatient.Name(), summary.RowsWritten)
	fmt.Println()
	fmt.Println("Mappings:")
	for _, role := range mapping.SizeOrder {
		if n, ok := summary.MappingCodes[role]; ok {
			fmt.Printf("  %-10s %6d source codes\n", role, n)
		}
	}

	if err != nil {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
