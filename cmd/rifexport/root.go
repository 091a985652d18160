package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gyeh/rifexport/internal/config"
)

var (
	cfg        = config.Default()
	configPath string
	startDate  string
)

var rootCmd = &cobra.Command{
	Use:   "rifexport",
	Short: "Synthetic patient timelines → CMS RIF inpatient claims",
	Long: "Reads simulated patient timelines (NDJSON) and exports their inpatient encounters as " +
		"CMS Research Identifiable File claim records: pipe-delimited files, Parquet, or Postgres via COPY.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	// A .env file in the working directory may supply DATABASE_URL.
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&configPath, "config", "", "YAML config file (mappings, export window, static fields)")
}

// loadConfig merges the config file under the command line: flags given
// explicitly win over file values.
func loadConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	if f := cmd.Flags().Lookup("start-date"); f != nil && f.Changed {
		cfg.StartDate = startDate
	}
	return nil
}

// addRunFlags registers the flags shared by export and plan.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.PatientsPath, "patients", "", "Path to the NDJSON patient timeline file (required)")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of patients exported concurrently")
	f.StringVar(&startDate, "start-date", "", "Earliest encounter stop date to export (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("patients")
}
