package export

import (
	"fmt"

	"github.com/gyeh/rifexport/internal/config"
	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/sink"
)

// openerFor returns the sink backend for the configured format. Dry runs count
// rows in memory and keep nothing.
func openerFor(cfg *config.Config, conn db.Conn, pf *PreflightResult) (sink.Opener, error) {
	if cfg.DryRun {
		mem := sink.NewMemory()
		mem.Discard = true
		return mem.Open, nil
	}
	switch cfg.Format {
	case config.FormatRIF:
		return sink.Delimited{Dir: cfg.OutDir}.Open, nil
	case config.FormatParquet:
		return sink.Parquet{Dir: cfg.OutDir}.Open, nil
	case config.FormatPostgres:
		if conn == nil {
			return nil, fmt.Errorf("postgres format requires a database connection")
		}
		return sink.Postgres{Conn: conn, RunID: pf.RunID}.Open, nil
	default:
		return nil, fmt.Errorf("unknown format %q", cfg.Format)
	}
}
