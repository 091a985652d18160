package inpatient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/rifexport/internal/coverage"
	"github.com/gyeh/rifexport/internal/ids"
	"github.com/gyeh/rifexport/internal/mapping"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/rif"
	"github.com/gyeh/rifexport/internal/sink"
)

// ErrSinkWrite marks a failed claim write. The patient's export stops at the
// failing claim.
var ErrSinkWrite = errors.New("inpatient sink write failed")

// Config holds the export settings for inpatient claims.
type Config struct {
	// ClaimType selects the encounters to export. It must be a claim type
	// whose records use the inpatient layout; zero means model.ClaimInpatient.
	ClaimType model.ClaimType
	// Start is the earliest exportable encounter stop time.
	Start time.Time
	// Cutoff is the global claim cutoff; zero disables it.
	Cutoff                time.Time
	AdmissionThreshold    time.Duration
	PrimaryGovernmentPlan string
	// Static overrides the built-in static field values.
	Static rif.StaticFields
}

// Exporter writes the inpatient claims of one patient at a time. It is safe
// for concurrent use by multiple goroutines, each exporting a different
// patient.
type Exporter struct {
	filter Filter
	header HeaderBuilder
	dx     DiagnosisMapper
	lines  LineEmitter
	issuer *ids.Issuer
	sink   *sink.Sink
	log    zerolog.Logger
}

// New creates an Exporter. The static field overrides are checked against the
// inpatient layout.
func New(cfg Config, issuer *ids.Issuer, maps *mapping.Set, cov coverage.Checker, s *sink.Sink, log zerolog.Logger) (*Exporter, error) {
	if cfg.ClaimType == (model.ClaimType{}) {
		cfg.ClaimType = model.ClaimInpatient
	}
	if cfg.ClaimType.RecordType != rif.Inpatient.Name() {
		return nil, fmt.Errorf("claim type %s writes %s records, not %s",
			cfg.ClaimType.Name, cfg.ClaimType.RecordType, rif.Inpatient.Name())
	}
	static := rif.InpatientDefaults.Merge(cfg.Static)
	if err := static.Check(rif.Inpatient); err != nil {
		return nil, err
	}
	return &Exporter{
		filter: Filter{
			ClaimType:          cfg.ClaimType,
			Start:              cfg.Start,
			Cutoff:             cfg.Cutoff,
			Coverage:           cov,
			AdmissionThreshold: cfg.AdmissionThreshold,
		},
		header: HeaderBuilder{
			Static:                static,
			PrimaryGovernmentPlan: cfg.PrimaryGovernmentPlan,
			States:                maps.States,
		},
		dx:     DiagnosisMapper{Mappings: maps},
		lines:  LineEmitter{HCPCS: maps.HCPCS},
		issuer: issuer,
		sink:   s,
		log:    log.With().Str("claim_type", cfg.ClaimType.Name).Str("record_type", rif.Inpatient.Name()).Logger(),
	}, nil
}

// Export writes the inpatient claims of p and returns how many were written.
// Errors wrapping ErrSinkWrite come from the sink; others from building a
// claim. Either way the claims written before the failure stay written.
func (x *Exporter) Export(ctx context.Context, p *model.Patient) (int, error) {
	table, err := x.sink.Table(rif.Inpatient)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	log := x.log.With().Str("bene_id", p.BeneID).Logger()

	var history AdmissionHistory
	claims := 0
	for i := range p.Encounters {
		if err := ctx.Err(); err != nil {
			return claims, err
		}
		e := &p.Encounters[i]
		if !x.filter.Eligible(p, e, &history) {
			continue
		}

		claimIDs := x.issuer.Next()
		header, err := x.header.Build(p, e, claimIDs, &history)
		if err != nil {
			return claims, fmt.Errorf("encounter %d: %w", i, err)
		}
		if x.dx.Apply(p, e, header.Record).Empty() {
			log.Debug().Int64("clm_id", claimIDs.ClaimID).Time("stop", e.Stop).Msg("encounter dropped: nothing to bill")
			continue
		}
		history.Exported(e)

		rows, err := x.lines.Rows(p, e, header)
		if err != nil {
			return claims, fmt.Errorf("encounter %d: %w", i, err)
		}
		if err := table.WriteClaim(ctx, rows); err != nil {
			return claims, fmt.Errorf("%w: claim %d: %w", ErrSinkWrite, claimIDs.ClaimID, err)
		}
		claims++
	}

	log.Debug().Int("claims", claims).Msg("patient exported")
	return claims, nil
}
