package timeline

import (
	"errors"
	"fmt"

	"github.com/gyeh/rifexport/internal/model"
)

// Validate checks the structural assumptions the exporter makes about a
// patient: a beneficiary id, encounters in start order, and stays that do not
// end before they begin.
func Validate(p *model.Patient) error {
	if p.BeneID == "" {
		return errors.New("missing bene_id")
	}
	for i := range p.Encounters {
		e := &p.Encounters[i]
		if e.Stop.Before(e.Start) {
			return fmt.Errorf("encounter %d stops before it starts", i)
		}
		if i > 0 && e.Start.Before(p.Encounters[i-1].Start) {
			return fmt.Errorf("encounter %d is out of order", i)
		}
		for j, item := range e.Claim.Items {
			if item.Entry == nil {
				return fmt.Errorf("encounter %d claim item %d has no entry", i, j)
			}
		}
	}
	return nil
}
