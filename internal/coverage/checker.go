// Package coverage decides whether a patient had billable insurance at a time.
package coverage

import (
	"time"

	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/normalize"
)

// Checker is the coverage lookup consulted before a claim is exported.
type Checker interface {
	HasEligibleCoverage(p *model.Patient, t time.Time) bool
}

// PlanChecker accepts a patient when one of their coverage periods covering t
// belongs to an eligible plan. Plan ids compare case- and space-insensitively.
type PlanChecker struct {
	plans map[string]bool
}

// NewPlanChecker returns a checker for the given plan ids. With no plans, any
// coverage period qualifies.
func NewPlanChecker(plans []string) *PlanChecker {
	c := &PlanChecker{plans: make(map[string]bool, len(plans))}
	for _, p := range plans {
		if key := planKey(p); key != "" {
			c.plans[key] = true
		}
	}
	return c
}

func (c *PlanChecker) HasEligibleCoverage(p *model.Patient, t time.Time) bool {
	for _, period := range p.Coverage {
		if !period.Covers(t) {
			continue
		}
		if len(c.plans) == 0 || c.plans[planKey(period.PlanID)] {
			return true
		}
	}
	return false
}

// SamePlan reports whether two plan ids name the same plan.
func SamePlan(a, b string) bool {
	ka := planKey(a)
	return ka != "" && ka == planKey(b)
}

func planKey(id string) string {
	return normalize.PlanName(id)
}
