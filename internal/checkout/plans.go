package checkout

import (
	"strings"

	"github.com/danilompg/sitescope-backend/pkg/config"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

// Plan intervals offered at checkout.
const (
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// Plan amounts in cents, mirrored from the live price objects so the
// frontend can render pricing without a processor round trip.
const (
	monthlyAmountCents int64 = 1885
	annualAmountCents  int64 = 18085
)

// Plan describes one purchasable subscription tier.
type Plan struct {
	Name        string `json:"name"`
	Interval    string `json:"interval"`
	PriceID     string `json:"price_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// PlansFromConfig binds the configured processor price ids to the catalog.
func PlansFromConfig(cfg config.StripeConfig) []Plan {
	return []Plan{
		{
			Name:        "SiteScope Monthly",
			Interval:    PlanMonthly,
			PriceID:     cfg.MonthlyPriceID,
			AmountCents: monthlyAmountCents,
			Currency:    "usd",
		},
		{
			Name:        "SiteScope Annual",
			Interval:    PlanAnnual,
			PriceID:     cfg.AnnualPriceID,
			AmountCents: annualAmountCents,
			Currency:    "usd",
		},
	}
}

// ResolvePlan matches an interval name to its configured plan.
func ResolvePlan(cfg config.StripeConfig, interval string) (Plan, error) {
	normalized := strings.ToLower(strings.TrimSpace(interval))
	for _, plan := range PlansFromConfig(cfg) {
		if plan.Interval == normalized {
			if plan.PriceID == "" {
				return Plan{}, pkgerrors.New(pkgerrors.CodeInternal, "plan price id not configured")
			}
			return plan, nil
		}
	}
	return Plan{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown plan interval")
}
