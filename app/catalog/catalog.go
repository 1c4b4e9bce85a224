package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

var ErrUnknownPlan = errors.New("unknown plan")

const (
	PlanOneMonth    = "one_month"
	PlanThreeMonths = "three_months"
	PlanSixMonths   = "six_months"
	PlanOneYear     = "one_year"
)

var defaultPlans = []entity.Plan{
	{ID: PlanOneMonth, DisplayName: "1 Month", PriceMinorUnits: 149, DurationDays: 30, DurationLabel: "1 month"},
	{ID: PlanThreeMonths, DisplayName: "3 Months", PriceMinorUnits: 399, DurationDays: 90, DurationLabel: "3 months", DiscountPercent: 10},
	{ID: PlanSixMonths, DisplayName: "6 Months", PriceMinorUnits: 699, DurationDays: 180, DurationLabel: "6 months", DiscountPercent: 20},
	{ID: PlanOneYear, DisplayName: "1 Year", PriceMinorUnits: 1299, DurationDays: 365, DurationLabel: "1 year", DiscountPercent: 30},
}

// Catalog is the immutable table of purchasable plans.
type Catalog struct {
	plans []entity.Plan
	byID  map[string]entity.Plan
}

func New(plans []entity.Plan) *Catalog {
	c := &Catalog{
		plans: make([]entity.Plan, 0, len(plans)),
		byID:  make(map[string]entity.Plan, len(plans)),
	}
	for _, p := range plans {
		c.plans = append(c.plans, p)
		c.byID[p.ID] = p
	}
	return c
}

func Default() *Catalog {
	return New(defaultPlans)
}

// Lookup returns the plan for id. An unknown id means a caller referenced a plan
// that was never sold, which is a defect rather than a user error.
func (c *Catalog) Lookup(id string) (entity.Plan, error) {
	p, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return entity.Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p, nil
}

func (c *Catalog) All() []entity.Plan {
	out := make([]entity.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}
