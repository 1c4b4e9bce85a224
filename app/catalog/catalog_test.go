package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogPlans(t *testing.T) {
	c := Default()

	cases := []struct {
		id       string
		name     string
		price    int64
		days     int
		discount int
	}{
		{PlanOneMonth, "1 Month", 149, 30, 0},
		{PlanThreeMonths, "3 Months", 399, 90, 10},
		{PlanSixMonths, "6 Months", 699, 180, 20},
		{PlanOneYear, "1 Year", 1299, 365, 30},
	}
	for _, tc := range cases {
		p, err := c.Lookup(tc.id)
		require.NoError(t, err, tc.id)
		assert.Equal(t, tc.name, p.DisplayName)
		assert.Equal(t, tc.price, p.PriceMinorUnits)
		assert.Equal(t, tc.days, p.DurationDays)
		assert.Equal(t, tc.discount, p.DiscountPercent)
		assert.Equal(t, tc.discount > 0, p.HasDiscount())
	}
}

func TestLookupUnknownPlan(t *testing.T) {
	_, err := Default().Lookup("lifetime")
	require.ErrorIs(t, err, ErrUnknownPlan)
	assert.Contains(t, err.Error(), "lifetime")
}

func TestAllKeepsDisplayOrderAndIsACopy(t *testing.T) {
	c := Default()
	plans := c.All()
	require.Len(t, plans, 4)
	assert.Equal(t, PlanOneMonth, plans[0].ID)
	assert.Equal(t, PlanOneYear, plans[3].ID)

	plans[0].PriceMinorUnits = 1
	p, err := c.Lookup(PlanOneMonth)
	require.NoError(t, err)
	assert.Equal(t, int64(149), p.PriceMinorUnits)
}
