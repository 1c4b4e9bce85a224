package entity

type Plan struct {
	ID              string
	DisplayName     string
	PriceMinorUnits int64
	DurationDays    int
	DurationLabel   string
	DiscountPercent int
}

func (p Plan) HasDiscount() bool {
	return p.DiscountPercent > 0
}
