package entity

import "time"

const PaymentStatusSuccess = "Success"

// PaymentLogEntry is written once per confirmed purchase and never mutated.
type PaymentLogEntry struct {
	TransactionID    string    `json:"transactionId"`
	PayerID          string    `json:"payerId"`
	PayerDisplayName string    `json:"payerDisplayName"`
	PlanID           string    `json:"planId"`
	PlanDisplayName  string    `json:"planDisplayName"`
	AmountMinorUnits int64     `json:"amountMinorUnits"`
	DurationDays     int       `json:"durationDays"`
	CreatedAt        time.Time `json:"createdAt"`
	ActivatedAt      time.Time `json:"activatedAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	Status           string    `json:"status"`
}
