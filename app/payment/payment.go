package payment

import "context"

type ResultType string

const (
	ResultTypeSuccess   ResultType = "success"
	ResultTypeAbandoned ResultType = "abandoned"
)

// Result is what the external processor reports for a checkout attempt. A
// success may carry an empty TransactionID; the ledger synthesises one.
type Result struct {
	Type          ResultType
	TransactionID string
}

type Gateway interface {
	Checkout(ctx context.Context, payerID, planID string, amountMinorUnits int64) Result
}
