package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// SandboxGateway approves every checkout. Payers listed in abandon get an
// abandoned result instead, which is how the dismissed-dialog path is exercised.
type SandboxGateway struct {
	omitTransactionID bool
	abandon           map[string]struct{}
}

type SandboxOption func(*SandboxGateway)

func WithoutTransactionIDs() SandboxOption {
	return func(g *SandboxGateway) {
		g.omitTransactionID = true
	}
}

func WithAbandonedPayers(payerIDs ...string) SandboxOption {
	return func(g *SandboxGateway) {
		for _, id := range payerIDs {
			g.abandon[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
		}
	}
}

func NewSandboxGateway(opts ...SandboxOption) *SandboxGateway {
	g := &SandboxGateway{abandon: map[string]struct{}{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *SandboxGateway) Checkout(_ context.Context, payerID, _ string, _ int64) Result {
	if _, ok := g.abandon[strings.ToLower(strings.TrimSpace(payerID))]; ok {
		return Result{Type: ResultTypeAbandoned}
	}
	if g.omitTransactionID {
		return Result{Type: ResultTypeSuccess}
	}
	return Result{Type: ResultTypeSuccess, TransactionID: "sandbox_" + uuid.NewString()}
}
