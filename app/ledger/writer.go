package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/expiry"
)

const generatedIDPrefix = "pay_"

type planLookup interface {
	Lookup(id string) (entity.Plan, error)
}

type ledgerRepository interface {
	Prepend(ctx context.Context, entry *entity.PaymentLogEntry) error
}

// Purchase is what the payment collaborator reports for a completed checkout.
type Purchase struct {
	TransactionID    string
	PayerID          string
	PayerDisplayName string
	PlanID           string
	AmountPaid       int64
}

type Writer struct {
	plans     planLookup
	repo      ledgerRepository
	newSuffix func() string
}

func NewWriter(plans planLookup, repo ledgerRepository) *Writer {
	return &Writer{
		plans: plans,
		repo:  repo,
		newSuffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// Build creates the immutable ledger entry for a purchase made at now without
// storing it.
func (w *Writer) Build(p Purchase, now time.Time) (*entity.PaymentLogEntry, error) {
	plan, err := w.plans.Lookup(p.PlanID)
	if err != nil {
		return nil, err
	}

	transactionID := strings.TrimSpace(p.TransactionID)
	if transactionID == "" {
		transactionID = fmt.Sprintf("%s%d_%s", generatedIDPrefix, now.UnixMilli(), w.newSuffix())
	}
	amount := p.AmountPaid
	if amount <= 0 {
		amount = plan.PriceMinorUnits
	}

	return &entity.PaymentLogEntry{
		TransactionID:    transactionID,
		PayerID:          strings.TrimSpace(p.PayerID),
		PayerDisplayName: strings.TrimSpace(p.PayerDisplayName),
		PlanID:           plan.ID,
		PlanDisplayName:  plan.DisplayName,
		AmountMinorUnits: amount,
		DurationDays:     plan.DurationDays,
		CreatedAt:        now,
		ActivatedAt:      now,
		ExpiresAt:        expiry.Instant(now, plan.DurationDays),
		Status:           entity.PaymentStatusSuccess,
	}, nil
}

// Record builds the entry and prepends it to the ledger. It performs exactly one
// ledger write and never touches existing entries.
func (w *Writer) Record(ctx context.Context, p Purchase, now time.Time) (*entity.PaymentLogEntry, error) {
	entry, err := w.Build(p, now)
	if err != nil {
		return nil, err
	}
	if err := w.repo.Prepend(ctx, entry); err != nil {
		return nil, fmt.Errorf("append payment log: %w", err)
	}
	return entry, nil
}
