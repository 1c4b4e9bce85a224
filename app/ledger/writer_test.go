package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/catalog"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
)

type recordingLedger struct {
	entries []*entity.PaymentLogEntry
	err     error
}

func (r *recordingLedger) Prepend(_ context.Context, entry *entity.PaymentLogEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append([]*entity.PaymentLogEntry{entry}, r.entries...)
	return nil
}

var t0 = time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)

func TestRecordBuildsEntryFromPlan(t *testing.T) {
	repo := &recordingLedger{}
	w := NewWriter(catalog.Default(), repo)

	entry, err := w.Record(context.Background(), Purchase{
		TransactionID:    "pay_ABC",
		PayerID:          "a@example.com",
		PayerDisplayName: "Asha",
		PlanID:           catalog.PlanThreeMonths,
		AmountPaid:       399,
	}, t0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(repo.entries) != 1 || repo.entries[0] != entry {
		t.Fatalf("expected exactly one ledger append, got %d", len(repo.entries))
	}
	if entry.TransactionID != "pay_ABC" || entry.PlanDisplayName != "3 Months" || entry.DurationDays != 90 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Status != entity.PaymentStatusSuccess {
		t.Fatalf("expected Success status, got %q", entry.Status)
	}
	if !entry.ActivatedAt.Equal(t0) || !entry.CreatedAt.Equal(t0) {
		t.Fatalf("expected activation at t0, got %v / %v", entry.ActivatedAt, entry.CreatedAt)
	}
	if want := t0.AddDate(0, 0, 90); !entry.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, entry.ExpiresAt)
	}
}

func TestBuildSynthesizesMissingTransactionID(t *testing.T) {
	w := NewWriter(catalog.Default(), &recordingLedger{})
	w.newSuffix = func() string { return "deadbeef" }

	entry, err := w.Build(Purchase{TransactionID: "  ", PayerID: "a@example.com", PlanID: catalog.PlanOneMonth}, t0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(entry.TransactionID, "pay_") || !strings.HasSuffix(entry.TransactionID, "_deadbeef") {
		t.Fatalf("unexpected generated id %q", entry.TransactionID)
	}
	if entry.AmountMinorUnits != 149 {
		t.Fatalf("expected plan price fallback 149, got %d", entry.AmountMinorUnits)
	}
}

func TestRecordUnknownPlanWritesNothing(t *testing.T) {
	repo := &recordingLedger{}
	w := NewWriter(catalog.Default(), repo)

	_, err := w.Record(context.Background(), Purchase{PayerID: "a@example.com", PlanID: "lifetime"}, t0)
	if !errors.Is(err, catalog.ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("expected no ledger writes, got %d", len(repo.entries))
	}
}

func TestRecordWrapsStorageError(t *testing.T) {
	boom := errors.New("disk full")
	w := NewWriter(catalog.Default(), &recordingLedger{err: boom})

	_, err := w.Record(context.Background(), Purchase{PayerID: "a@example.com", PlanID: catalog.PlanOneYear}, t0)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

func TestRecordedEntryRoundTripsThroughStorage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLedgerRepository(repository.NewMemoryStore())
	w := NewWriter(catalog.Default(), repo)
	bought := time.Date(2026, 1, 15, 8, 30, 0, 987654321, time.FixedZone("IST", 5*3600+1800))

	written, err := w.Record(ctx, Purchase{PayerID: "a@example.com", PlanID: catalog.PlanSixMonths, AmountPaid: 650}, bought)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	items, err := repo.ListByPayer(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one entry, got %d", len(items))
	}
	read := items[0]
	if read.PlanDisplayName != written.PlanDisplayName || read.AmountMinorUnits != 650 || !read.ExpiresAt.Equal(written.ExpiresAt) {
		t.Fatalf("lossy round trip: wrote %+v, read %+v", written, read)
	}
}
