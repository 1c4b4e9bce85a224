package repository

import (
	"context"
	"sync"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

// LedgerRepository is the append-only payment ledger, stored newest first.
type LedgerRepository struct {
	store KVStore
	mu    sync.Mutex
}

func NewLedgerRepository(store KVStore) *LedgerRepository {
	return &LedgerRepository{store: store}
}

func (r *LedgerRepository) Prepend(ctx context.Context, entry *entity.PaymentLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		return err
	}
	entries = append([]*entity.PaymentLogEntry{entry}, entries...)
	return saveDocument(ctx, r.store, KeyPaymentLedger, entries)
}

func (r *LedgerRepository) List(ctx context.Context) ([]*entity.PaymentLogEntry, error) {
	return r.load(ctx)
}

// ListByPayer keeps ledger order, so the result is newest first as well.
func (r *LedgerRepository) ListByPayer(ctx context.Context, payerID string) ([]*entity.PaymentLogEntry, error) {
	entries, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	payerID = normalizePayerID(payerID)
	items := make([]*entity.PaymentLogEntry, 0)
	for _, entry := range entries {
		if entry != nil && normalizePayerID(entry.PayerID) == payerID {
			items = append(items, entry)
		}
	}
	return items, nil
}

func (r *LedgerRepository) load(ctx context.Context) ([]*entity.PaymentLogEntry, error) {
	entries := make([]*entity.PaymentLogEntry, 0)
	if _, err := loadDocument(ctx, r.store, KeyPaymentLedger, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
