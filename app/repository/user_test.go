package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

func TestUserRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryStore())

	require.NoError(t, repo.Create(ctx, &entity.UserRecord{PayerID: "a@example.com", DisplayName: "Asha"}))
	require.ErrorIs(t, repo.Create(ctx, &entity.UserRecord{PayerID: " A@example.com "}), ErrUserAlreadyExists)

	found, err := repo.FindByPayerID(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Asha", found.DisplayName)

	missing, err := repo.FindByPayerID(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepositoryUpdateEntitlementOnlyTouchesEntitlementFields(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewUserRepository(NewMemoryStore())
	require.NoError(t, repo.Create(ctx, &entity.UserRecord{PayerID: "a@example.com", DisplayName: "Asha", CreatedAt: created}))
	require.NoError(t, repo.Create(ctx, &entity.UserRecord{PayerID: "b@example.com"}))

	e := entity.Entitlement{
		IsPremium:              true,
		PremiumExpiryDate:      "2026-04-01T00:00:00Z",
		PremiumActivatedDate:   "2026-01-01T00:00:00Z",
		PremiumPlanID:          "three_months",
		PremiumPlanDisplayName: "3 Months",
	}
	updated, err := repo.UpdateEntitlement(ctx, "a@example.com", e)
	require.NoError(t, err)
	assert.Equal(t, e, updated.Entitlement())

	stored, err := repo.FindByPayerID(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, e, stored.Entitlement())
	assert.Equal(t, "Asha", stored.DisplayName)
	assert.True(t, stored.CreatedAt.Equal(created))

	other, err := repo.FindByPayerID(ctx, "b@example.com")
	require.NoError(t, err)
	assert.False(t, other.HasEntitlementFields())
}

func TestUserRepositoryUpdateMissingUser(t *testing.T) {
	repo := NewUserRepository(NewMemoryStore())
	_, err := repo.UpdateEntitlement(context.Background(), "ghost@example.com", entity.Entitlement{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepositoryCorruptDocument(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), KeyUsers, []byte(`[{"payerId":`)))

	_, err := NewUserRepository(store).List(context.Background())
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestSessionRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewMemoryStore())

	missing, err := repo.Find(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Save(ctx, "s-1", &entity.UserRecord{PayerID: "a@example.com", IsPremium: true}))
	got, err := repo.Find(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsPremium)

	require.NoError(t, repo.Delete(ctx, "s-1"))
	got, err = repo.Find(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedgerRepositoryIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepository(NewMemoryStore())
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Prepend(ctx, &entity.PaymentLogEntry{TransactionID: "pay_1", PayerID: "a@example.com", CreatedAt: base}))
	require.NoError(t, repo.Prepend(ctx, &entity.PaymentLogEntry{TransactionID: "pay_2", PayerID: "b@example.com", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Prepend(ctx, &entity.PaymentLogEntry{TransactionID: "pay_3", PayerID: "a@example.com", CreatedAt: base.Add(2 * time.Hour)}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"pay_3", "pay_2", "pay_1"}, []string{all[0].TransactionID, all[1].TransactionID, all[2].TransactionID})

	mine, err := repo.ListByPayer(ctx, "A@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "pay_3", mine[0].TransactionID)
	assert.Equal(t, "pay_1", mine[1].TransactionID)
}
