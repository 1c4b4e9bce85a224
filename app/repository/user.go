package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

// UserRepository is the global registry: one JSON array of user records keyed by
// payer id.
type UserRepository struct {
	store KVStore
	mu    sync.Mutex
}

func NewUserRepository(store KVStore) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.UserRecord, error) {
	return r.load(ctx)
}

func (r *UserRepository) FindByPayerID(ctx context.Context, payerID string) (*entity.UserRecord, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(users, payerID); idx >= 0 {
		return users[idx], nil
	}
	return nil, nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(users, user.PayerID) >= 0 {
		return ErrUserAlreadyExists
	}
	users = append(users, user)
	return saveDocument(ctx, r.store, KeyUsers, users)
}

// UpdateEntitlement replaces the entitlement fields of one registry entry and leaves
// the rest of the record untouched. It returns the stored record after the update.
func (r *UserRepository) UpdateEntitlement(ctx context.Context, payerID string, e entity.Entitlement) (*entity.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(users, payerID)
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	users[idx].ApplyEntitlement(e)
	if err := saveDocument(ctx, r.store, KeyUsers, users); err != nil {
		return nil, err
	}
	return users[idx], nil
}

func (r *UserRepository) load(ctx context.Context) ([]*entity.UserRecord, error) {
	users := make([]*entity.UserRecord, 0)
	if _, err := loadDocument(ctx, r.store, KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func indexOf(users []*entity.UserRecord, payerID string) int {
	payerID = normalizePayerID(payerID)
	for i, u := range users {
		if u != nil && normalizePayerID(u.PayerID) == payerID {
			return i
		}
	}
	return -1
}

func normalizePayerID(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
