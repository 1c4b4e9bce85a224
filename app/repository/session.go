package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

// SessionRepository stores the per-session convenience copy of a user record.
type SessionRepository struct {
	store KVStore
}

func NewSessionRepository(store KVStore) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) Find(ctx context.Context, sessionID string) (*entity.UserRecord, error) {
	user := &entity.UserRecord{}
	found, err := loadDocument(ctx, r.store, SessionKey(sessionID), user)
	if err != nil || !found {
		return nil, err
	}
	return user, nil
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, user *entity.UserRecord) error {
	return saveDocument(ctx, r.store, SessionKey(sessionID), user)
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.store.Delete(ctx, SessionKey(sessionID))
}
