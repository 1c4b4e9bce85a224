package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/metrics"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
)

type userRepository interface {
	List(ctx context.Context) ([]*entity.UserRecord, error)
	FindByPayerID(ctx context.Context, payerID string) (*entity.UserRecord, error)
	Create(ctx context.Context, user *entity.UserRecord) error
	UpdateEntitlement(ctx context.Context, payerID string, e entity.Entitlement) (*entity.UserRecord, error)
}

type sessionRepository interface {
	Find(ctx context.Context, sessionID string) (*entity.UserRecord, error)
	Save(ctx context.Context, sessionID string, user *entity.UserRecord) error
	Delete(ctx context.Context, sessionID string) error
}

// RecordStore applies entitlement deltas to the registry and then to the session
// copy. The two writes are not atomic; a crash between them leaves a stale session
// copy that the next reconciliation pass rewrites.
type RecordStore struct {
	users    userRepository
	sessions sessionRepository
	locks    *payerLocks
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
}

func NewRecordStore(users userRepository, sessions sessionRepository, m *metrics.Metrics, logger logrus.FieldLogger) *RecordStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RecordStore{
		users:    users,
		sessions: sessions,
		locks:    newPayerLocks(),
		metrics:  m,
		logger:   logger,
	}
}

// Activate grants the entitlement described by a ledger entry. sessionID may be
// empty when the purchase did not come from a logged-in session.
func (s *RecordStore) Activate(ctx context.Context, sessionID, payerID string, entry *entity.PaymentLogEntry) (*entity.UserRecord, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: payment entry is required", ErrInvalidRequest)
	}
	unlock := s.locks.lock(payerID)
	defer unlock()

	return s.write(ctx, sessionID, payerID, entity.EntitlementFromPayment(entry))
}

// Clear removes every entitlement field. The user record itself is kept.
func (s *RecordStore) Clear(ctx context.Context, sessionID, payerID string) (*entity.UserRecord, error) {
	unlock := s.locks.lock(payerID)
	defer unlock()

	return s.write(ctx, sessionID, payerID, entity.Entitlement{})
}

// write must be called with the payer lock held.
func (s *RecordStore) write(ctx context.Context, sessionID, payerID string, e entity.Entitlement) (*entity.UserRecord, error) {
	stored, err := s.users.UpdateEntitlement(ctx, payerID, e)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		s.logger.WithFields(logrus.Fields{
			"payer_id": payerID,
			"kind":     "record_not_found",
		}).Warn("Registry entry missing, writing session copy only")
		s.metrics.ConsistencyWarning("record_not_found")
		stored = nil
	case err != nil:
		return nil, fmt.Errorf("update registry: %w", err)
	}

	if sessionID == "" {
		if stored == nil {
			return nil, ErrRecordNotFound
		}
		return stored, nil
	}

	// A session copy is only ever updated, never created here: a missing copy means
	// the session was logged out and must stay gone.
	existing, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read session copy: %w", err)
	}
	if existing == nil {
		if stored == nil {
			return nil, ErrRecordNotFound
		}
		return stored, nil
	}

	sessionCopy := existing
	if stored != nil {
		c := *stored
		sessionCopy = &c
	} else {
		sessionCopy.ApplyEntitlement(e)
	}

	if err := s.sessions.Save(ctx, sessionID, sessionCopy); err != nil {
		return nil, fmt.Errorf("write session copy: %w", err)
	}
	return sessionCopy, nil
}

// DropSession deletes a session copy behind the payer lock, so no pass already in
// flight for the payer can write the copy back after it is gone.
func (s *RecordStore) DropSession(ctx context.Context, sessionID, payerID string) error {
	unlock := s.locks.lock(payerID)
	defer unlock()

	return s.sessions.Delete(ctx, sessionID)
}
