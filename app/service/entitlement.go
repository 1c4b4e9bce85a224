package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/bus"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/expiry"
	"github.com/vibast-solutions/ms-go-entitlements/app/ledger"
	"github.com/vibast-solutions/ms-go-entitlements/app/metrics"
	"github.com/vibast-solutions/ms-go-entitlements/app/payment"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/config"
)

type registerRequest interface {
	GetPayerId() string
	GetDisplayName() string
}

type loginRequest interface {
	GetPayerId() string
}

type checkoutRequest interface {
	GetSessionId() string
	GetPlanId() string
}

type confirmPaymentRequest interface {
	GetTransactionId() string
	GetPayerId() string
	GetPlanId() string
	GetAmountPaid() int64
	GetSessionId() string
}

type planCatalog interface {
	Lookup(id string) (entity.Plan, error)
	All() []entity.Plan
}

type ledgerWriter interface {
	Record(ctx context.Context, p ledger.Purchase, now time.Time) (*entity.PaymentLogEntry, error)
}

type ledgerReader interface {
	ListByPayer(ctx context.Context, payerID string) ([]*entity.PaymentLogEntry, error)
}

// viewRegistry owns the per-session views that keep a logged-in session reconciled.
type viewRegistry interface {
	Open(ctx context.Context, sessionID, payerID string) (*Result, error)
	Close(sessionID string)
	Sessions(payerID string) []string
}

type Session struct {
	ID      string
	PayerID string
	Result  *Result
}

type CheckoutResult struct {
	Completed bool
	Entry     *entity.PaymentLogEntry
	Result    *Result
}

type ExpiryAlert struct {
	PayerID         string
	DisplayName     string
	PlanDisplayName string
	ExpiresAt       time.Time
	DaysRemaining   int
	IsExpired       bool
	IsExpiringSoon  bool
}

type EntitlementService struct {
	plans      planCatalog
	users      userRepository
	sessions   sessionRepository
	writer     ledgerWriter
	history    ledgerReader
	store      *RecordStore
	reconciler *Reconciler
	views      viewRegistry
	gateway    payment.Gateway
	bus        publisher
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     logrus.FieldLogger
	cfg        config.EntitlementConfig
	clock      func() time.Time
}

func NewEntitlementService(
	plans planCatalog,
	users userRepository,
	sessions sessionRepository,
	writer ledgerWriter,
	history ledgerReader,
	store *RecordStore,
	reconciler *Reconciler,
	views viewRegistry,
	gateway payment.Gateway,
	b publisher,
	notifier Notifier,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	cfg config.EntitlementConfig,
) *EntitlementService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	return &EntitlementService{
		plans:      plans,
		users:      users,
		sessions:   sessions,
		writer:     writer,
		history:    history,
		store:      store,
		reconciler: reconciler,
		views:      views,
		gateway:    gateway,
		bus:        b,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
		clock: func() time.Time {
			return time.Now().In(location)
		},
	}
}

func (s *EntitlementService) ListPlans() []entity.Plan {
	return s.plans.All()
}

func (s *EntitlementService) Register(ctx context.Context, req registerRequest) (*entity.UserRecord, error) {
	payerID := strings.TrimSpace(req.GetPayerId())
	if payerID == "" {
		return nil, fmt.Errorf("%w: payer_id is required", ErrInvalidRequest)
	}

	user := &entity.UserRecord{
		PayerID:     payerID,
		DisplayName: strings.TrimSpace(req.GetDisplayName()),
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// Login copies the registry record into a new session and runs the mount pass.
func (s *EntitlementService) Login(ctx context.Context, req loginRequest) (*Session, error) {
	payerID := strings.TrimSpace(req.GetPayerId())
	if payerID == "" {
		return nil, fmt.Errorf("%w: payer_id is required", ErrInvalidRequest)
	}

	user, err := s.users.FindByPayerID(ctx, payerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrRecordNotFound
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Save(ctx, sessionID, user); err != nil {
		return nil, fmt.Errorf("write session copy: %w", err)
	}

	var result *Result
	if s.views != nil {
		result, err = s.views.Open(ctx, sessionID, user.PayerID)
	} else {
		result, err = s.reconciler.Reconcile(ctx, TriggerMount, sessionID, user.PayerID, s.clock())
	}
	if err != nil {
		return nil, err
	}

	return &Session{ID: sessionID, PayerID: user.PayerID, Result: result}, nil
}

func (s *EntitlementService) Logout(ctx context.Context, sessionID string) error {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.views != nil {
		s.views.Close(sessionID)
	}
	return s.store.DropSession(ctx, strings.TrimSpace(sessionID), session.PayerID)
}

// Status reconciles the session and returns its current state.
func (s *EntitlementService) Status(ctx context.Context, sessionID string) (*Result, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Reconcile(ctx, TriggerStatus, sessionID, session.PayerID, s.clock())
}

// StatusByPayer reconciles the registry record only.
func (s *EntitlementService) StatusByPayer(ctx context.Context, payerID string) (*Result, error) {
	return s.reconciler.Reconcile(ctx, TriggerStatus, "", payerID, s.clock())
}

// Checkout hands the purchase to the payment gateway for the session's payer. An
// abandoned checkout changes nothing and is not an error.
func (s *EntitlementService) Checkout(ctx context.Context, req checkoutRequest) (*CheckoutResult, error) {
	session, err := s.findSession(ctx, req.GetSessionId())
	if err != nil {
		return nil, err
	}
	plan, err := s.lookupPlan(req.GetPlanId())
	if err != nil {
		return nil, err
	}

	payResult, err := s.processPaymentSafely(ctx, session.PayerID, plan)
	if err != nil {
		return nil, err
	}
	if payResult.Type != payment.ResultTypeSuccess {
		s.logger.WithFields(logrus.Fields{
			"payer_id": session.PayerID,
			"plan_id":  plan.ID,
		}).Info("Checkout abandoned")
		return &CheckoutResult{Completed: false}, nil
	}

	return s.confirm(ctx, req.GetSessionId(), ledger.Purchase{
		TransactionID:    payResult.TransactionID,
		PayerID:          session.PayerID,
		PayerDisplayName: session.DisplayName,
		PlanID:           plan.ID,
		AmountPaid:       plan.PriceMinorUnits,
	})
}

// ConfirmPayment records a purchase reported directly by the payment processor.
func (s *EntitlementService) ConfirmPayment(ctx context.Context, req confirmPaymentRequest) (*CheckoutResult, error) {
	payerID := strings.TrimSpace(req.GetPayerId())
	if payerID == "" {
		return nil, fmt.Errorf("%w: payer_id is required", ErrInvalidRequest)
	}
	if _, err := s.lookupPlan(req.GetPlanId()); err != nil {
		return nil, err
	}

	sessionID := strings.TrimSpace(req.GetSessionId())
	displayName := ""
	if sessionID != "" {
		session, err := s.findSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(session.PayerID, payerID) {
			return nil, fmt.Errorf("%w: session belongs to another payer", ErrInvalidRequest)
		}
		displayName = session.DisplayName
	} else if user, err := s.users.FindByPayerID(ctx, payerID); err != nil {
		return nil, err
	} else if user != nil {
		displayName = user.DisplayName
	}

	return s.confirm(ctx, sessionID, ledger.Purchase{
		TransactionID:    req.GetTransactionId(),
		PayerID:          payerID,
		PayerDisplayName: displayName,
		PlanID:           req.GetPlanId(),
		AmountPaid:       req.GetAmountPaid(),
	})
}

func (s *EntitlementService) confirm(ctx context.Context, sessionID string, purchase ledger.Purchase) (*CheckoutResult, error) {
	now := s.clock()

	entry, err := s.writer.Record(ctx, purchase, now)
	if err != nil {
		if errors.Is(err, ErrUnknownPlan) {
			s.logger.WithError(err).WithField("plan_id", purchase.PlanID).Error("Purchase references unknown plan")
		}
		return nil, err
	}

	if _, err := s.store.Activate(ctx, sessionID, purchase.PayerID, entry); err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		// The payment is in the ledger; there is simply no record to grant it to yet.
		s.logger.WithFields(logrus.Fields{
			"payer_id":       purchase.PayerID,
			"transaction_id": entry.TransactionID,
		}).Warn("Payment recorded for unknown payer")
		return &CheckoutResult{Completed: true, Entry: entry}, nil
	}

	s.metrics.Purchased(entry.PlanID)
	s.logger.WithFields(logrus.Fields{
		"payer_id":       entry.PayerID,
		"plan_id":        entry.PlanID,
		"transaction_id": entry.TransactionID,
		"expires_at":     entry.ExpiresAt,
	}).Info("Premium activated")

	s.publish(ctx, entry.PayerID, "purchase")
	s.notify(ctx, activatedNotice(entry, now))

	result, err := s.reconciler.Reconcile(ctx, TriggerPayment, sessionID, entry.PayerID, now)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Completed: true, Entry: entry, Result: result}, nil
}

func (s *EntitlementService) PaymentHistory(ctx context.Context, payerID string) ([]*entity.PaymentLogEntry, error) {
	payerID = strings.TrimSpace(payerID)
	if payerID == "" {
		return nil, fmt.Errorf("%w: payer_id is required", ErrInvalidRequest)
	}
	return s.history.ListByPayer(ctx, payerID)
}

// Revoke clears a payer's entitlement in the registry and brings every open
// session of the payer in line before returning.
func (s *EntitlementService) Revoke(ctx context.Context, payerID string) (*entity.UserRecord, error) {
	payerID = strings.TrimSpace(payerID)
	if payerID == "" {
		return nil, fmt.Errorf("%w: payer_id is required", ErrInvalidRequest)
	}

	user, err := s.users.FindByPayerID(ctx, payerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrRecordNotFound
	}
	if !user.HasEntitlementFields() {
		return nil, ErrNotPremium
	}

	cleared, err := s.store.Clear(ctx, "", payerID)
	if err != nil {
		return nil, err
	}
	if s.views != nil {
		now := s.clock()
		for _, sessionID := range s.views.Sessions(payerID) {
			if _, err := s.reconciler.Reconcile(ctx, TriggerRevoke, sessionID, payerID, now); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"payer_id":   payerID,
					"session_id": sessionID,
				}).Warn("Failed to reconcile session after revoke")
			}
		}
	}

	s.metrics.Downgraded(ClearReasonRevoked)
	s.logger.WithField("payer_id", payerID).Info("Premium revoked")
	s.publish(ctx, payerID, ClearReasonRevoked)
	s.notify(ctx, revokedNotice(*user, s.clock()))
	return cleared, nil
}

// ExpiryAlerts lists premium users whose expiry is at most windowDays away,
// including ones already past expiry that no pass has downgraded yet. Soonest first.
func (s *EntitlementService) ExpiryAlerts(ctx context.Context, windowDays int) ([]ExpiryAlert, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.AlertWindowDays
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	soonDays := s.cfg.ExpiringSoonDays
	if soonDays <= 0 {
		soonDays = expiry.ExpiringSoonDays
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	alerts := make([]ExpiryAlert, 0)
	for _, u := range users {
		if u == nil || !u.IsPremium {
			continue
		}
		expiresAt, err := u.ExpiryInstant()
		if err != nil {
			continue
		}
		days := expiry.DaysRemaining(expiresAt, now)
		if days > windowDays {
			continue
		}
		alerts = append(alerts, ExpiryAlert{
			PayerID:         u.PayerID,
			DisplayName:     u.DisplayName,
			PlanDisplayName: u.PremiumPlanDisplayName,
			ExpiresAt:       expiresAt,
			DaysRemaining:   days,
			IsExpired:       days <= 0,
			IsExpiringSoon:  expiry.IsWithinWindow(days, soonDays),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysRemaining < alerts[j].DaysRemaining
	})
	return alerts, nil
}

func (s *EntitlementService) ReconcileAll(ctx context.Context) (SweepSummary, error) {
	return s.reconciler.ReconcileAll(ctx, s.clock())
}

func (s *EntitlementService) findSession(ctx context.Context, sessionID string) (*entity.UserRecord, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrInvalidRequest)
	}
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *EntitlementService) lookupPlan(planID string) (entity.Plan, error) {
	plan, err := s.plans.Lookup(planID)
	if err != nil {
		s.logger.WithError(err).WithField("plan_id", planID).Error("Unknown plan requested")
		return entity.Plan{}, err
	}
	return plan, nil
}

func (s *EntitlementService) processPaymentSafely(ctx context.Context, payerID string, plan entity.Plan) (_ payment.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("payment processing failed: %v", rec)
		}
	}()

	return s.gateway.Checkout(ctx, payerID, plan.ID, plan.PriceMinorUnits), nil
}

func (s *EntitlementService) publish(ctx context.Context, payerID, reason string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, bus.Event{
		Topic:   bus.TopicEntitlementChanged,
		PayerID: payerID,
		Reason:  reason,
	})
}

func (s *EntitlementService) notify(ctx context.Context, notice entity.Notice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, notice); err != nil {
		s.logger.WithError(err).WithField("payer_id", notice.PayerID).Warn("Failed to deliver notice")
	}
}
