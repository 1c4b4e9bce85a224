package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/bus"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/expiry"
	"github.com/vibast-solutions/ms-go-entitlements/app/metrics"
)

type Trigger string

const (
	TriggerMount   Trigger = "mount"
	TriggerPayment Trigger = "payment"
	TriggerTimer   Trigger = "timer"
	TriggerSignal  Trigger = "signal"
	TriggerStatus  Trigger = "status"
	TriggerSweep   Trigger = "sweep"
	TriggerRevoke  Trigger = "revoke"
)

const (
	ClearReasonExpired         = "expired"
	ClearReasonMalformedExpiry = "malformed_expiry"
	ClearReasonLeftoverFields  = "leftover_fields"
	ClearReasonRevoked         = "revoked"
)

type publisher interface {
	Publish(ctx context.Context, ev bus.Event)
}

// Evaluation is the pure verdict on one record at one instant.
type Evaluation struct {
	State     entity.EntitlementState
	ClearDue  bool
	Reason    string
	ExpiresAt time.Time
}

// Result describes one reconciliation pass. State is the state the pass observed:
// a pass that downgrades reports the expired phase, later passes report
// no_subscription.
type Result struct {
	PayerID    string
	Trigger    Trigger
	State      entity.EntitlementState
	Record     *entity.UserRecord
	Downgraded bool
	Reason     string
	Repaired   bool
	Notice     *entity.Notice
}

func Evaluate(u entity.UserRecord, now time.Time) Evaluation {
	return evaluate(u, now, expiry.ExpiringSoonDays)
}

func evaluate(u entity.UserRecord, now time.Time, soonDays int) Evaluation {
	if !u.IsPremium {
		return Evaluation{
			State:    entity.EntitlementState{Phase: entity.PhaseNoSubscription, ExpiresAtDisplay: expiry.NotAvailable},
			ClearDue: u.HasEntitlementFields(),
			Reason:   ClearReasonLeftoverFields,
		}
	}

	state := entity.EntitlementState{
		PlanID:          u.PremiumPlanID,
		PlanDisplayName: u.PremiumPlanDisplayName,
	}

	expiresAt, err := u.ExpiryInstant()
	if err != nil {
		state.Phase = entity.PhaseExpired
		state.ExpiresAtDisplay = expiry.NotAvailable
		return Evaluation{State: state, ClearDue: true, Reason: ClearReasonMalformedExpiry}
	}

	state.ExpiresAt = expiresAt
	state.ExpiresAtDisplay = expiry.FormatDisplay(expiresAt)
	state.DaysRemaining = expiry.DaysRemaining(expiresAt, now)

	if !expiry.IsActive(expiresAt, now) {
		state.Phase = entity.PhaseExpired
		return Evaluation{State: state, ClearDue: true, Reason: ClearReasonExpired, ExpiresAt: expiresAt}
	}

	state.IsActive = true
	state.IsExpiringSoon = expiry.IsWithinWindow(state.DaysRemaining, soonDays)
	state.Phase = entity.PhaseActive
	if state.IsExpiringSoon {
		state.Phase = entity.PhaseExpiringSoon
	}
	return Evaluation{State: state, ExpiresAt: expiresAt}
}

// Reconciler is the single place where stored expiry is compared with the clock and
// where the registry and session copies are brought back into agreement.
type Reconciler struct {
	store    *RecordStore
	bus      publisher
	notifier Notifier
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
	soonDays int
}

func NewReconciler(store *RecordStore, b publisher, notifier Notifier, m *metrics.Metrics, logger logrus.FieldLogger, soonDays int) *Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if soonDays <= 0 {
		soonDays = expiry.ExpiringSoonDays
	}
	return &Reconciler{
		store:    store,
		bus:      b,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		soonDays: soonDays,
	}
}

// Evaluate applies the configured expiring-soon window to u.
func (r *Reconciler) Evaluate(u entity.UserRecord, now time.Time) Evaluation {
	return evaluate(u, now, r.soonDays)
}

// Reconcile runs one pass for payerID and, when sessionID is not empty, for that
// session's copy. Running it again with no intervening change writes nothing.
func (r *Reconciler) Reconcile(ctx context.Context, trigger Trigger, sessionID, payerID string, now time.Time) (*Result, error) {
	payerID = strings.TrimSpace(payerID)
	if payerID == "" {
		return nil, fmt.Errorf("%w: payer id is required", ErrInvalidRequest)
	}

	result, err := r.reconcileLocked(ctx, trigger, sessionID, payerID, now)
	if err != nil {
		return nil, err
	}
	r.metrics.ReconciliationRan(string(trigger))

	if result.Downgraded {
		r.publish(ctx, payerID, result.Reason)
	}
	if result.Notice != nil {
		r.notify(ctx, *result.Notice)
	}
	return result, nil
}

func (r *Reconciler) reconcileLocked(ctx context.Context, trigger Trigger, sessionID, payerID string, now time.Time) (*Result, error) {
	unlock := r.store.locks.lock(payerID)
	defer unlock()

	registry, err := r.store.users.FindByPayerID(ctx, payerID)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var session *entity.UserRecord
	if sessionID != "" {
		session, err = r.store.sessions.Find(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("read session copy: %w", err)
		}
	}

	authority := registry
	if authority == nil {
		if session == nil {
			return nil, ErrRecordNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"payer_id":   payerID,
			"session_id": sessionID,
			"kind":       "record_not_found",
		}).Warn("Registry entry missing, reconciling session copy")
		r.metrics.ConsistencyWarning("record_not_found")
		authority = session
	}

	eval := evaluate(*authority, now, r.soonDays)
	result := &Result{
		PayerID: authority.PayerID,
		Trigger: trigger,
		State:   eval.State,
		Record:  authority,
	}

	if eval.ClearDue {
		logger := r.logger.WithFields(logrus.Fields{
			"payer_id": payerID,
			"trigger":  trigger,
			"reason":   eval.Reason,
		})
		switch eval.Reason {
		case ClearReasonMalformedExpiry:
			logger.WithError(entity.ErrMalformedExpiry).Warn("Clearing premium record with unreadable expiry")
		case ClearReasonLeftoverFields:
			logger.Warn("Normalising non-premium record with leftover entitlement fields")
			r.metrics.ConsistencyWarning(ClearReasonLeftoverFields)
		default:
			logger.Info("Premium entitlement expired, downgrading")
		}

		target := sessionID
		if session == nil {
			target = ""
		}
		cleared, err := r.store.write(ctx, target, payerID, entity.Entitlement{})
		if err != nil {
			return nil, err
		}
		result.Record = cleared
		result.Downgraded = true
		result.Reason = eval.Reason

		if eval.Reason != ClearReasonLeftoverFields {
			r.metrics.Downgraded(eval.Reason)
			notice := expiredNotice(*authority, eval.ExpiresAt, now)
			result.Notice = &notice
		}
		return result, nil
	}

	if registry != nil && session != nil && session.Entitlement() != registry.Entitlement() {
		r.logger.WithError(ErrStaleWrite).WithFields(logrus.Fields{
			"payer_id":   payerID,
			"session_id": sessionID,
			"kind":       "stale_session",
		}).Warn("Rewriting session copy from registry")
		r.metrics.ConsistencyWarning("stale_session")

		sessionCopy := *registry
		if err := r.store.sessions.Save(ctx, sessionID, &sessionCopy); err != nil {
			return nil, fmt.Errorf("write session copy: %w", err)
		}
		result.Record = &sessionCopy
		result.Repaired = true
	}

	return result, nil
}

func (r *Reconciler) publish(ctx context.Context, payerID, reason string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(ctx, bus.Event{
		Topic:   bus.TopicEntitlementChanged,
		PayerID: payerID,
		Reason:  reason,
	})
}

func (r *Reconciler) notify(ctx context.Context, notice entity.Notice) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, notice); err != nil {
		r.logger.WithError(err).WithField("payer_id", notice.PayerID).Warn("Failed to deliver notice")
	}
}

// SweepSummary reports a batch reconciliation over the whole registry.
type SweepSummary struct {
	Checked    int
	Downgraded int
	Failed     int
}

// ReconcileAll runs a registry-only pass for every user. Session copies are healed
// by their views when the resulting change events arrive.
func (r *Reconciler) ReconcileAll(ctx context.Context, now time.Time) (SweepSummary, error) {
	users, err := r.store.users.List(ctx)
	if err != nil {
		return SweepSummary{}, err
	}

	var summary SweepSummary
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if u == nil {
			continue
		}
		summary.Checked++
		res, err := r.Reconcile(ctx, TriggerSweep, "", u.PayerID, now)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return summary, err
			}
			summary.Failed++
			r.logger.WithError(err).WithField("payer_id", u.PayerID).Warn("Sweep reconciliation failed")
			continue
		}
		if res.Downgraded {
			summary.Downgraded++
		}
	}
	return summary, nil
}
