package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/expiry"
)

// Notifier delivers user-facing notices. Delivery failures are logged by the caller
// and never undo the state change that produced the notice.
type Notifier interface {
	Notify(ctx context.Context, notice entity.Notice) error
}

func expiredNotice(u entity.UserRecord, expiresAt, now time.Time) entity.Notice {
	display := expiry.FormatDisplay(expiresAt)
	return entity.Notice{
		Kind:            entity.NoticeExpired,
		PayerID:         u.PayerID,
		PlanDisplayName: u.PremiumPlanDisplayName,
		ExpiresAt:       display,
		Message: fmt.Sprintf(
			"Your premium membership has expired. Your membership ended on %s. Renew now to continue accessing premium features.",
			display,
		),
		OccurredAt: now,
	}
}

func activatedNotice(entry *entity.PaymentLogEntry, now time.Time) entity.Notice {
	display := expiry.FormatDisplay(entry.ExpiresAt)
	return entity.Notice{
		Kind:            entity.NoticeActivated,
		PayerID:         entry.PayerID,
		PlanDisplayName: entry.PlanDisplayName,
		ExpiresAt:       display,
		Message: fmt.Sprintf(
			"Welcome to premium! Payment %s confirmed. Your %s plan is active until %s.",
			entry.TransactionID, entry.PlanDisplayName, display,
		),
		OccurredAt: now,
	}
}

func revokedNotice(u entity.UserRecord, now time.Time) entity.Notice {
	return entity.Notice{
		Kind:            entity.NoticeRevoked,
		PayerID:         u.PayerID,
		PlanDisplayName: u.PremiumPlanDisplayName,
		Message:         "Your premium membership has been revoked by an administrator.",
		OccurredAt:      now,
	}
}

// StatusText renders the subscription banner for a computed state.
func StatusText(state entity.EntitlementState) string {
	switch state.Phase {
	case entity.PhaseActive:
		return fmt.Sprintf("Premium active: %s | Expires: %s (%d days)", state.PlanDisplayName, state.ExpiresAtDisplay, state.DaysRemaining)
	case entity.PhaseExpiringSoon:
		return fmt.Sprintf(
			"Premium active: %s | Expires: %s (%d days). Your subscription is expiring soon. Renew now to avoid losing premium access!",
			state.PlanDisplayName, state.ExpiresAtDisplay, state.DaysRemaining,
		)
	case entity.PhaseExpired:
		return fmt.Sprintf("Subscription expired! Your premium membership ended on %s. Renew to restore access.", state.ExpiresAtDisplay)
	default:
		return "No active subscription. Upgrade to unlock premium features!"
	}
}
