package entity

import "time"

type Phase string

const (
	PhaseNoSubscription Phase = "no_subscription"
	PhaseActive         Phase = "active"
	PhaseExpiringSoon   Phase = "expiring_soon"
	PhaseExpired        Phase = "expired"
)

// EntitlementState is derived from a UserRecord on every read and never stored.
type EntitlementState struct {
	Phase            Phase
	IsActive         bool
	DaysRemaining    int
	ExpiresAt        time.Time
	ExpiresAtDisplay string
	PlanID           string
	PlanDisplayName  string
	IsExpiringSoon   bool
}

type NoticeKind string

const (
	NoticeActivated NoticeKind = "activated"
	NoticeExpired   NoticeKind = "expired"
	NoticeRevoked   NoticeKind = "revoked"
)

// Notice is the user-facing message emitted when access is granted or taken away.
type Notice struct {
	Kind            NoticeKind `json:"kind"`
	PayerID         string     `json:"payer_id"`
	PlanDisplayName string     `json:"plan_display_name,omitempty"`
	ExpiresAt       string     `json:"expires_at,omitempty"`
	Message         string     `json:"message"`
	OccurredAt      time.Time  `json:"occurred_at"`
}
