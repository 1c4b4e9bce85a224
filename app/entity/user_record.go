package entity

import (
	"errors"
	"strings"
	"time"
)

var ErrMalformedExpiry = errors.New("malformed premium expiry date")

// UserRecord is persisted both in the registry and as the session copy. Date fields
// keep their stored string form so a damaged value is detected on read instead of
// being silently zeroed by the decoder.
type UserRecord struct {
	PayerID                string    `json:"payerId"`
	DisplayName            string    `json:"displayName,omitempty"`
	IsPremium              bool      `json:"isPremium,omitempty"`
	PremiumExpiryDate      string    `json:"premiumExpiryDate,omitempty"`
	PremiumActivatedDate   string    `json:"premiumActivatedDate,omitempty"`
	PremiumPlanID          string    `json:"premiumPlanId,omitempty"`
	PremiumPlanDisplayName string    `json:"premiumPlanDisplayName,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
}

// Entitlement is the comparable subset of a UserRecord that reconciliation keeps
// identical between the registry and the session copy.
type Entitlement struct {
	IsPremium              bool
	PremiumExpiryDate      string
	PremiumActivatedDate   string
	PremiumPlanID          string
	PremiumPlanDisplayName string
}

func (u UserRecord) Entitlement() Entitlement {
	return Entitlement{
		IsPremium:              u.IsPremium,
		PremiumExpiryDate:      u.PremiumExpiryDate,
		PremiumActivatedDate:   u.PremiumActivatedDate,
		PremiumPlanID:          u.PremiumPlanID,
		PremiumPlanDisplayName: u.PremiumPlanDisplayName,
	}
}

func (u *UserRecord) ApplyEntitlement(e Entitlement) {
	u.IsPremium = e.IsPremium
	u.PremiumExpiryDate = e.PremiumExpiryDate
	u.PremiumActivatedDate = e.PremiumActivatedDate
	u.PremiumPlanID = e.PremiumPlanID
	u.PremiumPlanDisplayName = e.PremiumPlanDisplayName
}

func (u *UserRecord) ClearEntitlement() {
	u.ApplyEntitlement(Entitlement{})
}

func (u UserRecord) HasEntitlementFields() bool {
	return u.Entitlement() != Entitlement{}
}

// ExpiryInstant parses PremiumExpiryDate. An empty or unparseable value yields
// ErrMalformedExpiry.
func (u UserRecord) ExpiryInstant() (time.Time, error) {
	raw := strings.TrimSpace(u.PremiumExpiryDate)
	if raw == "" {
		return time.Time{}, ErrMalformedExpiry
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, ErrMalformedExpiry
	}
	return t, nil
}

// EntitlementFromPayment builds the activation delta for a confirmed purchase.
func EntitlementFromPayment(entry *PaymentLogEntry) Entitlement {
	return Entitlement{
		IsPremium:              true,
		PremiumExpiryDate:      entry.ExpiresAt.Format(time.RFC3339Nano),
		PremiumActivatedDate:   entry.ActivatedAt.Format(time.RFC3339Nano),
		PremiumPlanID:          entry.PlanID,
		PremiumPlanDisplayName: entry.PlanDisplayName,
	}
}
