package dto

type PlanResponse struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	PriceMinorUnits int64  `json:"price_minor_units"`
	DurationDays    int    `json:"duration_days"`
	DurationLabel   string `json:"duration_label"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
}

type ListPlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}

type UserResponse struct {
	PayerID     string `json:"payer_id"`
	DisplayName string `json:"display_name,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type EntitlementResponse struct {
	PayerID          string          `json:"payer_id"`
	Phase            string          `json:"phase"`
	IsActive         bool            `json:"is_active"`
	IsExpiringSoon   bool            `json:"is_expiring_soon"`
	DaysRemaining    int             `json:"days_remaining"`
	PlanID           string          `json:"plan_id,omitempty"`
	PlanDisplayName  string          `json:"plan_display_name,omitempty"`
	ExpiresAt        string          `json:"expires_at,omitempty"`
	ExpiresAtDisplay string          `json:"expires_at_display,omitempty"`
	StatusText       string          `json:"status_text"`
	Downgraded       bool            `json:"downgraded,omitempty"`
	Notice           *NoticeResponse `json:"notice,omitempty"`
}

type NoticeResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type SessionResponse struct {
	SessionID   string              `json:"session_id"`
	PayerID     string              `json:"payer_id"`
	Entitlement EntitlementResponse `json:"entitlement"`
}

type PaymentResponse struct {
	TransactionID    string `json:"transaction_id"`
	PayerID          string `json:"payer_id"`
	PayerDisplayName string `json:"payer_display_name,omitempty"`
	PlanID           string `json:"plan_id"`
	PlanDisplayName  string `json:"plan_display_name"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	DurationDays     int    `json:"duration_days"`
	CreatedAt        string `json:"created_at"`
	ActivatedAt      string `json:"activated_at"`
	ExpiresAt        string `json:"expires_at"`
	Status           string `json:"status"`
}

type ListPaymentsResponse struct {
	Payments []PaymentResponse `json:"payments"`
}

type CheckoutResponse struct {
	Completed   bool                 `json:"completed"`
	Payment     *PaymentResponse     `json:"payment,omitempty"`
	Entitlement *EntitlementResponse `json:"entitlement,omitempty"`
}

type ExpiryAlertResponse struct {
	PayerID         string `json:"payer_id"`
	DisplayName     string `json:"display_name,omitempty"`
	PlanDisplayName string `json:"plan_display_name"`
	ExpiresAt       string `json:"expires_at"`
	DaysRemaining   int    `json:"days_remaining"`
	IsExpired       bool   `json:"is_expired"`
	IsExpiringSoon  bool   `json:"is_expiring_soon"`
}

type ListExpiryAlertsResponse struct {
	Alerts []ExpiryAlertResponse `json:"alerts"`
}

type MessageWithUserResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}
