package types

type RegisterUserRequest struct {
	PayerId     string `json:"payer_id"`
	DisplayName string `json:"display_name"`
}

func (r *RegisterUserRequest) GetPayerId() string {
	if r == nil {
		return ""
	}
	return r.PayerId
}

func (r *RegisterUserRequest) GetDisplayName() string {
	if r == nil {
		return ""
	}
	return r.DisplayName
}

type LoginRequest struct {
	PayerId string `json:"payer_id"`
}

func (r *LoginRequest) GetPayerId() string {
	if r == nil {
		return ""
	}
	return r.PayerId
}

type SessionRequest struct {
	SessionId string `json:"session_id"`
}

func (r *SessionRequest) GetSessionId() string {
	if r == nil {
		return ""
	}
	return r.SessionId
}

type CheckoutRequest struct {
	SessionId string `json:"session_id"`
	PlanId    string `json:"plan_id"`
}

func (r *CheckoutRequest) GetSessionId() string {
	if r == nil {
		return ""
	}
	return r.SessionId
}

func (r *CheckoutRequest) GetPlanId() string {
	if r == nil {
		return ""
	}
	return r.PlanId
}

type ConfirmPaymentRequest struct {
	TransactionId string `json:"transaction_id"`
	PayerId       string `json:"payer_id"`
	PlanId        string `json:"plan_id"`
	AmountPaid    int64  `json:"amount_paid"`
	SessionId     string `json:"session_id"`
}

func (r *ConfirmPaymentRequest) GetTransactionId() string {
	if r == nil {
		return ""
	}
	return r.TransactionId
}

func (r *ConfirmPaymentRequest) GetPayerId() string {
	if r == nil {
		return ""
	}
	return r.PayerId
}

func (r *ConfirmPaymentRequest) GetPlanId() string {
	if r == nil {
		return ""
	}
	return r.PlanId
}

func (r *ConfirmPaymentRequest) GetAmountPaid() int64 {
	if r == nil {
		return 0
	}
	return r.AmountPaid
}

func (r *ConfirmPaymentRequest) GetSessionId() string {
	if r == nil {
		return ""
	}
	return r.SessionId
}

type PayerRequest struct {
	PayerId string `json:"payer_id"`
}

func (r *PayerRequest) GetPayerId() string {
	if r == nil {
		return ""
	}
	return r.PayerId
}

type ExpiryAlertsRequest struct {
	WithinDays int `json:"within_days"`
}

func (r *ExpiryAlertsRequest) GetWithinDays() int {
	if r == nil {
		return 0
	}
	return r.WithinDays
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
