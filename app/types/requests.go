package types

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const maxAlertWindowDays = 3650

func NewRegisterUserRequestFromContext(ctx echo.Context) (*RegisterUserRequest, error) {
	var body RegisterUserRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.PayerId = strings.TrimSpace(body.PayerId)
	body.DisplayName = strings.TrimSpace(body.DisplayName)
	return &body, nil
}

func (r *RegisterUserRequest) Validate() error {
	if r.GetPayerId() == "" {
		return errors.New("payer_id is required")
	}
	return nil
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.PayerId = strings.TrimSpace(body.PayerId)
	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if r.GetPayerId() == "" {
		return errors.New("payer_id is required")
	}
	return nil
}

func NewSessionRequestFromContext(ctx echo.Context) (*SessionRequest, error) {
	return &SessionRequest{SessionId: strings.TrimSpace(ctx.Param("id"))}, nil
}

func (r *SessionRequest) Validate() error {
	if r.GetSessionId() == "" {
		return errors.New("invalid session id")
	}
	return nil
}

func NewCheckoutRequestFromContext(ctx echo.Context) (*CheckoutRequest, error) {
	var body struct {
		PlanId string `json:"plan_id"`
	}
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &CheckoutRequest{
		SessionId: strings.TrimSpace(ctx.Param("id")),
		PlanId:    strings.TrimSpace(body.PlanId),
	}, nil
}

func (r *CheckoutRequest) Validate() error {
	if r.GetSessionId() == "" {
		return errors.New("invalid session id")
	}
	if r.GetPlanId() == "" {
		return errors.New("plan_id is required")
	}
	return nil
}

func NewConfirmPaymentRequestFromContext(ctx echo.Context) (*ConfirmPaymentRequest, error) {
	var body ConfirmPaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.TransactionId = strings.TrimSpace(body.TransactionId)
	body.PayerId = strings.TrimSpace(body.PayerId)
	body.PlanId = strings.TrimSpace(body.PlanId)
	body.SessionId = strings.TrimSpace(body.SessionId)
	return &body, nil
}

func (r *ConfirmPaymentRequest) Validate() error {
	if r.GetPayerId() == "" {
		return errors.New("payer_id is required")
	}
	if r.GetPlanId() == "" {
		return errors.New("plan_id is required")
	}
	if r.GetAmountPaid() < 0 {
		return errors.New("amount_paid must not be negative")
	}
	return nil
}

func NewPayerRequestFromContext(ctx echo.Context) (*PayerRequest, error) {
	return &PayerRequest{PayerId: strings.TrimSpace(ctx.Param("payer_id"))}, nil
}

func (r *PayerRequest) Validate() error {
	if r.GetPayerId() == "" {
		return errors.New("payer_id is required")
	}
	return nil
}

func NewExpiryAlertsRequestFromContext(ctx echo.Context) (*ExpiryAlertsRequest, error) {
	req := &ExpiryAlertsRequest{}
	raw := strings.TrimSpace(ctx.QueryParam("within_days"))
	if raw == "" {
		return req, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	req.WithinDays = days
	return req, nil
}

func (r *ExpiryAlertsRequest) Validate() error {
	if r.GetWithinDays() < 0 || r.GetWithinDays() > maxAlertWindowDays {
		return errors.New("within_days must be between 0 and 3650")
	}
	return nil
}
