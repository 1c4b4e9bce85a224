package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/dto"
	"github.com/vibast-solutions/ms-go-entitlements/app/factory"
	"github.com/vibast-solutions/ms-go-entitlements/app/mapper"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/types"
)

type EntitlementController struct {
	entitlementService *service.EntitlementService
	logger             logrus.FieldLogger
}

func NewEntitlementController(entitlementService *service.EntitlementService) *EntitlementController {
	return &EntitlementController{
		entitlementService: entitlementService,
		logger:             factory.NewModuleLogger("entitlements-controller"),
	}
}

func (c *EntitlementController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *EntitlementController) ListPlans(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &dto.ListPlansResponse{
		Plans: mapper.PlansToDTO(c.entitlementService.ListPlans()),
	})
}

func (c *EntitlementController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterUserRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	user, err := c.entitlementService.Register(ctx.Request().Context(), req)
	if err != nil {
		return c.handleServiceError(ctx, err, "Register user failed")
	}

	return ctx.JSON(http.StatusCreated, &dto.MessageWithUserResponse{
		Message: "User registered successfully",
		User:    mapper.UserToDTO(user),
	})
}

func (c *EntitlementController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	session, err := c.entitlementService.Login(ctx.Request().Context(), req)
	if err != nil {
		return c.handleServiceError(ctx, err, "Login failed")
	}

	factory.LoggerForPayer(factory.LoggerWithContext(c.logger, ctx), session.PayerID, session.ID).Info("Session opened")

	return ctx.JSON(http.StatusCreated, mapper.SessionToDTO(session))
}

func (c *EntitlementController) Logout(ctx echo.Context) error {
	req, err := types.NewSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.entitlementService.Logout(ctx.Request().Context(), req.GetSessionId()); err != nil {
		return c.handleServiceError(ctx, err, "Logout failed")
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Session closed"})
}

func (c *EntitlementController) GetEntitlement(ctx echo.Context) error {
	req, err := types.NewSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.entitlementService.Status(ctx.Request().Context(), req.GetSessionId())
	if err != nil {
		return c.handleServiceError(ctx, err, "Get entitlement failed")
	}

	return ctx.JSON(http.StatusOK, mapper.ResultToDTO(result))
}

func (c *EntitlementController) Checkout(ctx echo.Context) error {
	req, err := types.NewCheckoutRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.entitlementService.Checkout(ctx.Request().Context(), req)
	if err != nil {
		return c.handleServiceError(ctx, err, "Checkout failed")
	}

	return ctx.JSON(http.StatusOK, mapper.CheckoutToDTO(result))
}

func (c *EntitlementController) PaymentHistory(ctx echo.Context) error {
	req, err := types.NewPayerRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.entitlementService.PaymentHistory(ctx.Request().Context(), req.GetPayerId())
	if err != nil {
		return c.handleServiceError(ctx, err, "List payments failed")
	}

	return ctx.JSON(http.StatusOK, &dto.ListPaymentsResponse{Payments: mapper.PaymentsToDTO(items)})
}

// ConfirmPayment is the payment processor's success webhook.
func (c *EntitlementController) ConfirmPayment(ctx echo.Context) error {
	req, err := types.NewConfirmPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.entitlementService.ConfirmPayment(ctx.Request().Context(), req)
	if err != nil {
		return c.handleServiceError(ctx, err, "Payment confirmation failed")
	}

	return ctx.JSON(http.StatusOK, mapper.CheckoutToDTO(result))
}

func (c *EntitlementController) Revoke(ctx echo.Context) error {
	req, err := types.NewPayerRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	user, err := c.entitlementService.Revoke(ctx.Request().Context(), req.GetPayerId())
	if err != nil {
		return c.handleServiceError(ctx, err, "Revoke failed")
	}

	return ctx.JSON(http.StatusOK, &dto.MessageWithUserResponse{
		Message: "Premium access revoked",
		User:    mapper.UserToDTO(user),
	})
}

func (c *EntitlementController) ExpiryAlerts(ctx echo.Context) error {
	req, err := types.NewExpiryAlertsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid query params")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	alerts, err := c.entitlementService.ExpiryAlerts(ctx.Request().Context(), req.GetWithinDays())
	if err != nil {
		return c.handleServiceError(ctx, err, "List expiry alerts failed")
	}

	return ctx.JSON(http.StatusOK, &dto.ListExpiryAlertsResponse{Alerts: mapper.ExpiryAlertsToDTO(alerts)})
}

func (c *EntitlementController) handleServiceError(ctx echo.Context, err error, logMessage string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownPlan):
		return c.writeError(ctx, http.StatusNotFound, "plan not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return c.writeError(ctx, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrRecordNotFound):
		return c.writeError(ctx, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrUserAlreadyExists):
		return c.writeError(ctx, http.StatusConflict, "user already exists")
	case errors.Is(err, service.ErrNotPremium):
		return c.writeError(ctx, http.StatusConflict, "user has no premium access")
	default:
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(logMessage)
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *EntitlementController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
