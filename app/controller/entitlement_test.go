package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-entitlements/app/catalog"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/ledger"
	"github.com/vibast-solutions/ms-go-entitlements/app/payment"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/config"
)

type controllerHarness struct {
	ctrl  *EntitlementController
	users *repository.UserRepository
	e     *echo.Echo
}

func newControllerForTest(t *testing.T, gateway payment.Gateway) *controllerHarness {
	t.Helper()

	kv := repository.NewMemoryStore()
	users := repository.NewUserRepository(kv)
	sessions := repository.NewSessionRepository(kv)
	ledgerRepo := repository.NewLedgerRepository(kv)
	store := service.NewRecordStore(users, sessions, nil, nil)
	reconciler := service.NewReconciler(store, nil, nil, nil, nil, 7)
	plans := catalog.Default()

	if gateway == nil {
		gateway = payment.NewSandboxGateway()
	}
	svc := service.NewEntitlementService(
		plans, users, sessions,
		ledger.NewWriter(plans, ledgerRepo), ledgerRepo,
		store, reconciler, nil, gateway, nil, nil, nil, nil,
		config.EntitlementConfig{ExpiringSoonDays: 7, AlertWindowDays: 30, Location: time.UTC},
	)
	return &controllerHarness{ctrl: NewEntitlementController(svc), users: users, e: echo.New()}
}

func (h *controllerHarness) do(method, target, body string, params map[string]string, handler func(*EntitlementController, echo.Context) error) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	ctx := h.e.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for name, value := range params {
			names = append(names, name)
			values = append(values, value)
		}
		ctx.SetParamNames(names...)
		ctx.SetParamValues(values...)
	}
	_ = handler(h.ctrl, ctx)
	return rec
}

func (h *controllerHarness) login(t *testing.T, payerID string) string {
	t.Helper()
	rec := h.do(http.MethodPost, "/users", `{"payer_id":"`+payerID+`","display_name":"Asha"}`, nil, (*EntitlementController).Register)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = h.do(http.MethodPost, "/sessions", `{"payer_id":"`+payerID+`"}`, nil, (*EntitlementController).Login)
	if rec.Code != http.StatusCreated {
		t.Fatalf("login: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.SessionID == "" {
		t.Fatalf("expected session id, got %s", rec.Body.String())
	}
	return payload.SessionID
}

func TestHealth(t *testing.T) {
	h := newControllerForTest(t, nil)
	rec := h.do(http.MethodGet, "/health", "", nil, (*EntitlementController).Health)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListPlans(t *testing.T) {
	h := newControllerForTest(t, nil)
	rec := h.do(http.MethodGet, "/plans", "", nil, (*EntitlementController).ListPlans)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Plans []struct {
			ID string `json:"id"`
		} `json:"plans"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(payload.Plans) != len(catalog.Default().All()) {
		t.Fatalf("expected full catalog, got %s", rec.Body.String())
	}
}

func TestRegisterBadBody(t *testing.T) {
	h := newControllerForTest(t, nil)
	rec := h.do(http.MethodPost, "/users", "{bad", nil, (*EntitlementController).Register)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	h := newControllerForTest(t, nil)
	h.login(t, "asha@example.com")

	rec := h.do(http.MethodPost, "/users", `{"payer_id":"asha@example.com"}`, nil, (*EntitlementController).Register)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestLoginUnknownPayer(t *testing.T) {
	h := newControllerForTest(t, nil)
	rec := h.do(http.MethodPost, "/sessions", `{"payer_id":"ghost@example.com"}`, nil, (*EntitlementController).Login)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCheckoutActivatesPremium(t *testing.T) {
	h := newControllerForTest(t, nil)
	sessionID := h.login(t, "asha@example.com")

	rec := h.do(http.MethodPost, "/sessions/"+sessionID+"/checkout", `{"plan_id":"one_month"}`,
		map[string]string{"id": sessionID}, (*EntitlementController).Checkout)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Completed   bool `json:"completed"`
		Entitlement struct {
			Phase         string `json:"phase"`
			IsActive      bool   `json:"is_active"`
			DaysRemaining int    `json:"days_remaining"`
			StatusText    string `json:"status_text"`
		} `json:"entitlement"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !payload.Completed || !payload.Entitlement.IsActive || payload.Entitlement.Phase != string(entity.PhaseActive) {
		t.Fatalf("expected active entitlement, got %s", rec.Body.String())
	}
	if payload.Entitlement.DaysRemaining != 30 {
		t.Fatalf("expected 30 days remaining, got %d", payload.Entitlement.DaysRemaining)
	}

	rec = h.do(http.MethodGet, "/users/asha@example.com/payments", "",
		map[string]string{"payer_id": "asha@example.com"}, (*EntitlementController).PaymentHistory)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var history struct {
		Payments []struct {
			PlanID string `json:"plan_id"`
			Status string `json:"status"`
		} `json:"payments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(history.Payments) != 1 || history.Payments[0].PlanID != "one_month" || history.Payments[0].Status != entity.PaymentStatusSuccess {
		t.Fatalf("unexpected history: %s", rec.Body.String())
	}
}

func TestCheckoutUnknownPlan(t *testing.T) {
	h := newControllerForTest(t, nil)
	sessionID := h.login(t, "asha@example.com")

	rec := h.do(http.MethodPost, "/sessions/"+sessionID+"/checkout", `{"plan_id":"lifetime"}`,
		map[string]string{"id": sessionID}, (*EntitlementController).Checkout)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCheckoutAbandoned(t *testing.T) {
	h := newControllerForTest(t, payment.NewSandboxGateway(payment.WithAbandonedPayers("asha@example.com")))
	sessionID := h.login(t, "asha@example.com")

	rec := h.do(http.MethodPost, "/sessions/"+sessionID+"/checkout", `{"plan_id":"one_month"}`,
		map[string]string{"id": sessionID}, (*EntitlementController).Checkout)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Completed bool `json:"completed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Completed {
		t.Fatalf("expected abandoned checkout, got %s", rec.Body.String())
	}
}

func TestGetEntitlementUnknownSession(t *testing.T) {
	h := newControllerForTest(t, nil)
	rec := h.do(http.MethodGet, "/sessions/nope/entitlement", "",
		map[string]string{"id": "nope"}, (*EntitlementController).GetEntitlement)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetEntitlementDowngradesExpired(t *testing.T) {
	h := newControllerForTest(t, nil)
	sessionID := h.login(t, "asha@example.com")

	past := time.Now().UTC().AddDate(0, 0, -2)
	if _, err := h.users.UpdateEntitlement(context.Background(), "asha@example.com", entity.Entitlement{
		IsPremium:              true,
		PremiumExpiryDate:      past.Format(time.RFC3339Nano),
		PremiumActivatedDate:   past.AddDate(0, 0, -30).Format(time.RFC3339Nano),
		PremiumPlanID:          "one_month",
		PremiumPlanDisplayName: "1 Month",
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rec := h.do(http.MethodGet, "/sessions/"+sessionID+"/entitlement", "",
		map[string]string{"id": sessionID}, (*EntitlementController).GetEntitlement)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Phase      string `json:"phase"`
		Downgraded bool   `json:"downgraded"`
		Notice     *struct {
			Kind string `json:"kind"`
		} `json:"notice"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Phase != string(entity.PhaseExpired) || !payload.Downgraded {
		t.Fatalf("expected downgrade, got %s", rec.Body.String())
	}
	if payload.Notice == nil || payload.Notice.Kind != string(entity.NoticeExpired) {
		t.Fatalf("expected expired notice, got %s", rec.Body.String())
	}

	rec = h.do(http.MethodGet, "/sessions/"+sessionID+"/entitlement", "",
		map[string]string{"id": sessionID}, (*EntitlementController).GetEntitlement)
	payload.Downgraded = false
	payload.Notice = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Phase != string(entity.PhaseNoSubscription) || payload.Downgraded || payload.Notice != nil {
		t.Fatalf("expected settled no_subscription, got %s", rec.Body.String())
	}
}

func TestConfirmPaymentWebhook(t *testing.T) {
	h := newControllerForTest(t, nil)
	h.login(t, "asha@example.com")

	rec := h.do(http.MethodPost, "/webhooks/payment-success",
		`{"transaction_id":"pay_42","payer_id":"asha@example.com","plan_id":"three_months","amount_paid":5499}`,
		nil, (*EntitlementController).ConfirmPayment)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Payment struct {
			TransactionID string `json:"transaction_id"`
			DurationDays  int    `json:"duration_days"`
		} `json:"payment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Payment.TransactionID != "pay_42" || payload.Payment.DurationDays != 90 {
		t.Fatalf("unexpected payment: %s", rec.Body.String())
	}
}

func TestConfirmPaymentValidation(t *testing.T) {
	h := newControllerForTest(t, nil)
	rec := h.do(http.MethodPost, "/webhooks/payment-success", `{"payer_id":"asha@example.com"}`,
		nil, (*EntitlementController).ConfirmPayment)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRevokeNotPremium(t *testing.T) {
	h := newControllerForTest(t, nil)
	h.login(t, "asha@example.com")

	rec := h.do(http.MethodPost, "/admin/users/asha@example.com/revoke", "",
		map[string]string{"payer_id": "asha@example.com"}, (*EntitlementController).Revoke)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestExpiryAlertsInvalidWindow(t *testing.T) {
	h := newControllerForTest(t, nil)
	rec := h.do(http.MethodGet, "/admin/expiring?within_days=-1", "", nil, (*EntitlementController).ExpiryAlerts)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExpiryAlertsListsSoonExpiring(t *testing.T) {
	h := newControllerForTest(t, nil)
	sessionID := h.login(t, "asha@example.com")
	h.do(http.MethodPost, "/sessions/"+sessionID+"/checkout", `{"plan_id":"one_month"}`,
		map[string]string{"id": sessionID}, (*EntitlementController).Checkout)

	rec := h.do(http.MethodGet, "/admin/expiring?within_days=31", "", nil, (*EntitlementController).ExpiryAlerts)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Alerts []struct {
			PayerID       string `json:"payer_id"`
			DaysRemaining int    `json:"days_remaining"`
		} `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(payload.Alerts) != 1 || payload.Alerts[0].PayerID != "asha@example.com" || payload.Alerts[0].DaysRemaining != 30 {
		t.Fatalf("unexpected alerts: %s", rec.Body.String())
	}
}

func TestLogoutThenStatusIsNotFound(t *testing.T) {
	h := newControllerForTest(t, nil)
	sessionID := h.login(t, "asha@example.com")

	rec := h.do(http.MethodDelete, "/sessions/"+sessionID, "", map[string]string{"id": sessionID}, (*EntitlementController).Logout)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = h.do(http.MethodGet, "/sessions/"+sessionID+"/entitlement", "",
		map[string]string{"id": sessionID}, (*EntitlementController).GetEntitlement)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
