package mapper

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/dto"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/types"
	"google.golang.org/protobuf/types/known/structpb"
)

func PlanToDTO(item entity.Plan) dto.PlanResponse {
	return dto.PlanResponse{
		ID:              item.ID,
		DisplayName:     item.DisplayName,
		PriceMinorUnits: item.PriceMinorUnits,
		DurationDays:    item.DurationDays,
		DurationLabel:   item.DurationLabel,
		DiscountPercent: item.DiscountPercent,
	}
}

func PlansToDTO(items []entity.Plan) []dto.PlanResponse {
	result := make([]dto.PlanResponse, 0, len(items))
	for _, item := range items {
		result = append(result, PlanToDTO(item))
	}
	return result
}

func UserToDTO(item *entity.UserRecord) dto.UserResponse {
	if item == nil {
		return dto.UserResponse{}
	}
	return dto.UserResponse{
		PayerID:     item.PayerID,
		DisplayName: item.DisplayName,
		CreatedAt:   formatTime(item.CreatedAt),
	}
}

func ResultToDTO(item *service.Result) dto.EntitlementResponse {
	if item == nil {
		return dto.EntitlementResponse{}
	}

	state := item.State
	resp := dto.EntitlementResponse{
		PayerID:          item.PayerID,
		Phase:            string(state.Phase),
		IsActive:         state.IsActive,
		IsExpiringSoon:   state.IsExpiringSoon,
		DaysRemaining:    state.DaysRemaining,
		PlanID:           state.PlanID,
		PlanDisplayName:  state.PlanDisplayName,
		ExpiresAt:        formatTime(state.ExpiresAt),
		ExpiresAtDisplay: state.ExpiresAtDisplay,
		StatusText:       service.StatusText(state),
		Downgraded:       item.Downgraded,
	}
	if item.Notice != nil {
		resp.Notice = &dto.NoticeResponse{Kind: string(item.Notice.Kind), Message: item.Notice.Message}
	}
	return resp
}

func SessionToDTO(item *service.Session) dto.SessionResponse {
	if item == nil {
		return dto.SessionResponse{}
	}
	return dto.SessionResponse{
		SessionID:   item.ID,
		PayerID:     item.PayerID,
		Entitlement: ResultToDTO(item.Result),
	}
}

func PaymentToDTO(item *entity.PaymentLogEntry) dto.PaymentResponse {
	if item == nil {
		return dto.PaymentResponse{}
	}
	return dto.PaymentResponse{
		TransactionID:    item.TransactionID,
		PayerID:          item.PayerID,
		PayerDisplayName: item.PayerDisplayName,
		PlanID:           item.PlanID,
		PlanDisplayName:  item.PlanDisplayName,
		AmountMinorUnits: item.AmountMinorUnits,
		DurationDays:     item.DurationDays,
		CreatedAt:        formatTime(item.CreatedAt),
		ActivatedAt:      formatTime(item.ActivatedAt),
		ExpiresAt:        formatTime(item.ExpiresAt),
		Status:           item.Status,
	}
}

func PaymentsToDTO(items []*entity.PaymentLogEntry) []dto.PaymentResponse {
	result := make([]dto.PaymentResponse, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToDTO(item))
	}
	return result
}

func CheckoutToDTO(item *service.CheckoutResult) dto.CheckoutResponse {
	if item == nil {
		return dto.CheckoutResponse{}
	}
	resp := dto.CheckoutResponse{Completed: item.Completed}
	if item.Entry != nil {
		p := PaymentToDTO(item.Entry)
		resp.Payment = &p
	}
	if item.Result != nil {
		e := ResultToDTO(item.Result)
		resp.Entitlement = &e
	}
	return resp
}

func ExpiryAlertsToDTO(items []service.ExpiryAlert) []dto.ExpiryAlertResponse {
	result := make([]dto.ExpiryAlertResponse, 0, len(items))
	for _, item := range items {
		result = append(result, dto.ExpiryAlertResponse{
			PayerID:         item.PayerID,
			DisplayName:     item.DisplayName,
			PlanDisplayName: item.PlanDisplayName,
			ExpiresAt:       formatTime(item.ExpiresAt),
			DaysRemaining:   item.DaysRemaining,
			IsExpired:       item.IsExpired,
			IsExpiringSoon:  item.IsExpiringSoon,
		})
	}
	return result
}

// ToStruct converts a JSON-tagged response into a protobuf Struct for the gRPC surface.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// ConfirmPaymentRequestFromStruct reads the webhook payload fields from a Struct.
// Numbers arrive as float64, so amount_paid must be a whole number in int64 range.
func ConfirmPaymentRequestFromStruct(in *structpb.Struct) (*types.ConfirmPaymentRequest, error) {
	req := &types.ConfirmPaymentRequest{}
	if in == nil {
		return req, nil
	}
	fields := in.GetFields()
	req.TransactionId = fields["transaction_id"].GetStringValue()
	req.PayerId = fields["payer_id"].GetStringValue()
	req.PlanId = fields["plan_id"].GetStringValue()
	req.SessionId = fields["session_id"].GetStringValue()

	amount, err := minorUnits(fields["amount_paid"])
	if err != nil {
		return nil, err
	}
	req.AmountPaid = amount
	return req, nil
}

func minorUnits(v *structpb.Value) (int64, error) {
	switch kind := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return 0, nil
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, errors.New("amount_paid must be a whole number of minor units")
		}
		return int64(f), nil
	default:
		return 0, errors.New("amount_paid must be a number")
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
