package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-entitlements/app/dto"
	"github.com/vibast-solutions/ms-go-entitlements/app/mapper"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	types.UnimplementedEntitlementsServiceServer
	entitlementService *service.EntitlementService
}

func NewServer(entitlementService *service.EntitlementService) *Server {
	return &Server{entitlementService: entitlementService}
}

func (s *Server) ListPlans(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.toStruct(ctx, &dto.ListPlansResponse{Plans: mapper.PlansToDTO(s.entitlementService.ListPlans())})
}

// GetEntitlement reconciles the payer's registry record and returns its state.
func (s *Server) GetEntitlement(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	payer := &types.PayerRequest{PayerId: req.GetValue()}
	if err := payer.Validate(); err != nil {
		loggerWithContext(ctx).WithError(err).Debug("Get entitlement validation failed")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.entitlementService.StatusByPayer(ctx, payer.GetPayerId())
	if err != nil {
		return nil, s.toStatus(ctx, err, "Get entitlement failed")
	}
	return s.toStruct(ctx, mapper.ResultToDTO(result))
}

func (s *Server) ConfirmPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	confirm, err := mapper.ConfirmPaymentRequestFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := confirm.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.entitlementService.ConfirmPayment(ctx, confirm)
	if err != nil {
		return nil, s.toStatus(ctx, err, "Payment confirmation failed")
	}
	return s.toStruct(ctx, mapper.CheckoutToDTO(result))
}

func (s *Server) toStatus(ctx context.Context, err error, logMessage string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrUnknownPlan):
		return status.Error(codes.NotFound, "plan not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return status.Error(codes.NotFound, "session not found")
	case errors.Is(err, service.ErrRecordNotFound):
		return status.Error(codes.NotFound, "user not found")
	default:
		loggerWithContext(ctx).WithError(err).Error(logMessage)
		return status.Error(codes.Internal, "internal server error")
	}
}

func (s *Server) toStruct(ctx context.Context, v interface{}) (*structpb.Struct, error) {
	out, err := mapper.ToStruct(v)
	if err != nil {
		loggerWithContext(ctx).WithError(err).Error("Encode response failed")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}
