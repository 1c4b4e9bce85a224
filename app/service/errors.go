package service

import (
	"errors"

	"github.com/vibast-solutions/ms-go-entitlements/app/catalog"
)

var (
	ErrUnknownPlan       = catalog.ErrUnknownPlan
	ErrRecordNotFound    = errors.New("user record not found")
	ErrStaleWrite        = errors.New("session copy is stale")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotPremium        = errors.New("user has no premium entitlement")
)
