package settings

import (
	"context"
	"fmt"

	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/enums"
)

// Service exposes the storefront toggles and the payment-method gate.
type Service interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, input UpdateInput) (*models.Settings, error)
	PaymentMethodEnabled(ctx context.Context, method enums.PaymentMethod) (bool, error)
}

// UpdateInput carries partial updates; nil fields are left untouched.
type UpdateInput struct {
	EnableCOD           *bool `json:"enable_cod"`
	EnableRazorpay      *bool `json:"enable_razorpay"`
	EnablePhonePe       *bool `json:"enable_phonepe"`
	EnableOTPLogin      *bool `json:"enable_otp_login"`
	EnablePasswordLogin *bool `json:"enable_password_login"`
	TaxPercent          *int  `json:"tax_percent" validate:"omitempty,min=0,max=100"`
	MaintenanceMode     *bool `json:"maintenance_mode"`
}

type service struct {
	repo Repository
}

// NewService builds the settings service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context) (*models.Settings, error) {
	return s.repo.Get(ctx)
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Settings, error) {
	updates := map[string]any{}
	if input.EnableCOD != nil {
		updates["enable_cod"] = *input.EnableCOD
	}
	if input.EnableRazorpay != nil {
		updates["enable_razorpay"] = *input.EnableRazorpay
	}
	if input.EnablePhonePe != nil {
		updates["enable_phonepe"] = *input.EnablePhonePe
	}
	if input.EnableOTPLogin != nil {
		updates["enable_otp_login"] = *input.EnableOTPLogin
	}
	if input.EnablePasswordLogin != nil {
		updates["enable_password_login"] = *input.EnablePasswordLogin
	}
	if input.TaxPercent != nil {
		if *input.TaxPercent < 0 || *input.TaxPercent > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax percent must be between 0 and 100")
		}
		updates["tax_percent"] = *input.TaxPercent
	}
	if input.MaintenanceMode != nil {
		updates["maintenance_mode"] = *input.MaintenanceMode
	}
	return s.repo.Update(ctx, updates)
}

// PaymentMethodEnabled reports whether the method's toggle is on. The stored
// flag is authoritative even when gateway credentials are configured.
func (s *service) PaymentMethodEnabled(ctx context.Context, method enums.PaymentMethod) (bool, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	switch method {
	case enums.PaymentMethodCOD:
		return row.EnableCOD, nil
	case enums.PaymentMethodRazorpay:
		return row.EnableRazorpay, nil
	case enums.PaymentMethodPhonePe:
		return row.EnablePhonePe, nil
	default:
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
}
