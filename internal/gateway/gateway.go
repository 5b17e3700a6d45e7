package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/internal/settings"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// orderStore is the slice of the orders repository the adapters need to
// persist and settle orders.
type orderStore interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	MarkPaidIfPending(ctx context.Context, transactionID string, paidAt time.Time) (bool, error)
	MarkFailedIfPending(ctx context.Context, transactionID string) (bool, error)
	SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error
}

// InitiateResult carries what the client needs to continue the payment.
// COD returns the accepted order; Razorpay returns the remote gateway order
// and publishable key for its checkout widget without persisting anything;
// PhonePe returns a redirect URL for its hosted page.
type InitiateResult struct {
	Order          *models.Order `json:"order,omitempty"`
	GatewayOrderID string        `json:"gateway_order_id,omitempty"`
	RedirectURL    string        `json:"redirect_url,omitempty"`
	ClientKeyID    string        `json:"client_key_id,omitempty"`
}

// VerifyInput is the union of what each method's settle path consumes.
// Razorpay fills Draft plus the callback triple; PhonePe fills TransactionID.
type VerifyInput struct {
	Draft          *models.Order
	GatewayOrderID string
	PaymentID      string
	Signature      string
	TransactionID  string
}

// VerifyResult reports the settled order. NewlyPaid is true only on the call
// that performed the pending-to-paid transition, so callers can trigger
// exactly-once side effects such as invoicing.
type VerifyResult struct {
	Order     *models.Order
	Status    enums.PaymentStatus
	NewlyPaid bool
}

// PaymentGateway is one payment method behind a uniform seam. Initiate takes
// an assembled, unsaved order draft and decides itself whether and when to
// persist it; Verify settles the payment outcome.
type PaymentGateway interface {
	Method() enums.PaymentMethod
	Initiate(ctx context.Context, draft *models.Order) (*InitiateResult, error)
	Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error)
}

// Registry resolves a payment method to its adapter, gated by the stored
// settings toggles.
type Registry struct {
	settings settings.Service
	adapters map[enums.PaymentMethod]PaymentGateway
}

// NewRegistry builds a registry over the provided adapters.
func NewRegistry(settingsSvc settings.Service, adapters ...PaymentGateway) (*Registry, error) {
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	byMethod := make(map[enums.PaymentMethod]PaymentGateway, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		if _, dup := byMethod[adapter.Method()]; dup {
			return nil, fmt.Errorf("duplicate gateway adapter for %s", adapter.Method())
		}
		byMethod[adapter.Method()] = adapter
	}
	return &Registry{settings: settingsSvc, adapters: byMethod}, nil
}

// Resolve returns the adapter for an enabled method. Disabled methods fail
// with GATEWAY_DISABLED even when the adapter is configured.
func (r *Registry) Resolve(ctx context.Context, method enums.PaymentMethod) (PaymentGateway, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	enabled, err := r.settings.PaymentMethodEnabled(ctx, method)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayDisabled, fmt.Sprintf("%s payments are disabled", method))
	}

	adapter, ok := r.adapters[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayDisabled, fmt.Sprintf("%s payments are not configured", method))
	}
	return adapter, nil
}
