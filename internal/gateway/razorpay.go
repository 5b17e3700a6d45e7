package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/razorpay"
)

// razorpayClient is the subset of the Razorpay wrapper this adapter needs.
type razorpayClient interface {
	CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.PaymentDetails, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	KeyID() string
}

// RazorpayGateway opens a Razorpay order for the checkout widget. Nothing is
// persisted at initiate time: the local order is created only once the
// client-side payment comes back with a valid signature, so abandoned
// attempts leave no rows behind.
type RazorpayGateway struct {
	client razorpayClient
	orders orderStore
	now    func() time.Time
}

// NewRazorpayGateway builds the Razorpay adapter.
func NewRazorpayGateway(client razorpayClient, orders orderStore) (*RazorpayGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("razorpay client required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	return &RazorpayGateway{client: client, orders: orders, now: time.Now}, nil
}

func (g *RazorpayGateway) Method() enums.PaymentMethod {
	return enums.PaymentMethodRazorpay
}

func (g *RazorpayGateway) Initiate(ctx context.Context, draft *models.Order) (*InitiateResult, error) {
	gatewayOrder, err := g.client.CreateOrder(ctx, razorpay.OrderCreateParams{
		AmountPaise: draft.TotalPaise,
		Currency:    "INR",
		Receipt:     draft.TransactionID,
	})
	if err != nil {
		return nil, err
	}
	return &InitiateResult{
		GatewayOrderID: gatewayOrder.ID,
		ClientKeyID:    g.client.KeyID(),
	}, nil
}

// Verify checks the callback signature, cross-checks the captured amount
// against the freshly repriced draft, and persists the order as paid. The
// transaction id becomes the Razorpay payment id, so a replayed callback
// finds the existing row instead of creating a second order.
func (g *RazorpayGateway) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	if input.Draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order details are required")
	}
	if input.GatewayOrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id and signature are required")
	}

	if !g.client.VerifySignature(input.GatewayOrderID, input.PaymentID, input.Signature) {
		return nil, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature verification failed")
	}

	if existing, err := g.orders.FindByTransactionID(ctx, input.PaymentID); err == nil {
		return &VerifyResult{Order: existing, Status: existing.PaymentStatus}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	payment, err := g.client.FetchPayment(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.AmountPaise != input.Draft.TotalPaise {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount does not match order total")
	}

	paidAt := g.now().UTC()
	draft := input.Draft
	draft.TransactionID = input.PaymentID
	draft.GatewayOrderID = &input.GatewayOrderID
	draft.PaymentMethod = enums.PaymentMethodRazorpay
	draft.PaymentStatus = enums.PaymentStatusPaid
	draft.DeliveryStatus = enums.DeliveryStatusOrderPlaced
	draft.PaidAt = &paidAt

	order, err := g.orders.Create(ctx, draft)
	if err != nil {
		if db.IsUniqueViolation(err) {
			// Lost a race with a concurrent callback for the same payment.
			existing, findErr := g.orders.FindByTransactionID(ctx, input.PaymentID)
			if findErr != nil {
				return nil, findErr
			}
			return &VerifyResult{Order: existing, Status: existing.PaymentStatus}, nil
		}
		return nil, err
	}
	return &VerifyResult{Order: order, Status: enums.PaymentStatusPaid, NewlyPaid: true}, nil
}
