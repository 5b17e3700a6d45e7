package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prayagtech/storefront/api/middleware"
	"github.com/prayagtech/storefront/api/responses"
	"github.com/prayagtech/storefront/api/validators"
	"github.com/prayagtech/storefront/internal/reconcile"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

const maxWebhookBodyBytes = 1 << 20

type paymentStatusResponse struct {
	TransactionID string              `json:"transaction_id"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Order         *OrderView          `json:"order,omitempty"`
}

func newPaymentStatusResponse(result *reconcile.StatusResult) paymentStatusResponse {
	resp := paymentStatusResponse{
		TransactionID: result.TransactionID,
		PaymentStatus: result.PaymentStatus,
	}
	if result.Order != nil {
		resp.Order = newOrderView(result.Order)
	}
	return resp
}

// RazorpayVerify settles a Razorpay payment from the client callback. The
// order row is created here, never at checkout, so the original payload is
// re-submitted and re-priced before anything persists.
func RazorpayVerify(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body reconcile.RazorpayVerifyInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())

		result, err := svc.VerifyRazorpay(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentStatusResponse(result))
	}
}

// PhonePeStatus polls the gateway for a pending transaction and reports
// where it landed.
func PhonePeStatus(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transactionID := strings.TrimSpace(chi.URLParam(r, "transactionID"))
		if transactionID == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "transaction id required"))
			return
		}

		result, err := svc.PhonePeStatus(r.Context(), transactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentStatusResponse(result))
	}
}

// PhonePeWebhook receives the server-to-server callback. Malformed payloads
// get a 400 so the gateway knows the delivery was garbage; any failure past
// decoding is logged and answered 200, because a retry of a settled or
// unknown transaction cannot succeed either.
func PhonePeWebhook(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading webhook body"))
			return
		}

		result, err := svc.HandlePhonePeWebhook(r.Context(), body)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if logg != nil {
				logg.Error(r.Context(), "phonepe.webhook_failed", err)
			}
			responses.WriteSuccess(w, map[string]string{"status": "accepted"})
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": string(result.PaymentStatus)})
	}
}
