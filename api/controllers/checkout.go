package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prayagtech/storefront/api/middleware"
	"github.com/prayagtech/storefront/api/responses"
	"github.com/prayagtech/storefront/api/validators"
	"github.com/prayagtech/storefront/internal/checkout"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

type checkoutResponse struct {
	Order          *OrderView          `json:"order,omitempty"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	TransactionID  string              `json:"transaction_id,omitempty"`
	GatewayOrderID string              `json:"gateway_order_id,omitempty"`
	RedirectURL    string              `json:"redirect_url,omitempty"`
	ClientKeyID    string              `json:"client_key_id,omitempty"`
}

// CheckoutPlace prices the request and dispatches it to the gateway named in
// the URL. Guests check out with an inline address; signed-in callers may use
// a saved one.
func CheckoutPlace(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method, err := enums.ParsePaymentMethod(chi.URLParam(r, "method"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method"))
			return
		}

		var body checkout.Request
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())

		result, err := svc.Place(r.Context(), userID, method, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:          newOrderView(result.Order),
			PaymentMethod:  result.PaymentMethod,
			TransactionID:  result.TransactionID,
			GatewayOrderID: result.GatewayOrderID,
			RedirectURL:    result.RedirectURL,
			ClientKeyID:    result.ClientKeyID,
		})
	}
}
