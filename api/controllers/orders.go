package controllers

import (
	"net/http"
	"strings"

	"github.com/prayagtech/storefront/api/middleware"
	"github.com/prayagtech/storefront/api/responses"
	"github.com/prayagtech/storefront/api/validators"
	"github.com/prayagtech/storefront/internal/orders"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

// OrdersListMine returns the caller's order history, newest first.
func OrdersListMine(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderViews(items))
	}
}

// OrdersGet returns one order. Customers only see their own; admins see all.
func OrdersGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.UUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := orders.Actor{
			UserID: middleware.UserIDFromContext(r.Context()),
			Role:   middleware.RoleFromContext(r.Context()),
		}

		order, err := svc.Get(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderView(order))
	}
}

// AdminOrdersList returns all orders, optionally filtered by
// ?payment_status= and ?delivery_status=.
func AdminOrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters orders.ListFilters

		if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
			status, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status"))
				return
			}
			filters.PaymentStatus = &status
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("delivery_status")); raw != "" {
			status, err := enums.ParseDeliveryStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery status"))
				return
			}
			filters.DeliveryStatus = &status
		}

		items, err := svc.ListAll(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderViews(items))
	}
}

type deliveryStatusRequest struct {
	DeliveryStatus string `json:"delivery_status" validate:"required"`
}

// AdminOrdersUpdateDelivery moves an order along the fulfillment pipeline.
func AdminOrdersUpdateDelivery(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.UUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deliveryStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseDeliveryStatus(body.DeliveryStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery status"))
			return
		}

		order, err := svc.UpdateDeliveryStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderView(order))
	}
}
