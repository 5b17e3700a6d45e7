package controllers

import (
	"net/http"

	"github.com/prayagtech/storefront/api/responses"
	"github.com/prayagtech/storefront/api/validators"
	"github.com/prayagtech/storefront/internal/address"
	"github.com/prayagtech/storefront/pkg/logger"
)

// AddressList returns the caller's saved addresses.
func AddressList(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressViews(addresses))
	}
}

// AddressCreate saves a new address for the caller.
func AddressCreate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body address.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), &userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressView(*created))
	}
}

// AddressUpdate edits one of the caller's addresses.
func AddressUpdate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := validators.UUIDParam(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body address.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), userID, addressID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressView(*updated))
	}
}

// AddressDelete removes one of the caller's addresses.
func AddressDelete(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := validators.UUIDParam(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
