package controllers

import (
	"net/http"

	"github.com/prayagtech/storefront/api/middleware"
	"github.com/prayagtech/storefront/api/responses"
	"github.com/prayagtech/storefront/api/validators"
	"github.com/prayagtech/storefront/internal/auth"
	pkgauth "github.com/prayagtech/storefront/pkg/auth"
	"github.com/prayagtech/storefront/pkg/config"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

type sessionResponse struct {
	User *UserView `json:"user"`
}

// AuthRegister creates a password account and signs the caller in.
func AuthRegister(svc auth.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RegisterInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgauth.SetSessionCookie(w, jwtCfg, session.Token)
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{User: newUserView(session.User)})
	}
}

// AuthLogin handles email+password login.
func AuthLogin(svc auth.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.PasswordLoginInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.LoginWithPassword(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgauth.SetSessionCookie(w, jwtCfg, session.Token)
		responses.WriteSuccess(w, sessionResponse{User: newUserView(session.User)})
	}
}

type otpSendRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,len=6"`
}

// AuthOTPSend issues a one-time code to the given phone number. The response
// never reveals whether the number maps to an account.
func AuthOTPSend(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body otpSendRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RequestOTP(r.Context(), body.Phone); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}

// AuthOTPVerify exchanges a valid code for a session.
func AuthOTPVerify(svc auth.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body otpVerifyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.LoginWithOTP(r.Context(), body.Phone, body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgauth.SetSessionCookie(w, jwtCfg, session.Token)
		responses.WriteSuccess(w, sessionResponse{User: newUserView(session.User)})
	}
}

// AuthLogout revokes the current session and clears the cookie.
func AuthLogout(svc auth.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jti := middleware.SessionIDFromContext(r.Context())
		if jti == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in"))
			return
		}

		if err := svc.Logout(r.Context(), jti); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgauth.ClearSessionCookie(w, jwtCfg)
		responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
	}
}

// AuthMe returns the signed-in account.
func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in"))
			return
		}

		user, err := svc.CurrentUser(r.Context(), &pkgauth.SessionTokenClaims{
			UserID: *userID,
			Role:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUserView(user))
	}
}
