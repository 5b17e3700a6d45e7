package middleware

import (
	"net/http"

	"github.com/prayagtech/storefront/api/responses"
	"github.com/prayagtech/storefront/internal/settings"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

// Maintenance rejects storefront writes while maintenance mode is on. Reads
// stay open so the catalog keeps rendering; admin routes bypass this entirely.
func Maintenance(svc settings.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			row, err := svc.Get(r.Context())
			if err != nil {
				// Settings lookup failures should not take the store down.
				if logg != nil {
					ctx := logg.WithField(r.Context(), "error", err.Error())
					logg.Warn(ctx, "maintenance.settings_lookup_failed")
				}
				next.ServeHTTP(w, r)
				return
			}

			if row.MaintenanceMode {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeDependency, "store is under maintenance, please try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
