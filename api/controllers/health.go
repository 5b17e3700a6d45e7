package controllers

import (
	"net/http"

	"github.com/prayagtech/storefront/api/responses"
	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/db"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing store; a single failure reports the whole
// instance as not ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		for name, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
