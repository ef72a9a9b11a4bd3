package router

import (
	"net/http"

	"github.com/productivefire/server/internal/pkg/config"
)

// middlewareMaintenance rejects routes listed in app.maintenance.endpoints
// ("POST:/api/auth/signin,GET:/api/progress"). The list is re-read on every
// request so a config reload takes effect immediately.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil && blocked(cfg.GetArray("app.maintenance.endpoints"), r.Method, matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "Service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func blocked(entries []string, method, route string) bool {
	for _, e := range entries {
		if e == "*" || e == route || e == method+":"+route {
			return true
		}
	}

	return false
}
