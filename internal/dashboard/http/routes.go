// Package dashboardhttp exposes the dashboard controller over HTTP: a JSON view of
// the current state plus the triggers that drive it.
package dashboardhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/export-dashboard/export-dashboard/internal/platform/httpx"
)

const (
	triggerLimit  = 12
	triggerWindow = time.Minute
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(triggerLimit, triggerWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "refresh triggered too often")
		}),
	)

	r.Route("/dashboard", func(dr chi.Router) {
		dr.Get("/", h.handleView)
		dr.Put("/year", h.handleSelectYear)
		dr.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Post("/refresh", h.handleRefresh)
			gr.Post("/trend", h.handleTrend)
			gr.Post("/years", h.handleYears)
		})
		dr.Get("/statistics", h.handleStatistics)
		dr.Get("/countries", h.handleCountries)
		dr.Get("/product-categories", h.handleProductCategories)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
