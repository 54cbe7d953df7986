package dashboardhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/export-dashboard/export-dashboard/internal/dashboard"
	"github.com/export-dashboard/export-dashboard/internal/exportstats"
	"github.com/export-dashboard/export-dashboard/internal/platform/httpx"
)

// DashboardController is the controller surface driven by HTTP triggers.
type DashboardController interface {
	State() dashboard.Snapshot
	SetSelectedYear(year int) (<-chan struct{}, error)
	RefreshData() <-chan struct{}
	FetchYearlyTrend(ctx context.Context, startYear, endYear int)
	FetchAvailableYears(ctx context.Context) bool
}

// Lookups exposes the pass-through gateway reads.
type Lookups interface {
	Statistics(ctx context.Context, query exportstats.PageQuery) (exportstats.Page[exportstats.ExportStatistic], error)
	Countries(ctx context.Context) ([]exportstats.Country, error)
	SearchCountries(ctx context.Context, keyword string) ([]exportstats.Country, error)
	ProductCategories(ctx context.Context) ([]exportstats.ProductCategory, error)
	SearchProductCategories(ctx context.Context, keyword string) ([]exportstats.ProductCategory, error)
}

type selectYearRequest struct {
	Year int `json:"year" validate:"required,gte=1900,lte=9999"`
}

type trendRequest struct {
	StartYear int `validate:"required,gte=1900,lte=9999"`
	EndYear   int `validate:"required,gte=1900,lte=9999,gtefield=StartYear"`
}

// Handler serves the dashboard session endpoints.
type Handler struct {
	logger     *slog.Logger
	controller DashboardController
	lookups    Lookups
	locale     language.Tag
	validate   *validator.Validate
}

// NewHandler constructs the dashboard HTTP handler. locale is used when the
// request carries no usable Accept-Language header.
func NewHandler(logger *slog.Logger, controller DashboardController, lookups Lookups, locale language.Tag) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		controller: controller,
		lookups:    lookups,
		locale:     locale,
		validate:   validator.New(),
	}
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, http.StatusOK)
}

func (h *Handler) handleSelectYear(w http.ResponseWriter, r *http.Request) {
	var req selectYearRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: year must be between 1900 and 9999", httpx.ErrValidation))
		return
	}
	done, err := h.controller.SetSelectedYear(req.Year)
	if err != nil {
		if errors.Is(err, dashboard.ErrYearUnavailable) {
			httpx.RespondError(w, fmt.Errorf("%w: no export data for %d", httpx.ErrUnprocessable, req.Year))
			return
		}
		h.handleServerError(w, "select year", err)
		return
	}
	h.respondAfter(w, r, done)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h.respondAfter(w, r, h.controller.RefreshData())
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, errStart := strconv.Atoi(q.Get("startYear"))
	end, errEnd := strconv.Atoi(q.Get("endYear"))
	if errStart != nil || errEnd != nil {
		httpx.RespondError(w, fmt.Errorf("%w: startYear and endYear are required", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(trendRequest{StartYear: start, EndYear: end}); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid year range %d-%d", httpx.ErrValidation, start, end))
		return
	}
	h.controller.FetchYearlyTrend(r.Context(), start, end)
	h.respondView(w, r, http.StatusOK)
}

func (h *Handler) handleYears(w http.ResponseWriter, r *http.Request) {
	h.controller.FetchAvailableYears(r.Context())
	h.respondView(w, r, http.StatusOK)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	query, err := parsePageQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.lookups.Statistics(r.Context(), query)
	if err != nil {
		h.respondGatewayError(w, "statistics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleCountries(w http.ResponseWriter, r *http.Request) {
	var (
		countries []exportstats.Country
		err       error
	)
	if keyword := strings.TrimSpace(r.URL.Query().Get("keyword")); keyword != "" {
		countries, err = h.lookups.SearchCountries(r.Context(), keyword)
	} else {
		countries, err = h.lookups.Countries(r.Context())
	}
	if err != nil {
		h.respondGatewayError(w, "countries", err)
		return
	}
	if countries == nil {
		countries = []exportstats.Country{}
	}
	httpx.JSON(w, http.StatusOK, countries)
}

func (h *Handler) handleProductCategories(w http.ResponseWriter, r *http.Request) {
	var (
		categories []exportstats.ProductCategory
		err        error
	)
	if keyword := strings.TrimSpace(r.URL.Query().Get("keyword")); keyword != "" {
		categories, err = h.lookups.SearchProductCategories(r.Context(), keyword)
	} else {
		categories, err = h.lookups.ProductCategories(r.Context())
	}
	if err != nil {
		h.respondGatewayError(w, "product categories", err)
		return
	}
	if categories == nil {
		categories = []exportstats.ProductCategory{}
	}
	httpx.JSON(w, http.StatusOK, categories)
}

// respondAfter answers 202 with the current view, or waits for done when the
// request asks for it with ?wait=1.
func (h *Handler) respondAfter(w http.ResponseWriter, r *http.Request, done <-chan struct{}) {
	if !wantsWait(r) {
		h.respondView(w, r, http.StatusAccepted)
		return
	}
	select {
	case <-done:
		h.respondView(w, r, http.StatusOK)
	case <-r.Context().Done():
		httpx.RespondError(w, fmt.Errorf("%w: dashboard fetch still pending", httpx.ErrTimeout))
	}
}

func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, status int) {
	locale := dashboard.MatchLocale(r.Header.Get("Accept-Language"), h.locale)
	httpx.JSON(w, status, dashboard.Project(h.controller.State(), locale))
}

func (h *Handler) respondGatewayError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, exportstats.ErrInvalidQuery) {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	var gwErr *exportstats.Error
	if errors.As(err, &gwErr) && gwErr.Kind == exportstats.KindServer && gwErr.Status == http.StatusNotFound {
		httpx.RespondError(w, fmt.Errorf("%s: %w", op, httpx.ErrNotFound))
		return
	}
	h.logger.Warn("statistics lookup failed", slog.String("op", op), slog.Any("error", err))
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		httpx.RespondError(w, fmt.Errorf("%s: %w", op, httpx.ErrTimeout))
		return
	}
	httpx.RespondError(w, fmt.Errorf("%s: %w", op, httpx.ErrUpstream))
}

func (h *Handler) handleServerError(w http.ResponseWriter, action string, err error) {
	h.logger.Error("dashboard handler failed", slog.String("action", action), slog.Any("error", err))
	httpx.RespondError(w, err)
}

func parsePageQuery(r *http.Request) (exportstats.PageQuery, error) {
	q := r.URL.Query()
	var query exportstats.PageQuery
	for _, field := range []struct {
		name string
		dst  **int
	}{
		{name: "page", dst: &query.Page},
		{name: "size", dst: &query.Size},
	} {
		raw := q.Get(field.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return exportstats.PageQuery{}, fmt.Errorf("%w: %s must be a number", httpx.ErrValidation, field.name)
		}
		*field.dst = &v
	}
	query.SortBy = q.Get("sortBy")
	query.SortDir = q.Get("sortDir")
	return query, nil
}

func wantsWait(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("wait")) {
	case "1", "true", "yes":
		return true
	}
	return false
}
