package exportstats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 4 << 10

// Client performs typed GET requests against the statistics API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	flights    singleflight.Group
}

// NewClient constructs a client rooted at baseURL (for example "http://localhost:8080/api").
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Dashboard loads the summary for a single year.
func (c *Client) Dashboard(ctx context.Context, year int) (DashboardSummary, error) {
	var summary DashboardSummary
	err := c.getJSON(ctx, "dashboard", fmt.Sprintf("/export-statistics/dashboard/%d", year), nil, &summary)
	return summary, err
}

// Trend loads the multi-year trend series between startYear and endYear inclusive.
func (c *Client) Trend(ctx context.Context, startYear, endYear int) ([]MonthlyTrend, error) {
	query := TrendQuery{StartYear: startYear, EndYear: endYear}
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	var points []MonthlyTrend
	err := c.getJSON(ctx, "trend", "/export-statistics/trend", query.Values(), &points)
	return points, err
}

// Years lists the years for which the backend holds data, in server order.
func (c *Client) Years(ctx context.Context) ([]int, error) {
	var years []int
	err := c.getJSON(ctx, "years", "/export-statistics/years", nil, &years)
	return years, err
}

// Statistics pages through raw export statistics.
func (c *Client) Statistics(ctx context.Context, query PageQuery) (Page[ExportStatistic], error) {
	var page Page[ExportStatistic]
	if err := validateQuery(query); err != nil {
		return page, err
	}
	err := c.getJSON(ctx, "statistics", "/export-statistics", query.Values(), &page)
	return page, err
}

// StatisticsByYear lists raw statistics recorded for year.
func (c *Client) StatisticsByYear(ctx context.Context, year int) ([]ExportStatistic, error) {
	var rows []ExportStatistic
	err := c.getJSON(ctx, "statistics_by_year", fmt.Sprintf("/export-statistics/year/%d", year), nil, &rows)
	return rows, err
}

// StatisticsByCountryAndYear lists raw statistics for one country in year.
func (c *Client) StatisticsByCountryAndYear(ctx context.Context, countryID int64, year int) ([]ExportStatistic, error) {
	var rows []ExportStatistic
	path := fmt.Sprintf("/export-statistics/country/%d/year/%d", countryID, year)
	err := c.getJSON(ctx, "statistics_by_country", path, nil, &rows)
	return rows, err
}

// StatisticsByProductAndYear lists raw statistics for one product category in year.
func (c *Client) StatisticsByProductAndYear(ctx context.Context, productCategoryID int64, year int) ([]ExportStatistic, error) {
	var rows []ExportStatistic
	path := fmt.Sprintf("/export-statistics/product/%d/year/%d", productCategoryID, year)
	err := c.getJSON(ctx, "statistics_by_product", path, nil, &rows)
	return rows, err
}

// getJSON issues a GET and decodes the body into dest. Concurrent requests for the
// same URL share one round-trip.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resultCh := c.flights.DoChan(endpoint, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), op, endpoint)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return &Error{Op: op, Kind: KindTransport, Err: ctx.Err()}
	case res = <-resultCh:
	}
	if res.Err != nil {
		return res.Err
	}
	payload, _ := res.Val.([]byte)
	if err := json.Unmarshal(payload, dest); err != nil {
		return &Error{Op: op, Kind: KindDecode, Err: err}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, op, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnknown, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		gwErr := &Error{Op: op, Kind: KindServer, Status: resp.StatusCode}
		var body errorBody
		if json.Unmarshal(data, &body) == nil {
			gwErr.Message = body.Message
			gwErr.Code = body.ErrorCode
		}
		c.logger.Warn("statistics api error",
			slog.String("op", op),
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode),
			slog.String("code", gwErr.Code))
		return nil, gwErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindTransport, Err: err}
	}
	return data, nil
}
