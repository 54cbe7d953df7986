package exportstats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", time.Second, nil)
}

func TestDashboardDecodesSummary(t *testing.T) {
	var gotPath, gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"year": 2023,
			"totalExportValue": 632000000000,
			"currency": "USD",
			"yearOverYearGrowth": -7.4,
			"totalCountries": 2,
			"totalProducts": 1,
			"topCountries": [
				{"countryCode": "CN", "countryName": "China", "totalValue": 124800000000, "marketShare": 0.197},
				{"countryCode": "US", "countryName": "United States", "totalValue": 115700000000, "marketShare": 0.183}
			],
			"topProducts": [
				{"hsCode": "8542", "productName": "Integrated circuits", "totalValue": 98600000000, "marketShare": 0.156}
			],
			"monthlyTrends": [
				{"year": 2023, "month": 1, "monthName": "Jan", "totalValue": 46300000000, "growthRate": -16.4}
			]
		}`))
	})

	summary, err := client.Dashboard(context.Background(), 2023)
	require.NoError(t, err)

	assert.Equal(t, "/api/export-statistics/dashboard/2023", gotPath)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, 2023, summary.Year)
	assert.Equal(t, "USD", summary.Currency)
	require.NotNil(t, summary.YearOverYearGrowth)
	assert.InDelta(t, -7.4, *summary.YearOverYearGrowth, 1e-9)
	require.Len(t, summary.TopCountries, 2)
	assert.Equal(t, "CN", summary.TopCountries[0].CountryCode)
	require.Len(t, summary.MonthlyTrends, 1)
	require.NotNil(t, summary.MonthlyTrends[0].Month)
	assert.Equal(t, 1, *summary.MonthlyTrends[0].Month)
}

func TestTrendEncodesRange(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"year":2021,"totalValue":644400000000},{"year":2022,"totalValue":683600000000}]`))
	})

	points, err := client.Trend(context.Background(), 2021, 2022)
	require.NoError(t, err)
	assert.Equal(t, "endYear=2022&startYear=2021", gotQuery)
	require.Len(t, points, 2)
	assert.Nil(t, points[0].Month)
}

func TestTrendRejectsInvertedRange(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.Trend(context.Background(), 2024, 2020)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidQuery))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestStatisticsOmitsUnsetPageParams(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"content":[],"totalElements":0,"totalPages":0,"size":20,"number":0,"first":true,"last":true}`))
	})

	page := 0
	result, err := client.Statistics(context.Background(), PageQuery{Page: &page, SortDir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, "page=0&sortDir=desc", gotQuery)
	assert.True(t, result.First)

	_, err = client.Statistics(context.Background(), PageQuery{SortDir: "sideways"})
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestServerErrorIsClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no statistics for 1999","errorCode":"EXPORT_STATISTIC_NOT_FOUND","status":404}`))
	})

	_, err := client.Dashboard(context.Background(), 1999)
	require.Error(t, err)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindServer, gwErr.Kind)
	assert.Equal(t, http.StatusNotFound, gwErr.Status)
	assert.Equal(t, "EXPORT_STATISTIC_NOT_FOUND", gwErr.Code)
	assert.Equal(t, KindServer, KindOf(err))
}

func TestMalformedBodyIsDecodeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"year": "not-a-number"`))
	})

	_, err := client.Dashboard(context.Background(), 2023)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := NewClient(srv.URL, 50*time.Millisecond, nil)
	_, err := client.Years(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestConcurrentIdenticalRequestsShareRoundTrip(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(`[2021,2023,2022]`))
	})

	var wg sync.WaitGroup
	results := make([][]int, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			years, err := client.Years(context.Background())
			assert.NoError(t, err)
			results[i] = years
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	// Give the other callers time to join the in-flight request.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, years := range results {
		assert.Equal(t, []int{2021, 2023, 2022}, years)
	}
	results[0][0] = 1900
	assert.Equal(t, 2021, results[1][0], "callers must not share decoded slices")
}

func TestSearchCountriesRequiresKeyword(t *testing.T) {
	var gotKeyword string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKeyword = r.URL.Query().Get("keyword")
		_, _ = w.Write([]byte(`[{"id":1,"countryCode":"VN","countryNameKo":"베트남","countryNameEn":"Viet Nam","isActive":true}]`))
	})

	_, err := client.SearchCountries(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrInvalidQuery))

	rows, err := client.SearchCountries(context.Background(), "viet nam")
	require.NoError(t, err)
	assert.Equal(t, "viet nam", gotKeyword)
	require.Len(t, rows, 1)
	assert.Equal(t, "VN", rows[0].CountryCode)
}
