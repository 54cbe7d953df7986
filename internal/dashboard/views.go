package dashboard

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/export-dashboard/export-dashboard/internal/exportstats"
)

// Snapshot is a point-in-time copy of the controller state. Summary and the
// trend slices are shared with the controller and must be treated as read-only.
type Snapshot struct {
	SelectedYear   int
	AvailableYears []int
	Loading        bool
	LastError      string
	ErrorKind      exportstats.Kind
	Summary        *exportstats.DashboardSummary
	YearlyTrend    []exportstats.MonthlyTrend
}

// CurrentSummary returns the loaded summary, or nil when none is loaded.
func CurrentSummary(s Snapshot) *exportstats.DashboardSummary {
	return s.Summary
}

// TopCountries projects the summary's country ranking. Never nil.
func TopCountries(s Snapshot) []exportstats.CountryExport {
	if s.Summary == nil || s.Summary.TopCountries == nil {
		return []exportstats.CountryExport{}
	}
	return s.Summary.TopCountries
}

// TopProducts projects the summary's product ranking. Never nil.
func TopProducts(s Snapshot) []exportstats.ProductExport {
	if s.Summary == nil || s.Summary.TopProducts == nil {
		return []exportstats.ProductExport{}
	}
	return s.Summary.TopProducts
}

// MonthlyTrend projects the summary's monthly series. Never nil.
func MonthlyTrend(s Snapshot) []exportstats.MonthlyTrend {
	if s.Summary == nil || s.Summary.MonthlyTrends == nil {
		return []exportstats.MonthlyTrend{}
	}
	return s.Summary.MonthlyTrends
}

// YearlyTrend projects the independently loaded multi-year series. Never nil.
func YearlyTrend(s Snapshot) []exportstats.MonthlyTrend {
	if s.YearlyTrend == nil {
		return []exportstats.MonthlyTrend{}
	}
	return s.YearlyTrend
}

// View is the rendering-ready projection of a Snapshot.
type View struct {
	SelectedYear     int                           `json:"selectedYear"`
	AvailableYears   []int                         `json:"availableYears"`
	Loading          bool                          `json:"loading"`
	Error            string                        `json:"error,omitempty"`
	Summary          *exportstats.DashboardSummary `json:"summary"`
	TotalExportLabel string                        `json:"totalExportLabel,omitempty"`
	TopCountries     []exportstats.CountryExport   `json:"topCountries"`
	TopProducts      []exportstats.ProductExport   `json:"topProducts"`
	MonthlyTrend     []exportstats.MonthlyTrend    `json:"monthlyTrend"`
	YearlyTrend      []exportstats.MonthlyTrend    `json:"yearlyTrend"`
}

// Project builds the View for s, formatting totals and the error message for locale.
func Project(s Snapshot, locale language.Tag) View {
	years := s.AvailableYears
	if years == nil {
		years = []int{}
	}
	view := View{
		SelectedYear:   s.SelectedYear,
		AvailableYears: years,
		Loading:        s.Loading,
		Summary:        CurrentSummary(s),
		TopCountries:   TopCountries(s),
		TopProducts:    TopProducts(s),
		MonthlyTrend:   MonthlyTrend(s),
		YearlyTrend:    YearlyTrend(s),
	}
	if s.LastError != "" {
		view.Error = NewMessages(locale.String()).For(s.ErrorKind)
	}
	if s.Summary != nil {
		view.TotalExportLabel = FormatValue(locale, s.Summary.TotalExportValue, s.Summary.Currency)
	}
	return view
}

// FormatValue renders an amount rounded to whole units with locale digit grouping,
// followed by the currency code when present. Amounts outside the int64 range
// are printed without grouping.
func FormatValue(locale language.Tag, value float64, currency string) string {
	printer := message.NewPrinter(locale)
	var amount string
	if rounded := math.Round(value); math.IsNaN(rounded) || rounded >= math.MaxInt64 || rounded < math.MinInt64 {
		amount = strconv.FormatFloat(rounded, 'f', 0, 64)
	} else {
		amount = printer.Sprintf("%d", int64(rounded))
	}
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}
