// Package exportstats is the typed client for the remote export statistics API.
package exportstats

// CountryExport is one entry of a ranked country list inside a DashboardSummary.
type CountryExport struct {
	CountryCode string  `json:"countryCode"`
	CountryName string  `json:"countryName"`
	TotalValue  float64 `json:"totalValue"`
	MarketShare float64 `json:"marketShare"`
}

// ProductExport is one entry of a ranked product list inside a DashboardSummary.
type ProductExport struct {
	HSCode      string  `json:"hsCode"`
	ProductName string  `json:"productName"`
	TotalValue  float64 `json:"totalValue"`
	MarketShare float64 `json:"marketShare"`
}

// MonthlyTrend is a single point of a trend series. Month is absent for yearly points.
type MonthlyTrend struct {
	Year       int      `json:"year"`
	Month      *int     `json:"month,omitempty"`
	MonthName  string   `json:"monthName,omitempty"`
	TotalValue float64  `json:"totalValue"`
	GrowthRate *float64 `json:"growthRate,omitempty"`
}

// DashboardSummary is the immutable per-year snapshot rendered by the dashboard.
type DashboardSummary struct {
	Year               int             `json:"year"`
	TotalExportValue   float64         `json:"totalExportValue"`
	Currency           string          `json:"currency"`
	YearOverYearGrowth *float64        `json:"yearOverYearGrowth,omitempty"`
	TotalCountries     int             `json:"totalCountries"`
	TotalProducts      int             `json:"totalProducts"`
	TopCountries       []CountryExport `json:"topCountries"`
	TopProducts        []ProductExport `json:"topProducts"`
	MonthlyTrends      []MonthlyTrend  `json:"monthlyTrends"`
}

// Country is a trading partner known to the statistics backend.
type Country struct {
	ID            int64  `json:"id"`
	CountryCode   string `json:"countryCode"`
	CountryNameKo string `json:"countryNameKo"`
	CountryNameEn string `json:"countryNameEn"`
	Region        string `json:"region,omitempty"`
	Continent     string `json:"continent,omitempty"`
	IsActive      bool   `json:"isActive"`
}

// ProductCategory is an HS-coded product classification node.
type ProductCategory struct {
	ID             int64  `json:"id"`
	HSCode         string `json:"hsCode"`
	HSLevel        int    `json:"hsLevel"`
	CategoryNameKo string `json:"categoryNameKo"`
	CategoryNameEn string `json:"categoryNameEn"`
	ParentHSCode   string `json:"parentHsCode,omitempty"`
	Description    string `json:"description,omitempty"`
	IsActive       bool   `json:"isActive"`
}

// ExportStatistic is a raw monthly export record for one country and product.
type ExportStatistic struct {
	ID              int64           `json:"id"`
	Country         Country         `json:"country"`
	ProductCategory ProductCategory `json:"productCategory"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	ExportValueUSD  float64         `json:"exportValueUsd"`
	ExportWeightKg  *float64        `json:"exportWeightKg,omitempty"`
	ExportQuantity  *float64        `json:"exportQuantity,omitempty"`
	QuantityUnit    string          `json:"quantityUnit,omitempty"`
	GrowthRateYoY   *float64        `json:"growthRateYoy,omitempty"`
	MarketShare     *float64        `json:"marketShare,omitempty"`
}

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}
