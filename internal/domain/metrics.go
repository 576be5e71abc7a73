package domain

// Metrics is the financial statement computed for a group of transactions.
// TotalIncome, OperatingMargin, ProfitBeforeTax, ProfitAfterTax and
// ReturnOnEquity are derived from the other six fields.
type Metrics struct {
	NetTradingIncome    float64 `json:"netTradingIncome"`
	OtherIncome         float64 `json:"otherIncome"`
	TotalIncome         float64 `json:"totalIncome"`
	OperatingExpense    float64 `json:"operatingExpense"`
	OperatingMargin     float64 `json:"operatingMargin"`
	NonOperatingExpense float64 `json:"nonOperatingExpense"`
	ProfitBeforeTax     float64 `json:"profitBeforeTax"`
	Tax                 float64 `json:"tax"`
	ProfitAfterTax      float64 `json:"profitAfterTax"`
	Capital             float64 `json:"capital"`
	ReturnOnEquity      float64 `json:"returnOnEquity"`
}

// CountrySummary is the statement of one subsidiary country.
type CountrySummary struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Metrics Metrics `json:"metrics"`
}

// ProfitCenterSummary is the statement of one profit center within a country.
type ProfitCenterSummary struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Metrics Metrics `json:"metrics"`
}

// TimeBucket is the statement of one calendar month (Month is "YYYY-MM").
// MoMChange is the percent change in total income against the previous
// bucket, nil when it cannot be computed.
type TimeBucket struct {
	Month     string   `json:"month"`
	Metrics   Metrics  `json:"metrics"`
	MoMChange *float64 `json:"momChange,omitempty"`
}

// CountryTimeSeries pairs a country with its monthly buckets.
type CountryTimeSeries struct {
	Country    CountrySummary `json:"country"`
	TimeSeries []TimeBucket   `json:"timeSeries"`
}

// ProfitCenterTimeSeries pairs a profit center with its monthly buckets.
type ProfitCenterTimeSeries struct {
	ProfitCenter ProfitCenterSummary `json:"profitCenter"`
	TimeSeries   []TimeBucket        `json:"timeSeries"`
}
