package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Transaction is one line of the financial transactions export.
// Every field holds the raw text of its column; columns missing from the
// source row are empty strings. The csv tag names the source column.
type Transaction struct {
	TransactionID             string `csv:"transaction_id"`
	TransactionLineID         string `csv:"transaction_line_id"`
	TransactionType           string `csv:"transaction_type"`
	TransactionDate           string `csv:"transaction_date"`
	AccountingPeriodID        string `csv:"accounting_period_id"`
	AccountingPeriodStartDate string `csv:"accounting_period_start_date"`
	AccountingPeriodEndDate   string `csv:"accounting_period_end_date"`
	AccountingPeriodName      string `csv:"accounting_period_name"`
	AccountingPeriodParent    string `csv:"accounting_period_parent_name"`

	L3ProfitCentreID   string `csv:"l3_profit_centre_id"`
	L3ProfitCentreName string `csv:"l3_profit_centre_name"`

	SubsidiaryID      string `csv:"subsidiary_id"`
	SubsidiaryName    string `csv:"subsidiary_name"`
	SubsidiaryCountry string `csv:"subsidiary_country"`
	SubsidiarySuffix  string `csv:"subsidiary_suffix"`
	CurrencySymbol    string `csv:"currency_symbol"`

	L3CostCentreID   string `csv:"l3_cost_centre_id"`
	L3CostCentreName string `csv:"l3_cost_centre_name"`
	L2CostCentreID   string `csv:"l2_cost_centre_id"`
	L2CostCentreName string `csv:"l2_cost_centre_name"`
	L1CostCentreID   string `csv:"l1_cost_centre_id"`
	L1CostCentreName string `csv:"l1_cost_centre_name"`

	CategoryID         string `csv:"category_id"`
	CategoryName       string `csv:"category_name"`
	SharedLabelID      string `csv:"shared_label_id"`
	SharedLabelName    string `csv:"shared_label_name"`
	SpendKeyID         string `csv:"spend_key_id"`
	SpendKeyName       string `csv:"spend_key_name"`
	APACTaxStatusID    string `csv:"apac_tax_status_id"`
	APACTaxStatusName  string `csv:"apac_tax_status_name"`
	AccountID          string `csv:"account_id"`
	AccountNumber      string `csv:"account_number"`
	Rule               string `csv:"rule"`
	AccountL1Name      string `csv:"account_l1_name"`
	AccountL2Name      string `csv:"account_l2_name"`
	AccountL3Name      string `csv:"account_l3_name"`
	AccountL4Name      string `csv:"account_l4_name"`
	NSPBL2Name         string `csv:"nspb_l2_name"`
	NSPBL3Name         string `csv:"nspb_l3_name"`
	NSPBL4Name         string `csv:"nspb_l4_name"`
	AccountTypeID      string `csv:"account_type_id"`
	IsIncomeStatementV string `csv:"is_income_statement"`
	IsBalanceSheetV    string `csv:"is_balance_sheet"`
	PeriodIsClosed     string `csv:"accounting_period_is_closed"`
	Amount             string `csv:"amount"`

	L2ProfitCentreID   string `csv:"l2_profit_centre_id"`
	L2ProfitCentreName string `csv:"l2_profit_centre_name"`
	L1ProfitCentreID   string `csv:"l1_profit_centre_id"`
	L1ProfitCentreName string `csv:"l1_profit_centre_name"`

	AllocationCountry string `csv:"allocation_country"`
	KeyID             string `csv:"key_id"`
	AllocationID      string `csv:"allocation_id"`
	Comment           string `csv:"comment"`

	AmountEUR string `csv:"amount_eur"`
	AmountAUD string `csv:"amount_aud"`
	AmountUSD string `csv:"amount_usd"`
	AmountCNY string `csv:"amount_cny"`
	AmountINR string `csv:"amount_inr"`
	AmountGBP string `csv:"amount_gbp"`
	AmountSGD string `csv:"amount_sgd"`
	AmountTWD string `csv:"amount_twd"`

	ExchangeRateLocalEUR string `csv:"exchange_rate_local_eur"`
	ExchangeRateAUDEUR   string `csv:"exchange_rate_aud_eur"`
	ExchangeRateUSDEUR   string `csv:"exchange_rate_usd_eur"`
	ExchangeRateCNYEUR   string `csv:"exchange_rate_cny_eur"`
	ExchangeRateINREUR   string `csv:"exchange_rate_inr_eur"`
	ExchangeRateGBPEUR   string `csv:"exchange_rate_gbp_eur"`
	ExchangeRateSGDEUR   string `csv:"exchange_rate_sgd_eur"`
	ExchangeRateTWDEUR   string `csv:"exchange_rate_twd_eur"`

	FromRegion            string `csv:"from_region"`
	ToRegion              string `csv:"to_region"`
	EmployeeID            string `csv:"employee_id"`
	Allocation            string `csv:"allocation"`
	TimesheetProfitCentre string `csv:"timesheet_profit_centre"`
	FTE                   string `csv:"fte"`
	FTEAllocation         string `csv:"fte_allocation"`
	Marbles               string `csv:"marbles"`
	MarbleAllocation      string `csv:"marble_allocation"`
	IsCapitalV            string `csv:"is_capital"`
}

// dateLayouts are tried in order when reading transaction_date.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// AmountValue parses the amount column. Empty, non-numeric and non-finite
// values are zero.
func (t *Transaction) AmountValue() float64 {
	return ParseAmount(t.Amount)
}

// IsCapital reports whether the is_capital flag is set.
func (t *Transaction) IsCapital() bool {
	return parseFlag(t.IsCapitalV)
}

// IsIncomeStatement reports whether the is_income_statement flag is set.
func (t *Transaction) IsIncomeStatement() bool {
	return parseFlag(t.IsIncomeStatementV)
}

// Date parses transaction_date. ok is false when the value is not a
// recognizable date.
func (t *Transaction) Date() (time.Time, bool) {
	return ParseDate(t.TransactionDate)
}

// ParseAmount converts amount text to a float, treating anything that is
// not a finite number as zero.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseDate parses a transaction date in any of the layouts the exports use.
// Values without a zone are read as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func parseFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
