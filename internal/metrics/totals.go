package metrics

import "github.com/dvloznov/finance-metrics/internal/domain"

// Identity of composed totals.
const (
	TotalCode = "TOTAL"
	TotalName = "Grand Total"
)

// SumMetrics adds up already aggregated statements. Income, expense,
// profit, tax and capital fields are summed; operating margin and return
// on equity are recomputed from the sums.
func SumMetrics(items []domain.Metrics) domain.Metrics {
	var t domain.Metrics
	for _, m := range items {
		t.NetTradingIncome += m.NetTradingIncome
		t.OtherIncome += m.OtherIncome
		t.TotalIncome += m.TotalIncome
		t.OperatingExpense += m.OperatingExpense
		t.NonOperatingExpense += m.NonOperatingExpense
		t.ProfitBeforeTax += m.ProfitBeforeTax
		t.Tax += m.Tax
		t.ProfitAfterTax += m.ProfitAfterTax
		t.Capital += m.Capital
	}
	t.OperatingMargin = operatingMargin(t.TotalIncome, t.OperatingExpense)
	t.ReturnOnEquity = returnOnEquity(t.ProfitAfterTax, t.Capital)
	return t
}

// GrandTotal combines country summaries into one summary labeled TOTAL.
func GrandTotal(items []domain.CountrySummary) domain.CountrySummary {
	ms := make([]domain.Metrics, len(items))
	for i, it := range items {
		ms[i] = it.Metrics
	}
	return domain.CountrySummary{Code: TotalCode, Name: TotalName, Metrics: SumMetrics(ms)}
}

// ProfitCenterGrandTotal combines profit center summaries. The result
// carries the country shared by all items, or no country when they differ.
func ProfitCenterGrandTotal(items []domain.ProfitCenterSummary) domain.ProfitCenterSummary {
	ms := make([]domain.Metrics, len(items))
	for i, it := range items {
		ms[i] = it.Metrics
	}
	total := domain.ProfitCenterSummary{ID: TotalCode, Name: TotalName, Metrics: SumMetrics(ms)}
	if len(items) > 0 && sameCountry(items) {
		total.Country = items[0].Country
	}
	return total
}

func sameCountry(items []domain.ProfitCenterSummary) bool {
	for i := 1; i < len(items); i++ {
		if items[i].Country != items[0].Country {
			return false
		}
	}
	return true
}
