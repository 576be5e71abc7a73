package metrics

import "github.com/dvloznov/finance-metrics/internal/domain"

// Calculate reduces txs into one statement. It does not modify txs.
func Calculate(txs []domain.Transaction) domain.Metrics {
	var base domain.Metrics
	for i := range txs {
		c := classify(&txs[i])
		switch c.Bucket {
		case BucketNetTradingIncome:
			base.NetTradingIncome += c.Amount
		case BucketOtherIncome:
			base.OtherIncome += c.Amount
		case BucketTax:
			base.Tax += c.Amount
		case BucketNonOperatingExpense:
			base.NonOperatingExpense += c.Amount
		case BucketOperatingExpense:
			base.OperatingExpense += c.Amount
		case BucketCapital:
			base.Capital += c.Amount
		}
	}
	return Derive(base)
}

// Derive fills the derived fields of m from its six base fields:
// NetTradingIncome, OtherIncome, OperatingExpense, NonOperatingExpense, Tax
// and Capital. Any derived values already present are overwritten.
func Derive(m domain.Metrics) domain.Metrics {
	m.TotalIncome = m.NetTradingIncome + m.OtherIncome
	m.ProfitBeforeTax = m.TotalIncome - m.OperatingExpense - m.NonOperatingExpense
	m.ProfitAfterTax = m.ProfitBeforeTax - m.Tax
	m.OperatingMargin = operatingMargin(m.TotalIncome, m.OperatingExpense)
	m.ReturnOnEquity = returnOnEquity(m.ProfitAfterTax, m.Capital)
	return m
}

func operatingMargin(totalIncome, opex float64) float64 {
	if totalIncome <= 0 {
		return 0
	}
	return (totalIncome - opex) / totalIncome * 100
}

func returnOnEquity(profitAfterTax, capital float64) float64 {
	if capital <= 0 {
		return 0
	}
	return profitAfterTax / capital * 100
}
