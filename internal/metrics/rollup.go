package metrics

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dvloznov/finance-metrics/internal/domain"
)

// MonthLayout formats the month key of a time bucket.
const MonthLayout = "2006-01"

// ByCountry groups txs by subsidiary country and returns one summary per
// country, sorted by display name. Records without a country are skipped.
// A nil names map uses DefaultCountryNames.
func ByCountry(txs []domain.Transaction, names CountryNames) []domain.CountrySummary {
	if names == nil {
		names = DefaultCountryNames
	}

	groups := make(map[string][]domain.Transaction)
	var order []string
	for i := range txs {
		code := txs[i].SubsidiaryCountry
		if code == "" {
			continue
		}
		if _, ok := groups[code]; !ok {
			order = append(order, code)
		}
		groups[code] = append(groups[code], txs[i])
	}

	out := make([]domain.CountrySummary, 0, len(order))
	for _, code := range order {
		out = append(out, domain.CountrySummary{
			Code:    code,
			Name:    names.Name(code),
			Metrics: Calculate(groups[code]),
		})
	}

	// collate.Collator keeps internal buffers and must not be shared.
	col := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		return out[i].Code < out[j].Code
	})
	return out
}

type profitCenterKey struct {
	id, name, country string
}

// ByProfitCenter groups txs by level-1 profit center within country and
// returns one summary per group, sorted by name. A non-empty country keeps
// only that country's records. Records without a profit center id or name
// are skipped.
func ByProfitCenter(txs []domain.Transaction, country string) []domain.ProfitCenterSummary {
	groups := make(map[profitCenterKey][]domain.Transaction)
	var order []profitCenterKey
	for i := range txs {
		tx := &txs[i]
		if country != "" && tx.SubsidiaryCountry != country {
			continue
		}
		if tx.L1ProfitCentreID == "" || tx.L1ProfitCentreName == "" {
			continue
		}
		key := profitCenterKey{id: tx.L1ProfitCentreID, name: tx.L1ProfitCentreName, country: tx.SubsidiaryCountry}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], *tx)
	}

	out := make([]domain.ProfitCenterSummary, 0, len(order))
	for _, key := range order {
		out = append(out, domain.ProfitCenterSummary{
			ID:      key.id,
			Name:    key.name,
			Country: key.country,
			Metrics: Calculate(groups[key]),
		})
	}

	col := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// ByMonth buckets txs by calendar month (UTC) in ascending order. Records
// whose date does not parse are left out of every bucket. Each bucket after
// the first carries the percent change in total income against its
// predecessor when the predecessor's total income is positive.
func ByMonth(txs []domain.Transaction) []domain.TimeBucket {
	groups := make(map[string][]domain.Transaction)
	for i := range txs {
		d, ok := txs[i].Date()
		if !ok {
			continue
		}
		key := d.UTC().Format(MonthLayout)
		groups[key] = append(groups[key], txs[i])
	}

	months := make([]string, 0, len(groups))
	for month := range groups {
		months = append(months, month)
	}
	sort.Strings(months)

	out := make([]domain.TimeBucket, 0, len(months))
	for i, month := range months {
		bucket := domain.TimeBucket{Month: month, Metrics: Calculate(groups[month])}
		if i > 0 {
			bucket.MoMChange = momChange(out[i-1].Metrics.TotalIncome, bucket.Metrics.TotalIncome)
		}
		out = append(out, bucket)
	}
	return out
}

func momChange(prev, cur float64) *float64 {
	if prev <= 0 {
		return nil
	}
	change := (cur - prev) / prev * 100
	return &change
}

// CountUndated returns how many records ByMonth would leave out.
func CountUndated(txs []domain.Transaction) int {
	n := 0
	for i := range txs {
		if _, ok := txs[i].Date(); !ok {
			n++
		}
	}
	return n
}

// CountryTimeSeries builds one monthly series per country summary from the
// records of that country.
func CountryTimeSeries(txs []domain.Transaction, countries []domain.CountrySummary) []domain.CountryTimeSeries {
	byCode := make(map[string][]domain.Transaction)
	for i := range txs {
		code := txs[i].SubsidiaryCountry
		byCode[code] = append(byCode[code], txs[i])
	}

	out := make([]domain.CountryTimeSeries, 0, len(countries))
	for _, c := range countries {
		out = append(out, domain.CountryTimeSeries{
			Country:    c,
			TimeSeries: ByMonth(byCode[c.Code]),
		})
	}
	return out
}

// ProfitCenterTimeSeries builds one monthly series per profit center
// summary. Membership is by country and profit center name; country
// overrides each summary's own country when non-empty.
func ProfitCenterTimeSeries(txs []domain.Transaction, country string, centers []domain.ProfitCenterSummary) []domain.ProfitCenterTimeSeries {
	type memberKey struct{ country, name string }

	byKey := make(map[memberKey][]domain.Transaction)
	for i := range txs {
		k := memberKey{country: txs[i].SubsidiaryCountry, name: txs[i].L1ProfitCentreName}
		byKey[k] = append(byKey[k], txs[i])
	}

	out := make([]domain.ProfitCenterTimeSeries, 0, len(centers))
	for _, pc := range centers {
		k := memberKey{country: pc.Country, name: pc.Name}
		if country != "" {
			k.country = country
		}
		out = append(out, domain.ProfitCenterTimeSeries{
			ProfitCenter: pc,
			TimeSeries:   ByMonth(byKey[k]),
		})
	}
	return out
}
