package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-metrics/internal/domain"
)

// Snapshot is one loaded dataset. It is never modified after NewSnapshot
// returns, so any number of goroutines may read it.
type Snapshot struct {
	version  string
	source   string
	loadedAt time.Time
	txs      []domain.Transaction
	undated  int
}

// Info summarizes a snapshot for status endpoints.
type Info struct {
	Version       string    `json:"version"`
	Source        string    `json:"source"`
	LoadedAt      time.Time `json:"loaded_at"`
	Rows          int       `json:"rows"`
	UndatedRows   int       `json:"undated_rows"`
	Countries     int       `json:"countries"`
	ProfitCenters int       `json:"profit_centers"`
}

// NewSnapshot takes ownership of txs. Callers must not modify the slice
// afterwards.
func NewSnapshot(txs []domain.Transaction, source string, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		version:  uuid.NewString(),
		source:   source,
		loadedAt: loadedAt,
		txs:      txs,
	}
	for i := range s.txs {
		if _, ok := s.txs[i].Date(); !ok {
			s.undated++
		}
	}
	return s
}

// Version identifies this load; it changes on every reload.
func (s *Snapshot) Version() string { return s.version }

// Source is the URI the dataset was loaded from.
func (s *Snapshot) Source() string { return s.source }

// LoadedAt is when the dataset was published.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Len returns the number of records.
func (s *Snapshot) Len() int { return len(s.txs) }

// Undated returns the number of records whose date does not parse.
func (s *Snapshot) Undated() int { return s.undated }

// Transactions returns the records. The returned slice is shared and must be
// treated as read-only.
func (s *Snapshot) Transactions() []domain.Transaction {
	return s.txs
}

// Info returns the status summary of the snapshot.
func (s *Snapshot) Info() Info {
	return Info{
		Version:       s.version,
		Source:        s.source,
		LoadedAt:      s.loadedAt,
		Rows:          len(s.txs),
		UndatedRows:   s.undated,
		Countries:     len(s.Countries()),
		ProfitCenters: len(s.ProfitCenters()),
	}
}

// FilterByDateRange returns the records dated within [start, end].
// Records whose date does not parse are left out.
func (s *Snapshot) FilterByDateRange(start, end time.Time) []domain.Transaction {
	return FilterByDateRange(s.txs, start, end)
}

// FilterByDateRange returns the records of txs dated within [start, end].
func FilterByDateRange(txs []domain.Transaction, start, end time.Time) []domain.Transaction {
	var out []domain.Transaction
	for i := range txs {
		d, ok := txs[i].Date()
		if !ok {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, txs[i])
	}
	return out
}

// Countries returns the distinct non-empty country codes, sorted.
func (s *Snapshot) Countries() []string {
	return distinct(s.txs, func(t *domain.Transaction) string { return t.SubsidiaryCountry })
}

// ProfitCenters returns the distinct non-empty level-1 profit center names,
// sorted.
func (s *Snapshot) ProfitCenters() []string {
	return distinct(s.txs, func(t *domain.Transaction) string { return t.L1ProfitCentreName })
}

// ByCountry returns the records of one country.
func (s *Snapshot) ByCountry(country string) []domain.Transaction {
	return ByCountry(s.txs, country)
}

// ByProfitCenter returns the records of one level-1 profit center name.
func (s *Snapshot) ByProfitCenter(name string) []domain.Transaction {
	return filter(s.txs, func(t *domain.Transaction) bool { return t.L1ProfitCentreName == name })
}

// ByCountryAndProfitCenter returns the records of a profit center name
// within one country.
func (s *Snapshot) ByCountryAndProfitCenter(country, name string) []domain.Transaction {
	return ByCountryAndProfitCenter(s.txs, country, name)
}

// ByCountry returns the records of txs belonging to country.
func ByCountry(txs []domain.Transaction, country string) []domain.Transaction {
	return filter(txs, func(t *domain.Transaction) bool { return t.SubsidiaryCountry == country })
}

// ByCountryAndProfitCenter returns the records of txs belonging to a profit
// center name within country.
func ByCountryAndProfitCenter(txs []domain.Transaction, country, name string) []domain.Transaction {
	return filter(txs, func(t *domain.Transaction) bool {
		return t.SubsidiaryCountry == country && t.L1ProfitCentreName == name
	})
}

func filter(txs []domain.Transaction, keep func(*domain.Transaction) bool) []domain.Transaction {
	var out []domain.Transaction
	for i := range txs {
		if keep(&txs[i]) {
			out = append(out, txs[i])
		}
	}
	return out
}

func distinct(txs []domain.Transaction, key func(*domain.Transaction) string) []string {
	seen := make(map[string]struct{})
	for i := range txs {
		if k := key(&txs[i]); k != "" {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
