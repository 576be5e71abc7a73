package store

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/finance-metrics/internal/domain"
)

func sampleTransactions() []domain.Transaction {
	return []domain.Transaction{
		{TransactionID: "1", TransactionDate: "2024-10-01T00:00:00.000000Z", SubsidiaryCountry: "AU", L1ProfitCentreName: "Trading"},
		{TransactionID: "2", TransactionDate: "2024-11-15T00:00:00.000000Z", SubsidiaryCountry: "SG", L1ProfitCentreName: "Advisory"},
		{TransactionID: "3", TransactionDate: "2024-12-31T23:59:59Z", SubsidiaryCountry: "AU", L1ProfitCentreName: "Advisory"},
		{TransactionID: "4", TransactionDate: "garbage", SubsidiaryCountry: "", L1ProfitCentreName: ""},
	}
}

func ids(txs []domain.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.TransactionID)
	}
	return out
}

func TestStore_CurrentBeforePublish(t *testing.T) {
	s := New()
	if _, ok := s.Current(); ok {
		t.Fatal("expected no snapshot before the first publish")
	}
}

func TestStore_PublishReplacesSnapshot(t *testing.T) {
	s := New()
	first := NewSnapshot(sampleTransactions(), "file://first.csv", time.Now())
	s.Publish(first)

	held, _ := s.Current()

	second := NewSnapshot(sampleTransactions()[:1], "file://second.csv", time.Now())
	s.Publish(second)

	got, ok := s.Current()
	if !ok || got != second {
		t.Fatalf("expected second snapshot to be current")
	}
	if held.Len() != 4 {
		t.Errorf("held snapshot changed: len = %d, want 4", held.Len())
	}
	if first.Version() == second.Version() {
		t.Error("expected distinct versions for distinct loads")
	}
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := New()
	s.Publish(NewSnapshot(sampleTransactions(), "mem", time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, ok := s.Current()
			if !ok {
				t.Error("expected snapshot")
				return
			}
			_ = snap.Countries()
			_ = snap.FilterByDateRange(time.Time{}, time.Now())
		}()
	}
	for i := 0; i < 3; i++ {
		s.Publish(NewSnapshot(sampleTransactions(), "mem", time.Now()))
	}
	wg.Wait()
}

func TestSnapshot_FilterByDateRange(t *testing.T) {
	snap := NewSnapshot(sampleTransactions(), "mem", time.Now())

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []string
	}{
		{
			name:  "inclusive bounds",
			start: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			want:  []string{"1", "2", "3"},
		},
		{
			name:  "single month",
			start: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 11, 30, 23, 59, 59, 0, time.UTC),
			want:  []string{"2"},
		},
		{
			name:  "midnight end excludes later same-day rows",
			start: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(snap.FilterByDateRange(tt.start, tt.end))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterByDateRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshot_Lookups(t *testing.T) {
	snap := NewSnapshot(sampleTransactions(), "mem", time.Now())

	if got := snap.Countries(); !reflect.DeepEqual(got, []string{"AU", "SG"}) {
		t.Errorf("Countries() = %v", got)
	}
	if got := snap.ProfitCenters(); !reflect.DeepEqual(got, []string{"Advisory", "Trading"}) {
		t.Errorf("ProfitCenters() = %v", got)
	}
	if got := ids(snap.ByCountry("AU")); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Errorf("ByCountry(AU) = %v", got)
	}
	if got := ids(snap.ByProfitCenter("Advisory")); !reflect.DeepEqual(got, []string{"2", "3"}) {
		t.Errorf("ByProfitCenter(Advisory) = %v", got)
	}
	if got := ids(snap.ByCountryAndProfitCenter("AU", "Advisory")); !reflect.DeepEqual(got, []string{"3"}) {
		t.Errorf("ByCountryAndProfitCenter(AU, Advisory) = %v", got)
	}
	if snap.Undated() != 1 {
		t.Errorf("Undated() = %d, want 1", snap.Undated())
	}

	info := snap.Info()
	if info.Rows != 4 || info.Countries != 2 || info.ProfitCenters != 2 || info.Source != "mem" {
		t.Errorf("Info() = %+v", info)
	}
}
