// Package report composes the metrics engine over the current dataset
// snapshot: reporting windows, entity filters, cached results and parallel
// time series.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-metrics/internal/domain"
	"github.com/dvloznov/finance-metrics/internal/logger"
	"github.com/dvloznov/finance-metrics/internal/metrics"
	"github.com/dvloznov/finance-metrics/internal/store"
)

// ErrNotLoaded is returned while no dataset snapshot has been published.
var ErrNotLoaded = errors.New("no dataset loaded")

const (
	// DefaultCacheTTL is used when Options.CacheTTL is zero.
	DefaultCacheTTL = 10 * time.Minute
	// DefaultParallelism is used when Options.Parallelism is not positive.
	DefaultParallelism = 4
)

// Options configures a Service.
type Options struct {
	// Window is the default reporting window for summaries.
	Window Window

	// CountryNames resolves country display names. Nil means
	// metrics.DefaultCountryNames.
	CountryNames metrics.CountryNames

	// CacheTTL bounds how long results are reused. Negative disables caching.
	CacheTTL time.Duration

	// Parallelism bounds concurrent per-entity time-series work.
	Parallelism int
}

// CountryReport lists country summaries with their grand total.
type CountryReport struct {
	Window    Window                  `json:"window"`
	Countries []domain.CountrySummary `json:"countries"`
	Total     domain.CountrySummary   `json:"total"`
}

// ProfitCenterReport lists profit-center summaries with their grand total.
type ProfitCenterReport struct {
	Window        Window                       `json:"window"`
	Country       string                       `json:"country,omitempty"`
	ProfitCenters []domain.ProfitCenterSummary `json:"profitCenters"`
	Total         domain.ProfitCenterSummary   `json:"total"`
}

// Service answers report queries against the store's current snapshot.
// Results are cached per snapshot version, so a reload invalidates them.
// Every call returns its own copy of the result.
type Service struct {
	store *store.Store
	opts  Options
	cache *cache.Cache
}

// NewService creates a report service over st.
func NewService(st *store.Store, opts Options) *Service {
	if opts.CountryNames == nil {
		opts.CountryNames = metrics.DefaultCountryNames
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}

	s := &Service{store: st, opts: opts}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

// DefaultWindow returns the configured reporting window.
func (s *Service) DefaultWindow() Window {
	return s.opts.Window
}

// SummaryWindow resolves the window for summary queries: explicit bounds
// first (a missing side falls back to the default window), then period
// relative to the default window's end, then the default window.
func (s *Service) SummaryWindow(start, end, period string) (Window, error) {
	if strings.TrimSpace(start) != "" || strings.TrimSpace(end) != "" {
		w, err := ParseWindow(start, end)
		if err != nil {
			return Window{}, err
		}
		if w.Start.IsZero() {
			w.Start = s.opts.Window.Start
		}
		if w.End.IsZero() {
			w.End = s.opts.Window.End
		}
		return w, w.Validate()
	}
	if strings.TrimSpace(period) != "" {
		end := s.opts.Window.End
		if end.IsZero() {
			end = time.Now().UTC()
		}
		return WindowForPeriod(period, end)
	}
	return s.opts.Window, nil
}

// SeriesWindow resolves the window for time-series queries. Without bounds
// the whole dataset is used.
func (s *Service) SeriesWindow(start, end string) (Window, error) {
	return ParseWindow(start, end)
}

// Snapshot returns the current snapshot or ErrNotLoaded.
func (s *Service) Snapshot() (*store.Snapshot, error) {
	snap, ok := s.store.Current()
	if !ok {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Info describes the current snapshot.
func (s *Service) Info() (store.Info, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return store.Info{}, err
	}
	return snap.Info(), nil
}

// Countries summarizes every country within w.
func (s *Service) Countries(ctx context.Context, w Window) (*CountryReport, error) {
	snap, txs, err := s.scope(w)
	if err != nil {
		return nil, fmt.Errorf("Countries: %w", err)
	}

	key := cacheKey(snap, "countries", w.key())
	if v, ok := s.cached(key); ok {
		return v.(*CountryReport).clone(), nil
	}

	countries := metrics.ByCountry(txs, s.opts.CountryNames)
	rep := &CountryReport{
		Window:    w,
		Countries: countries,
		Total:     metrics.GrandTotal(countries),
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("snapshot_version", snap.Version()).
		Int("transactions", len(txs)).
		Int("countries", len(countries)).
		Msg("Computed country report")

	s.remember(key, rep)
	return rep.clone(), nil
}

// ProfitCenters summarizes profit centers within w, limited to country when
// it is non-empty.
func (s *Service) ProfitCenters(ctx context.Context, country string, w Window) (*ProfitCenterReport, error) {
	snap, txs, err := s.scope(w)
	if err != nil {
		return nil, fmt.Errorf("ProfitCenters: %w", err)
	}

	key := cacheKey(snap, "profit-centers", country, w.key())
	if v, ok := s.cached(key); ok {
		return v.(*ProfitCenterReport).clone(), nil
	}

	centers := metrics.ByProfitCenter(txs, country)
	rep := &ProfitCenterReport{
		Window:        w,
		Country:       country,
		ProfitCenters: centers,
		Total:         metrics.ProfitCenterGrandTotal(centers),
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("snapshot_version", snap.Version()).
		Str("country", country).
		Int("profit_centers", len(centers)).
		Msg("Computed profit center report")

	s.remember(key, rep)
	return rep.clone(), nil
}

// CountryTimeSeries builds a monthly series for every country within w.
func (s *Service) CountryTimeSeries(ctx context.Context, w Window) ([]domain.CountryTimeSeries, error) {
	snap, txs, err := s.scope(w)
	if err != nil {
		return nil, fmt.Errorf("CountryTimeSeries: %w", err)
	}

	key := cacheKey(snap, "country-series", w.key())
	if v, ok := s.cached(key); ok {
		return cloneCountrySeries(v.([]domain.CountryTimeSeries)), nil
	}

	countries := metrics.ByCountry(txs, s.opts.CountryNames)
	series := make([]domain.CountryTimeSeries, len(countries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)
	for i := range countries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			members := store.ByCountry(txs, countries[i].Code)
			series[i] = metrics.CountryTimeSeries(members, countries[i:i+1])[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("CountryTimeSeries: %w", err)
	}

	s.remember(key, series)
	return cloneCountrySeries(series), nil
}

// ProfitCenterTimeSeries builds a monthly series for every profit center of
// country within w.
func (s *Service) ProfitCenterTimeSeries(ctx context.Context, country string, w Window) ([]domain.ProfitCenterTimeSeries, error) {
	snap, txs, err := s.scope(w)
	if err != nil {
		return nil, fmt.Errorf("ProfitCenterTimeSeries: %w", err)
	}

	key := cacheKey(snap, "profit-center-series", country, w.key())
	if v, ok := s.cached(key); ok {
		return cloneProfitCenterSeries(v.([]domain.ProfitCenterTimeSeries)), nil
	}

	centers := metrics.ByProfitCenter(txs, country)
	series := make([]domain.ProfitCenterTimeSeries, len(centers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)
	for i := range centers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pcCountry := country
			if pcCountry == "" {
				pcCountry = centers[i].Country
			}
			members := store.ByCountryAndProfitCenter(txs, pcCountry, centers[i].Name)
			series[i] = metrics.ProfitCenterTimeSeries(members, country, centers[i:i+1])[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ProfitCenterTimeSeries: %w", err)
	}

	s.remember(key, series)
	return cloneProfitCenterSeries(series), nil
}

// scope returns the current snapshot and its records within w.
func (s *Service) scope(w Window) (*store.Snapshot, []domain.Transaction, error) {
	if err := w.Validate(); err != nil {
		return nil, nil, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	if w.IsZero() {
		return snap, snap.Transactions(), nil
	}
	start, end := w.bounds()
	return snap, snap.FilterByDateRange(start, end), nil
}

func (s *Service) cached(key string) (interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Service) remember(key string, v interface{}) {
	if s.cache == nil {
		return
	}
	s.cache.SetDefault(key, v)
}

func cacheKey(snap *store.Snapshot, parts ...string) string {
	return snap.Version() + "|" + strings.Join(parts, "|")
}

func (r *CountryReport) clone() *CountryReport {
	c := *r
	c.Countries = append([]domain.CountrySummary(nil), r.Countries...)
	return &c
}

func (r *ProfitCenterReport) clone() *ProfitCenterReport {
	c := *r
	c.ProfitCenters = append([]domain.ProfitCenterSummary(nil), r.ProfitCenters...)
	return &c
}

func cloneCountrySeries(in []domain.CountryTimeSeries) []domain.CountryTimeSeries {
	out := make([]domain.CountryTimeSeries, len(in))
	for i, ts := range in {
		out[i] = domain.CountryTimeSeries{Country: ts.Country, TimeSeries: cloneBuckets(ts.TimeSeries)}
	}
	return out
}

func cloneProfitCenterSeries(in []domain.ProfitCenterTimeSeries) []domain.ProfitCenterTimeSeries {
	out := make([]domain.ProfitCenterTimeSeries, len(in))
	for i, ts := range in {
		out[i] = domain.ProfitCenterTimeSeries{ProfitCenter: ts.ProfitCenter, TimeSeries: cloneBuckets(ts.TimeSeries)}
	}
	return out
}

func cloneBuckets(in []domain.TimeBucket) []domain.TimeBucket {
	if in == nil {
		return nil
	}
	out := make([]domain.TimeBucket, len(in))
	for i, b := range in {
		out[i] = b
		if b.MoMChange != nil {
			v := *b.MoMChange
			out[i].MoMChange = &v
		}
	}
	return out
}
