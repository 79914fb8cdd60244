package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/awaistahir/octotrmnl/internal/engine"
	"github.com/awaistahir/octotrmnl/internal/logger"
	"github.com/awaistahir/octotrmnl/internal/metrics"
	"github.com/awaistahir/octotrmnl/internal/octopus"
	"golang.org/x/sync/errgroup"
)

// Cache stores encoded domain results. A miss or an expired entry returns
// ok=false.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EnergySource is implemented by *octopus.Client
type EnergySource interface {
	Consumption(ctx context.Context, fuel octopus.Fuel, from, to time.Time) (float64, error)
	HalfHourly(ctx context.Context, from, to time.Time) ([]engine.ConsumptionRecord, error)
	UnitRates(ctx context.Context, fuel octopus.Fuel, from, to time.Time) ([]engine.RatePeriod, error)
	StandingCharge(ctx context.Context, fuel octopus.Fuel, from, to time.Time) (engine.StandingCharge, error)
}

// CarbonSource is implemented by *carbon.Client
type CarbonSource interface {
	Forecast(ctx context.Context) ([]engine.CarbonPeriod, error)
}

// Aggregator builds reports from the upstream sources, caching each domain
// independently.
type Aggregator struct {
	Energy EnergySource
	Carbon CarbonSource
	Cache  Cache // nil disables caching

	TTL     time.Duration
	PeakTTL time.Duration
	Loc     *time.Location
	Now     func() time.Time

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// New returns an Aggregator with the default TTLs, the local zone and the
// wall clock.
func New(energy EnergySource, carbon CarbonSource, cache Cache) *Aggregator {
	return &Aggregator{
		Energy:  energy,
		Carbon:  carbon,
		Cache:   cache,
		TTL:     DefaultCacheTTL,
		PeakTTL: DefaultCacheTTL,
		Loc:     time.Local,
		Now:     time.Now,
	}
}

func (a *Aggregator) log() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return logger.Logger
}

func (a *Aggregator) loc() *time.Location {
	if a.Loc == nil {
		return time.Local
	}
	return a.Loc
}

func (a *Aggregator) now() time.Time {
	clock := a.Now
	if clock == nil {
		clock = time.Now
	}
	return clock().In(a.loc())
}

// Build fetches (or reads from cache) the electricity, gas and carbon data for
// the current month and composes them. Any domain failure fails the build;
// the peak usage time alone degrades to nil.
func (a *Aggregator) Build(ctx context.Context) (r *Report, err error) {
	defer func() { a.Metrics.ReportBuilt(err) }()

	now := a.now()
	from, to := MonthWindow(now)

	var (
		elec, gas energyData
		carbon    CarbonData
		g         errgroup.Group
	)
	g.Go(func() (err error) {
		elec, err = a.energy(ctx, octopus.Electricity, from, to, now)
		return err
	})
	g.Go(func() (err error) {
		gas, err = a.energy(ctx, octopus.Gas, from, to, now)
		return err
	})
	g.Go(func() (err error) {
		carbon, err = a.carbon(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		a.log().Error("building report", "error", err)
		return nil, err
	}

	return compose(now, elec, gas, carbon), nil
}

// CarbonData returns the carbon forecast and summary through the cache
func (a *Aggregator) CarbonData(ctx context.Context) (*CarbonData, error) {
	data, err := a.carbon(ctx)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (a *Aggregator) energy(ctx context.Context, fuel octopus.Fuel, from, to, now time.Time) (energyData, error) {
	key := EnergyKey(fuel, from, to)

	var res energyData
	if a.cacheGet(ctx, string(fuel), key, &res) {
		return res, nil
	}

	var (
		consumption float64
		rates       []engine.RatePeriod
		standing    engine.StandingCharge
		g           errgroup.Group
	)
	g.Go(func() (err error) {
		consumption, err = a.Energy.Consumption(ctx, fuel, from, to)
		return err
	})
	g.Go(func() (err error) {
		rates, err = a.Energy.UnitRates(ctx, fuel, from, to)
		return err
	})
	g.Go(func() (err error) {
		standing, err = a.Energy.StandingCharge(ctx, fuel, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return energyData{}, err
	}

	summary := engine.Summarize(consumption, rates, standing, now.Day())
	res = energyData{
		Consumption: summary.ConsumptionKWh,
		Cost:        summary.TotalCostGBP,
	}
	if fuel == octopus.Electricity {
		res.PeakTime = a.peakTime(ctx, from, now)
	}

	a.log().Debug("computed energy summary",
		"fuel", fuel, "kwh", consumption, "rates", len(rates), "cost_gbp", res.Cost.StringFixed(2))

	a.cachePut(ctx, key, res, a.TTL)
	return res, nil
}

// peakTime finds the busiest half hour of the trailing week. Failures are
// logged and give nil.
func (a *Aggregator) peakTime(ctx context.Context, monthFrom, now time.Time) *string {
	key := PeakKey(monthFrom)

	var cached string
	if a.cacheGet(ctx, "peak", key, &cached) && cached != "" {
		return &cached
	}

	records, err := a.Energy.HalfHourly(ctx, now.Add(-peakWindow), now)
	if err != nil {
		a.log().Warn("fetching peak usage time", "error", err)
		return nil
	}

	peak := engine.FindPeak(records)
	if peak != nil {
		a.cachePut(ctx, key, *peak, a.PeakTTL)
	}
	return peak
}

func (a *Aggregator) carbon(ctx context.Context) (CarbonData, error) {
	loc := a.loc()
	key := CarbonKey(loc)

	var res CarbonData
	if a.cacheGet(ctx, "carbon", key, &res) {
		return res, nil
	}

	periods, err := a.Carbon.Forecast(ctx)
	if err != nil {
		return CarbonData{}, err
	}

	res = newCarbonData(periods, loc)

	a.cachePut(ctx, key, res, a.TTL)
	return res, nil
}

// cacheGet decodes the entry under key into out. Cache failures count as a
// miss.
func (a *Aggregator) cacheGet(ctx context.Context, ns, key string, out any) bool {
	if a.Cache == nil {
		return false
	}

	raw, ok, err := a.Cache.Get(ctx, key)
	if err != nil {
		a.log().Warn("cache read failed", "key", key, "error", err)
		ok = false
	}
	if ok {
		if err := json.Unmarshal(raw, out); err != nil {
			a.log().Warn("discarding unreadable cache entry", "key", key, "error", err)
			ok = false
		}
	}

	if ok {
		a.Metrics.CacheHit(ns)
	} else {
		a.Metrics.CacheMiss(ns)
	}
	return ok
}

func (a *Aggregator) cachePut(ctx context.Context, key string, value any, ttl time.Duration) {
	if a.Cache == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	raw, err := json.Marshal(value)
	if err != nil {
		a.log().Warn("encoding cache entry", "key", key, "error", err)
		return
	}
	if err := a.Cache.Put(ctx, key, raw, ttl); err != nil {
		a.log().Warn("cache write failed", "key", key, "error", err)
	}
}
