// Package report assembles the month-to-date energy and carbon report served
// to the e-ink display.
package report

import (
	"time"

	"github.com/awaistahir/octotrmnl/internal/engine"
	"github.com/shopspring/decimal"
)

const (
	isoLayout       = "2006-01-02T15:04:05.000Z"
	forecastLayout  = "2006-01-02T15:04Z"
	monthLayout     = "January 2006"
	updatedLayout   = "02 Jan, 15:04"
	peakWindow      = 7 * 24 * time.Hour
	DefaultCacheTTL = 25 * time.Minute
)

// Report is the consolidated payload
type Report struct {
	Electricity          ElectricityReport `json:"electricity"`
	Gas                  GasReport         `json:"gas"`
	CarbonForecast       []ForecastPoint   `json:"carbon_forecast"`
	CarbonSummary        CarbonSummary     `json:"carbon_summary"`
	LastUpdated          string            `json:"last_updated"`
	LastUpdatedFormatted string            `json:"last_updated_formatted"`
}

type ElectricityReport struct {
	KWh         float64 `json:"kwh"`
	CostGBP     float64 `json:"cost_gbp"`
	DailyAvgKWh float64 `json:"daily_avg_kwh"`
	PeakTime    *string `json:"peak_time"`
	Month       string  `json:"month"`
}

type GasReport struct {
	KWh         float64 `json:"kwh"`
	CostGBP     float64 `json:"cost_gbp"`
	DailyAvgKWh float64 `json:"daily_avg_kwh"`
	Month       string  `json:"month"`
}

// ForecastPoint is one chart point; Time is UTC at minute precision
type ForecastPoint struct {
	Time      string `json:"time"`
	Intensity int    `json:"intensity"`
	Index     string `json:"index"`
}

type CarbonSummary struct {
	GreenPercentage int     `json:"green_percentage"`
	BestWindowStart *string `json:"best_window_start"`
	BestWindowEnd   *string `json:"best_window_end"`
	NextGreenStart  *string `json:"next_green_start"`
}

// energyData is the cached result for one fuel
type energyData struct {
	Consumption float64         `json:"consumption"`
	Cost        decimal.Decimal `json:"cost"`
	PeakTime    *string         `json:"peak_time,omitempty"`
}

// CarbonData is the cached result for the carbon domain
type CarbonData struct {
	Forecast []ForecastPoint `json:"forecast"`
	Summary  CarbonSummary   `json:"summary"`
}

func newCarbonData(periods []engine.CarbonPeriod, loc *time.Location) CarbonData {
	display := engine.ProjectForDisplay(periods, engine.DefaultHorizonHours)
	forecast := make([]ForecastPoint, 0, len(display))
	for _, d := range display {
		forecast = append(forecast, ForecastPoint{
			Time:      d.Time.UTC().Format(forecastLayout),
			Intensity: d.Intensity,
			Index:     d.Index,
		})
	}

	s := engine.AnalyzeCarbon(periods, engine.DefaultHorizonHours, loc)
	return CarbonData{
		Forecast: forecast,
		Summary: CarbonSummary{
			GreenPercentage: s.GreenPercentage,
			BestWindowStart: s.BestWindowStart,
			BestWindowEnd:   s.BestWindowEnd,
			NextGreenStart:  s.NextGreenStart,
		},
	}
}

// MonthWindow returns the first and last second of now's month, in now's zone
func MonthWindow(now time.Time) (from, to time.Time) {
	y, m, _ := now.Date()
	loc := now.Location()
	from = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	to = time.Date(y, m+1, 0, 23, 59, 59, 0, loc)
	return from, to
}

func round(f float64, places int32) float64 {
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

func dailyAverage(kwh float64, day int) float64 {
	if day <= 0 {
		return 0
	}
	return decimal.NewFromFloat(kwh).Div(decimal.NewFromInt(int64(day))).Round(1).InexactFloat64()
}

func compose(now time.Time, elec, gas energyData, carbon CarbonData) *Report {
	month := now.Format(monthLayout)
	day := now.Day()

	forecast := carbon.Forecast
	if forecast == nil {
		forecast = []ForecastPoint{}
	}

	return &Report{
		Electricity: ElectricityReport{
			KWh:         round(elec.Consumption, 1),
			CostGBP:     elec.Cost.Round(2).InexactFloat64(),
			DailyAvgKWh: dailyAverage(elec.Consumption, day),
			PeakTime:    elec.PeakTime,
			Month:       month,
		},
		Gas: GasReport{
			KWh:         round(gas.Consumption, 1),
			CostGBP:     gas.Cost.Round(2).InexactFloat64(),
			DailyAvgKWh: dailyAverage(gas.Consumption, day),
			Month:       month,
		},
		CarbonForecast:       forecast,
		CarbonSummary:        carbon.Summary,
		LastUpdated:          now.UTC().Format(isoLayout),
		LastUpdatedFormatted: now.Format(updatedLayout),
	}
}
