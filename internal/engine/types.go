package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// GreenThreshold is the carbon intensity (gCO2/kWh) below which a period counts as green
const GreenThreshold = 99

// DefaultHorizonHours is the analysis horizon used when the caller has no preference
const DefaultHorizonHours = 24

// Sentinels for a period with neither an actual nor a forecast intensity.
// The analyzer treats such a period as very high (never green) while the
// display series plots it as zero.
const (
	MissingIntensityAnalysis = 999
	MissingIntensityDisplay  = 0
)

// Intensity bands produced by IntensityBand. The carbon API may also supply
// "very low" through its own index.
const (
	BandVeryLow  = "very low"
	BandLow      = "low"
	BandModerate = "moderate"
	BandHigh     = "high"
	BandVeryHigh = "very high"
)

// RatePeriod is a unit rate valid over [ValidFrom, ValidTo)
type RatePeriod struct {
	ValidFrom   time.Time
	ValidTo     time.Time
	ValueIncVAT decimal.Decimal // pence per kWh
}

// StandingCharge is the fixed daily fee for a tariff
type StandingCharge struct {
	ValueIncVAT decimal.Decimal // pence per day
}

// ConsumptionRecord is a metered interval, usually half-hourly
type ConsumptionRecord struct {
	IntervalStart time.Time
	IntervalEnd   time.Time
	Consumption   float64 // kWh
}

// Intensity holds the carbon intensity values reported for a period (gCO2/kWh)
type Intensity struct {
	Actual   *int
	Forecast *int
	Index    string
}

// CarbonPeriod is one 30-minute slot of a carbon intensity forecast
type CarbonPeriod struct {
	From      time.Time
	To        time.Time
	Intensity Intensity
}

// CostSummary is the month-to-date usage and cost for one fuel
type CostSummary struct {
	ConsumptionKWh float64
	TotalCostGBP   decimal.Decimal
	PeakTime       *string // HH:MM, UTC; nil when unknown
}

// GreenSummary describes the green periods of a forecast. Nil times mean no
// such window was found.
type GreenSummary struct {
	GreenPercentage int
	BestWindowStart *string
	BestWindowEnd   *string
	NextGreenStart  *string
}

// DisplayPeriod is a simplified forecast slot for charting
type DisplayPeriod struct {
	Time      time.Time
	Intensity int
	Index     string
}
