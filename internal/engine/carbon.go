package engine

import (
	"math"
	"time"
)

const clockLayout = "15:04"

// window returns the first hours*2 periods (30-minute slots) without copying
func window(periods []CarbonPeriod, hours int) []CarbonPeriod {
	n := hours * 2
	if n < 0 {
		n = 0
	}
	if n > len(periods) {
		n = len(periods)
	}
	return periods[:n]
}

// EffectiveIntensity prefers the actual reading, then the forecast, then
// MissingIntensityAnalysis.
func EffectiveIntensity(in Intensity) int {
	switch {
	case in.Actual != nil:
		return *in.Actual
	case in.Forecast != nil:
		return *in.Forecast
	default:
		return MissingIntensityAnalysis
	}
}

// IsGreen reports whether the period's effective intensity is below GreenThreshold
func IsGreen(p CarbonPeriod) bool {
	return EffectiveIntensity(p.Intensity) < GreenThreshold
}

// countsAsGreen is the rule used for the green percentage: either value
// below the threshold is enough, with no preference between them. It differs
// from IsGreen when actual and forecast fall on opposite sides.
func countsAsGreen(in Intensity) bool {
	if in.Actual != nil && *in.Actual < GreenThreshold {
		return true
	}
	return in.Forecast != nil && *in.Forecast < GreenThreshold
}

// AnalyzeCarbon summarises the green periods in the first `hours` of a
// forecast. Periods must already be in ascending order. Times are formatted
// as "HH:MM" in loc (time.Local when nil).
func AnalyzeCarbon(periods []CarbonPeriod, hours int, loc *time.Location) GreenSummary {
	if loc == nil {
		loc = time.Local
	}

	periods = window(periods, hours)
	if len(periods) == 0 {
		return GreenSummary{}
	}

	summary := GreenSummary{
		GreenPercentage: greenPercentage(periods),
	}

	if start, end, ok := longestGreenRun(periods); ok {
		summary.BestWindowStart = formatClock(start, loc)
		summary.BestWindowEnd = formatClock(end, loc)
	}

	if next, ok := nextGreenStart(periods); ok {
		summary.NextGreenStart = formatClock(next, loc)
	}

	return summary
}

func greenPercentage(periods []CarbonPeriod) int {
	green := 0
	for _, p := range periods {
		if countsAsGreen(p.Intensity) {
			green++
		}
	}
	return int(math.Round(float64(green) / float64(len(periods)) * 100))
}

// longestGreenRun returns the bounds of the longest contiguous run of green
// periods. The earliest run wins a tie.
func longestGreenRun(periods []CarbonPeriod) (start, end time.Time, ok bool) {
	bestLen := 0
	runLen := 0
	var runStart time.Time

	for i, p := range periods {
		if IsGreen(p) {
			if runLen == 0 {
				runStart = p.From
			}
			runLen++

			if i == len(periods)-1 && runLen > bestLen {
				bestLen = runLen
				start, end = runStart, p.To
			}
			continue
		}

		if runLen > bestLen {
			bestLen = runLen
			start, end = runStart, periods[i-1].To
		}
		runLen = 0
	}

	return start, end, bestLen > 0
}

// nextGreenStart finds the first green period. It reports false when the
// first period is already green as well as when no period is.
func nextGreenStart(periods []CarbonPeriod) (time.Time, bool) {
	if IsGreen(periods[0]) {
		return time.Time{}, false
	}
	for _, p := range periods {
		if IsGreen(p) {
			return p.From, true
		}
	}
	return time.Time{}, false
}

func formatClock(t time.Time, loc *time.Location) *string {
	s := t.In(loc).Format(clockLayout)
	return &s
}
