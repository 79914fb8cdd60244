package render

import (
	"strings"
	"testing"
	"time"

	"github.com/awaistahir/octotrmnl/internal/engine"
	"github.com/awaistahir/octotrmnl/internal/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestCarbonChart(t *testing.T) {
	assert.Contains(t, CarbonChart(nil, 60, 10), noData)

	points := []report.ForecastPoint{
		{Time: "2026-02-05T00:00Z", Intensity: 200},
		{Time: "2026-02-05T00:30Z", Intensity: 50},
		{Time: "2026-02-05T01:00Z", Intensity: 120},
	}
	chart := CarbonChart(points, 40, 5)
	assert.Contains(t, chart, "from 2026-02-05T00:00Z (UTC), green below 99")
	assert.Contains(t, chart, "200")
	assert.GreaterOrEqual(t, strings.Count(chart, "\n"), 5)
}

func TestCarbonSummary(t *testing.T) {
	out := CarbonSummary(report.CarbonSummary{
		GreenPercentage: 42,
		BestWindowStart: ptr("01:30"),
		BestWindowEnd:   ptr("03:00"),
	})
	assert.Contains(t, out, "42%")
	assert.Contains(t, out, "01:30 - 03:00")
	assert.Contains(t, out, "Next green")
	assert.Contains(t, out, "-")
}

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary(nil), noData)

	out := Summary(&report.Report{
		Electricity:          report.ElectricityReport{KWh: 10, CostGBP: 3.5, DailyAvgKWh: 2, PeakTime: ptr("18:00"), Month: "February 2026"},
		Gas:                  report.GasReport{KWh: 123.5, CostGBP: 8.91, DailyAvgKWh: 24.7, Month: "February 2026"},
		LastUpdatedFormatted: "05 Feb, 14:30",
	})

	for _, want := range []string{"Electricity · February 2026", "10.0 kWh", "£3.50", "18:00", "£8.91", "24.7 kWh", "Updated 05 Feb, 14:30"} {
		assert.Contains(t, out, want)
	}
}

func TestRatesTable(t *testing.T) {
	assert.Contains(t, RatesTable(nil, time.UTC, 60), noData)

	start := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	rates := []engine.RatePeriod{
		{ValidFrom: start, ValueIncVAT: decimal.NewFromInt(10)},
		{ValidFrom: start.Add(30 * time.Minute), ValueIncVAT: decimal.NewFromInt(20)},
	}
	out := RatesTable(rates, time.UTC, 60)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "05 Feb 00:00 │"))
	assert.True(t, strings.HasSuffix(lines[1], " 20.00p"))
	assert.Greater(t, strings.Count(lines[1], "█"), strings.Count(lines[0], "█"))
	assert.Contains(t, out, "average 15.00p/kWh over 2 rates")
}
