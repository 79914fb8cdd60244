// Package render draws reports for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/awaistahir/octotrmnl/internal/engine"
	"github.com/awaistahir/octotrmnl/internal/report"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	Primary = lipgloss.Color("#7D56F4")
	Green   = lipgloss.Color("#3fb950")
	Subtle  = lipgloss.Color("#888888")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	labelStyle = lipgloss.NewStyle().Foreground(Subtle).Width(14)
	greenStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)
	helpStyle = lipgloss.NewStyle().Foreground(Subtle).Italic(true)
)

const noData = "No data available"

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

// CarbonChart plots forecast intensities against the green threshold
func CarbonChart(points []report.ForecastPoint, width, height int) string {
	if len(points) == 0 {
		return helpStyle.Render(noData)
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	intensities := make([]float64, len(points))
	threshold := make([]float64, len(points))
	for i, p := range points {
		intensities[i] = float64(p.Intensity)
		threshold[i] = engine.GreenThreshold
	}

	caption := fmt.Sprintf("gCO2/kWh from %s (UTC), green below %d", points[0].Time, engine.GreenThreshold)
	return asciigraph.PlotMany([][]float64{intensities, threshold},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Green),
	)
}

// CarbonSummary lists the green share and windows
func CarbonSummary(s report.CarbonSummary) string {
	lines := []string{
		titleStyle.Render("Carbon intensity"),
		row("Green", greenStyle.Render(fmt.Sprintf("%d%%", s.GreenPercentage))),
		row("Best window", fmt.Sprintf("%s - %s", orDash(s.BestWindowStart), orDash(s.BestWindowEnd))),
		row("Next green", orDash(s.NextGreenStart)),
	}
	return strings.Join(lines, "\n")
}

// Summary renders the whole report in a bordered box
func Summary(r *report.Report) string {
	if r == nil {
		return helpStyle.Render(noData)
	}

	sections := []string{
		titleStyle.Render("Electricity · " + r.Electricity.Month),
		row("Usage", fmt.Sprintf("%.1f kWh", r.Electricity.KWh)),
		row("Cost", fmt.Sprintf("£%.2f", r.Electricity.CostGBP)),
		row("Daily avg", fmt.Sprintf("%.1f kWh", r.Electricity.DailyAvgKWh)),
		row("Peak", orDash(r.Electricity.PeakTime)),
		"",
		titleStyle.Render("Gas · " + r.Gas.Month),
		row("Usage", fmt.Sprintf("%.1f kWh", r.Gas.KWh)),
		row("Cost", fmt.Sprintf("£%.2f", r.Gas.CostGBP)),
		row("Daily avg", fmt.Sprintf("%.1f kWh", r.Gas.DailyAvgKWh)),
		"",
		CarbonSummary(r.CarbonSummary),
		"",
		helpStyle.Render("Updated " + r.LastUpdatedFormatted),
	}

	return boxStyle.Render(strings.Join(sections, "\n"))
}

// RatesTable draws one bar per unit rate, labelled with its start in loc
func RatesTable(rates []engine.RatePeriod, loc *time.Location, width int) string {
	if len(rates) == 0 {
		return helpStyle.Render(noData)
	}
	if loc == nil {
		loc = time.Local
	}

	maxVal := 0.0
	for _, r := range rates {
		if v := r.ValueIncVAT.InexactFloat64(); v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	const labelWidth = len("02 Jan 15:04")
	barWidth := width - labelWidth - 12
	if barWidth < 10 {
		barWidth = 10
	}

	lines := make([]string, 0, len(rates)+1)
	for _, r := range rates {
		v := r.ValueIncVAT.InexactFloat64()
		barLen := int(v / maxVal * float64(barWidth))
		if barLen < 0 {
			barLen = 0
		}
		label := r.ValidFrom.In(loc).Format("02 Jan 15:04")
		lines = append(lines, fmt.Sprintf("%s │%s %sp", label, strings.Repeat("█", barLen), r.ValueIncVAT.StringFixed(2)))
	}
	lines = append(lines, helpStyle.Render(fmt.Sprintf("average %sp/kWh over %d rates", engine.AverageRate(rates).StringFixed(2), len(rates))))

	return strings.Join(lines, "\n")
}
