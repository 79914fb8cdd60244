package report

import (
	"fmt"
	"time"

	"github.com/awaistahir/octotrmnl/internal/octopus"
)

func iso(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// EnergyKey identifies a fuel's month result, e.g.
// electricity:2026-02-01T00:00:00.000Z:2026-02-28T23:59:59.000Z
func EnergyKey(fuel octopus.Fuel, from, to time.Time) string {
	return fmt.Sprintf("%s:%s:%s", fuel, iso(from), iso(to))
}

// PeakKey identifies the peak usage time for the month starting at from
func PeakKey(from time.Time) string {
	return "peak:" + iso(from)
}

// CarbonKey identifies the cached carbon forecast analysed in loc, e.g.
// carbon:forecast:Europe/London
func CarbonKey(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return "carbon:forecast:" + loc.String()
}
