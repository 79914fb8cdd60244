package engine

// IntensityBand maps an intensity to a qualitative band. It never returns
// BandVeryLow; that value only arrives from the carbon API's own index.
func IntensityBand(intensity int) string {
	switch {
	case intensity < 99:
		return BandLow
	case intensity < 150:
		return BandModerate
	case intensity < 250:
		return BandHigh
	default:
		return BandVeryHigh
	}
}

// ProjectForDisplay turns the first `hours` of a forecast into chart points.
// A period with no readings plots as MissingIntensityDisplay.
func ProjectForDisplay(periods []CarbonPeriod, hours int) []DisplayPeriod {
	periods = window(periods, hours)

	out := make([]DisplayPeriod, 0, len(periods))
	for _, p := range periods {
		intensity := MissingIntensityDisplay
		switch {
		case p.Intensity.Actual != nil:
			intensity = *p.Intensity.Actual
		case p.Intensity.Forecast != nil:
			intensity = *p.Intensity.Forecast
		}

		index := p.Intensity.Index
		if index == "" {
			index = IntensityBand(intensity)
		}

		out = append(out, DisplayPeriod{
			Time:      p.From,
			Intensity: intensity,
			Index:     index,
		})
	}
	return out
}
