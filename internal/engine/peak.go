package engine

// FindPeak returns the start of the interval with the highest consumption as
// UTC "HH:MM". The first of several equal maxima wins. Nil is returned for an
// empty slice or when no interval has positive consumption.
func FindPeak(records []ConsumptionRecord) *string {
	maxConsumption := 0.0
	peak := -1

	for i, r := range records {
		if r.Consumption > maxConsumption {
			maxConsumption = r.Consumption
			peak = i
		}
	}

	if peak < 0 {
		return nil
	}

	hhmm := records[peak].IntervalStart.UTC().Format(clockLayout)
	return &hhmm
}
