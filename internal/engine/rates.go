package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AverageRate returns the unweighted mean unit rate in pence per kWh.
//
// Every period counts once regardless of its length, so a tariff whose rates
// change at irregular intervals is only approximated. An empty slice gives 0.
func AverageRate(rates []RatePeriod) decimal.Decimal {
	if len(rates) == 0 {
		return decimal.Zero
	}

	total := decimal.Zero
	for _, r := range rates {
		total = total.Add(r.ValueIncVAT)
	}
	return total.Div(decimal.NewFromInt(int64(len(rates))))
}

// PeriodCost returns the cost in GBP of consumptionKWh at avgRatePence plus
// daysElapsed days of standing charge.
func PeriodCost(consumptionKWh float64, avgRatePence, standingChargePence decimal.Decimal, daysElapsed int) decimal.Decimal {
	usage := decimal.NewFromFloat(consumptionKWh).Mul(avgRatePence).Div(hundred)
	standing := decimal.NewFromInt(int64(daysElapsed)).Mul(standingChargePence).Div(hundred)
	return usage.Add(standing)
}

// Summarize combines the fetched pieces for one fuel into a CostSummary
func Summarize(consumptionKWh float64, rates []RatePeriod, standing StandingCharge, daysElapsed int) CostSummary {
	avg := AverageRate(rates)
	return CostSummary{
		ConsumptionKWh: consumptionKWh,
		TotalCostGBP:   PeriodCost(consumptionKWh, avg, standing.ValueIncVAT, daysElapsed),
	}
}

// SortRates orders rates by ValidFrom, earliest first. The API lists them
// newest first.
func SortRates(rates []RatePeriod) {
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].ValidFrom.Before(rates[j].ValidFrom)
	})
}
