package aggregate

import (
	"github.com/KnyazhevAlex/dashboards/internal/services/reports"
)

// FuelKPI is one day's fuel report totals plus the derived loss percentage.
type FuelKPI struct {
	Totals  reports.FuelTotals `json:"totals"`
	LossPct float64            `json:"loss_pct"`
}

// ComputeFuelKPI derives loss as drains/fillings*100. No fillings means no
// meaningful loss, so the percentage is 0 rather than a division error.
func ComputeFuelKPI(t reports.FuelTotals) FuelKPI {
	kpi := FuelKPI{Totals: t}
	if t.FillingsVolume > 0 {
		kpi.LossPct = t.DrainsVolume / t.FillingsVolume * 100
	}
	return kpi
}

// FuelTrend compares the volume KPIs of two days.
type FuelTrend struct {
	Filled   Trend `json:"filled"`
	Consumed Trend `json:"consumed"`
	Drained  Trend `json:"drained"`
	Loss     Trend `json:"loss"`
}

func CompareFuel(cur, prev FuelKPI) FuelTrend {
	return FuelTrend{
		Filled:   Compare(cur.Totals.FillingsVolume, prev.Totals.FillingsVolume),
		Consumed: Compare(cur.Totals.ConsumedVolume, prev.Totals.ConsumedVolume),
		Drained:  Compare(cur.Totals.DrainsVolume, prev.Totals.DrainsVolume),
		Loss:     Compare(cur.LossPct, prev.LossPct),
	}
}
