package reports

import (
	"encoding/json"
	"strconv"

	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
)

// FuelTotals are the numeric totals extracted from a fuel report body.
// Volumes are litres.
type FuelTotals struct {
	FillingsCount  float64 `json:"fillings_count"`
	FillingsVolume float64 `json:"fillings_volume"`
	DrainsCount    float64 `json:"drains_count"`
	DrainsVolume   float64 `json:"drains_volume"`
	ConsumedVolume float64 `json:"consumed_volume"`
}

// ParseFuelTotals walks the sheet -> section -> data -> total nesting and
// sums the raw values of the known cells. Missing or non-numeric cells count
// as 0; a malformed body yields zero totals rather than an error.
func ParseFuelTotals(body gmapi.ReportBody) FuelTotals {
	var t FuelTotals
	for _, sheet := range body.Sheets {
		for _, section := range sheet.Sections {
			for _, row := range section.Data {
				t.FillingsCount += rawFloat(row.Total["fillings_count"])
				t.FillingsVolume += rawFloat(row.Total["fillings_volume"])
				t.DrainsCount += rawFloat(row.Total["drains_count"])
				t.DrainsVolume += rawFloat(row.Total["drains_volume"])
				t.ConsumedVolume += rawFloat(row.Total["consumed_volume"])
			}
		}
	}
	return t
}

func rawFloat(cell gmapi.ReportCell) float64 {
	switch v := cell.Raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
