package aggregate

import (
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/models"
)

const complianceDateLayout = "2006-01-02"
const expiringSoonWindow = 30 * 24 * time.Hour

// ComplianceBucket classifies a YYYY-MM-DD expiry date relative to today:
// missing/unparseable -> EMPTY, before today -> EXPIRED, within the next
// 30 days (today included) -> EXPIRING_SOON, otherwise OK.
func ComplianceBucket(validTill string, today time.Time) string {
	if validTill == "" {
		return models.ComplianceEmpty
	}
	d, err := time.Parse(complianceDateLayout, validTill)
	if err != nil {
		return models.ComplianceEmpty
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(day) {
		return models.ComplianceExpired
	}
	if d.Before(day.Add(expiringSoonWindow)) {
		return models.ComplianceExpiringSoon
	}
	return models.ComplianceOK
}

// ComplianceSummary counts entities per bucket for a compliance widget.
type ComplianceSummary struct {
	OK           int `json:"ok"`
	ExpiringSoon int `json:"expiring_soon"`
	Expired      int `json:"expired"`
	Empty        int `json:"empty"`
}

func (s *ComplianceSummary) add(bucket string) {
	switch bucket {
	case models.ComplianceOK:
		s.OK++
	case models.ComplianceExpiringSoon:
		s.ExpiringSoon++
	case models.ComplianceExpired:
		s.Expired++
	default:
		s.Empty++
	}
}

func BucketEmployees(emps []models.Employee, today time.Time) ComplianceSummary {
	var s ComplianceSummary
	for _, e := range emps {
		s.add(ComplianceBucket(e.DriverLicenseValidTill, today))
	}
	return s
}

// BucketVehicles uses the first non-empty insurance date: liability first,
// then comprehensive.
func BucketVehicles(vs []models.Vehicle, today time.Time) ComplianceSummary {
	var s ComplianceSummary
	for _, v := range vs {
		date := v.LiabilityInsuranceValidTill
		if date == "" {
			date = v.FreeInsuranceValidTill
		}
		s.add(ComplianceBucket(date, today))
	}
	return s
}
