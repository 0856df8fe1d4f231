package aggregate

import (
	"testing"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/models"
	"github.com/stretchr/testify/require"
)

var complianceToday = time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)

func TestComplianceBucket(t *testing.T) {
	cases := []struct {
		validTill string
		want      string
	}{
		{"2025-06-20", models.ComplianceExpiringSoon},
		{"2025-05-01", models.ComplianceExpired},
		{"2026-01-01", models.ComplianceOK},
		{"2025-06-01", models.ComplianceExpiringSoon}, // today itself is not expired
		{"2025-07-01", models.ComplianceOK},           // exactly 30 days out
		{"", models.ComplianceEmpty},
		{"soon", models.ComplianceEmpty},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ComplianceBucket(tc.validTill, complianceToday), "valid_till=%q", tc.validTill)
	}
}

func TestBucketEmployees(t *testing.T) {
	emps := []models.Employee{
		{ID: 1, DriverLicenseValidTill: "2026-01-01"},
		{ID: 2, DriverLicenseValidTill: "2025-06-10"},
		{ID: 3, DriverLicenseValidTill: "2024-12-31"},
		{ID: 4},
	}
	s := BucketEmployees(emps, complianceToday)
	require.Equal(t, ComplianceSummary{OK: 1, ExpiringSoon: 1, Expired: 1, Empty: 1}, s)
}

func TestBucketVehicles_InsuranceFallback(t *testing.T) {
	vs := []models.Vehicle{
		{ID: 1, LiabilityInsuranceValidTill: "2026-01-01"},
		// liability missing: comprehensive is the fallback
		{ID: 2, FreeInsuranceValidTill: "2025-05-01"},
		// liability wins even when both are set
		{ID: 3, LiabilityInsuranceValidTill: "2025-06-15", FreeInsuranceValidTill: "2024-01-01"},
		{ID: 4},
	}
	s := BucketVehicles(vs, complianceToday)
	require.Equal(t, ComplianceSummary{OK: 1, ExpiringSoon: 1, Expired: 1, Empty: 1}, s)
}
