package models

// Канонические статусы ТС (фиксированный набор из пяти значений).
const (
	StatusMoving        = "MOVING"
	StatusStopped       = "STOPPED"
	StatusIdling        = "IDLING" // parked with ignition on
	StatusNoCoordinates = "NO_COORDINATES"
	StatusOffline       = "OFFLINE"
)

// Compliance buckets for dated credentials (driver license, insurance).
const (
	ComplianceOK           = "OK"
	ComplianceExpiringSoon = "EXPIRING_SOON"
	ComplianceExpired      = "EXPIRED"
	ComplianceEmpty        = "EMPTY"
)

// Trend directions for day-over-day comparisons.
const (
	TrendIncrease = "increase"
	TrendDecrease = "decrease"
	TrendNoChange = "no_change"
)

type Tracker struct {
	ID     int           `json:"id"`
	Label  string        `json:"label"`
	Source TrackerSource `json:"source"`
}

type TrackerSource struct {
	Model         string `json:"model"`
	DeviceID      string `json:"device_id"`
	Phone         string `json:"phone"`
	Blocked       bool   `json:"blocked"`
	CreationDate  string `json:"creation_date"`
	TariffEndDate string `json:"tariff_end_date"`
}

type GPS struct {
	Speed   float64 `json:"speed"`
	Updated string  `json:"updated"`
}

type Sensor struct {
	Label      string  `json:"label"`
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	MinValue   float64 `json:"min_value"`
	MaxValue   float64 `json:"max_value"`
	UnitsType  string  `json:"units_type"`
	UpdateTime string  `json:"update_time"`
}

// TrackerState is the flattened per-tracker snapshot. The origin API returns
// it either flat or nested under a "state" key; the HTTP client normalizes
// both shapes into this one record.
type TrackerState struct {
	ConnectionStatus string   `json:"connection_status"`
	MovementStatus   string   `json:"movement_status"`
	Ignition         bool     `json:"ignition"`
	GPS              GPS      `json:"gps"`
	Inputs           []Sensor `json:"inputs,omitempty"`
}

// Trip timestamps come as "2006-01-02 15:04:05" strings in account-local time.
type Trip struct {
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Length       float64  `json:"length"`
	IdleDuration *float64 `json:"idle_duration,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
}

// TripFetchResult is the per-tracker outcome of a batch trip fetch.
// A failed tracker carries a non-empty Err and an empty trip list;
// the batch itself never fails because of one tracker.
type TripFetchResult struct {
	TrackerID int    `json:"tracker_id"`
	Trips     []Trip `json:"trips"`
	Err       string `json:"error,omitempty"`
}

type Employee struct {
	ID                     int    `json:"id"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	DriverLicenseValidTill string `json:"driver_license_valid_till"`
}

type Vehicle struct {
	ID                          int    `json:"id"`
	Label                       string `json:"label"`
	LiabilityInsuranceValidTill string `json:"liability_insurance_valid_till"`
	FreeInsuranceValidTill      string `json:"free_insurance_valid_till"`
}
