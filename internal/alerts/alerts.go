// Package alerts finds driver and vehicle documents that are expired or
// about to expire.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/store"
)

// DefaultHorizon is the look-ahead window in days.
const DefaultHorizon = 30

// DashboardLimit is how many alerts the dashboard summarises.
const DashboardLimit = 5

type Origin string

const (
	OriginDriver  Origin = "DRIVER"
	OriginVehicle Origin = "VEHICLE"
)

type Status string

const (
	StatusExpired Status = "EXPIRED"
	StatusDueSoon Status = "DUE_SOON"
)

// Source identifies which expiration field produced an alert.
type Source int

const (
	DriverLicense Source = iota + 1
	VehicleSOAT
	VehicleTechInspection
	VehicleContractualPolicy
	VehicleExtracontractualPolicy
)

func (s Source) Origin() Origin {
	if s == DriverLicense {
		return OriginDriver
	}
	return OriginVehicle
}

// Label is the human name of the document.
func (s Source) Label() string {
	switch s {
	case DriverLicense:
		return "Driver's license"
	case VehicleSOAT:
		return "SOAT"
	case VehicleTechInspection:
		return "Technical inspection"
	case VehicleContractualPolicy:
		return "Contractual policy"
	case VehicleExtracontractualPolicy:
		return "Extracontractual policy"
	}
	return "Unknown document"
}

func (s Source) String() string {
	switch s {
	case DriverLicense:
		return "DRIVER_LICENSE"
	case VehicleSOAT:
		return "VEHICLE_SOAT"
	case VehicleTechInspection:
		return "VEHICLE_TECH_INSPECTION"
	case VehicleContractualPolicy:
		return "VEHICLE_CONTRACTUAL_POLICY"
	case VehicleExtracontractualPolicy:
		return "VEHICLE_EXTRACONTRACTUAL_POLICY"
	}
	return "UNKNOWN"
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Alert is one expired or expiring document.
type Alert struct {
	Source    Source `json:"source"`
	Origin    Origin `json:"origin"`
	Label     string `json:"label"`
	SubjectID uint   `json:"subject_id"`

	// Driver identity.
	Name           string `json:"name,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`

	// Vehicle identity.
	Plate       string `json:"plate,omitempty"`
	Description string `json:"description,omitempty"`

	ExpiresOn     time.Time `json:"expires_on"`
	DaysRemaining int       `json:"days_remaining"` // negative once expired
	DaysText      int       `json:"days_text"`
	Status        Status    `json:"status"`
}

// dateOf drops the clock part, keeping the calendar day as seen in t's
// location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func newAlert(src Source, subjectID uint, expires, today time.Time) Alert {
	expires = dateOf(expires)
	days := daysBetween(today, expires)
	status := StatusDueSoon
	if days < 0 {
		status = StatusExpired
	}
	text := days
	if text < 0 {
		text = -text
	}
	return Alert{
		Source:        src,
		Origin:        src.Origin(),
		Label:         src.Label(),
		SubjectID:     subjectID,
		ExpiresOn:     expires,
		DaysRemaining: days,
		DaysText:      text,
		Status:        status,
	}
}

type vehicleField struct {
	source Source
	date   *time.Time
}

func vehicleFields(v models.Vehicle) []vehicleField {
	return []vehicleField{
		{VehicleSOAT, v.SOATExpiresOn},
		{VehicleTechInspection, v.TechInspectionExpiresOn},
		{VehicleContractualPolicy, v.ContractualPolicyExpiresOn},
		{VehicleExtracontractualPolicy, v.ExtracontractualPolicyExpiresOn},
	}
}

// Scan builds the alerts for every non-null expiration on or before
// today+horizon, sorted by expiration date. Equal dates keep input order:
// drivers first, then vehicles field by field.
func Scan(drivers []models.Driver, vehicles []models.Vehicle, today time.Time, horizon int) []Alert {
	today = dateOf(today)
	limit := today.AddDate(0, 0, horizon)

	var out []Alert
	for _, d := range drivers {
		if d.LicenseExpiresOn == nil || dateOf(*d.LicenseExpiresOn).After(limit) {
			continue
		}
		a := newAlert(DriverLicense, d.ID, *d.LicenseExpiresOn, today)
		a.Name = d.FullName
		a.DocumentNumber = d.DocumentNumber
		out = append(out, a)
	}
	for _, v := range vehicles {
		for _, f := range vehicleFields(v) {
			if f.date == nil || dateOf(*f.date).After(limit) {
				continue
			}
			a := newAlert(f.source, v.ID, *f.date, today)
			a.Plate = v.Plate
			a.Description = v.Description()
			out = append(out, a)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiresOn.Before(out[j].ExpiresOn)
	})
	return out
}

// Engine runs Scan against a tenant's stored drivers and vehicles.
type Engine struct {
	store store.Store
	loc   *time.Location
	now   func() time.Time
}

func NewEngine(s store.Store, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: s, loc: loc, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Today is the current calendar day in the engine's time zone.
func (e *Engine) Today() time.Time {
	return dateOf(e.now().In(e.loc))
}

func (e *Engine) ForTenant(ctx context.Context, tenantID uint, horizon int) ([]Alert, error) {
	today := e.Today()
	limit := today.AddDate(0, 0, horizon)

	drivers, err := e.store.Drivers().List(ctx, tenantID, store.DriverFilter{LicenseExpiresBy: &limit})
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	vehicles, err := e.store.Vehicles().List(ctx, tenantID, store.VehicleFilter{})
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return Scan(drivers, vehicles, today, horizon), nil
}

// ParseHorizon reads the dias query value. Anything that is not a
// non-negative integer falls back to DefaultHorizon.
func ParseHorizon(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultHorizon
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return DefaultHorizon
	}
	return n
}

func relativePhrase(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("expired %d days ago", -days)
	case days == 0:
		return "expires today"
	}
	return fmt.Sprintf("expires in %d days", days)
}

// Message renders an alert as one dashboard line.
func Message(a Alert) string {
	if a.Origin == OriginDriver {
		return fmt.Sprintf("License of %s (doc. %s) %s.", a.Name, a.DocumentNumber, relativePhrase(a.DaysRemaining))
	}
	return fmt.Sprintf("%s of vehicle %s %s.", a.Label, a.Plate, relativePhrase(a.DaysRemaining))
}

// Summary renders the first DashboardLimit alerts.
func Summary(alerts []Alert) []string {
	if len(alerts) > DashboardLimit {
		alerts = alerts[:DashboardLimit]
	}
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, Message(a))
	}
	return out
}
