package alerts

import (
	"context"
	"sort"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"

	"fleetops/internal/models"
	"fleetops/internal/store"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

var today = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func TestScanExampleScenario(t *testing.T) {
	drivers := []models.Driver{
		{Model: modelID(1), FullName: "Ana Gómez", DocumentNumber: "1020304050", LicenseExpiresOn: day(2024, 5, 20)},
	}
	vehicles := []models.Vehicle{
		{
			Model: modelID(7), Plate: "ABC123", Make: "Chevrolet", Line: "NPR",
			SOATExpiresOn:           day(2024, 6, 25),
			TechInspectionExpiresOn: day(2024, 6, 1),
		},
	}

	got := Scan(drivers, vehicles, today, 30)

	want := []Alert{
		{
			Source: DriverLicense, Origin: OriginDriver, Label: "Driver's license", SubjectID: 1,
			Name: "Ana Gómez", DocumentNumber: "1020304050",
			ExpiresOn: *day(2024, 5, 20), DaysRemaining: -12, DaysText: 12, Status: StatusExpired,
		},
		{
			Source: VehicleTechInspection, Origin: OriginVehicle, Label: "Technical inspection", SubjectID: 7,
			Plate: "ABC123", Description: "Chevrolet NPR",
			ExpiresOn: *day(2024, 6, 1), DaysRemaining: 0, DaysText: 0, Status: StatusDueSoon,
		},
		{
			Source: VehicleSOAT, Origin: OriginVehicle, Label: "SOAT", SubjectID: 7,
			Plate: "ABC123", Description: "Chevrolet NPR",
			ExpiresOn: *day(2024, 6, 25), DaysRemaining: 24, DaysText: 24, Status: StatusDueSoon,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Scan mismatch (-want +got):\n%s", diff)
	}

	wantMsgs := []string{
		"License of Ana Gómez (doc. 1020304050) expired 12 days ago.",
		"Technical inspection of vehicle ABC123 expires today.",
		"SOAT of vehicle ABC123 expires in 24 days.",
	}
	if diff := cmp.Diff(wantMsgs, Summary(got)); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func modelID(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

func TestScanHorizonBoundaries(t *testing.T) {
	drivers := []models.Driver{
		{Model: modelID(1), FullName: "on the limit", LicenseExpiresOn: day(2024, 7, 1)},
		{Model: modelID(2), FullName: "one day past", LicenseExpiresOn: day(2024, 7, 2)},
		{Model: modelID(3), FullName: "no license date"},
	}
	got := Scan(drivers, nil, today, 30)
	if len(got) != 1 || got[0].SubjectID != 1 {
		t.Fatalf("expected only the driver expiring exactly at today+30, got %+v", got)
	}
	if got[0].DaysRemaining != 30 || got[0].Status != StatusDueSoon {
		t.Errorf("unexpected alert %+v", got[0])
	}
}

func TestScanNullDatesNeverAlert(t *testing.T) {
	drivers := []models.Driver{{Model: modelID(1), FullName: "Ana"}}
	vehicles := []models.Vehicle{{Model: modelID(2), Plate: "XYZ789"}}
	for _, h := range []int{0, 30, 365, 100000} {
		if got := Scan(drivers, vehicles, today, h); len(got) != 0 {
			t.Errorf("horizon %d: expected no alerts, got %d", h, len(got))
		}
	}
}

func TestScanVehicleWithAllFieldsExpired(t *testing.T) {
	v := models.Vehicle{
		Model: modelID(3), Plate: "QWE456", Make: "Renault",
		SOATExpiresOn:                   day(2024, 5, 1),
		TechInspectionExpiresOn:         day(2024, 5, 2),
		ContractualPolicyExpiresOn:      day(2024, 5, 3),
		ExtracontractualPolicyExpiresOn: day(2024, 5, 4),
	}
	got := Scan(nil, []models.Vehicle{v}, today, 30)
	if len(got) != 4 {
		t.Fatalf("expected 4 alerts, got %d", len(got))
	}
	sources := []Source{}
	for _, a := range got {
		if a.Status != StatusExpired {
			t.Errorf("%s: expected EXPIRED, got %s", a.Source, a.Status)
		}
		sources = append(sources, a.Source)
	}
	want := []Source{VehicleSOAT, VehicleTechInspection, VehicleContractualPolicy, VehicleExtracontractualPolicy}
	if diff := cmp.Diff(want, sources); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestScanInvariants(t *testing.T) {
	drivers := []models.Driver{
		{Model: modelID(1), FullName: "A", LicenseExpiresOn: day(2024, 8, 1)},
		{Model: modelID(2), FullName: "B", LicenseExpiresOn: day(2023, 12, 31)},
		{Model: modelID(3), FullName: "C", LicenseExpiresOn: day(2024, 6, 15)},
	}
	vehicles := []models.Vehicle{
		{Model: modelID(4), Plate: "P1", SOATExpiresOn: day(2024, 6, 15), ContractualPolicyExpiresOn: day(2024, 5, 31)},
		{Model: modelID(5), Plate: "P2", TechInspectionExpiresOn: day(2025, 1, 1), ExtracontractualPolicyExpiresOn: day(2024, 6, 2)},
	}

	for _, h := range []int{0, 1, 14, 30, 90, 400} {
		got := Scan(drivers, vehicles, today, h)
		if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].ExpiresOn.Before(got[j].ExpiresOn) }) {
			t.Errorf("horizon %d: alerts not sorted by date", h)
		}
		for _, a := range got {
			if want := int(a.ExpiresOn.Sub(*day(2024, 6, 1)).Hours() / 24); a.DaysRemaining != want {
				t.Errorf("horizon %d: %s days_remaining=%d want %d", h, a.Source, a.DaysRemaining, want)
			}
			if (a.Status == StatusExpired) != (a.DaysRemaining < 0) {
				t.Errorf("horizon %d: status %s inconsistent with %d days", h, a.Status, a.DaysRemaining)
			}
			if a.DaysText < 0 {
				t.Errorf("horizon %d: negative days text", h)
			}
		}
		if again := Scan(drivers, vehicles, today, h); !cmp.Equal(got, again) {
			t.Errorf("horizon %d: scan is not idempotent", h)
		}
	}
}

func TestScanKeepsInputOrderOnEqualDates(t *testing.T) {
	drivers := []models.Driver{{Model: modelID(1), FullName: "A", LicenseExpiresOn: day(2024, 6, 10)}}
	vehicles := []models.Vehicle{{Model: modelID(2), Plate: "P1", SOATExpiresOn: day(2024, 6, 10), TechInspectionExpiresOn: day(2024, 6, 10)}}
	got := Scan(drivers, vehicles, today, 30)
	var sources []Source
	for _, a := range got {
		sources = append(sources, a.Source)
	}
	if diff := cmp.Diff([]Source{DriverLicense, VehicleSOAT, VehicleTechInspection}, sources); diff != "" {
		t.Errorf("tie order (-want +got):\n%s", diff)
	}
}

func TestSummaryKeepsFirstFive(t *testing.T) {
	var drivers []models.Driver
	for i := 1; i <= 8; i++ {
		drivers = append(drivers, models.Driver{Model: modelID(uint(i)), FullName: "D", DocumentNumber: "1", LicenseExpiresOn: day(2024, 6, i)})
	}
	got := Summary(Scan(drivers, nil, today, 30))
	if len(got) != DashboardLimit {
		t.Fatalf("expected %d lines, got %d", DashboardLimit, len(got))
	}
	if got[0] != "License of D (doc. 1) expires today." {
		t.Errorf("unexpected first line %q", got[0])
	}
	if got[4] != "License of D (doc. 1) expires in 4 days." {
		t.Errorf("unexpected last line %q", got[4])
	}
}

func TestParseHorizon(t *testing.T) {
	cases := map[string]int{
		"":     30,
		"  ":   30,
		"abc":  30,
		"-5":   30,
		"12.5": 30,
		"0":    0,
		"60":   60,
		" 7 ":  7,
	}
	for in, want := range cases {
		if got := ParseHorizon(in); got != want {
			t.Errorf("ParseHorizon(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestEngineForTenantIsScoped(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	mine := models.Driver{TenantID: 1, FullName: "Mine", LicenseExpiresOn: day(2024, 6, 5)}
	theirs := models.Driver{TenantID: 2, FullName: "Theirs", LicenseExpiresOn: day(2024, 6, 5)}
	far := models.Driver{TenantID: 1, FullName: "Far", LicenseExpiresOn: day(2025, 6, 5)}
	vehicle := models.Vehicle{TenantID: 1, Plate: "ABC123", Make: "Chevrolet", SOATExpiresOn: day(2024, 6, 3)}
	for _, d := range []*models.Driver{&mine, &theirs, &far} {
		if err := s.Drivers().Create(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Vehicles().Create(ctx, &vehicle); err != nil {
		t.Fatal(err)
	}

	bogota, _ := time.LoadLocation("America/Bogota")
	// 02:00 UTC on June 2nd is still June 1st in Bogotá.
	engine := NewEngine(s, bogota).WithClock(func() time.Time {
		return time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC)
	})
	if got := engine.Today(); !got.Equal(*day(2024, 6, 1)) {
		t.Fatalf("Today() = %v", got)
	}

	got, err := engine.ForTenant(ctx, 1, 30)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"SOAT of vehicle ABC123 expires in 2 days.",
		"License of Mine (doc. ) expires in 4 days.",
	}
	if diff := cmp.Diff(want, Summary(got)); diff != "" {
		t.Errorf("ForTenant (-want +got):\n%s", diff)
	}
}
