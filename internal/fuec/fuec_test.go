package fuec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
)

func sample() (models.Tenant, models.Service) {
	start, end := "07:30", "18:00"
	soat := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	tenant := models.Tenant{Name: "Rutek Tours", TaxID: "901000000-0", Address: "Bogotá"}
	svc := models.Service{
		Model:       gorm.Model{ID: 42},
		ServiceDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		StartTime:   &start,
		EndTime:     &end,
		Origin:      "Bogotá",
		Destination: "Villa de Leyva",
		ClientName:  "Colegio San José",
		Value:       decimal.RequireFromString("850000"),
		Status:      models.ServiceScheduled,
		Driver:      models.Driver{FullName: "Ana Gómez", DocumentType: "CC", DocumentNumber: "1020304050"},
		Vehicle:     models.Vehicle{Plate: "ABC123", Make: "Chevrolet", Line: "NPR", PassengerCapacity: 30, SOATExpiresOn: &soat},
	}
	return tenant, svc
}

func TestFilename(t *testing.T) {
	_, svc := sample()
	if got := Filename(svc); got != "FUEC_42_2024-06-15.pdf" {
		t.Errorf("Filename = %q", got)
	}
}

func TestBuild(t *testing.T) {
	tenant, svc := sample()
	doc := Build(tenant, svc, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	if doc.Number != "000042" || doc.Footer != "Issued on 2024-06-10" {
		t.Errorf("header/footer: %+v", doc)
	}
	values := map[string]string{}
	for _, s := range doc.Sections {
		for _, f := range s.Fields {
			values[s.Title+"/"+f.Label] = f.Value
		}
	}
	want := map[string]string{
		"Service/Schedule":           "07:30 - 18:00",
		"Service/Value":              "850000.00",
		"Driver/Document":            "CC 1020304050",
		"Vehicle/Make / line":        "Chevrolet NPR",
		"Vehicle/SOAT":               "2025-01-31",
		"Vehicle/Contractual policy": "-",
	}
	for k, v := range want {
		if values[k] != v {
			t.Errorf("%s = %q, want %q", k, values[k], v)
		}
	}
}

func TestPDF(t *testing.T) {
	tenant, svc := sample()
	f, err := NewGenerator(nil).PDF(tenant, svc, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(f.Content, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
	if f.Name != "FUEC_42_2024-06-15.pdf" || f.ContentType != "application/pdf" {
		t.Errorf("file metadata %q %q", f.Name, f.ContentType)
	}
}

type brokenRenderer struct{}

func (brokenRenderer) Render(Document) ([]byte, error) { return nil, errors.New("no fonts") }

func TestRenderFailure(t *testing.T) {
	tenant, svc := sample()
	if _, err := NewGenerator(brokenRenderer{}).PDF(tenant, svc, time.Now()); !errors.Is(err, apperrors.ErrRenderFailure) {
		t.Errorf("want ErrRenderFailure, got %v", err)
	}
}

func TestHTMLEscapes(t *testing.T) {
	tenant, svc := sample()
	svc.ClientName = "<script>x</script>"
	out, err := NewGenerator(nil).HTML(tenant, svc, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "<script>") {
		t.Error("client name not escaped")
	}
	if !strings.Contains(string(out), "Villa de Leyva") {
		t.Error("destination missing from preview")
	}
}
