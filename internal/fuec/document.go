// Package fuec builds the printable trip manifest (FUEC, Formato Único de
// Extracto del Contrato) for a service.
package fuec

import (
	"fmt"
	"strings"
	"time"

	"fleetops/internal/models"
)

const dateLayout = "2006-01-02"

type Field struct {
	Label string
	Value string
}

type Section struct {
	Title  string
	Fields []Field
}

// Document is the renderer-neutral manifest content.
type Document struct {
	Title    string
	Number   string
	Company  string
	Sections []Section
	Footer   string
}

// Filename is the attachment name for a service manifest.
func Filename(svc models.Service) string {
	return fmt.Sprintf("FUEC_%d_%s.pdf", svc.ID, svc.ServiceDate.Format(dateLayout))
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func schedule(svc models.Service) string {
	switch {
	case svc.StartTime != nil && svc.EndTime != nil:
		return *svc.StartTime + " - " + *svc.EndTime
	case svc.StartTime != nil:
		return *svc.StartTime
	}
	return "-"
}

// Build lays out the manifest. The service must carry its Driver and
// Vehicle.
func Build(tenant models.Tenant, svc models.Service, issuedOn time.Time) Document {
	d, v := svc.Driver, svc.Vehicle
	return Document{
		Title:   "FUEC - Extract of the transport contract",
		Number:  fmt.Sprintf("%06d", svc.ID),
		Company: tenant.Name,
		Sections: []Section{
			{Title: "Company", Fields: []Field{
				{"Name", tenant.Name},
				{"NIT", orDash(tenant.TaxID)},
				{"Address", orDash(tenant.Address)},
				{"Phone", orDash(tenant.Phone)},
				{"Email", orDash(tenant.Email)},
			}},
			{Title: "Service", Fields: []Field{
				{"Date", svc.ServiceDate.Format(dateLayout)},
				{"Schedule", schedule(svc)},
				{"Origin", svc.Origin},
				{"Destination", svc.Destination},
				{"Service type", orDash(svc.ServiceType)},
				{"Client", svc.ClientName},
				{"Client contact", orDash(svc.ClientContact)},
				{"Value", svc.Value.StringFixed(2)},
				{"Status", string(svc.Status)},
			}},
			{Title: "Driver", Fields: []Field{
				{"Name", d.FullName},
				{"Document", strings.TrimSpace(d.DocumentType + " " + d.DocumentNumber)},
				{"License", strings.TrimSpace(d.LicenseCategory + " " + d.LicenseNumber)},
				{"License expires", formatDate(d.LicenseExpiresOn)},
				{"Phone", orDash(d.Phone)},
			}},
			{Title: "Vehicle", Fields: []Field{
				{"Plate", v.Plate},
				{"Make / line", orDash(v.Description())},
				{"Model year", fmt.Sprint(v.ModelYear)},
				{"Capacity", fmt.Sprintf("%d passengers", v.PassengerCapacity)},
				{"SOAT", formatDate(v.SOATExpiresOn)},
				{"Technical inspection", formatDate(v.TechInspectionExpiresOn)},
				{"Contractual policy", formatDate(v.ContractualPolicyExpiresOn)},
				{"Extracontractual policy", formatDate(v.ExtracontractualPolicyExpiresOn)},
			}},
		},
		Footer: "Issued on " + issuedOn.Format(dateLayout),
	}
}
