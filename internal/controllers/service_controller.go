package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
	"fleetops/internal/store"
)

type serviceInput struct {
	DriverID      *uint            `json:"driver_id"`
	VehicleID     *uint            `json:"vehicle_id"`
	ServiceDate   *string          `json:"service_date"` // YYYY-MM-DD
	StartTime     *string          `json:"start_time"`   // HH:MM, "" clears
	EndTime       *string          `json:"end_time"`
	Origin        *string          `json:"origin"`
	Destination   *string          `json:"destination"`
	ServiceType   *string          `json:"service_type"`
	ClientName    *string          `json:"client_name"`
	ClientContact *string          `json:"client_contact"`
	Value         *decimal.Decimal `json:"value"`
	Status        *string          `json:"status"`
}

func setClock(v *apperrors.ValidationError, field string, raw *string, dst **string) {
	if raw == nil {
		return
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		*dst = nil
		return
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		v.Add(field, "use the HH:MM format")
		return
	}
	s = t.Format(timeLayout)
	*dst = &s
}

// apply copies the payload onto svc and checks the record is complete.
func (in serviceInput) apply(svc *models.Service) *apperrors.ValidationError {
	v := &apperrors.ValidationError{}
	if in.DriverID != nil {
		svc.DriverID = *in.DriverID
	}
	if in.VehicleID != nil {
		svc.VehicleID = *in.VehicleID
	}
	if in.ServiceDate != nil {
		d, err := parseDate(*in.ServiceDate)
		switch {
		case err != nil:
			v.Add("service_date", "use the YYYY-MM-DD format")
		case d != nil:
			svc.ServiceDate = *d
		default:
			svc.ServiceDate = time.Time{}
		}
	}
	setClock(v, "start_time", in.StartTime, &svc.StartTime)
	setClock(v, "end_time", in.EndTime, &svc.EndTime)
	setString(in.Origin, &svc.Origin)
	setString(in.Destination, &svc.Destination)
	setString(in.ServiceType, &svc.ServiceType)
	setString(in.ClientName, &svc.ClientName)
	setString(in.ClientContact, &svc.ClientContact)
	if in.Value != nil {
		svc.Value = *in.Value
	}
	if in.Status != nil {
		svc.Status = models.ServiceStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
	}

	if svc.DriverID == 0 {
		v.Add("driver_id", "this field is required")
	}
	if svc.VehicleID == 0 {
		v.Add("vehicle_id", "this field is required")
	}
	if svc.ServiceDate.IsZero() && v.Fields["service_date"] == "" {
		v.Add("service_date", "this field is required")
	}
	required(v, "origin", svc.Origin)
	required(v, "destination", svc.Destination)
	required(v, "client_name", svc.ClientName)
	if svc.Value.IsNegative() {
		v.Add("value", "cannot be negative")
	}
	if !svc.Status.Valid() {
		v.Add("status", "must be one of SCHEDULED, IN_PROGRESS, COMPLETED, CANCELLED")
	}
	// HH:MM strings order the same way as the times they encode.
	if svc.StartTime != nil && svc.EndTime != nil && *svc.EndTime < *svc.StartTime {
		v.Add("end_time", "cannot be earlier than the start time")
	}
	return v
}

// checkAssignments requires the driver and vehicle to be active members of
// the tenant.
func (h *Handler) checkAssignments(ctx context.Context, v *apperrors.ValidationError, tenantID uint, in serviceInput, svc *models.Service) error {
	if in.DriverID != nil && svc.DriverID != 0 {
		d, err := h.Store.Drivers().Get(ctx, tenantID, svc.DriverID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			v.Add("driver_id", "select an active driver of your company")
		case err != nil:
			return err
		case !d.Active:
			v.Add("driver_id", "select an active driver of your company")
		}
	}
	if in.VehicleID != nil && svc.VehicleID != 0 {
		veh, err := h.Store.Vehicles().Get(ctx, tenantID, svc.VehicleID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			v.Add("vehicle_id", "select an active vehicle of your company")
		case err != nil:
			return err
		case !veh.Active:
			v.Add("vehicle_id", "select an active vehicle of your company")
		}
	}
	return nil
}

func queryID(c *gin.Context, key string) (uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Invalid(key, "must be a numeric id")
	}
	return uint(id), nil
}

func serviceFilter(c *gin.Context) (store.ServiceFilter, error) {
	v := &apperrors.ValidationError{}
	f := store.ServiceFilter{Query: strings.TrimSpace(c.Query("q"))}

	if raw := strings.TrimSpace(c.Query("estado")); raw != "" {
		f.Status = models.ServiceStatus(strings.ToUpper(raw))
		if !f.Status.Valid() {
			v.Add("estado", "unknown service status")
		}
	}
	from, err := parseDate(c.Query("desde"))
	if err != nil {
		v.Add("desde", "use the YYYY-MM-DD format")
	}
	to, err := parseDate(c.Query("hasta"))
	if err != nil {
		v.Add("hasta", "use the YYYY-MM-DD format")
	}
	f.From, f.To = from, to

	if f.DriverID, err = queryID(c, "conductor"); err != nil {
		v.Add("conductor", "must be a numeric id")
	}
	if f.VehicleID, err = queryID(c, "vehiculo"); err != nil {
		v.Add("vehiculo", "must be a numeric id")
	}
	return f, v.OrNil()
}

// ListServices filters by q (origin, destination, client), estado, desde,
// hasta, conductor and vehiculo.
func (h *Handler) ListServices(c *gin.Context) {
	f, err := serviceFilter(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	services, err := h.Store.Services().List(c.Request.Context(), tenant(c), f)
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", services)
}

func (h *Handler) GetService(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	svc, err := h.Store.Services().Get(c.Request.Context(), tenant(c), id)
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", svc)
}

func (h *Handler) CreateService(c *gin.Context) {
	var input serviceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	tenantID := tenant(c)

	svc := models.Service{TenantID: tenantID, Status: models.ServiceScheduled}
	v := input.apply(&svc)
	if err := h.checkAssignments(ctx, v, tenantID, input, &svc); err != nil {
		FailResponse(c, err)
		return
	}
	if err := v.OrNil(); err != nil {
		FailResponse(c, err)
		return
	}
	if err := h.Store.Services().Create(ctx, &svc); err != nil {
		FailResponse(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"tenant_id": tenantID, "service_id": svc.ID}).Info("service created")

	created, err := h.Store.Services().Get(ctx, tenantID, svc.ID)
	if err != nil {
		FailResponse(c, err)
		return
	}
	CreatedResponse(c, "Service created successfully.", created)
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	ctx := c.Request.Context()
	tenantID := tenant(c)

	svc, err := h.Store.Services().Get(ctx, tenantID, id)
	if err != nil {
		FailResponse(c, err)
		return
	}
	var input serviceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	v := input.apply(svc)
	if err := h.checkAssignments(ctx, v, tenantID, input, svc); err != nil {
		FailResponse(c, err)
		return
	}
	if err := v.OrNil(); err != nil {
		FailResponse(c, err)
		return
	}
	if err := h.Store.Services().Update(ctx, svc); err != nil {
		FailResponse(c, err)
		return
	}
	updated, err := h.Store.Services().Get(ctx, tenantID, id)
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Service updated successfully.", updated)
}

// DownloadFUEC sends the service manifest as a PDF attachment, or as an
// HTML preview with format=html.
func (h *Handler) DownloadFUEC(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	ctx := c.Request.Context()
	tenantID := tenant(c)

	svc, err := h.Store.Services().Get(ctx, tenantID, id)
	if err != nil {
		FailResponse(c, err)
		return
	}
	company, err := h.Store.Tenants().Get(ctx, tenantID)
	if err != nil {
		FailResponse(c, err)
		return
	}
	today := h.Alerts.Today()

	if c.Query("format") == "html" {
		page, err := h.FUEC.HTML(*company, *svc, today)
		if err != nil {
			FailResponse(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}

	file, err := h.FUEC.PDF(*company, *svc, today)
	if err != nil {
		c.JSON(apperrors.StatusCode(err), APIResponse{
			Success: false,
			Error:   "The FUEC PDF could not be generated.",
			Data:    gin.H{"service": fmt.Sprintf("/services/%d", svc.ID)},
		})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
