package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
	"fleetops/internal/store"
)

// driverInput carries create and update payloads. Omitted fields are left
// unchanged on update.
type driverInput struct {
	FullName         *string `json:"full_name"`
	DocumentType     *string `json:"document_type"`
	DocumentNumber   *string `json:"document_number"`
	Phone            *string `json:"phone"`
	Email            *string `json:"email"`
	LicenseCategory  *string `json:"license_category"`
	LicenseNumber    *string `json:"license_number"`
	LicenseExpiresOn *string `json:"license_expires_on"` // YYYY-MM-DD, "" clears
	Active           *bool   `json:"active"`
}

func (in driverInput) apply(d *models.Driver) error {
	v := &apperrors.ValidationError{}
	setString(in.FullName, &d.FullName)
	setString(in.DocumentType, &d.DocumentType)
	setString(in.DocumentNumber, &d.DocumentNumber)
	setString(in.Phone, &d.Phone)
	setString(in.Email, &d.Email)
	setString(in.LicenseCategory, &d.LicenseCategory)
	setString(in.LicenseNumber, &d.LicenseNumber)
	setDate(v, "license_expires_on", in.LicenseExpiresOn, &d.LicenseExpiresOn)
	if in.Active != nil {
		d.Active = *in.Active
	}

	required(v, "full_name", d.FullName)
	required(v, "document_type", d.DocumentType)
	required(v, "document_number", d.DocumentNumber)
	required(v, "license_category", d.LicenseCategory)
	required(v, "license_number", d.LicenseNumber)
	return v.OrNil()
}

// ListDrivers supports q (name or document) and estado=activos|inactivos.
func (h *Handler) ListDrivers(c *gin.Context) {
	drivers, err := h.Store.Drivers().List(c.Request.Context(), tenant(c), store.DriverFilter{
		Query:  c.Query("q"),
		Active: activeFilter(c),
	})
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", drivers)
}

func (h *Handler) GetDriver(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	d, err := h.Store.Drivers().Get(c.Request.Context(), tenant(c), id)
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", d)
}

func (h *Handler) CreateDriver(c *gin.Context) {
	var input driverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	d := models.Driver{TenantID: tenant(c), Active: true}
	if err := input.apply(&d); err != nil {
		FailResponse(c, err)
		return
	}
	if err := h.Store.Drivers().Create(c.Request.Context(), &d); err != nil {
		FailResponse(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"tenant_id": d.TenantID, "driver_id": d.ID}).Info("driver created")
	CreatedResponse(c, "Driver created successfully.", d)
}

func (h *Handler) UpdateDriver(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	ctx := c.Request.Context()
	d, err := h.Store.Drivers().Get(ctx, tenant(c), id)
	if err != nil {
		FailResponse(c, err)
		return
	}
	var input driverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	if err := input.apply(d); err != nil {
		FailResponse(c, err)
		return
	}
	if err := h.Store.Drivers().Update(ctx, d); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Driver updated successfully.", d)
}

// DeleteDriver refuses with 409 while a service references the driver.
func (h *Handler) DeleteDriver(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	if err := h.Store.Drivers().Delete(c.Request.Context(), tenant(c), id); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Driver deleted.", nil)
}
