package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
	"fleetops/internal/store"
)

type vehicleInput struct {
	Plate                           *string `json:"plate"`
	Make                            *string `json:"make"`
	Line                            *string `json:"line"`
	ModelYear                       *int    `json:"model_year"`
	PassengerCapacity               *int    `json:"passenger_capacity"`
	SOATExpiresOn                   *string `json:"soat_expires_on"`
	TechInspectionExpiresOn         *string `json:"tech_inspection_expires_on"`
	ContractualPolicyExpiresOn      *string `json:"contractual_policy_expires_on"`
	ExtracontractualPolicyExpiresOn *string `json:"extracontractual_policy_expires_on"`
	Active                          *bool   `json:"active"`
}

func (in vehicleInput) apply(veh *models.Vehicle) error {
	v := &apperrors.ValidationError{}
	if in.Plate != nil {
		veh.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(*in.Plate), " ", ""))
	}
	setString(in.Make, &veh.Make)
	setString(in.Line, &veh.Line)
	if in.ModelYear != nil {
		veh.ModelYear = *in.ModelYear
	}
	if in.PassengerCapacity != nil {
		veh.PassengerCapacity = *in.PassengerCapacity
	}
	setDate(v, "soat_expires_on", in.SOATExpiresOn, &veh.SOATExpiresOn)
	setDate(v, "tech_inspection_expires_on", in.TechInspectionExpiresOn, &veh.TechInspectionExpiresOn)
	setDate(v, "contractual_policy_expires_on", in.ContractualPolicyExpiresOn, &veh.ContractualPolicyExpiresOn)
	setDate(v, "extracontractual_policy_expires_on", in.ExtracontractualPolicyExpiresOn, &veh.ExtracontractualPolicyExpiresOn)
	if in.Active != nil {
		veh.Active = *in.Active
	}

	required(v, "plate", veh.Plate)
	if len(veh.Plate) > 10 {
		v.Add("plate", "at most 10 characters")
	}
	required(v, "make", veh.Make)
	if veh.ModelYear <= 0 {
		v.Add("model_year", "must be a positive year")
	}
	if veh.PassengerCapacity <= 0 {
		v.Add("passenger_capacity", "must be greater than zero")
	}
	return v.OrNil()
}

// ListVehicles supports q (plate, make or line) and estado.
func (h *Handler) ListVehicles(c *gin.Context) {
	vehicles, err := h.Store.Vehicles().List(c.Request.Context(), tenant(c), store.VehicleFilter{
		Query:  c.Query("q"),
		Active: activeFilter(c),
	})
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", vehicles)
}

func (h *Handler) GetVehicle(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	v, err := h.Store.Vehicles().Get(c.Request.Context(), tenant(c), id)
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", v)
}

// CreateVehicle answers 409 when the plate is already registered by any
// tenant.
func (h *Handler) CreateVehicle(c *gin.Context) {
	var input vehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	v := models.Vehicle{TenantID: tenant(c), Active: true}
	if err := input.apply(&v); err != nil {
		FailResponse(c, err)
		return
	}
	if err := h.Store.Vehicles().Create(c.Request.Context(), &v); err != nil {
		FailResponse(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"tenant_id": v.TenantID, "plate": v.Plate}).Info("vehicle created")
	CreatedResponse(c, "Vehicle created successfully.", v)
}

func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	ctx := c.Request.Context()
	v, err := h.Store.Vehicles().Get(ctx, tenant(c), id)
	if err != nil {
		FailResponse(c, err)
		return
	}
	var input vehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	if err := input.apply(v); err != nil {
		FailResponse(c, err)
		return
	}
	if err := h.Store.Vehicles().Update(ctx, v); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Vehicle updated successfully.", v)
}

func (h *Handler) DeleteVehicle(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		FailResponse(c, err)
		return
	}
	if err := h.Store.Vehicles().Delete(c.Request.Context(), tenant(c), id); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Vehicle deleted.", nil)
}
