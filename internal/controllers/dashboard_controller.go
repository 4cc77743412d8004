package controllers

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/alerts"
)

type dashboard struct {
	ActiveDrivers  int64    `json:"active_drivers"`
	ActiveVehicles int64    `json:"active_vehicles"`
	ServicesToday  int64    `json:"services_today"`
	Alerts         []string `json:"alerts"`
}

// Dashboard summarises the tenant: active drivers and vehicles, today's
// non-cancelled services and the most urgent expirations.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenant(c)

	var (
		out dashboard
		err error
	)
	if out.ActiveDrivers, err = h.Store.Drivers().CountActive(ctx, tenantID); err != nil {
		FailResponse(c, err)
		return
	}
	if out.ActiveVehicles, err = h.Store.Vehicles().CountActive(ctx, tenantID); err != nil {
		FailResponse(c, err)
		return
	}
	if out.ServicesToday, err = h.Store.Services().CountOn(ctx, tenantID, h.Alerts.Today()); err != nil {
		FailResponse(c, err)
		return
	}
	found, err := h.Alerts.ForTenant(ctx, tenantID, alerts.DefaultHorizon)
	if err != nil {
		FailResponse(c, err)
		return
	}
	out.Alerts = alerts.Summary(found)
	OKResponse(c, "", out)
}

// ListExpirations lists expired and expiring documents within dias days
// (default 30).
func (h *Handler) ListExpirations(c *gin.Context) {
	horizon := alerts.ParseHorizon(c.Query("dias"))
	found, err := h.Alerts.ForTenant(c.Request.Context(), tenant(c), horizon)
	if err != nil {
		FailResponse(c, err)
		return
	}
	if found == nil {
		found = []alerts.Alert{}
	}
	OKResponse(c, "", gin.H{
		"dias":   horizon,
		"today":  h.Alerts.Today().Format(dateLayout),
		"alerts": found,
	})
}
