package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fleetops/internal/accounts"
	"fleetops/internal/alerts"
	"fleetops/internal/apperrors"
	"fleetops/internal/fuec"
	"fleetops/internal/middleware"
	"fleetops/internal/store"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Handler holds the dependencies of the HTTP controllers.
type Handler struct {
	Store    store.Store
	Accounts *accounts.Service
	Alerts   *alerts.Engine
	FUEC     *fuec.Generator
}

func NewHandler(s store.Store, acc *accounts.Service, eng *alerts.Engine, gen *fuec.Generator) *Handler {
	return &Handler{Store: s, Accounts: acc, Alerts: eng, FUEC: gen}
}

// tenant is the caller's tenant, set by RequireAuth.
func tenant(c *gin.Context) uint {
	return middleware.TenantID(c)
}

// pathID parses the :id parameter. Malformed IDs are reported as not found
// like any other ID outside the caller's tenant.
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrNotFound
	}
	return uint(id), nil
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// setDate applies an optional date field: nil leaves it alone, "" clears it.
func setDate(v *apperrors.ValidationError, field string, raw *string, dst **time.Time) {
	if raw == nil {
		return
	}
	t, err := parseDate(*raw)
	if err != nil {
		v.Add(field, "use the YYYY-MM-DD format")
		return
	}
	*dst = t
}

func setString(raw *string, dst *string) {
	if raw != nil {
		*dst = strings.TrimSpace(*raw)
	}
}

func required(v *apperrors.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "this field is required")
	}
}

// activeFilter reads estado=activos|inactivos.
func activeFilter(c *gin.Context) *bool {
	var active bool
	switch strings.ToLower(strings.TrimSpace(c.Query("estado"))) {
	case "activos", "active":
		active = true
	case "inactivos", "inactive":
		active = false
	default:
		return nil
	}
	return &active
}
