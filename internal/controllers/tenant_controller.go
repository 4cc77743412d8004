package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fleetops/internal/apperrors"
	"fleetops/internal/middleware"
	"fleetops/internal/models"
)

// GetCompany returns the caller's tenant.
func (h *Handler) GetCompany(c *gin.Context) {
	t, err := h.Store.Tenants().Get(c.Request.Context(), tenant(c))
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", t)
}

// UpdateCompany modifies the tenant's details. Only its administrator may
// call it.
func (h *Handler) UpdateCompany(c *gin.Context) {
	ctx := c.Request.Context()
	m, err := h.Store.Users().GetMembership(ctx, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			err = apperrors.ErrForbidden
		}
		FailResponse(c, err)
		return
	}
	if !m.IsTenantAdmin || m.TenantID != tenant(c) {
		FailResponse(c, apperrors.ErrForbidden)
		return
	}

	t, err := h.Store.Tenants().Get(ctx, m.TenantID)
	if err != nil {
		FailResponse(c, err)
		return
	}

	var input struct {
		Name    *string `json:"name"`
		TaxID   *string `json:"tax_id"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
		Email   *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	setString(input.Name, &t.Name)
	setString(input.TaxID, &t.TaxID)
	setString(input.Address, &t.Address)
	setString(input.Phone, &t.Phone)
	setString(input.Email, &t.Email)

	v := &apperrors.ValidationError{}
	required(v, "name", t.Name)
	required(v, "tax_id", t.TaxID)
	if err := v.OrNil(); err != nil {
		FailResponse(c, err)
		return
	}

	if err := h.Store.Tenants().Update(ctx, t); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Company updated successfully.", t)
}

// companyView is used where the tenant is embedded in other answers.
func companyView(t *models.Tenant) gin.H {
	if t == nil {
		return nil
	}
	return gin.H{"id": t.ID, "name": t.Name, "tax_id": t.TaxID}
}
