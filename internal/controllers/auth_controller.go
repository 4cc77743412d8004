package controllers

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/accounts"
	"fleetops/internal/middleware"
)

func (h *Handler) Register(c *gin.Context) {
	var input accounts.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	res, err := h.Accounts.Register(c.Request.Context(), input)
	if err != nil {
		FailResponse(c, err)
		return
	}
	msg := "We sent a verification code to your email."
	if res.AutoActivated {
		msg = "Your account was created but the verification email could not be sent, so it was activated automatically."
	}
	CreatedResponse(c, msg, gin.H{
		"user":            res.User,
		"company":         companyView(res.Tenant),
		"is_tenant_admin": res.IsTenantAdmin,
		"auto_activated":  res.AutoActivated,
	})
}

func (h *Handler) Verify(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	res, err := h.Accounts.Verify(c.Request.Context(), body.Email, body.Code)
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Account verified. Welcome!", res)
}

// Login accepts the email or the username in the email field.
func (h *Handler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	identifier := body.Email
	if identifier == "" {
		identifier = body.Username
	}
	res, err := h.Accounts.Login(c.Request.Context(), identifier, body.Password, body.Remember)
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", res)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Accounts.Logout(c.Request.Context(), middleware.TokenID(c)); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Logged out.", nil)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.Accounts.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "", u)
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	if err := h.Accounts.RequestPasswordReset(c.Request.Context(), body.Email); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "If the email is registered, we sent a recovery code to it.", nil)
}

func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var input accounts.ConfirmResetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	if err := h.Accounts.ConfirmPasswordReset(c.Request.Context(), input); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Your password was updated. You can log in now.", nil)
}
