package controllers

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/accounts"
)

// Contact relays the public contact form to the support mailbox.
func (h *Handler) Contact(c *gin.Context) {
	var input accounts.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, err.Error())
		return
	}
	if err := h.Accounts.Contact(c.Request.Context(), input); err != nil {
		FailResponse(c, err)
		return
	}
	OKResponse(c, "Thanks for writing, we will get back to you soon.", nil)
}
