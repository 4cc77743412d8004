package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleetops/internal/apperrors"
	"fleetops/internal/middleware"
)

// APIResponse is the envelope of every JSON answer.
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func OKResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{Success: false, Error: message})
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// FailResponse answers with the status matching err. Internal errors are
// logged and hidden from the caller.
func FailResponse(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)

	var v *apperrors.ValidationError
	if errors.As(err, &v) {
		c.JSON(status, APIResponse{Success: false, Error: "invalid input", Fields: v.Fields})
		return
	}
	if status == http.StatusInternalServerError {
		logrus.WithError(err).
			WithField("request_id", middleware.GetRequestID(c)).
			WithField("path", c.FullPath()).
			Error("request failed")
		ErrorResponse(c, status, "internal server error")
		return
	}
	ErrorResponse(c, status, err.Error())
}
