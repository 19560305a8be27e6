package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OperatorResponse is the envelope for the operator-facing API
type OperatorResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// MobileResponse is the envelope for the mobile API
type MobileResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// OK sends a successful operator response
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, OperatorResponse{Status: true, Message: message, Data: data})
}

// Created sends a 201 operator response
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, OperatorResponse{Status: true, Message: message, Data: data})
}

// Fail sends an operator error response
func Fail(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, OperatorResponse{Status: false, Message: message})
}

// BadRequest sends a 400 operator response
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 operator response
func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 operator response
func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, message)
}

// NotFound sends a 404 operator response
func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, message)
}

// InternalError sends a 500 operator response
func InternalError(c *gin.Context, message string) {
	Fail(c, http.StatusInternalServerError, message)
}

// MobileOK sends a successful mobile response
func MobileOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, MobileResponse{Status: "success", Message: message, Data: data})
}

// MobileError sends a mobile error response
func MobileError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, MobileResponse{Status: "error", Message: message})
}
