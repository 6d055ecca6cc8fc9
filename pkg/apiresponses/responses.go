// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package apiresponses

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the JSON error body.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// InternalErrorMessage is the only detail a client ever sees for a 500.
const InternalErrorMessage = "Internal error"

// RespondBadRequest sends a 400 with a message and a machine-readable code,
// e.g. INVALID_FORMAT.
func RespondBadRequest(c *gin.Context, message, code string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, APIError{
		Error: message,
		Code:  code,
	})
}

// RespondInvalidJSON sends the plain-text 400 used for unparsable bodies.
func RespondInvalidJSON(c *gin.Context) {
	c.Abort()
	c.String(http.StatusBadRequest, "Invalid JSON")
}

// RespondInternalError sends the generic 500. Error responses are never
// cached.
func RespondInternalError(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{Error: InternalErrorMessage})
}

func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// BindJSON decodes the request body into obj. On failure it sends the
// Invalid JSON response and returns false.
func BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondInvalidJSON(c)
		return false
	}
	return true
}
