package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/studytrackhq/studytrack-api/pkg/errors"
)

// Envelope is the uniform response contract for every endpoint:
// {success, data?, count?, message?}. Clients rely on success and the HTTP
// status, never on matching the message string.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Success: true, Data: data})
}

// List sends a success response carrying a collection and its count.
func List(c *gin.Context, data interface{}, count int) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Message sends a success response with no data payload.
func Message(c *gin.Context, message string) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// Error sends an error response converting the error to the common structure.
// Raw internal errors never escape: anything untyped becomes a 500 envelope.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Success: false, Message: appErr.Message})
}
