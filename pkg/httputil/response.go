package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mentorlink/mentor-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: "success", Data: data})
}

// RespondWithCreated sends a success response with 201
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: "success", Data: data})
}

// BindOptionalJSON binds the request body when one is present. Requests
// whose fields are all optional may omit the body entirely.
func BindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(obj)
}

// RespondWithError maps the error kind to a status code. Internal errors
// get a generic message; the cause is logged, not exposed.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.From(err)

	if appErr.Kind == errors.KindInternal {
		log.Error().
			Err(appErr.Err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("request failed")
	}

	c.JSON(appErr.StatusCode(), Response{
		Status:  "error",
		Message: appErr.Message,
	})
}
