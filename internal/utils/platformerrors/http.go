package platformerrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPErrorResponse is the standard error response body.
type HTTPErrorResponse struct {
	Error *HTTPErrorDetail `json:"error"`
}

// HTTPErrorDetail contains error details for HTTP responses.
type HTTPErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// WriteError writes an error as an HTTP response. PlatformErrors map to
// their taxonomy status; anything else is treated as internal.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	if err == nil {
		c.JSON(http.StatusInternalServerError, HTTPErrorResponse{
			Error: &HTTPErrorDetail{Message: "unknown error", Code: Code(ErrorTypeInternal)},
		})
		return
	}

	if platformErr := Get(err); platformErr != nil {
		log.Warn().Err(platformErr).Str("layer", string(platformErr.Layer)).Msg("request failed")
		c.JSON(ToHTTPStatus(platformErr.Type), HTTPErrorResponse{
			Error: &HTTPErrorDetail{Message: platformErr.Message, Code: Code(platformErr.Type)},
		})
		return
	}

	log.Error().Err(err).Msg("request failed")
	c.JSON(http.StatusInternalServerError, HTTPErrorResponse{
		Error: &HTTPErrorDetail{Message: err.Error(), Code: Code(ErrorTypeInternal)},
	})
}

// WriteValidationError writes a 400 Bad Request response.
func WriteValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, HTTPErrorResponse{
		Error: &HTTPErrorDetail{Message: message, Code: Code(ErrorTypeValidation)},
	})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, HTTPErrorResponse{
		Error: &HTTPErrorDetail{Message: message, Code: Code(ErrorTypeNotFound)},
	})
}
