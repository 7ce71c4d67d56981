package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skytrip/internal/shared/apperrors"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a service error onto the standard envelope. Typed
// application errors carry their own HTTP status and details; anything else
// is reported as an internal error without leaking internals.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		RespondJSON(c, "error", appErr.HTTPStatus, appErr.Message, appErr.Details, appErr.Code)
		return
	}
	RespondJSON(c, "error", http.StatusInternalServerError, "internal server error", nil, nil)
}
