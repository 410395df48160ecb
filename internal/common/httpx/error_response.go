package httpx

import (
	"net/http"
	"plan-beyond-server/internal/common"

	"github.com/gin-gonic/gin"
)

// WriteServiceError writes a standardized {success:false, message} response for service-layer errors.
func WriteServiceError(c *gin.Context, err error, fallbackMessage string) {
	if serviceErr, ok := common.AsServiceError(err); ok {
		c.JSON(ServiceErrorStatus(serviceErr.Code), gin.H{"success": false, "message": serviceErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallbackMessage})
}

// WriteError writes a failure payload with an explicit status.
func WriteError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func ServiceErrorStatus(code common.ErrorCode) int {
	switch code {
	case common.ErrorCodeValidation, common.ErrorCodeRejected:
		return http.StatusBadRequest
	case common.ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case common.ErrorCodeForbidden:
		return http.StatusForbidden
	case common.ErrorCodeConflict:
		return http.StatusConflict
	case common.ErrorCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
