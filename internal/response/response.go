package response

import (
	"github.com/gin-gonic/gin"
)

// SuccessResponse wraps a successful payload
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"requestId,omitempty"`
}

// ErrorBody is the error object inside ErrorResponse
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an error payload
type ErrorResponse struct {
	Error     interface{} `json:"error"`
	RequestID string      `json:"requestId,omitempty"`
}

// SendSuccess writes data with the given status code
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Data:      data,
		RequestID: requestID(c),
	})
}

// SendError writes an error body with the given status code
func SendError(c *gin.Context, statusCode int, code, message string) {
	SendErrorWithDetails(c, statusCode, code, message, nil)
}

// SendErrorWithDetails writes an error body carrying structured details
func SendErrorWithDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		RequestID: requestID(c),
	})
}

func requestID(c *gin.Context) string {
	if id, ok := c.Get("requestId"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return c.GetHeader("X-Request-ID")
}
