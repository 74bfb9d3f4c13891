// internal/api/response_helpers.go
package api

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/SeriesMoodRecap/internal/errors"
)

// APIResponse 统一API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper 响应助手类
type ResponseHelper struct{}

func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusOK, data, nil, message...)
}

// Created 创建成功响应
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusCreated, data, nil, message...)
}

// Error writes a failure envelope. data may carry the session state so the
// page can still render.
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, data interface{}) {
	rh.write(c, statusCode, data, &APIError{
		Code:    errorCode,
		Message: sanitizeErrorMessage(message),
	})
}

// AppError maps err to its status and code and writes it.
func (rh *ResponseHelper) AppError(c *gin.Context, err error, data interface{}) {
	status, code := statusFor(err)
	rh.Error(c, status, code, err.Error(), data)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string) {
	rh.Error(c, http.StatusBadRequest, ErrorValidation, message, nil)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string) {
	rh.Error(c, http.StatusNotFound, ErrorSessionNotFound, message, nil)
}

func (rh *ResponseHelper) write(c *gin.Context, status int, data interface{}, apiErr *APIError, message ...string) {
	response := &APIResponse{
		Success:   apiErr == nil,
		Data:      data,
		Error:     apiErr,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(status, response)
}

// getRequestID 获取请求ID
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

var credentialParam = regexp.MustCompile(`(?i)((?:api)?key=)[^&\s"]+`)

// sanitizeErrorMessage redacts credentials that slipped into a provider error.
func sanitizeErrorMessage(message string) string {
	return credentialParam.ReplaceAllString(message, "${1}REDACTED")
}

// statusFor maps an error from the flow to an HTTP status and API code.
func statusFor(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeEmptyQuery:
		return http.StatusBadRequest, ErrorEmptyQuery
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest, ErrorValidation
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound, ErrorSessionNotFound
	case apperrors.ErrorTypeSearch:
		return providerStatus(err), ErrorSearchFailed
	case apperrors.ErrorTypeDetail:
		return providerStatus(err), ErrorDetailFailed
	case apperrors.ErrorTypeRecapNoContent:
		return http.StatusBadGateway, ErrorRecapNoContent
	case apperrors.ErrorTypeRecapTransport:
		return http.StatusBadGateway, ErrorRecapTransport
	case apperrors.ErrorTypeRateLimited:
		return http.StatusTooManyRequests, ErrorRateLimitExceeded
	}
	if isSuperseded(err) {
		return http.StatusConflict, ErrorSuperseded
	}
	return http.StatusInternalServerError, ErrorInternalError
}

// providerStatus is 404 when the provider answered with a failure and 502
// when it could not be reached.
func providerStatus(err error) int {
	if apperrors.IsTransport(err) {
		return http.StatusBadGateway
	}
	return http.StatusNotFound
}
