package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are "<MODULE>_<NNN>"; ModuleForCode extracts the module part.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"

	CodeInternal           ErrorCode = "COMMON_001"
	CodeInvalidParam       ErrorCode = "COMMON_002"
	CodeNotFound           ErrorCode = "COMMON_005"
	CodeServiceUnavailable ErrorCode = "COMMON_008"
	CodeTimeout            ErrorCode = "COMMON_009"
	CodeValidation         ErrorCode = "COMMON_010"
	CodeSerialization      ErrorCode = "COMMON_011"
	CodeCacheError         ErrorCode = "COMMON_013"
	CodeExternalService    ErrorCode = "COMMON_014"
	CodeRateLimited        ErrorCode = "COMMON_015"
	CodeMethodNotAllowed   ErrorCode = "COMMON_016"
)

// Catalog error codes.
const (
	CodeCatalogLoad     ErrorCode = "CATALOG_001"
	CodeCatalogNotReady ErrorCode = "CATALOG_002"
	CodeCatalogEmpty    ErrorCode = "CATALOG_003"
)

// Regulation error codes.
const (
	CodeRegulationLoad ErrorCode = "REGULATION_001"
	CodeInvalidCode    ErrorCode = "REGULATION_002"
)

// Asset and messaging error codes.
const (
	CodeAssetNotFound ErrorCode = "ASSET_001"
	CodeAssetRead     ErrorCode = "ASSET_002"
	CodePublishFailed ErrorCode = "EVENT_001"
)

// ErrorCodeHTTPStatus maps codes to the HTTP status the API layer returns.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	CodeOK:                 http.StatusOK,
	CodeInternal:           http.StatusInternalServerError,
	CodeInvalidParam:       http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeTimeout:            http.StatusGatewayTimeout,
	CodeValidation:         http.StatusBadRequest,
	CodeSerialization:      http.StatusInternalServerError,
	CodeCacheError:         http.StatusInternalServerError,
	CodeExternalService:    http.StatusBadGateway,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeMethodNotAllowed:   http.StatusMethodNotAllowed,

	CodeCatalogLoad:     http.StatusServiceUnavailable,
	CodeCatalogNotReady: http.StatusServiceUnavailable,
	CodeCatalogEmpty:    http.StatusServiceUnavailable,

	CodeRegulationLoad: http.StatusServiceUnavailable,
	CodeInvalidCode:    http.StatusUnprocessableEntity,

	CodeAssetNotFound: http.StatusNotFound,
	CodeAssetRead:     http.StatusBadGateway,
	CodePublishFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps codes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	CodeInternal:           "internal server error",
	CodeInvalidParam:       "bad request",
	CodeNotFound:           "resource not found",
	CodeServiceUnavailable: "service unavailable",
	CodeTimeout:            "request timeout",
	CodeValidation:         "validation failed",
	CodeSerialization:      "serialization failed",
	CodeCacheError:         "cache error",
	CodeExternalService:    "external service error",
	CodeRateLimited:        "rate limit exceeded",
	CodeMethodNotAllowed:   "method not allowed",

	CodeCatalogLoad:     "failed to load additive catalog",
	CodeCatalogNotReady: "additive catalog is not ready",
	CodeCatalogEmpty:    "additive catalog has no usable records",

	CodeRegulationLoad: "failed to load regulation index",
	CodeInvalidCode:    "invalid regulation code",

	CodeAssetNotFound: "asset not found",
	CodeAssetRead:     "failed to read asset",
	CodePublishFailed: "failed to publish event",
}

// HTTPStatusForCode returns the HTTP status for code, 500 when unmapped.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError reports whether code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of code.
func ModuleForCode(code ErrorCode) string {
	parts := strings.SplitN(string(code), "_", 2)
	if len(parts) == 2 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
