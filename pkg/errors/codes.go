package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeValidation         ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeCacheError         ErrorCode = "COMMON_007"
	ErrCodeExternalService    ErrorCode = "COMMON_008"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_009"
	ErrCodeTimeout            ErrorCode = "COMMON_010"
)

// Building selection error codes.
const (
	ErrCodeBuildingNotFound    ErrorCode = "BLD_001"
	ErrCodeBuildingConfigRange ErrorCode = "BLD_002"
)

// Solar data provider error codes.
const (
	ErrCodeSolarDataUnavailable ErrorCode = "SOL_001"
	ErrCodeSolarRateLimited     ErrorCode = "SOL_002"
	ErrCodeSolarAuthFailed      ErrorCode = "SOL_003"
	ErrCodeSolarParseError      ErrorCode = "SOL_004"
	ErrCodeSolarNoCoverage      ErrorCode = "SOL_005"
)

// Geocoding provider error codes.
const (
	ErrCodeGeocodeFailed      ErrorCode = "GEO_001"
	ErrCodeGeocodeNoResult    ErrorCode = "GEO_002"
	ErrCodeGeocodeRateLimited ErrorCode = "GEO_003"
)

// Aliases used at call sites for readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,

	ErrCodeBuildingNotFound:    http.StatusNotFound,
	ErrCodeBuildingConfigRange: http.StatusBadRequest,

	ErrCodeSolarDataUnavailable: http.StatusBadGateway,
	ErrCodeSolarRateLimited:     http.StatusTooManyRequests,
	ErrCodeSolarAuthFailed:      http.StatusBadGateway,
	ErrCodeSolarParseError:      http.StatusBadGateway,
	ErrCodeSolarNoCoverage:      http.StatusNotFound,

	ErrCodeGeocodeFailed:      http.StatusBadGateway,
	ErrCodeGeocodeNoResult:    http.StatusNotFound,
	ErrCodeGeocodeRateLimited: http.StatusTooManyRequests,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",

	ErrCodeBuildingNotFound:    "building not found",
	ErrCodeBuildingConfigRange: "panel configuration index out of range",

	ErrCodeSolarDataUnavailable: "solar data unavailable",
	ErrCodeSolarRateLimited:     "solar data provider rate limited",
	ErrCodeSolarAuthFailed:      "solar data provider authentication failed",
	ErrCodeSolarParseError:      "failed to parse solar data response",
	ErrCodeSolarNoCoverage:      "no solar data coverage for location",

	ErrCodeGeocodeFailed:      "geocoding failed",
	ErrCodeGeocodeNoResult:    "no geocoding result for query",
	ErrCodeGeocodeRateLimited: "geocoding provider rate limited",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
