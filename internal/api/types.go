package api

import (
	"github.com/bc-dunia/loadhog/internal/hog"
	"github.com/bc-dunia/loadhog/internal/telemetry"
)

// StartResponse is the response body for POST /hog/v1/start.
type StartResponse struct {
	*hog.StartResult
}

// StopResponse is the response body for POST /hog/v1/stop.
type StopResponse struct {
	*hog.StopResult
}

// StatusResponse is the response body for GET /hog/v1/status. Usage is
// attached when a resource sampler is configured.
type StatusResponse struct {
	*hog.StatusResult
	Usage *telemetry.Sample `json:"usage,omitempty"`
}

// Error type constants for ErrorResponse.
const (
	ErrorTypeInvalidArgument = "invalid_argument"
	ErrorTypeForbidden       = "forbidden"
	ErrorTypeUnavailable     = "unavailable"
	ErrorTypeInternal        = "internal"
)

// Error code constants for ErrorResponse.
const (
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrorCodeInvalidRequest   = "INVALID_REQUEST"
	ErrorCodeSpawnFailed      = "SPAWN_FAILED"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON error envelope for all endpoints.
type ErrorResponse struct {
	ErrorType    string                 `json:"error_type"`
	ErrorCode    string                 `json:"error_code"`
	ErrorMessage string                 `json:"error_message"`
	Details      map[string]interface{} `json:"details,omitempty"`
}
