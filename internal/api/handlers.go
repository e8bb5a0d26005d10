package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bc-dunia/loadhog/internal/auth"
	"github.com/bc-dunia/loadhog/internal/hog"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w, r.Method, "POST")
		return
	}
	if !s.requireOperator(w, r) {
		return
	}

	// The body is the raw parameter object itself. Missing or empty
	// bodies mean "all defaults"; malformed JSON is still rejected.
	raw := map[string]interface{}{}
	err := json.NewDecoder(limitedBody(w, r)).Decode(&raw)
	if err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, &ErrorResponse{
			ErrorType:    ErrorTypeInvalidArgument,
			ErrorCode:    ErrorCodeInvalidRequest,
			ErrorMessage: "Invalid JSON request body",
			Details:      map[string]interface{}{"parse_error": err.Error()},
		})
		return
	}

	result, err := s.controller.Start(raw)
	if err != nil {
		if hog.IsSpawnFailed(err) {
			s.writeError(w, http.StatusServiceUnavailable, &ErrorResponse{
				ErrorType:    ErrorTypeUnavailable,
				ErrorCode:    ErrorCodeSpawnFailed,
				ErrorMessage: err.Error(),
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, &ErrorResponse{
			ErrorType:    ErrorTypeInternal,
			ErrorCode:    ErrorCodeInternal,
			ErrorMessage: err.Error(),
		})
		return
	}

	if s.metrics != nil {
		s.metrics.RecordStart(r.Context(), result.Config.MemoryMB, result.Config.Intensity)
	}

	s.writeJSON(w, http.StatusOK, &StartResponse{StartResult: result})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w, r.Method, "POST")
		return
	}
	if !s.requireOperator(w, r) {
		return
	}

	result := s.controller.Stop()
	s.writeJSON(w, http.StatusOK, &StopResponse{StopResult: result})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, r.Method, "GET")
		return
	}

	result := s.controller.Status()
	resp := &StatusResponse{StatusResult: result}

	if s.sampler != nil && result.Status == hog.StatusRunning {
		sample := s.sampler.Last()
		if sample.Timestamp > 0 {
			resp.Usage = &sample
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireOperator enforces the operator role on mutating endpoints when
// auth is enabled.
func (s *Server) requireOperator(w http.ResponseWriter, r *http.Request) bool {
	if s.authConfig == nil || s.authConfig.Mode == auth.AuthModeNone {
		return true
	}
	if !auth.HasAnyRole(r.Context(), auth.RoleAdmin, auth.RoleOperator) {
		s.writeError(w, http.StatusForbidden, &ErrorResponse{
			ErrorType:    ErrorTypeForbidden,
			ErrorCode:    "INSUFFICIENT_PERMISSIONS",
			ErrorMessage: "This action requires operator or admin role",
		})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, errResp *ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errResp)
}

func (s *Server) writeMethodNotAllowed(w http.ResponseWriter, method, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, &ErrorResponse{
		ErrorType:    ErrorTypeInvalidArgument,
		ErrorCode:    ErrorCodeMethodNotAllowed,
		ErrorMessage: "Method not allowed",
		Details: map[string]interface{}{
			"method":  method,
			"allowed": allowed,
		},
	})
}

func limitedBody(w http.ResponseWriter, r *http.Request) io.Reader {
	return http.MaxBytesReader(w, r.Body, maxRequestBodySize)
}
