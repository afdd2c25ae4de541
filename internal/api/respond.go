package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/stakewake/internal/engine"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error","code":"INTERNAL"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, errorBody{Error: message, Code: code})
}

// statusFor maps an engine rejection to an HTTP status.
func statusFor(code engine.ErrorCode) int {
	switch code {
	case engine.ErrCodeInvalidAmount,
		engine.ErrCodeInvalidDuration,
		engine.ErrCodeInvalidWakeUpTime,
		engine.ErrCodeIncorrectDeposit,
		engine.ErrCodeTooFewParticipants,
		engine.ErrCodeInvalidParticipants,
		engine.ErrCodeInvalidIdentity:
		return http.StatusBadRequest
	case engine.ErrCodeNotFound:
		return http.StatusNotFound
	case engine.ErrCodeUnauthorized:
		return http.StatusForbidden
	case engine.ErrCodeNotParticipant:
		return http.StatusUnprocessableEntity
	case engine.ErrCodeNotActive,
		engine.ErrCodeDuplicateConfirmation,
		engine.ErrCodeTooEarly,
		engine.ErrCodeMissedDeadline:
		return http.StatusConflict
	case engine.ErrCodeTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithEngineError writes err and counts typed rejections.
func (s *Server) respondWithEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var ee *engine.Error
	if !errors.As(err, &ee) {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveRejection(string(ee.Code))
	}
	respondWithError(w, statusFor(ee.Code), string(ee.Code), ee.Message)
}
