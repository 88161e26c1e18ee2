package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"outreach/internal/campaign"
	"outreach/internal/control"
	"outreach/internal/launch"
)

type successResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Status string       `json:"status"`
	Error  errorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successResponse{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string) {
	writeJSON(w, status, errorResponse{Status: "error", Error: errorPayload{Code: code, Message: message, RequestID: requestID}})
}

func mapDomainError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, campaign.ErrNotFound), errors.Is(err, launch.ErrUnknownLaunch), errors.Is(err, control.ErrNoSelection):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, campaign.ErrAlreadyLaunching):
		return http.StatusConflict, "already_launching"
	case errors.Is(err, campaign.ErrCampaignBusy):
		return http.StatusConflict, "campaign_busy"
	case errors.Is(err, campaign.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, campaign.ErrDuplicateID):
		return http.StatusConflict, "conflict"
	case errors.Is(err, campaign.ErrInvalidStep), errors.Is(err, campaign.ErrInvalidThrottle),
		errors.Is(err, campaign.ErrIndexOutOfRange), errors.Is(err, errInvalidInput):
		return http.StatusUnprocessableEntity, "invalid_input"
	case errors.Is(err, launch.ErrLaunchTimeout):
		return http.StatusGatewayTimeout, "launch_timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusConflict, "launch_cancelled"
	case errors.Is(err, launch.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
