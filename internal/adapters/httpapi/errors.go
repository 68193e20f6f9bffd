package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"github.com/rs/zerolog/log"

	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
)

type envelope struct {
	Success bool       `json:"success"`
	Payload any        `json:"payload,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePayload(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, envelope{Success: true, Payload: payload})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	body := &errorBody{Code: code, Message: message}
	if details != nil {
		body.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		body.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, envelope{Success: false, Error: body})
}

// writeAppError maps an application error to its status. The cause is logged, never sent.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)

	message := "internal error"
	var details map[string]any
	if ae, ok := apperr.As(err); ok {
		if ae.Message != "" {
			message = ae.Message
		}
		details = ae.Details
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("kind", string(kind)).
			Msg("request failed")
		details = nil
	}
	writeError(w, r, status, string(kind), message, details)
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound, apperr.UnknownUser:
		return http.StatusNotFound
	case apperr.DuplicateEmail, apperr.EmptyItinerary:
		return http.StatusConflict
	case apperr.BadCredentials:
		return http.StatusUnauthorized
	case apperr.NotAuthorized:
		return http.StatusForbidden
	case apperr.InvalidInput, apperr.ImageDecodeError:
		return http.StatusUnprocessableEntity
	case apperr.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
