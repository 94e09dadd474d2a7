package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/herdpool/herdpool/internal/adapter/http/dto"
	"github.com/herdpool/herdpool/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrParticipationNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrUnknownReference):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWalletExists),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrReferenceAlreadyUsed),
		errors.Is(err, domain.ErrGroupHasMembers):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrPaymentMismatch),
		errors.Is(err, domain.ErrVerificationFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrGroupNotPending),
		errors.Is(err, domain.ErrGroupNotJoinable),
		errors.Is(err, domain.ErrSlotsExceedAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotCreator),
		errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSlotCount),
		errors.Is(err, domain.ErrInvalidSlotPrice),
		errors.Is(err, domain.ErrInvalidEntryDirection),
		errors.Is(err, domain.ErrInvalidIntentAction),
		errors.Is(err, domain.ErrBelowMinimum):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
