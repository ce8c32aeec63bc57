package handler

import (
	"errors"
	"net/http"

	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/service"
	"care-booking-marketplace/internal/usecase"
	"care-booking-marketplace/pkg/response"
)

var badRequestErrors = []error{
	usecase.ErrInvalidRange,
	usecase.ErrInvalidDate,
	usecase.ErrInvalidTimeFormat,
	usecase.ErrInvalidWhen,
	usecase.ErrInvalidDuration,
	usecase.ErrBookingInPast,
	usecase.ErrInvalidAvailability,
	usecase.ErrInvalidStatus,
	usecase.ErrInvalidUpdate,
	usecase.ErrInvalidReferral,
	usecase.ErrInvalidRequestedStart,
	usecase.ErrLocationRequired,
	usecase.ErrInvalidAuditFilter,
}

var notFoundErrors = []error{
	usecase.ErrProviderNotFound,
	usecase.ErrBookingNotFound,
	usecase.ErrCareRequestNotFound,
	usecase.ErrAvailabilityEntryNotFound,
	usecase.ErrPatientNotFound,
	usecase.ErrAuditLogNotFound,
}

var conflictErrors = []error{
	usecase.ErrInvalidTransition,
	usecase.ErrBookingStatusChanged,
	usecase.ErrBookingNotDeletable,
	usecase.ErrBookingNotEditable,
}

// writeUsecaseError maps scheduling and booking errors to responses.
// Anything unrecognised, including store failures, is a 500 with fallback.
func writeUsecaseError(w http.ResponseWriter, err error, fallback string) {
	var conflict *usecase.ConflictError
	if errors.As(err, &conflict) {
		response.Conflict(w, conflict.Error(), dto.BookingConflictResponse{
			Message:      conflict.Error(),
			Reason:       string(conflict.Reason),
			Alternatives: conflict.Alternatives,
		})
		return
	}

	switch {
	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, err.Error())
		return
	case errors.Is(err, service.ErrLockTimeout):
		response.ServiceUnavailable(w, "Provider is busy, please retry")
		return
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			response.BadRequest(w, err.Error())
			return
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			response.NotFound(w, err.Error())
			return
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			response.Conflict(w, err.Error(), nil)
			return
		}
	}

	response.InternalServerError(w, fallback)
}
