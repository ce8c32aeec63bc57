package handler

import (
	"encoding/json"
	"net/http"

	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/delivery/http/middleware"
	"care-booking-marketplace/internal/usecase"
	"care-booking-marketplace/pkg/response"
	"care-booking-marketplace/pkg/validator"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// CreateBooking requests a visit at a specific time
// @Summary Create a booking
// @Description Anonymous callers book as the guest patient. A rejected time answers 409 with the reason and alternatives.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.CreateBooking(r.Context(), middleware.GetCallerIdentity(r.Context()), &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create booking")
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", booking)
}

// ListBookings returns the caller's bookings, as a provider with ?for=provider
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	asProvider := r.URL.Query().Get("for") == "provider"

	bookings, err := h.bookingUsecase.ListBookings(r.Context(), middleware.GetCallerIdentity(r.Context()), asProvider)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := h.bookingUsecase.GetBooking(r.Context(), middleware.GetCallerIdentity(r.Context()), bookingID)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking retrieved successfully", booking)
}

// UpdateBooking changes the status or the intake details of a booking
// @Summary Update a booking
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateBookingRequest true "Update Booking Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings/{id} [patch]
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req dto.UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.UpdateBooking(r.Context(), middleware.GetCallerIdentity(r.Context()), bookingID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to update booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking updated successfully", booking)
}

func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	if err := h.bookingUsecase.DeleteBooking(r.Context(), middleware.GetCallerIdentity(r.Context()), bookingID); err != nil {
		writeUsecaseError(w, err, "Failed to delete booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking deleted successfully", nil)
}
