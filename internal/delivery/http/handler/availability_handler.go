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

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	slotUsecase         usecase.SlotUsecase
	validator           *validator.CustomValidator
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, slotUsecase usecase.SlotUsecase, validator *validator.CustomValidator) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		slotUsecase:         slotUsecase,
		validator:           validator,
	}
}

func (h *AvailabilityHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	providerID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	entries, err := h.availabilityUsecase.ListAvailability(r.Context(), providerID)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", entries)
}

// CreateEntry adds a weekly window or a one-time exception
// @Summary Create an availability entry
// @Tags Availability
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Provider ID"
// @Param request body dto.CreateAvailabilityRequest true "Availability Entry"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /providers/{id}/availability [post]
func (h *AvailabilityHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	providerID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	var req dto.CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	entry, err := h.availabilityUsecase.CreateEntry(r.Context(), middleware.GetCallerIdentity(r.Context()), providerID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create availability entry")
		return
	}

	response.Success(w, http.StatusCreated, "Availability entry created successfully", entry)
}

func (h *AvailabilityHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	providerID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}
	entryID, err := pathUUID(r, "entryId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid availability entry ID", nil)
		return
	}

	if err := h.availabilityUsecase.DeleteEntry(r.Context(), middleware.GetCallerIdentity(r.Context()), providerID, entryID); err != nil {
		writeUsecaseError(w, err, "Failed to delete availability entry")
		return
	}

	response.Success(w, http.StatusOK, "Availability entry deleted successfully", nil)
}

// GetSlots lists bookable start times per date
// @Summary List available slots
// @Tags Availability
// @Produce json
// @Param id path string true "Provider ID"
// @Param from_date query string true "YYYY-MM-DD"
// @Param to_date query string true "YYYY-MM-DD"
// @Param duration query int false "Minutes, default 60"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /providers/{id}/slots [get]
func (h *AvailabilityHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	providerID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	duration, err := queryInt(r, "duration", 60)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid duration", nil)
		return
	}

	query := dto.SlotQuery{
		FromDate:        r.URL.Query().Get("from_date"),
		ToDate:          r.URL.Query().Get("to_date"),
		DurationMinutes: duration,
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	slots, err := h.slotUsecase.GetAvailableSlots(r.Context(), providerID, query.FromDate, query.ToDate, query.DurationMinutes)
	if err != nil {
		writeUsecaseError(w, err, "Failed to compute slots")
		return
	}

	response.Success(w, http.StatusOK, "Slots retrieved successfully", slots)
}
