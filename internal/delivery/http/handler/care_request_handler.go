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

type CareRequestHandler struct {
	careRequestUsecase usecase.CareRequestUsecase
	validator          *validator.CustomValidator
}

func NewCareRequestHandler(careRequestUsecase usecase.CareRequestUsecase, validator *validator.CustomValidator) *CareRequestHandler {
	return &CareRequestHandler{
		careRequestUsecase: careRequestUsecase,
		validator:          validator,
	}
}

func (h *CareRequestHandler) CreateCareRequest(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCareRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	request, err := h.careRequestUsecase.CreateCareRequest(r.Context(), middleware.GetCallerIdentity(r.Context()), &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create care request")
		return
	}

	response.Success(w, http.StatusCreated, "Care request created successfully", request)
}

func (h *CareRequestHandler) ListMyCareRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.careRequestUsecase.ListMyCareRequests(r.Context(), middleware.GetCallerIdentity(r.Context()))
	if err != nil {
		writeUsecaseError(w, err, "Failed to get care requests")
		return
	}

	response.Success(w, http.StatusOK, "Care requests retrieved successfully", requests)
}

func (h *CareRequestHandler) GetCareRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid care request ID", nil)
		return
	}

	request, err := h.careRequestUsecase.GetCareRequest(r.Context(), middleware.GetCallerIdentity(r.Context()), id)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get care request")
		return
	}

	response.Success(w, http.StatusOK, "Care request retrieved successfully", request)
}

// MatchCareRequests lists open requests near the calling provider
func (h *CareRequestHandler) MatchCareRequests(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid lat", nil)
		return
	}
	lng, err := queryFloat(r, "lng")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid lng", nil)
		return
	}
	radius, err := queryFloat(r, "radius")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid radius", nil)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid limit", nil)
		return
	}

	query := dto.MatchCareRequestsQuery{
		Service:  r.URL.Query().Get("service"),
		Lat:      lat,
		Lng:      lng,
		RadiusKm: radius,
		Limit:    limit,
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	requests, err := h.careRequestUsecase.MatchCareRequests(r.Context(), middleware.GetCallerIdentity(r.Context()), &query)
	if err != nil {
		writeUsecaseError(w, err, "Failed to match care requests")
		return
	}

	response.Success(w, http.StatusOK, "Care requests matched successfully", requests)
}
