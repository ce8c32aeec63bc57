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

type ProviderHandler struct {
	providerUsecase usecase.ProviderUsecase
	validator       *validator.CustomValidator
}

func NewProviderHandler(providerUsecase usecase.ProviderUsecase, validator *validator.CustomValidator) *ProviderHandler {
	return &ProviderHandler{
		providerUsecase: providerUsecase,
		validator:       validator,
	}
}

func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	provider, err := h.providerUsecase.GetProvider(r.Context(), providerID)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get provider")
		return
	}

	response.Success(w, http.StatusOK, "Provider retrieved successfully", provider)
}

func (h *ProviderHandler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	provider, err := h.providerUsecase.UpdateMyProfile(r.Context(), middleware.GetCallerIdentity(r.Context()), &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to update profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", provider)
}

// MatchProviders ranks providers offering a service near a point
// @Summary Match providers
// @Tags Providers
// @Produce json
// @Param service query string true "Service name"
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param when query string false "RFC3339 time the provider must be free"
// @Param radius query number false "Kilometres, default 50"
// @Param limit query int false "Default 10"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /providers/match [get]
func (h *ProviderHandler) MatchProviders(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil || lat == nil {
		response.Error(w, http.StatusBadRequest, "lat is required", nil)
		return
	}
	lng, err := queryFloat(r, "lng")
	if err != nil || lng == nil {
		response.Error(w, http.StatusBadRequest, "lng is required", nil)
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

	query := dto.MatchProvidersQuery{
		Service:  r.URL.Query().Get("service"),
		Lat:      *lat,
		Lng:      *lng,
		When:     r.URL.Query().Get("when"),
		RadiusKm: radius,
		Limit:    limit,
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	providers, err := h.providerUsecase.MatchProviders(r.Context(), &query)
	if err != nil {
		writeUsecaseError(w, err, "Failed to match providers")
		return
	}

	response.Success(w, http.StatusOK, "Providers matched successfully", providers)
}
