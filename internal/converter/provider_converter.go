package converter

import (
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/service"

	"github.com/google/uuid"
)

// ProviderToResponse converts a ProviderProfile entity to ProviderResponse DTO
func ProviderToResponse(profile *entity.ProviderProfile) *dto.ProviderResponse {
	if profile == nil {
		return nil
	}

	services := profile.ServiceList()
	if services == nil {
		services = []string{}
	}

	response := &dto.ProviderResponse{
		ID:             profile.UserID,
		Title:          profile.Title,
		LicenseNumber:  profile.LicenseNumber,
		Specialization: profile.Specialization,
		Biography:      profile.Biography,
		Services:       services,
		Latitude:       profile.Latitude,
		Longitude:      profile.Longitude,
		Rating:         profile.Rating,
		VisitCount:     profile.VisitCount,
		HourlyRate:     profile.HourlyRate,
	}

	// Include user info if loaded
	if profile.User.ID != uuid.Nil {
		response.FullName = profile.User.FullName
		response.IsActive = profile.User.IsActive
	}

	return response
}

// ProvidersToResponses converts a slice of ProviderProfile entities to slice of ProviderResponse DTOs
func ProvidersToResponses(profiles []entity.ProviderProfile) []dto.ProviderResponse {
	responses := make([]dto.ProviderResponse, len(profiles))
	for i := range profiles {
		responses[i] = *ProviderToResponse(&profiles[i])
	}
	return responses
}

// RankedProvidersToResponses converts matcher output, keeping its order
func RankedProvidersToResponses(ranked []service.RankedProvider) []dto.RankedProviderResponse {
	responses := make([]dto.RankedProviderResponse, len(ranked))
	for i := range ranked {
		responses[i] = dto.RankedProviderResponse{
			ProviderResponse: *ProviderToResponse(&ranked[i].Profile),
			DistanceKm:       ranked[i].DistanceKm,
		}
	}
	return responses
}
