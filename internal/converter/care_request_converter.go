package converter

import (
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
)

// CareRequestToResponse converts a CareRequest entity to CareRequestResponse DTO
func CareRequestToResponse(request *entity.CareRequest) *dto.CareRequestResponse {
	if request == nil {
		return nil
	}

	return &dto.CareRequestResponse{
		ID:             request.ID,
		PatientID:      request.PatientID,
		Service:        request.Service,
		Description:    request.Description,
		RequestedStart: request.RequestedStart,
		Latitude:       request.Latitude,
		Longitude:      request.Longitude,
		Status:         string(request.Status),
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
	}
}

// CareRequestsToResponses converts a slice of CareRequest entities to slice of CareRequestResponse DTOs
func CareRequestsToResponses(requests []entity.CareRequest) []dto.CareRequestResponse {
	responses := make([]dto.CareRequestResponse, len(requests))
	for i := range requests {
		responses[i] = *CareRequestToResponse(&requests[i])
	}
	return responses
}
