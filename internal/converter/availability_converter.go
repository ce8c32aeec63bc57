package converter

import (
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
)

// AvailabilityEntryToResponse converts an AvailabilityEntry entity to AvailabilityEntryResponse DTO
func AvailabilityEntryToResponse(entry *entity.AvailabilityEntry) *dto.AvailabilityEntryResponse {
	if entry == nil {
		return nil
	}

	response := &dto.AvailabilityEntryResponse{
		ID:         entry.ID,
		ProviderID: entry.ProviderID,
		Kind:       string(entry.Kind),
		DayOfWeek:  entry.DayOfWeek,
		StartTime:  entry.StartTime,
		EndTime:    entry.EndTime,
		Notes:      entry.Notes,
		CreatedAt:  entry.CreatedAt,
	}

	if key := entry.DateKey(); key != "" {
		response.SpecificDate = &key
	}

	return response
}

// AvailabilityToListResponse splits entries into weekly hours and one-time exceptions
func AvailabilityToListResponse(entries []entity.AvailabilityEntry) *dto.AvailabilityListResponse {
	response := &dto.AvailabilityListResponse{
		Recurring: []dto.AvailabilityEntryResponse{},
		OneTime:   []dto.AvailabilityEntryResponse{},
	}

	for i := range entries {
		resp := AvailabilityEntryToResponse(&entries[i])
		if entries[i].IsRecurring() {
			response.Recurring = append(response.Recurring, *resp)
		} else {
			response.OneTime = append(response.OneTime, *resp)
		}
	}

	return response
}
