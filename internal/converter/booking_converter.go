package converter

import (
	"encoding/json"

	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	response := &dto.BookingResponse{
		ID:                 booking.ID,
		ProviderID:         booking.ProviderID,
		PatientID:          booking.PatientID,
		CareRequestID:      booking.CareRequestID,
		Service:            booking.Service,
		ScheduledAt:        booking.ScheduledAt,
		EndsAt:             booking.EndsAt(),
		DurationMinutes:    int(booking.Duration().Minutes()),
		Status:             string(booking.Status),
		DeclineReason:      booking.DeclineReason,
		ReferredProviderID: booking.ReferredProviderID,
		PatientName:        booking.PatientName,
		PatientPhone:       booking.PatientPhone,
		AddressNotes:       booking.AddressNotes,
		Consent:            booking.Consent,
		IntakeTranscript:   booking.IntakeTranscript,
		IntakeSessionID:    booking.IntakeSessionID,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
	}

	if len(booking.IntakeKeywords) > 0 {
		var keywords []string
		if err := json.Unmarshal(booking.IntakeKeywords, &keywords); err == nil {
			response.IntakeKeywords = keywords
		}
	}

	// Include provider info if available
	if booking.Provider != nil {
		response.Provider = ProviderToResponse(booking.Provider)
	}
	if booking.ReferredProvider != nil {
		response.ReferredProvider = ProviderToResponse(booking.ReferredProvider)
	}

	return response
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = *BookingToResponse(&bookings[i])
	}
	return responses
}
