package converter

import (
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
// Includes ProviderProfile and PatientProfile if they are loaded
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role.RoleName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if response.Role == "" {
		response.Role = roleNameByID(user.RoleID)
	}

	if user.ProviderProfile != nil {
		response.ProviderProfile = ProviderToResponse(user.ProviderProfile)
	}

	if user.PatientProfile != nil {
		response.PatientProfile = PatientProfileToResponse(user.PatientProfile)
	}

	return response
}

// PatientProfileToResponse converts a PatientProfile entity to PatientProfileResponse DTO
func PatientProfileToResponse(profile *entity.PatientProfile) *dto.PatientProfileResponse {
	if profile == nil {
		return nil
	}

	return &dto.PatientProfileResponse{
		UserID:      profile.UserID,
		PhoneNumber: profile.PhoneNumber,
		Address:     profile.Address,
		Latitude:    profile.Latitude,
		Longitude:   profile.Longitude,
	}
}

func roleNameByID(roleID int) string {
	switch roleID {
	case entity.RoleIDAdmin:
		return entity.RoleAdmin
	case entity.RoleIDProvider:
		return entity.RoleProvider
	case entity.RoleIDPatient:
		return entity.RolePatient
	}
	return ""
}
