package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProviderProfile represents care-provider specific profile data
type ProviderProfile struct {
	UserID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"user_id"`
	Title          string          `gorm:"type:varchar(100)" json:"title,omitempty"`
	LicenseNumber  string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"license_number"`
	Specialization string          `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Biography      string          `gorm:"type:text" json:"biography,omitempty"`
	Services       datatypes.JSON  `gorm:"type:jsonb;not null;default:'[]'" json:"services"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	Rating         float64         `gorm:"not null;default:0" json:"rating"`
	VisitCount     int             `gorm:"not null;default:0" json:"visit_count"`
	HourlyRate     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"hourly_rate"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User         User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Availability []AvailabilityEntry `gorm:"foreignKey:ProviderID" json:"availability,omitempty"`
}

func (ProviderProfile) TableName() string {
	return "provider_profiles"
}

// ServiceList decodes the services column. A malformed column yields nil.
func (p *ProviderProfile) ServiceList() []string {
	if len(p.Services) == 0 {
		return nil
	}
	var services []string
	if err := json.Unmarshal(p.Services, &services); err != nil {
		return nil
	}
	return services
}

// Offers checks if the provider lists service
func (p *ProviderProfile) Offers(service string) bool {
	for _, s := range p.ServiceList() {
		if s == service {
			return true
		}
	}
	return false
}

// HasLocation reports whether the provider can take part in distance ranking
func (p *ProviderProfile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
