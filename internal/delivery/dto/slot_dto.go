package dto

import "github.com/google/uuid"

type SlotQuery struct {
	FromDate        string `validate:"required,date"`
	ToDate          string `validate:"required,date"`
	DurationMinutes int    `validate:"min=1,max=1440"`
}

// SlotsResponse lists bookable start times per date. Dates without slots are
// absent; encoding/json writes the keys in date order.
type SlotsResponse struct {
	ProviderID      uuid.UUID           `json:"provider_id"`
	FromDate        string              `json:"from_date"`
	ToDate          string              `json:"to_date"`
	DurationMinutes int                 `json:"duration_minutes"`
	Timezone        string              `json:"timezone"`
	Slots           map[string][]string `json:"slots"`
}
