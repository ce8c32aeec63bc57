package dto

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLogQuery struct {
	UserID string `validate:"omitempty,uuid"`
	Action string `validate:"omitempty,max=100"`
	From   string `validate:"omitempty,date"`
	To     string `validate:"omitempty,date"`
	Limit  int    `validate:"omitempty,min=1,max=200"`
	Offset int    `validate:"omitempty,min=0"`
}

// Response DTOs

type AuditLogResponse struct {
	ID        int64             `json:"id"`
	User      *UserResponse     `json:"user,omitempty"`
	Action    string            `json:"action"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
}
