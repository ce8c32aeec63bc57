package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogFilter narrows audit log listings. Zero values are ignored.
type AuditLogFilter struct {
	UserID *uuid.UUID
	Action string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
