package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of a state change or access denial.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
	User       string    `gorm:"size:255;not null;index" json:"user"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Details    string    `gorm:"type:text" json:"details"`
	EntityType string    `gorm:"size:50;index" json:"entity_type,omitempty"`
	EntityID   string    `gorm:"size:255;index" json:"entity_id,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
